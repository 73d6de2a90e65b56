package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/gobwas/glob"
	"github.com/nisimpson/lazytables"
	"github.com/nisimpson/lazytables/dynamo"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

const usage = `Usage: lazytables [flags] <command> [args]

Commands:
  tables [-match glob]                       list declared tables
  get NAME...                                print tables as JSON
  put NAME JSON | put -batch JSON-object     write tables
  keys [-prefix p] [-limit n] [-cursor c]    list stored keys
`

// app runs commands against a table space backed by a DynamoDB store.
type app struct {
	schema *lazytables.Schema
	store  *dynamo.Store[any]
	space  *lazytables.Space[any]
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *Config, client dynamo.Client, logger *zap.Logger, out, errOut io.Writer) (*app, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}

	store := dynamo.NewStore[any](client, cfg.DynamoTable())
	space := lazytables.New(schema, store.Read,
		lazytables.WithWriter(store.Write),
		lazytables.WithCache[any](cfg.CacheEnabled()),
		lazytables.WithRefetchEmpty[any](cfg.RefetchEmpty),
		lazytables.WithLogger[any](logger),
	)

	return &app{
		schema: schema,
		store:  store,
		space:  space,
		logger: logger,
		out:    out,
		errOut: errOut,
	}, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	a.logger.Debug("running command", zap.String("command", args[0]), zap.Strings("args", args[1:]))

	switch args[0] {
	case "tables":
		return a.tables(args[1:])
	case "get":
		return a.get(ctx, args[1:])
	case "put":
		return a.put(ctx, args[1:])
	case "keys":
		return a.keys(ctx, args[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) tables(args []string) error {
	fs := a.flags("tables")
	match := fs.String("match", "*", "Glob pattern of table names to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := glob.Compile(*match)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", *match, err)
	}

	for _, name := range a.schema.Names() {
		if !g.Match(name) {
			continue
		}
		key, _ := a.schema.Key(name)
		fmt.Fprintf(a.out, "%s\t%s\n", name, key)
	}
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: get needs at least one table name", errUsage)
	}

	values := make(map[string]any, len(args))
	for _, name := range args {
		value, err := a.space.Get(ctx, name)
		if err != nil {
			return err
		}
		values[name] = value
	}

	return a.print(values)
}

func (a *app) put(ctx context.Context, args []string) error {
	fs := a.flags("put")
	batch := fs.String("batch", "", "JSON object of table names to values")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *batch != "" {
		if fs.NArg() != 0 {
			return fmt.Errorf("%w: put -batch takes no positional arguments", errUsage)
		}

		var values map[string]any
		if err := json.Unmarshal([]byte(*batch), &values); err != nil {
			return fmt.Errorf("invalid batch: %w", err)
		}
		for name, value := range values {
			if value == nil {
				return fmt.Errorf("invalid value for %s: null", name)
			}
		}

		if _, err := a.space.Write().PutAll(ctx, lazytables.BatchOf(values)); err != nil {
			return err
		}
		a.logger.Info("tables written", zap.Int("count", len(values)))
		return nil
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("%w: put needs a table name and a JSON value", errUsage)
	}

	var value any
	if err := json.Unmarshal([]byte(fs.Arg(1)), &value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", fs.Arg(0), err)
	}
	if value == nil {
		return fmt.Errorf("invalid value for %s: null", fs.Arg(0))
	}

	if _, err := a.space.Write().Put(ctx, fs.Arg(0), value); err != nil {
		return err
	}
	a.logger.Info("table written", zap.String("table", fs.Arg(0)))
	return nil
}

func (a *app) keys(ctx context.Context, args []string) error {
	fs := a.flags("keys")
	prefix := fs.String("prefix", "", "Only list keys with this prefix")
	limit := fs.Int("limit", 0, "Maximum number of keys; 0 for no limit")
	cursor := fs.String("cursor", "", "Cursor returned by a previous page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.store.List(ctx, dynamo.ListOptions{
		Prefix: *prefix,
		Limit:  *limit,
		Cursor: *cursor,
	})
	if err != nil {
		return err
	}

	for _, key := range result.Keys {
		fmt.Fprintln(a.out, key)
	}
	if result.Cursor != "" {
		fmt.Fprintf(a.errOut, "next page: -cursor %s\n", result.Cursor)
	}
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
