// Command lazytables reads and writes the tables of a lazy table space stored
// in a DynamoDB table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

func main() {
	var (
		configFile = flag.String("config", "lazytables.yaml", "Path to the YAML config file")
		endpoint   = flag.String("endpoint", "", "DynamoDB endpoint (overrides config)")
		noCache    = flag.Bool("no-cache", false, "Disable the read cache")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *noCache {
		disabled := false
		cfg.Cache = &disabled
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := cfg.NewClient(ctx)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	cli, err := newApp(cfg, client, logger, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("Invalid table declarations: %v", err)
	}

	if err := cli.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
