package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/lazytables"
	"github.com/nisimpson/lazytables/dynamo"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the command.
//
//	table: reports
//	region: us-east-1
//	tables:
//	  daily: reports/daily
//	  weekly: reports/weekly
//	  summary:            # key defaults to the name
type Config struct {
	Table         string            `yaml:"table"`
	Index         string            `yaml:"index"`
	Region        string            `yaml:"region"`
	Endpoint      string            `yaml:"endpoint"`
	Cache         *bool             `yaml:"cache"`
	RefetchEmpty  bool              `yaml:"refetch_empty"`
	PaginationTTL time.Duration     `yaml:"pagination_ttl"`
	Tables        map[string]string `yaml:"tables"`
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Table == "" {
		errs = append(errs, errors.New("config: table is required"))
	}
	if len(c.Tables) == 0 {
		errs = append(errs, errors.New("config: at least one table must be declared"))
	}
	if c.PaginationTTL < 0 {
		errs = append(errs, errors.New("config: pagination_ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// CacheEnabled reports whether reads are cached. Caching is on unless the
// configuration turns it off.
func (c *Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// Schema declares the configured tables, in name order.
func (c *Config) Schema() (*lazytables.Schema, error) {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	decls := make([]lazytables.Decl, 0, len(names))
	for _, name := range names {
		decls = append(decls, lazytables.TableKey(name, c.Tables[name]))
	}
	return lazytables.Define(decls...)
}

// DynamoTable returns the table layout of the configured DynamoDB table.
func (c *Config) DynamoTable() *dynamo.Table {
	table := dynamo.NewTable(c.Table)
	if c.Index != "" {
		table.RefIndexName = c.Index
	}
	if c.PaginationTTL > 0 {
		table.PaginationTTL = c.PaginationTTL
	}
	return table
}

// NewClient loads the default AWS configuration, applying the configured
// region and endpoint.
func (c *Config) NewClient(ctx context.Context) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}
