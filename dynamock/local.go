package dynamock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/lazytables/dynamo"
)

// DefaultLocalPort is the default port for DynamoDB Local.
const DefaultLocalPort = 8000

// LocalDynamoDB represents a connection to a local DynamoDB instance.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient creates a DynamoDB client for a DynamoDB Local instance
// listening on port.
func NewLocalClient(port int) *dynamodb.Client {
	cfg := aws.Config{
		Region:      "us-east-1", // DynamoDB Local doesn't care about region
		Credentials: aws.AnonymousCredentials{},
	}
	return NewLocalClientFromConfig(cfg, port)
}

// NewLocalClientFromConfig creates a local DynamoDB client using the provided
// AWS config with its endpoint pointed at localhost.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	endpoint := fmt.Sprintf("http://localhost:%d", port)
	cfg.Credentials = aws.AnonymousCredentials{}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// NewLocalDynamoDB creates a LocalDynamoDB instance with the specified port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: fmt.Sprintf("http://localhost:%d", port),
		Port:     port,
	}
}

// IsAvailable checks if DynamoDB Local is running on the configured port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// CreateTable creates a DynamoDB table with the key schema and ref index
// expected by the given table configuration, and waits for it to be active.
func (l *LocalDynamoDB) CreateTable(ctx context.Context, table *dynamo.Table) error {
	throughput := &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(5),
		WriteCapacityUnits: aws.Int64(5),
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(table.TableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamo.AttributeNameSource), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttributeNameTarget), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttributeNameLabel), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttributeNameRefSortKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamo.AttributeNameSource), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(dynamo.AttributeNameTarget), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(table.RefIndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(dynamo.AttributeNameLabel), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(dynamo.AttributeNameRefSortKey), KeyType: types.KeyTypeRange},
				},
				Projection:            &types.Projection{ProjectionType: types.ProjectionTypeAll},
				ProvisionedThroughput: throughput,
			},
		},
		ProvisionedThroughput: throughput,
	}

	if _, err := l.Client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.TableName, err)
	}

	return l.waitFor(ctx, table.TableName, 30*time.Second, func(out *dynamodb.DescribeTableOutput, err error) (bool, error) {
		if err != nil {
			return false, fmt.Errorf("failed to describe table %s: %w", table.TableName, err)
		}
		return out.Table.TableStatus == types.TableStatusActive, nil
	})
}

// DeleteTable deletes a table and waits for it to be fully deleted.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	_, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}

	return l.waitFor(ctx, tableName, 30*time.Second, func(_ *dynamodb.DescribeTableOutput, err error) (bool, error) {
		var notFoundErr *types.ResourceNotFoundException
		if errors.As(err, &notFoundErr) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("error checking table deletion status: %w", err)
		}
		return false, nil
	})
}

func (l *LocalDynamoDB) waitFor(ctx context.Context, tableName string, timeout time.Duration, done func(*dynamodb.DescribeTableOutput, error) (bool, error)) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		out, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})

		if ok, err := done(out, err); err != nil {
			return err
		} else if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return fmt.Errorf("table %s did not settle within %v", tableName, timeout)
}
