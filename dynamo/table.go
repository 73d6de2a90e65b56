package dynamo

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table contains DynamoDB table configuration and marshal options.
type Table struct {
	TableName     string        // Main table name
	RefIndexName  string        // Ref index name (maps to gsi1_sk attribute)
	KeyDelimiter  string        // Delimiter for hash and sort keys. Default is '#'.
	PaginationTTL time.Duration // TTL for pagination cursors stored in table
}

// NewTable creates a new Table with default configuration.
func NewTable(tableName string) *Table {
	return &Table{
		TableName:     tableName,
		RefIndexName:  "ref-index",
		KeyDelimiter:  "#",
		PaginationTTL: 24 * time.Hour,
	}
}

func (t *Table) marshalOptions(opts []PutOption) MarshalOptions {
	return newMarshalOptions(func(mo *MarshalOptions) {
		mo.KeyDelimiter = t.KeyDelimiter
		mo.apply(opts)
	})
}

func (t *Table) key(key string, opts []PutOption) (Item, error) {
	if key == "" {
		return nil, fmt.Errorf("empty resource key")
	}

	hashKey := t.marshalOptions(opts).hashKey(key)
	return Item{
		AttributeNameSource: &types.AttributeValueMemberS{Value: hashKey},
		AttributeNameTarget: &types.AttributeValueMemberS{Value: hashKey},
	}, nil
}

// MarshalPut marshals data into a put item request for the record stored
// under key.
func (t *Table) MarshalPut(key string, data any, opts ...PutOption) (*dynamodb.PutItemInput, error) {
	if key == "" {
		return nil, fmt.Errorf("empty resource key")
	}

	rec := NewRecord(key, data, t.marshalOptions(opts))
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	return &dynamodb.PutItemInput{
		TableName: aws.String(t.TableName),
		Item:      item,
	}, nil
}

// MarshalGet marshals a get item request for the record stored under key.
func (t *Table) MarshalGet(key string, opts ...PutOption) (*dynamodb.GetItemInput, error) {
	k, err := t.key(key, opts)
	if err != nil {
		return nil, err
	}

	return &dynamodb.GetItemInput{
		TableName: aws.String(t.TableName),
		Key:       k,
	}, nil
}

// MarshalDelete marshals a delete item request for the record stored under key.
func (t *Table) MarshalDelete(key string, opts ...PutOption) (*dynamodb.DeleteItemInput, error) {
	k, err := t.key(key, opts)
	if err != nil {
		return nil, err
	}

	return &dynamodb.DeleteItemInput{
		TableName: aws.String(t.TableName),
		Key:       k,
	}, nil
}

// MarshalList marshals the input into a query request on the ref index.
func (t *Table) MarshalList(q *ListQuery, opts ...PutOption) (*dynamodb.QueryInput, error) {
	marshalOpts := t.marshalOptions(opts)

	input, err := q.MarshalQuery(&marshalOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	input.TableName = aws.String(t.TableName)
	input.IndexName = aws.String(t.RefIndexName)
	return input, nil
}
