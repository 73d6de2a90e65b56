package dynamo

import (
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ListQuery searches the ref index for records with a specific label,
// optionally narrowed to keys with a common prefix.
type ListQuery struct {
	Label           string                      // The record label; defaults to the marshal options label
	KeyPrefix       string                      // Optional prefix of the bare resource keys
	ConditionFilter expression.ConditionBuilder // Optional filters on the record
	Limit           int                         // Maximum number of items to return; capped at MaxInt32
	StartKey        Item                        // Exclusive start key for pagination
	SortDescending  bool                        // Scan direction (default: false)
}

// MarshalQuery marshals the list query into a dynamodb query request.
func (q *ListQuery) MarshalQuery(opts *MarshalOptions) (*dynamodb.QueryInput, error) {
	label := q.Label
	if label == "" {
		label = opts.label()
	}

	keyCondition := expression.Key(AttributeNameLabel).Equal(expression.Value(label))
	if q.KeyPrefix != "" {
		keyCondition = keyCondition.And(expression.Key(AttributeNameRefSortKey).BeginsWith(q.KeyPrefix))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if q.ConditionFilter.IsSet() {
		builder = builder.WithFilter(q.ConditionFilter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.SortDescending),
	}

	if q.ConditionFilter.IsSet() {
		input.FilterExpression = expr.Filter()
	}

	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(min(q.Limit, math.MaxInt32)))
	}

	if q.StartKey != nil {
		input.ExclusiveStartKey = q.StartKey
	}

	return input, nil
}
