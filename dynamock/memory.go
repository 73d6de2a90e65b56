package dynamock

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/lazytables/dynamo"
)

var (
	equalPattern      = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)
	beginsWithPattern = regexp.MustCompile(`begins_with\s*\(\s*(#\w+)\s*,\s*(:\w+)\s*\)`)
)

// MemoryClient is an in-memory stand-in for DynamoDB that understands the
// requests marshaled by [dynamo.Table]: key based get, put and delete, and
// ref index queries on label with an optional begins_with on the sort key.
// Filter expressions are ignored. A LastEvaluatedKey is returned only when a
// limited query leaves items behind.
type MemoryClient struct {
	mu    sync.Mutex
	items map[string]dynamo.Item
}

// Ensure MemoryClient implements dynamo.Client
var _ dynamo.Client = (*MemoryClient)(nil)

// NewMemoryClient creates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{items: make(map[string]dynamo.Item)}
}

func stringAttr(item dynamo.Item, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func itemKey(item dynamo.Item) (string, error) {
	hk := stringAttr(item, dynamo.AttributeNameSource)
	sk := stringAttr(item, dynamo.AttributeNameTarget)
	if hk == "" || sk == "" {
		return "", fmt.Errorf("item is missing %s or %s", dynamo.AttributeNameSource, dynamo.AttributeNameTarget)
	}
	return hk + "|" + sk, nil
}

// PutItem stores the item, replacing any item with the same key.
func (m *MemoryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// GetItem returns the item with the given key, or an output with a nil item.
func (m *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

// DeleteItem removes the item with the given key.
func (m *MemoryClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

type condition struct {
	attr   string
	value  string
	prefix bool
}

func (c condition) match(item dynamo.Item) bool {
	v, ok := item[c.attr].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	if c.prefix {
		return strings.HasPrefix(v.Value, c.value)
	}
	return v.Value == c.value
}

func parseKeyCondition(params *dynamodb.QueryInput) ([]condition, error) {
	expr := aws.ToString(params.KeyConditionExpression)
	if expr == "" {
		return nil, fmt.Errorf("missing key condition expression")
	}

	resolve := func(name, value string) (condition, error) {
		attr, ok := params.ExpressionAttributeNames[name]
		if !ok {
			return condition{}, fmt.Errorf("unknown attribute name %s", name)
		}
		v, ok := params.ExpressionAttributeValues[value].(*types.AttributeValueMemberS)
		if !ok {
			return condition{}, fmt.Errorf("attribute value %s is not a string", value)
		}
		return condition{attr: attr, value: v.Value}, nil
	}

	var conditions []condition
	for _, match := range beginsWithPattern.FindAllStringSubmatch(expr, -1) {
		c, err := resolve(match[1], match[2])
		if err != nil {
			return nil, err
		}
		c.prefix = true
		conditions = append(conditions, c)
	}

	for _, match := range equalPattern.FindAllStringSubmatch(beginsWithPattern.ReplaceAllString(expr, ""), -1) {
		c, err := resolve(match[1], match[2])
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}

	return conditions, nil
}

// Query evaluates the key condition over the stored items, ordered by the
// ref index sort key.
func (m *MemoryClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	conditions, err := parseKeyCondition(params)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	var matched []dynamo.Item
	for _, item := range m.items {
		ok := true
		for _, c := range conditions {
			if !c.match(item) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, item)
		}
	}
	m.mu.Unlock()

	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		a := stringAttr(matched[i], dynamo.AttributeNameRefSortKey) + "|" + stringAttr(matched[i], dynamo.AttributeNameSource)
		b := stringAttr(matched[j], dynamo.AttributeNameRefSortKey) + "|" + stringAttr(matched[j], dynamo.AttributeNameSource)
		if forward {
			return a < b
		}
		return a > b
	})

	if params.ExclusiveStartKey != nil {
		start, err := itemKey(params.ExclusiveStartKey)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusive start key: %w", err)
		}
		for i, item := range matched {
			if key, _ := itemKey(item); key == start {
				matched = matched[i+1:]
				break
			}
		}
	}

	output := &dynamodb.QueryOutput{}
	if limit := int(aws.ToInt32(params.Limit)); limit > 0 && len(matched) > limit {
		last := matched[limit-1]
		output.LastEvaluatedKey = dynamo.Item{
			dynamo.AttributeNameSource:     last[dynamo.AttributeNameSource],
			dynamo.AttributeNameTarget:     last[dynamo.AttributeNameTarget],
			dynamo.AttributeNameLabel:      last[dynamo.AttributeNameLabel],
			dynamo.AttributeNameRefSortKey: last[dynamo.AttributeNameRefSortKey],
		}
		matched = matched[:limit]
	}

	output.Items = matched
	output.Count = int32(len(matched))
	return output, nil
}

// Items returns all stored items ordered by hash key.
func (m *MemoryClient) Items() []dynamo.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]dynamo.Item, len(keys))
	for i, key := range keys {
		items[i] = m.items[key]
	}
	return items
}

// Len returns the number of stored items.
func (m *MemoryClient) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
