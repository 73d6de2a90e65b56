package dynamo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrItemNotFound is returned when a table record is missing or expired.
var ErrItemNotFound = errors.New("item not found")

// Clock is a function type that returns the current time for dependency injection.
type Clock func() time.Time

// DefaultClock returns the current UTC time.
func DefaultClock() time.Time {
	return time.Now().UTC()
}

const (
	// TablePrefix prefixes the hash key of table records.
	TablePrefix = "table"
	// PagePrefix prefixes the hash key of pagination cursor records.
	PagePrefix = "page"
)

const (
	AttributeNameSource     = "hk"
	AttributeNameTarget     = "sk"
	AttributeNameLabel      = "label"
	AttributeNameCreated    = "created_at"
	AttributeNameUpdated    = "updated_at"
	AttributeNameExpires    = "expires"
	AttributeNameData       = "data"
	AttributeNameRefSortKey = "gsi1_sk"
)

// MarshalOptions contains configuration options for marshaling records.
type MarshalOptions struct {
	Prefix       string        // Hash key prefix, usually TablePrefix
	Label        string        // The record label; defaults to Prefix
	TimeToLive   time.Duration // The lifetime of the record
	Created      time.Time     // Creation timestamp
	Updated      time.Time     // Modification timestamp
	Tick         Clock         // Function to get current time for timestamps
	KeyDelimiter string        // Delimiter to join prefix and key. Default is '#'.
}

// PutOption adjusts the MarshalOptions of a single record. PutOptions may be
// passed as extra write arguments to [Store.Write].
type PutOption = func(*MarshalOptions)

// WithTTL expires the written record after d.
func WithTTL(d time.Duration) PutOption {
	return func(mo *MarshalOptions) {
		mo.TimeToLive = d
	}
}

// WithTimestamp fixes the creation and modification time of the record.
func WithTimestamp(t time.Time) PutOption {
	return func(mo *MarshalOptions) {
		mo.Created = t
		mo.Updated = t
	}
}

func (mo *MarshalOptions) apply(opts []PutOption) {
	for _, opt := range opts {
		opt(mo)
	}
}

func (mo MarshalOptions) hashKey(key string) string {
	return mo.Prefix + mo.KeyDelimiter + key
}

func (mo MarshalOptions) label() string {
	if mo.Label == "" {
		return mo.Prefix
	}
	return mo.Label
}

func newMarshalOptions(opts ...PutOption) MarshalOptions {
	options := MarshalOptions{
		Prefix:       TablePrefix,
		Tick:         DefaultClock,
		KeyDelimiter: "#",
	}
	options.apply(opts)
	return options
}

// Record is the stored form of a single table. The hash and sort keys are
// both "<prefix>#<key>"; the ref index is keyed on label and the bare key so
// that records can be listed by label and key prefix:
//
//	| hk           | sk           | label | gsi1_sk | data |
//	| ============ | ============ | ===== | ======= | ==== |
//	| table#orders | table#orders | table | orders  | ...  |
//	| page#c1      | page#c1      | page  | c1      | ...  |
type Record struct {
	Source    string    `dynamodbav:"hk"`                // Prefixed key
	Target    string    `dynamodbav:"sk"`                // Prefixed key (same as Source)
	Label     string    `dynamodbav:"label"`             // Record kind
	CreatedAt time.Time `dynamodbav:"created_at"`        // creation timestamp
	UpdatedAt time.Time `dynamodbav:"updated_at"`        // modification timestamp
	Expires   time.Time `dynamodbav:"expires,unixtime"`  // time-to-live attribute
	Data      any       `dynamodbav:"data"`              // table value; NULL for nil
	GSI1SK    string    `dynamodbav:"gsi1_sk,omitempty"` // bare resource key
}

// NewRecord creates the record storing data under key.
func NewRecord(key string, data any, opts MarshalOptions) Record {
	if opts.Created.IsZero() {
		opts.Created = opts.Tick()
	}
	if opts.Updated.IsZero() {
		opts.Updated = opts.Tick()
	}

	rec := Record{
		Source:    opts.hashKey(key),
		Target:    opts.hashKey(key),
		Label:     opts.label(),
		CreatedAt: opts.Created,
		UpdatedAt: opts.Updated,
		Data:      data,
		GSI1SK:    key,
	}

	if opts.TimeToLive > 0 {
		rec.Expires = opts.Created.Add(opts.TimeToLive)
	}

	return rec
}

// Expired reports whether the record has a time-to-live that has passed. DynamoDB
// deletes expired items lazily, so readers must check.
func (r Record) Expired(now time.Time) bool {
	if r.Expires.Unix() <= 0 {
		return false
	}
	return !now.Before(r.Expires)
}

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// UnmarshalRecord extracts the data out of item into out, then unmarshals the
// entire item to a [Record]. A NULL data attribute sets out to its zero value.
func UnmarshalRecord(item Item, out any) (Record, error) {
	var rec Record
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	data, ok := item[AttributeNameData]
	if !ok {
		return rec, fmt.Errorf("data attribute not found")
	}
	if _, null := data.(*types.AttributeValueMemberNULL); null {
		v := reflect.ValueOf(out)
		if v.Kind() != reflect.Pointer || v.IsNil() {
			return rec, fmt.Errorf("failed to unmarshal data: out must be a non-nil pointer, got %T", out)
		}
		v.Elem().SetZero()
		return rec, nil
	}
	if err := attributevalue.Unmarshal(data, out); err != nil {
		return rec, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return rec, nil
}

// UnmarshalKey extracts the bare resource key from a record item.
func UnmarshalKey(item Item) (string, error) {
	attr, ok := item[AttributeNameRefSortKey]
	if !ok {
		return "", fmt.Errorf("ref sort key not found")
	}

	var key string
	if err := attributevalue.Unmarshal(attr, &key); err != nil {
		return "", fmt.Errorf("failed to unmarshal ref sort key: %w", err)
	}
	return key, nil
}

// Client is the subset of the DynamoDB API used by this package.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}
