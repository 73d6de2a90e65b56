package dynamo

import (
	"context"
	"fmt"
	"math"
)

// Store reads and writes table values as records in a single DynamoDB table.
// Its Read and Write methods have the shape of lazytables read and write
// functions:
//
//	store := dynamo.NewStore[Report](ddb, dynamo.NewTable("reports"))
//	tables := lazytables.New(schema, store.Read, lazytables.WithWriter(store.Write))
type Store[T any] struct {
	Tick Clock // Clock used to check record expiry

	client    Client
	table     *Table
	paginator Paginator
}

// NewStore creates a Store backed by the given client and table.
func NewStore[T any](client Client, table *Table) *Store[T] {
	return &Store[T]{
		Tick:      DefaultClock,
		client:    client,
		table:     table,
		paginator: table.Paginator(client),
	}
}

// Table returns the table configuration of the store.
func (s *Store[T]) Table() *Table {
	return s.table
}

// Read returns the value stored under key. Missing and expired records
// return an error wrapping [ErrItemNotFound].
func (s *Store[T]) Read(ctx context.Context, key string) (T, error) {
	var value T

	input, err := s.table.MarshalGet(key)
	if err != nil {
		return value, fmt.Errorf("failed to marshal get request: %w", err)
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return value, fmt.Errorf("failed to get table %s: %w", key, err)
	}

	if result.Item == nil {
		return value, fmt.Errorf("table %s: %w", key, ErrItemNotFound)
	}

	rec, err := UnmarshalRecord(result.Item, &value)
	if err != nil {
		return value, fmt.Errorf("failed to unmarshal table %s: %w", key, err)
	}

	if rec.Expired(s.Tick()) {
		var zero T
		return zero, fmt.Errorf("table %s: %w", key, ErrItemNotFound)
	}

	return value, nil
}

// Write stores value under key. Extra arguments must be [PutOption] values,
// such as [WithTTL]; any other argument is rejected before the write.
func (s *Store[T]) Write(ctx context.Context, key string, value T, extra ...any) error {
	opts := make([]PutOption, 0, len(extra))
	for i, arg := range extra {
		opt, ok := arg.(PutOption)
		if !ok {
			return fmt.Errorf("unsupported write argument %d of type %T", i, arg)
		}
		opts = append(opts, opt)
	}

	input, err := s.table.MarshalPut(key, value, opts...)
	if err != nil {
		return fmt.Errorf("failed to marshal put request: %w", err)
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to put table %s: %w", key, err)
	}

	return nil
}

// Delete removes the record stored under key. Missing records are ignored.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	input, err := s.table.MarshalDelete(key)
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}

	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", key, err)
	}

	return nil
}

// ListOptions narrows and pages the result of [Store.List].
type ListOptions struct {
	Prefix string // Only list keys with this prefix
	Limit  int    // Maximum number of keys per page, up to MaxInt32; 0 means no limit
	Cursor string // Cursor returned by a previous page
}

// ListResult is a single page of stored keys.
type ListResult struct {
	Keys   []string // Stored resource keys, in key order
	Cursor string   // Cursor of the next page; empty on the last page
}

// List returns the keys of stored tables, one page at a time.
func (s *Store[T]) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	var result ListResult

	if opts.Limit < 0 || opts.Limit > math.MaxInt32 {
		return result, fmt.Errorf("invalid list limit %d: must be between 0 and %d", opts.Limit, math.MaxInt32)
	}

	startKey, err := s.paginator.StartKey(ctx, opts.Cursor)
	if err != nil {
		return result, fmt.Errorf("failed to resolve cursor: %w", err)
	}

	input, err := s.table.MarshalList(&ListQuery{
		Label:     TablePrefix,
		KeyPrefix: opts.Prefix,
		Limit:     opts.Limit,
		StartKey:  startKey,
	})
	if err != nil {
		return result, err
	}

	output, err := s.client.Query(ctx, input)
	if err != nil {
		return result, fmt.Errorf("failed to query tables: %w", err)
	}

	result.Keys = make([]string, 0, len(output.Items))
	for i, item := range output.Items {
		key, err := UnmarshalKey(item)
		if err != nil {
			return result, fmt.Errorf("failed to unmarshal item %d: %w", i, err)
		}
		result.Keys = append(result.Keys, key)
	}

	result.Cursor, err = s.paginator.PageCursor(ctx, output.LastEvaluatedKey)
	if err != nil {
		return result, fmt.Errorf("failed to create cursor: %w", err)
	}

	return result, nil
}
