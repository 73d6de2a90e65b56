// Package dynamock provides testing utilities for the dynamo package.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - An in-memory DynamoDB client for tests that exercise real reads and writes
//   - Local DynamoDB integration utilities
//   - JSON seeding helpers
//
// # Mock Client
//
// The MockClient fails the test on any operation you haven't set:
//
//	mock := dynamock.NewMockClient(t)
//	mock.GetFunc = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
//		return nil, errors.New("throttled")
//	}
//
//	store := dynamo.NewStore[string](mock, dynamo.NewTable("test-table"))
//	_, err := store.Read(ctx, "orders")
//
// # Memory Client
//
// The MemoryClient keeps items in a map and answers the queries marshaled by
// dynamo.Table:
//
//	client := dynamock.NewMemoryClient()
//	store := dynamo.NewStore[[]Order](client, dynamo.NewTable("test-table"))
//	tables := lazytables.New(schema, store.Read, lazytables.WithWriter(store.Write))
//
// # Seeding
//
//	n, err := dynamock.SeedJSON(ctx, store.Write, strings.NewReader(`{"orders": []}`))
//
// # Local DynamoDB
//
// Integration tests run against DynamoDB Local and are skipped when it is not
// reachable:
//
//	dynamock.WithDefaultLocalDynamoDB(t, func(local *dynamock.LocalDynamoDB) {
//		dynamock.WithIsolatedTable(t, local, func(table *dynamo.Table) {
//			store := dynamo.NewStore[string](local.Client, table)
//			// ...
//		})
//	})
package dynamock
