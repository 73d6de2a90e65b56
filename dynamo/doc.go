// Package dynamo stores lazytables tables in a single DynamoDB table, using
// the AWS SDK for Go v2.
//
// Each table value is stored as one record whose hash and sort keys are the
// prefixed resource key:
//   - hk (hash key): "table#<key>"
//   - sk (sort key): "table#<key>"
//   - label: "table"
//   - gsi1_sk: the bare key, the sort key of the ref index
//   - data: the table value
//
// # Basic Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	ddb := dynamodb.NewFromConfig(cfg)
//
//	store := dynamo.NewStore[Report](ddb, dynamo.NewTable("reports"))
//	tables := lazytables.New(schema, store.Read, lazytables.WithWriter(store.Write))
//
//	// Extra write arguments are PutOptions
//	_, err = tables.Write().Put(ctx, "daily", report, dynamo.WithTTL(48*time.Hour))
//
// # Listing
//
// Stored keys can be listed by prefix. Cursors are stored in the same table
// and expire with the table's PaginationTTL:
//
//	page, err := store.List(ctx, dynamo.ListOptions{Prefix: "daily", Limit: 10})
//	next, err := store.List(ctx, dynamo.ListOptions{Cursor: page.Cursor, Limit: 10})
package dynamo
