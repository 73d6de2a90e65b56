package dynamock

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nisimpson/lazytables/dynamo"
)

// WithLocalDynamoDB runs fn against a DynamoDB Local instance on port, and
// skips the test if none is reachable or the test runs in short mode.
func WithLocalDynamoDB(t *testing.T, port int, fn func(local *LocalDynamoDB)) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	local := NewLocalDynamoDB(port)
	if !local.IsAvailable(context.Background()) {
		t.Skipf("DynamoDB Local not available on port %d", port)
	}

	fn(local)
}

// WithDefaultLocalDynamoDB runs fn against DynamoDB Local on the default port.
func WithDefaultLocalDynamoDB(t *testing.T, fn func(local *LocalDynamoDB)) {
	t.Helper()
	WithLocalDynamoDB(t, DefaultLocalPort, fn)
}

// WithIsolatedTable creates a uniquely named table for the test and deletes
// it when the test finishes.
func WithIsolatedTable(t *testing.T, local *LocalDynamoDB, fn func(table *dynamo.Table)) {
	t.Helper()
	ctx := context.Background()
	table := dynamo.NewTable(NewTestTable(t.Name()))

	if err := local.CreateTable(ctx, table); err != nil {
		t.Fatalf("Failed to create test table %s: %v", table.TableName, err)
	}

	t.Cleanup(func() {
		if err := local.DeleteTable(ctx, table.TableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", table.TableName, err)
		}
	})

	fn(table)
}

// NewTestTable generates a unique table name for testing. DynamoDB table
// names only allow letters, digits, '_', '-' and '.'.
func NewTestTable(prefix string) string {
	prefix = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, prefix)
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
