package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// SeedJSON decodes a JSON object of resource keys to table values from r and
// writes each entry with write, in key order. write has the shape of a
// lazytables write function, so a dynamo.Store's Write method can be passed
// directly. Returns the number of tables written.
//
//	{
//	  "orders":    [{"id": "O1"}],
//	  "customers": [{"id": "C1"}]
//	}
func SeedJSON[T any](ctx context.Context, write func(ctx context.Context, key string, value T, extra ...any) error, r io.Reader) (int, error) {
	var document map[string]T
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return 0, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	keys := make([]string, 0, len(document))
	for key := range document {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	count := 0
	for _, key := range keys {
		if err := write(ctx, key, document[key]); err != nil {
			return count, fmt.Errorf("failed to seed table %s: %w", key, err)
		}
		count++
	}

	return count, nil
}
