package dynamock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/lazytables/dynamo"
)

func putTable(t *testing.T, client *MemoryClient, table *dynamo.Table, key string, data any, opts ...dynamo.PutOption) {
	t.Helper()
	input, err := table.MarshalPut(key, data, opts...)
	if err != nil {
		t.Fatalf("MarshalPut failed: %v", err)
	}
	if _, err := client.PutItem(context.Background(), input); err != nil {
		t.Fatalf("PutItem failed: %v", err)
	}
}

func listKeys(t *testing.T, output *dynamodb.QueryOutput) []string {
	t.Helper()
	keys := make([]string, 0, len(output.Items))
	for _, item := range output.Items {
		key, err := dynamo.UnmarshalKey(item)
		if err != nil {
			t.Fatalf("UnmarshalKey failed: %v", err)
		}
		keys = append(keys, key)
	}
	return keys
}

func sameKeys(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestMemoryClient_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryClient()
	table := dynamo.NewTable("test-table")

	putTable(t, client, table, "orders", "v1")
	putTable(t, client, table, "orders", "v2")

	if client.Len() != 1 {
		t.Fatalf("expected 1 item after overwrite, got %d", client.Len())
	}

	get, err := table.MarshalGet("orders")
	if err != nil {
		t.Fatalf("MarshalGet failed: %v", err)
	}
	output, err := client.GetItem(ctx, get)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}

	var data string
	if _, err := dynamo.UnmarshalRecord(output.Item, &data); err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}
	if data != "v2" {
		t.Errorf("expected v2, got %s", data)
	}

	del, err := table.MarshalDelete("orders")
	if err != nil {
		t.Fatalf("MarshalDelete failed: %v", err)
	}
	if _, err := client.DeleteItem(ctx, del); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	output, err = client.GetItem(ctx, get)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if output.Item != nil {
		t.Error("expected nil item after delete")
	}
}

func TestMemoryClient_MissingKey(t *testing.T) {
	client := NewMemoryClient()

	_, err := client.PutItem(context.Background(), &dynamodb.PutItemInput{
		Item: dynamo.Item{"hk": &types.AttributeValueMemberS{Value: "table#orders"}},
	})
	if err == nil {
		t.Error("expected error for item without sort key")
	}
}

func TestMemoryClient_Query(t *testing.T) {
	ctx := context.Background()
	client := NewMemoryClient()
	table := dynamo.NewTable("test-table")

	for _, key := range []string{"b/2", "a/1", "b/1", "c/1"} {
		putTable(t, client, table, key, key)
	}
	putTable(t, client, table, "cursor", "ignored", func(mo *dynamo.MarshalOptions) {
		mo.Prefix = dynamo.PagePrefix
	})

	tests := []struct {
		name  string
		query dynamo.ListQuery
		want  []string
		more  bool
	}{
		{
			name:  "label",
			query: dynamo.ListQuery{Label: dynamo.TablePrefix},
			want:  []string{"a/1", "b/1", "b/2", "c/1"},
		},
		{
			name:  "prefix",
			query: dynamo.ListQuery{Label: dynamo.TablePrefix, KeyPrefix: "b/"},
			want:  []string{"b/1", "b/2"},
		},
		{
			name:  "descending",
			query: dynamo.ListQuery{Label: dynamo.TablePrefix, SortDescending: true},
			want:  []string{"c/1", "b/2", "b/1", "a/1"},
		},
		{
			name:  "limit",
			query: dynamo.ListQuery{Label: dynamo.TablePrefix, Limit: 2},
			want:  []string{"a/1", "b/1"},
			more:  true,
		},
		{
			name:  "limit equal to result",
			query: dynamo.ListQuery{Label: dynamo.TablePrefix, Limit: 4},
			want:  []string{"a/1", "b/1", "b/2", "c/1"},
		},
		{
			name:  "other label",
			query: dynamo.ListQuery{Label: dynamo.PagePrefix},
			want:  []string{"cursor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := table.MarshalList(&tt.query)
			if err != nil {
				t.Fatalf("MarshalList failed: %v", err)
			}

			output, err := client.Query(ctx, input)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}

			if got := listKeys(t, output); !sameKeys(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if more := output.LastEvaluatedKey != nil; more != tt.more {
				t.Errorf("expected more = %v, got %v", tt.more, more)
			}
		})
	}

	t.Run("exclusive start key", func(t *testing.T) {
		input, err := table.MarshalList(&dynamo.ListQuery{Label: dynamo.TablePrefix, Limit: 3})
		if err != nil {
			t.Fatalf("MarshalList failed: %v", err)
		}

		first, err := client.Query(ctx, input)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}

		input.ExclusiveStartKey = first.LastEvaluatedKey
		second, err := client.Query(ctx, input)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}

		if got := listKeys(t, second); !sameKeys(got, []string{"c/1"}) {
			t.Errorf("expected [c/1], got %v", got)
		}
	})

	t.Run("missing key condition", func(t *testing.T) {
		if _, err := client.Query(ctx, &dynamodb.QueryInput{TableName: aws.String("test-table")}); err == nil {
			t.Error("expected error for query without key condition")
		}
	})
}

func TestMemoryClient_Items(t *testing.T) {
	client := NewMemoryClient()
	table := dynamo.NewTable("test-table")

	putTable(t, client, table, "zeta", 1)
	putTable(t, client, table, "alpha", 2)

	items := client.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]["hk"].(*types.AttributeValueMemberS).Value
	if first != "table#alpha" {
		t.Errorf("expected first item table#alpha, got %s", first)
	}
}
