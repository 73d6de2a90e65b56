package dynamo

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// Paginator converts last evaluated keys into string cursors for clients,
// and client cursors back into start keys.
type Paginator interface {
	// PageCursor generates a string token from the provided start key. Implementors
	// should return an empty token if the start key is nil or empty.
	PageCursor(ctx context.Context, lastkey Item) (string, error)
	// StartKey generates a dynamodb start key from the provided cursor. Implementors
	// should return a nil item if the cursor is an empty string.
	StartKey(ctx context.Context, cursor string) (Item, error)
}

// TablePaginator implements Paginator by storing start keys in the same table
// as page records.
type TablePaginator struct {
	table  *Table
	client Client
}

// PageCursor is the data of a page record. Key is the gob encoded last
// evaluated key.
type PageCursor struct {
	Cursor string
	Key    []byte
}

func pageOptions(ttl time.Duration) PutOption {
	return func(mo *MarshalOptions) {
		mo.Prefix = PagePrefix
		mo.Label = PagePrefix
		mo.TimeToLive = ttl
	}
}

// PageCursor stores lastkey as a page record that expires after the table's
// pagination TTL. If lastkey is empty, an empty string is returned.
func (t *TablePaginator) PageCursor(ctx context.Context, lastkey Item) (string, error) {
	if len(lastkey) == 0 {
		return "", nil
	}

	cursor, err := generateCursor()
	if err != nil {
		return "", fmt.Errorf("failed to generate cursor: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(map[string]types.AttributeValue(lastkey)); err != nil {
		return "", fmt.Errorf("failed to encode last key: %w", err)
	}

	putInput, err := t.table.MarshalPut(cursor, &PageCursor{Cursor: cursor, Key: buf.Bytes()}, pageOptions(t.table.PaginationTTL))
	if err != nil {
		return "", fmt.Errorf("failed to marshal page cursor: %w", err)
	}

	if _, err = t.client.PutItem(ctx, putInput); err != nil {
		return "", fmt.Errorf("failed to store page cursor: %w", err)
	}

	return cursor, nil
}

// StartKey retrieves the page record referenced by cursor and decodes its
// start key. Unknown cursors yield a nil key.
func (t *TablePaginator) StartKey(ctx context.Context, cursor string) (Item, error) {
	if cursor == "" {
		return nil, nil
	}

	getInput, err := t.table.MarshalGet(cursor, pageOptions(0))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal get request: %w", err)
	}

	result, err := t.client.GetItem(ctx, getInput)
	if err != nil {
		return nil, fmt.Errorf("failed to get page cursor: %w", err)
	}

	if result.Item == nil {
		// Cursor not found or expired
		return nil, nil
	}

	var page PageCursor
	if _, err := UnmarshalRecord(result.Item, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page cursor: %w", err)
	}

	if len(page.Key) == 0 {
		return nil, nil
	}

	var keyData map[string]types.AttributeValue
	if err := gob.NewDecoder(bytes.NewBuffer(page.Key)).Decode(&keyData); err != nil {
		return nil, fmt.Errorf("failed to decode last key: %w", err)
	}

	return keyData, nil
}

// Paginator returns a Paginator to extract and generate client cursors.
func (t *Table) Paginator(client Client) Paginator {
	return &TablePaginator{
		table:  t,
		client: client,
	}
}

// generateCursor creates a unique cursor string using current time and random bytes
func generateCursor() (string, error) {
	timestamp := time.Now().UnixNano()

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	combined := fmt.Sprintf("%d_%s", timestamp, base64.URLEncoding.EncodeToString(randomBytes))
	return base64.URLEncoding.EncodeToString([]byte(combined)), nil
}
