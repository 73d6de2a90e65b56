// Package assert provides fluent assertion utilities for testing the DynamoDB
// records written by the dynamo package.
//
// # Usage
//
//	import "github.com/nisimpson/lazytables/dynamock/assert"
//
//	assert.Items(t, client.Items()).
//		HasCount(2).
//		ContainsTable("orders").
//		HasAttribute("label", "table")
//
//	assert.Item(t, item).
//		HasKey("hk", "table#orders").
//		IsNotExpired(time.Now())
package assert

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/lazytables/dynamo"
)

// ItemsAssertion provides fluent assertions for DynamoDB items.
type ItemsAssertion struct {
	t     testing.TB
	items []dynamo.Item
}

// Items creates a new ItemsAssertion for the given DynamoDB items.
func Items(t testing.TB, items []dynamo.Item) *ItemsAssertion {
	return &ItemsAssertion{t: t, items: items}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	a.t.Helper()
	return a.HasCount(0)
}

// ContainsTable asserts that the items contain the table record for key.
func (a *ItemsAssertion) ContainsTable(key string) *ItemsAssertion {
	a.t.Helper()
	if a.find(dynamo.TablePrefix, key) == nil {
		a.t.Errorf("expected to find table %s in items", key)
	}
	return a
}

// NotContainsTable asserts that the items do not contain the table record for key.
func (a *ItemsAssertion) NotContainsTable(key string) *ItemsAssertion {
	a.t.Helper()
	if a.find(dynamo.TablePrefix, key) != nil {
		a.t.Errorf("expected not to find table %s in items", key)
	}
	return a
}

// ContainsLabel asserts that the items contain at least n records with label.
func (a *ItemsAssertion) ContainsLabel(label string, n int) *ItemsAssertion {
	a.t.Helper()
	count := 0
	for _, item := range a.items {
		if stringValue(item, dynamo.AttributeNameLabel) == label {
			count++
		}
	}
	if count < n {
		a.t.Errorf("expected at least %d items with label %s, got %d", n, label, count)
	}
	return a
}

// HasAttribute asserts that at least one item has the specified attribute with the expected value.
func (a *ItemsAssertion) HasAttribute(attributeName, expectedValue string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if stringValue(item, attributeName) == expectedValue {
			return a
		}
	}
	a.t.Errorf("expected to find attribute %s with value %s in items", attributeName, expectedValue)
	return a
}

func (a *ItemsAssertion) find(prefix, key string) dynamo.Item {
	hashKey := prefix + "#" + key
	for _, item := range a.items {
		if stringValue(item, dynamo.AttributeNameSource) == hashKey &&
			stringValue(item, dynamo.AttributeNameTarget) == hashKey {
			return item
		}
	}
	return nil
}

// ItemAssertion provides fluent assertions for a single DynamoDB item.
type ItemAssertion struct {
	t    testing.TB
	item dynamo.Item
}

// Item creates a new ItemAssertion for the given DynamoDB item.
func Item(t testing.TB, item dynamo.Item) *ItemAssertion {
	return &ItemAssertion{t: t, item: item}
}

// HasKey asserts that the item has the specified key attribute.
func (a *ItemAssertion) HasKey(keyName, expectedValue string) *ItemAssertion {
	a.t.Helper()
	return a.HasAttribute(keyName, expectedValue)
}

// HasAttribute asserts that the item has the specified string attribute.
func (a *ItemAssertion) HasAttribute(attrName, expectedValue string) *ItemAssertion {
	a.t.Helper()
	if _, ok := a.item[attrName]; !ok {
		a.t.Errorf("expected attribute %s to exist", attrName)
		return a
	}
	if actual := stringValue(a.item, attrName); actual != expectedValue {
		a.t.Errorf("expected attribute %s to be %s, got %s", attrName, expectedValue, actual)
	}
	return a
}

// HasData asserts that the item carries a data attribute.
func (a *ItemAssertion) HasData() *ItemAssertion {
	a.t.Helper()
	if _, ok := a.item[dynamo.AttributeNameData]; !ok {
		a.t.Error("expected data attribute to exist")
	}
	return a
}

// ExpiresAfter asserts that the item has a time-to-live later than t.
func (a *ItemAssertion) ExpiresAfter(t time.Time) *ItemAssertion {
	a.t.Helper()
	rec, ok := a.record()
	if !ok {
		return a
	}
	if rec.Expires.Unix() <= 0 {
		a.t.Error("expected item to have a time-to-live")
	} else if !rec.Expires.After(t) {
		a.t.Errorf("expected item to expire after %s, expires at %s", t, rec.Expires)
	}
	return a
}

// IsNotExpired asserts that the item has no time-to-live or one later than now.
func (a *ItemAssertion) IsNotExpired(now time.Time) *ItemAssertion {
	a.t.Helper()
	if rec, ok := a.record(); ok && rec.Expired(now) {
		a.t.Errorf("expected item to be live at %s, expired at %s", now, rec.Expires)
	}
	return a
}

func (a *ItemAssertion) record() (dynamo.Record, bool) {
	a.t.Helper()
	var data any
	rec, err := dynamo.UnmarshalRecord(a.item, &data)
	if err != nil {
		a.t.Errorf("expected item to unmarshal as a record: %v", err)
		return rec, false
	}
	return rec, true
}

func stringValue(item dynamo.Item, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
