package lazytables

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSource records calls made by a Space.
type fakeSource struct {
	data   map[string][]string
	reads  []string
	writes []fakeWrite
	errs   map[string]error
}

type fakeWrite struct {
	key   string
	value []string
	extra []any
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		data: map[string][]string{
			"alpha":         {"a1", "a2"},
			"table-two.csv": {"t1"},
			"empty":         {},
		},
		errs: map[string]error{},
	}
}

func (f *fakeSource) read(ctx context.Context, key string) ([]string, error) {
	f.reads = append(f.reads, key)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.data[key], nil
}

func (f *fakeSource) write(ctx context.Context, key string, value []string, extra ...any) error {
	if err := f.errs[key]; err != nil {
		return err
	}
	f.writes = append(f.writes, fakeWrite{key: key, value: value, extra: extra})
	f.data[key] = value
	return nil
}

func (f *fakeSource) readCount(key string) int {
	n := 0
	for _, k := range f.reads {
		if k == key {
			n++
		}
	}
	return n
}

var testSchema = MustDefine(
	Table("alpha"),
	TableKey("two", "table-two.csv"),
	Table("empty"),
	Table("missing"),
)

func TestSpaceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit reads once", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read)

		first, err := tables.Get(ctx, "alpha")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		second, err := tables.Get(ctx, "alpha")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if n := src.readCount("alpha"); n != 1 {
			t.Errorf("Expected 1 read, got %d", n)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Expected identical values, got %v and %v", first, second)
		}
	})

	t.Run("cache disabled reads every time", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read, WithCache[[]string](false))

		for i := 0; i < 3; i++ {
			if _, err := tables.Get(ctx, "alpha"); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
		}

		if n := src.readCount("alpha"); n != 3 {
			t.Errorf("Expected 3 reads, got %d", n)
		}
		if len(tables.Cache()) != 0 {
			t.Errorf("Expected empty cache, got %v", tables.Cache())
		}
		if tables.CacheEnabled() {
			t.Error("Expected cache to be disabled")
		}
	})

	t.Run("explicit key is passed to read", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read)

		value, err := tables.Get(ctx, "two")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !reflect.DeepEqual(src.reads, []string{"table-two.csv"}) {
			t.Errorf("Expected read of 'table-two.csv', got %v", src.reads)
		}
		if !reflect.DeepEqual(value, []string{"t1"}) {
			t.Errorf("Expected [t1], got %v", value)
		}
	})

	t.Run("empty value is cached by default", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read)

		tables.Get(ctx, "empty")
		tables.Get(ctx, "empty")

		if n := src.readCount("empty"); n != 1 {
			t.Errorf("Expected 1 read, got %d", n)
		}
	})

	t.Run("empty value refetched when enabled", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read, WithRefetchEmpty[[]string](true))

		tables.Get(ctx, "empty")
		tables.Get(ctx, "empty")
		tables.Get(ctx, "alpha")
		tables.Get(ctx, "alpha")

		if n := src.readCount("empty"); n != 2 {
			t.Errorf("Expected 2 reads of empty, got %d", n)
		}
		if n := src.readCount("alpha"); n != 1 {
			t.Errorf("Expected 1 read of alpha, got %d", n)
		}
	})

	t.Run("read error is returned unchanged and not cached", func(t *testing.T) {
		src := newFakeSource()
		readErr := errors.New("bucket unavailable")
		src.errs["alpha"] = readErr
		tables := New(testSchema, src.read)

		_, err := tables.Get(ctx, "alpha")
		if err != readErr {
			t.Fatalf("Expected the read error itself, got %v", err)
		}
		if _, ok := tables.Cache()["alpha"]; ok {
			t.Error("Expected failed read not to be cached")
		}

		delete(src.errs, "alpha")
		if _, err := tables.Get(ctx, "alpha"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n := src.readCount("alpha"); n != 2 {
			t.Errorf("Expected 2 reads, got %d", n)
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		src := newFakeSource()
		tables := New(testSchema, src.read)

		_, err := tables.Get(ctx, "nonexistent")
		if !errors.Is(err, ErrUnknownTable) {
			t.Errorf("Expected ErrUnknownTable, got %v", err)
		}
		if len(src.reads) != 0 {
			t.Errorf("Expected no reads, got %v", src.reads)
		}
	})
}

func TestSpaceConstruction(t *testing.T) {
	src := newFakeSource()
	tables := New(testSchema, src.read)

	if len(src.reads) != 0 {
		t.Errorf("Expected no reads on construction, got %v", src.reads)
	}
	if len(tables.Cache()) != 0 {
		t.Error("Expected empty cache on construction")
	}
	if tables.Schema() != testSchema {
		t.Error("Expected Space to share its schema")
	}
	if tables.Write() != tables.Write() {
		t.Error("Expected a single writer per Space")
	}

	other := New(testSchema, src.read)
	other.Get(context.Background(), "alpha")
	if len(tables.Cache()) != 0 {
		t.Error("Expected Spaces to have independent caches")
	}
}

func TestSpaceCacheSnapshot(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	tables := New(testSchema, src.read)

	tables.Get(ctx, "alpha")
	snapshot := tables.Cache()
	delete(snapshot, "alpha")

	if _, ok := tables.Cache()["alpha"]; !ok {
		t.Error("Expected snapshot changes not to affect the cache")
	}
}

func TestSpaceInvalidate(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	tables := New(testSchema, src.read)

	tables.Get(ctx, "alpha")
	tables.Get(ctx, "two")

	tables.Invalidate("alpha")
	if _, ok := tables.Cache()["alpha"]; ok {
		t.Error("Expected alpha to be dropped")
	}
	if _, ok := tables.Cache()["two"]; !ok {
		t.Error("Expected two to stay cached")
	}

	tables.Get(ctx, "alpha")
	if n := src.readCount("alpha"); n != 2 {
		t.Errorf("Expected alpha to be read again, got %d reads", n)
	}

	tables.Invalidate()
	if len(tables.Cache()) != 0 {
		t.Errorf("Expected empty cache, got %v", tables.Cache())
	}
}

func TestSpaceLogging(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.DebugLevel)
	src := newFakeSource()
	tables := New(testSchema, src.read, WithWriter(src.write), WithLogger[[]string](zap.New(core)))

	tables.Get(ctx, "alpha")
	tables.Get(ctx, "alpha")
	tables.Write().Put(ctx, "two", []string{"x"})

	want := []string{"table read", "table cached", "table written"}
	entries := logs.AllUntimed()
	if len(entries) != len(want) {
		t.Fatalf("Expected %d log entries, got %d", len(want), len(entries))
	}
	for i, entry := range entries {
		if entry.Message != want[i] {
			t.Errorf("Expected entry %d to be %q, got %q", i, want[i], entry.Message)
		}
	}
	if got := entries[2].ContextMap()["key"]; got != "table-two.csv" {
		t.Errorf("Expected key field 'table-two.csv', got %v", got)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, true},
		{"", true},
		{"x", false},
		{0, true},
		{1, false},
		{[]string{}, true},
		{[]string(nil), true},
		{[]string{"a"}, false},
		{map[string]int{}, true},
		{map[string]int{"a": 1}, false},
		{false, true},
		{struct{ A int }{}, true},
		{struct{ A int }{A: 1}, false},
	}

	for _, tt := range tests {
		if got := isEmpty(tt.value); got != tt.want {
			t.Errorf("isEmpty(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
