package lazytables

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Pair is a single table write in a [Batch].
type Pair[T any] struct {
	Name  string // The declared table name
	Value T      // The value to write
}

// Batch is an ordered set of table writes. Pairs are written in order.
type Batch[T any] []Pair[T]

// BatchOf converts a map of table names to values into a Batch sorted by name.
func BatchOf[T any](m map[string]T) Batch[T] {
	batch := make(Batch[T], 0, len(m))
	for name, value := range m {
		batch = append(batch, Pair[T]{Name: name, Value: value})
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Name < batch[j].Name
	})
	return batch
}

// TableWriter writes a value to a single table. It is returned by
// [Writer.Table].
type TableWriter[T any] func(ctx context.Context, value T, extra ...any) (*Space[T], error)

// Writer writes tables through the write function of its Space. Every
// successful write also stores the value in the Space cache, whether or not
// read caching is enabled. Writes return the owning Space so calls can be
// chained:
//
//	space, err := tables.Write().Put(ctx, "orders", orders)
//	if err == nil {
//	    _, err = space.Write().Put(ctx, "customers", customers)
//	}
type Writer[T any] struct {
	space *Space[T]
}

// Put writes value to the named table.
func (w *Writer[T]) Put(ctx context.Context, name string, value T, extra ...any) (*Space[T], error) {
	return w.write(ctx, Batch[T]{{Name: name, Value: value}}, extra)
}

// PutAll writes every pair in batch, in order. All names are validated before
// the first write. If the write function fails, the batch stops; earlier
// writes are not undone and remain cached.
func (w *Writer[T]) PutAll(ctx context.Context, batch Batch[T], extra ...any) (*Space[T], error) {
	return w.write(ctx, batch, extra)
}

// Apply writes to tables whose target shape is only known at runtime. The
// target is either a table name, in which case value must be a non-nil T, or
// a [Batch] or map of names to values, in which case value must be nil.
func (w *Writer[T]) Apply(ctx context.Context, target any, value any, extra ...any) (*Space[T], error) {
	switch t := target.(type) {
	case string:
		if value == nil {
			return nil, fmt.Errorf("%w: table %q requires a value", ErrInvalidArgument, t)
		}
		v, ok := value.(T)
		if !ok {
			return nil, fmt.Errorf("%w: value for table %q has type %T", ErrInvalidArgument, t, value)
		}
		return w.Put(ctx, t, v, extra...)
	case Batch[T]:
		if value != nil {
			return nil, fmt.Errorf("%w: value given with a batch", ErrInvalidArgument)
		}
		return w.PutAll(ctx, t, extra...)
	case map[string]T:
		if value != nil {
			return nil, fmt.Errorf("%w: value given with a batch", ErrInvalidArgument)
		}
		return w.PutAll(ctx, BatchOf(t), extra...)
	default:
		return nil, fmt.Errorf("%w: target must be a table name or batch, got %T", ErrInvalidArgument, target)
	}
}

// Table returns a writer bound to the named table. The name is validated when
// the returned function is called.
func (w *Writer[T]) Table(name string) TableWriter[T] {
	return func(ctx context.Context, value T, extra ...any) (*Space[T], error) {
		return w.Put(ctx, name, value, extra...)
	}
}

// Chain starts a sequence of writes that stops at the first error.
func (w *Writer[T]) Chain(ctx context.Context) *Chain[T] {
	return &Chain[T]{ctx: ctx, writer: w}
}

func (w *Writer[T]) write(ctx context.Context, batch Batch[T], extra []any) (*Space[T], error) {
	s := w.space
	if s.opts.Write == nil {
		return nil, ErrNoWriter
	}

	accessors := make([]accessor, len(batch))
	for i, pair := range batch {
		a, err := s.schema.lookup(pair.Name)
		if err != nil {
			return nil, err
		}
		accessors[i] = a
	}

	for i, pair := range batch {
		a := accessors[i]
		if err := s.opts.Write(ctx, a.key, pair.Value, extra...); err != nil {
			return nil, err
		}
		s.cache[a.name] = pair.Value
		s.opts.Logger.Debug("table written", zap.String("table", a.name), zap.String("key", a.key))
	}

	return s, nil
}

// Chain is a sequence of writes against one Space. After the first failed
// write, later writes are skipped and the error is kept.
//
//	err := tables.Write().Chain(ctx).
//	    Put("orders", orders).
//	    Put("customers", customers).
//	    Err()
type Chain[T any] struct {
	ctx    context.Context
	writer *Writer[T]
	err    error
}

// Put writes value to the named table unless an earlier write failed.
func (c *Chain[T]) Put(name string, value T, extra ...any) *Chain[T] {
	if c.err != nil {
		return c
	}
	_, c.err = c.writer.Put(c.ctx, name, value, extra...)
	return c
}

// PutAll writes the batch unless an earlier write failed.
func (c *Chain[T]) PutAll(batch Batch[T], extra ...any) *Chain[T] {
	if c.err != nil {
		return c
	}
	_, c.err = c.writer.PutAll(c.ctx, batch, extra...)
	return c
}

// Err returns the first error encountered by the chain.
func (c *Chain[T]) Err() error {
	return c.err
}

// Space returns the owning Space and the first error encountered.
func (c *Chain[T]) Space() (*Space[T], error) {
	return c.writer.space, c.err
}
