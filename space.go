package lazytables

import (
	"context"
	"reflect"

	"go.uber.org/zap"
)

// ReadFunc reads the table identified by key.
type ReadFunc[T any] func(ctx context.Context, key string) (T, error)

// WriteFunc writes value to the table identified by key. Any extra arguments
// given to a write on the Space are forwarded verbatim.
type WriteFunc[T any] func(ctx context.Context, key string, value T, extra ...any) error

// Options configures a Space.
type Options[T any] struct {
	Write        WriteFunc[T] // Optional write function; nil disables writing
	Cache        bool         // Cache values on read. Default is true.
	RefetchEmpty bool         // Treat empty cached values as misses. Default is false.
	Logger       *zap.Logger  // Debug logger. Default is a no-op logger.
}

// Option configures a Space.
type Option[T any] func(*Options[T])

// WithWriter sets the write function used by [Space.Write].
func WithWriter[T any](fn WriteFunc[T]) Option[T] {
	return func(o *Options[T]) {
		o.Write = fn
	}
}

// WithCache enables or disables caching of read results.
func WithCache[T any](enabled bool) Option[T] {
	return func(o *Options[T]) {
		o.Cache = enabled
	}
}

// WithRefetchEmpty makes reads refetch a table whose cached value is empty:
// the zero value, a nil reference, or a zero-length string, slice or map.
func WithRefetchEmpty[T any](enabled bool) Option[T] {
	return func(o *Options[T]) {
		o.RefetchEmpty = enabled
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(o *Options[T]) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Space is a namespace of lazily read tables. Each declared table is read
// through the read function on first access and served from the cache after
// that. Writes go through the [Writer] returned by [Space.Write].
//
// A Space performs no locking; concurrent use must be serialized by the caller.
type Space[T any] struct {
	schema *Schema
	read   ReadFunc[T]
	opts   Options[T]
	cache  map[string]T
	writer *Writer[T]
}

// New creates a Space over the tables declared by schema. No table is read
// until it is first accessed.
func New[T any](schema *Schema, read ReadFunc[T], opts ...Option[T]) *Space[T] {
	options := Options[T]{
		Cache:  true,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := &Space[T]{
		schema: schema,
		read:   read,
		opts:   options,
		cache:  make(map[string]T),
	}
	s.writer = &Writer[T]{space: s}
	return s
}

// Schema returns the schema the Space was built from.
func (s *Space[T]) Schema() *Schema {
	return s.schema
}

// Get returns the named table. With caching enabled the read function is
// called at most once per table; otherwise it is called on every access.
// A value written through the Space is returned without a read in both
// cases, until it is invalidated.
// Errors from the read function are returned as is.
func (s *Space[T]) Get(ctx context.Context, name string) (T, error) {
	var zero T

	a, err := s.schema.lookup(name)
	if err != nil {
		return zero, err
	}

	if !s.opts.Cache {
		// only writes fill the cache here
		if value, ok := s.cache[a.name]; ok {
			s.opts.Logger.Debug("table cached", zap.String("table", a.name))
			return value, nil
		}
		s.opts.Logger.Debug("table read", zap.String("table", a.name), zap.String("key", a.key))
		return s.read(ctx, a.key)
	}

	if value, ok := s.cache[a.name]; ok && !(s.opts.RefetchEmpty && isEmpty(value)) {
		s.opts.Logger.Debug("table cached", zap.String("table", a.name))
		return value, nil
	}

	s.opts.Logger.Debug("table read", zap.String("table", a.name), zap.String("key", a.key))
	value, err := s.read(ctx, a.key)
	if err != nil {
		return zero, err
	}

	s.cache[a.name] = value
	return value, nil
}

// Write returns the writer bound to this Space.
func (s *Space[T]) Write() *Writer[T] {
	return s.writer
}

// CacheEnabled reports whether read results are cached.
func (s *Space[T]) CacheEnabled() bool {
	return s.opts.Cache
}

// Cache returns a snapshot of the cached tables by name.
func (s *Space[T]) Cache() map[string]T {
	snapshot := make(map[string]T, len(s.cache))
	for name, value := range s.cache {
		snapshot[name] = value
	}
	return snapshot
}

// Invalidate drops the named tables from the cache so the next access reads
// them again. With no names, the whole cache is dropped.
func (s *Space[T]) Invalidate(names ...string) {
	if len(names) == 0 {
		clear(s.cache)
		return
	}
	for _, name := range names {
		delete(s.cache, name)
	}
}

func isEmpty(value any) bool {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
