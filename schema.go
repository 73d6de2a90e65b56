package lazytables

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// reservedNames cannot be used as table names. They collide with the read and
// write surfaces of a Space.
var reservedNames = []string{"read", "write"}

// TagName is the struct tag consulted by [SchemaOf] for explicit table keys.
const TagName = "table"

// Decl declares a single table. Use [Table] or [TableKey] to create one.
type Decl struct {
	Name string // The declared table name, used to access the table
	Key  string // The resource key passed to the read and write functions
}

// Table declares a table whose resource key is its own name.
func Table(name string) Decl {
	return Decl{Name: name}
}

// TableKey declares a table with an explicit resource key.
func TableKey(name, key string) Decl {
	return Decl{Name: name, Key: key}
}

func (d Decl) key() string {
	if d.Key == "" {
		return d.Name
	}
	return d.Key
}

// accessor binds a declared name to its resource key. Accessors are created
// once per schema and shared by every Space built from it.
type accessor struct {
	name string
	key  string
}

// Schema is the immutable mapping from declared table names to resource keys.
// A Schema is safe to share between any number of Spaces and goroutines.
type Schema struct {
	names     []string
	accessors map[string]accessor
}

// Define resolves the declarations into a Schema. Every problem found is
// reported; each one wraps [ErrInvalidDefinition].
func Define(decls ...Decl) (*Schema, error) {
	return define(decls, false)
}

// define resolves decls. With foldCase, reserved names match in any case, as
// struct fields are capitalised.
func define(decls []Decl, foldCase bool) (*Schema, error) {
	var (
		errs   []error
		schema = &Schema{
			names:     make([]string, 0, len(decls)),
			accessors: make(map[string]accessor, len(decls)),
		}
	)

	for _, decl := range decls {
		if err := validateName(decl.Name, foldCase); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, exists := schema.accessors[decl.Name]; exists {
			errs = append(errs, fmt.Errorf("%w: table %q declared more than once", ErrInvalidDefinition, decl.Name))
			continue
		}
		schema.names = append(schema.names, decl.Name)
		schema.accessors[decl.Name] = accessor{name: decl.Name, key: decl.key()}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return schema, nil
}

// MustDefine is like [Define] but panics if the declarations are invalid.
// It simplifies package-level schema variables.
func MustDefine(decls ...Decl) *Schema {
	schema, err := Define(decls...)
	if err != nil {
		panic(err)
	}
	return schema
}

func validateName(name string, foldCase bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty table name", ErrInvalidDefinition)
	}
	for _, reserved := range reservedNames {
		if name == reserved || (foldCase && strings.EqualFold(name, reserved)) {
			return fmt.Errorf("%w: table name %q is reserved", ErrInvalidDefinition, name)
		}
	}
	return nil
}

// Names returns the declared table names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Key returns the resource key of the named table.
func (s *Schema) Key(name string) (string, bool) {
	a, ok := s.accessors[name]
	return a.key, ok
}

// Has reports whether name is a declared table.
func (s *Schema) Has(name string) bool {
	_, ok := s.accessors[name]
	return ok
}

// Len returns the number of declared tables.
func (s *Schema) Len() int {
	return len(s.names)
}

// Mapping returns a copy of the name to key mapping.
func (s *Schema) Mapping() map[string]string {
	m := make(map[string]string, len(s.accessors))
	for name, a := range s.accessors {
		m[name] = a.key
	}
	return m
}

func (s *Schema) lookup(name string) (accessor, error) {
	a, ok := s.accessors[name]
	if !ok {
		return accessor{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return a, nil
}

type schemaEntry struct {
	schema *Schema
	err    error
}

// registry memoises struct-derived schemas by type.
var registry sync.Map // map[reflect.Type]schemaEntry

// SchemaOf resolves the schema declared by the exported fields of struct type D.
//
//	type Warehouse struct {
//	    Orders    string                     // key "Orders"
//	    Customers string `table:"customers.csv"` // key "customers.csv"
//	    Scratch   string `table:"-"`          // not a table
//	    Loader    func()                     // callables are ignored
//	}
//
//	schema, err := lazytables.SchemaOf[Warehouse]()
//
// Only string fields declare tables; unexported and func-typed fields are
// skipped. The result (or error) is computed once per type and shared.
func SchemaOf[D any]() (*Schema, error) {
	typ := reflect.TypeFor[D]()
	if cached, ok := registry.Load(typ); ok {
		entry := cached.(schemaEntry)
		return entry.schema, entry.err
	}

	schema, err := resolveStruct(typ)
	actual, _ := registry.LoadOrStore(typ, schemaEntry{schema: schema, err: err})
	entry := actual.(schemaEntry)
	return entry.schema, entry.err
}

func resolveStruct(typ reflect.Type) (*Schema, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidDefinition, typ)
	}

	var (
		decls []Decl
		errs  []error
	)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Type.Kind() == reflect.Func {
			continue
		}

		tag, tagged := field.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}
		if field.Type.Kind() != reflect.String {
			errs = append(errs, fmt.Errorf("%w: field %s of type %s cannot declare a table", ErrInvalidDefinition, field.Name, field.Type))
			continue
		}
		if tagged {
			decls = append(decls, TableKey(field.Name, tag))
		} else {
			decls = append(decls, Table(field.Name))
		}
	}

	schema, err := define(decls, true)
	if err := errors.Join(append(errs, err)...); err != nil {
		return nil, err
	}
	return schema, nil
}
