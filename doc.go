// Package lazytables provides lazy, memoizing access to a set of named data
// sources ("tables") without knowing how they are read or written.
//
// You supply a function that reads a table by key and, optionally, one that
// writes it. lazytables turns a list of declared table names into a namespace
// where each table is read on demand, at most once, and cached from then on.
//
// # Declaring Tables
//
// A table is declared by name. Its resource key, the string passed to your
// read and write functions, defaults to the name:
//
//	schema := lazytables.MustDefine(
//	    lazytables.Table("orders"),                      // key "orders"
//	    lazytables.TableKey("customers", "customers.csv"), // key "customers.csv"
//	)
//
// Tables can also be declared with the string fields of a struct type. The
// struct is resolved once and the schema shared by every Space built from it:
//
//	type Warehouse struct {
//	    Orders    string
//	    Customers string `table:"customers.csv"`
//	}
//
//	schema, err := lazytables.SchemaOf[Warehouse]()
//
// The names "read" and "write" are reserved. Struct fields match them in
// any case, so a field named Write is rejected by [SchemaOf].
//
// # Reading
//
//	tables := lazytables.New(schema, readTable)
//	orders, err := tables.Get(ctx, "orders") // calls readTable(ctx, "orders")
//	orders, err = tables.Get(ctx, "orders")  // served from the cache
//
// Use [WithCache] to disable caching and read on every access. Values
// written through the Space are served without a read either way.
//
// # Writing
//
// With a write function, the Space exposes a [Writer]. A write calls your
// function, stores the value in the cache, and returns the Space:
//
//	tables := lazytables.New(schema, readTable, lazytables.WithWriter(writeTable))
//
//	space, err := tables.Write().Put(ctx, "orders", orders)
//	space, err = tables.Write().Table("customers")(ctx, customers)
//	space, err = tables.Write().PutAll(ctx, lazytables.BatchOf(map[string]Frame{
//	    "orders":    orders,
//	    "customers": customers,
//	}))
//
// Extra arguments are forwarded to the write function after the key and value.
//
// # Errors
//
// Errors returned by your read and write functions are passed through
// unchanged. lazytables itself returns errors wrapping [ErrInvalidDefinition],
// [ErrNoWriter], [ErrInvalidArgument] and [ErrUnknownTable].
//
// # Concurrency
//
// A Space does not lock its cache. Serialize access when sharing a Space
// between goroutines. A Schema is immutable and safe to share.
package lazytables
