package lazytables

import "errors"

var (
	// ErrInvalidDefinition is returned when a set of table declarations cannot
	// be resolved into a schema, e.g. when a table is named "read" or "write".
	ErrInvalidDefinition = errors.New("lazytables: invalid definition")

	// ErrNoWriter is returned when a write is attempted on a Space that was
	// constructed without a write function.
	ErrNoWriter = errors.New("lazytables: no write function")

	// ErrInvalidArgument is returned when a write is called with an invalid
	// combination of target and value.
	ErrInvalidArgument = errors.New("lazytables: invalid argument")

	// ErrUnknownTable is returned when a read or write targets a table name
	// that was not declared in the schema.
	ErrUnknownTable = errors.New("lazytables: unknown table")
)
