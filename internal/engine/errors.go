package engine

import (
	"errors"
	"fmt"
)

// ErrMissingColumn reports a structural break in an input collection.
var ErrMissingColumn = errors.New("required column missing")

// SchemaError names the collection and the column that broke the input contract.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Table, ErrMissingColumn, e.Column)
}

func (e *SchemaError) Unwrap() error {
	return ErrMissingColumn
}
