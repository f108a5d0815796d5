package envfigure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinels for errors.Is.  Every error returned by ExtractSchema,
// Populate, and Registry.Configure matches exactly one of these.
var (
	ErrSchema               = errors.New("schema error")
	ErrCoercion             = errors.New("coercion error")
	ErrMissingRequiredValue = errors.New("missing required value")
)

// SchemaError reports a malformed or unresolvable schema: bad attribute
// syntax, a field type that can't be classified, a cycle.
type SchemaError struct {
	Record string // record (struct) name
	Field  string // empty when the problem is the record itself
	Text   string // the offending clause or type
	Err    error
}

func (e *SchemaError) Error() string {
	where := e.Record
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Text != "" {
		return fmt.Sprintf("envfigure: schema %s (%s): %s", where, e.Text, e.Err)
	}
	return fmt.Sprintf("envfigure: schema %s: %s", where, e.Err)
}

func (e *SchemaError) Unwrap() error        { return e.Err }
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
func (e *SchemaError) Cause() error         { return e.Err }

// CoercionError reports an environment or default value that could
// not be converted to the field's type.  When the field used a
// custom parser, Custom is true and Err is the parser's own error.
type CoercionError struct {
	Field  string // Record.Field
	Key    string
	Value  string
	Custom bool
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("envfigure: cannot use %s=%q for %s: %s", e.Key, e.Value, e.Field, e.Err)
}

func (e *CoercionError) Unwrap() error        { return e.Err }
func (e *CoercionError) Is(target error) bool { return target == ErrCoercion }
func (e *CoercionError) Cause() error         { return e.Err }

// MissingValueError is returned when a required field has no
// environment value and no default.
type MissingValueError struct {
	Field string // Record.Field
	Key   string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("envfigure: %s is not set and %s has no default", e.Key, e.Field)
}

func (e *MissingValueError) Is(target error) bool { return target == ErrMissingRequiredValue }

// IsSchemaError is true for any error that wraps a SchemaError.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsCoercionError is true for any error that wraps a CoercionError.
func IsCoercionError(err error) bool {
	return errors.Is(err, ErrCoercion)
}

// IsMissingValueError is true for any error that wraps a MissingValueError.
func IsMissingValueError(err error) bool {
	return errors.Is(err, ErrMissingRequiredValue)
}
