// Package schema declares entities: their typed columns, constraints,
// defaults, and relations, and validates candidate records against them.
// Definitions are immutable once built.
package schema

import (
	"regexp"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// ColumnType determines how a required column is coerced.
type ColumnType string

// Column types.
const (
	TypeNumber ColumnType = "number"
	TypeString ColumnType = "string"
	TypeDate   ColumnType = "date"
	TypeOpaque ColumnType = "opaque"
)

// validColumnTypes is the set of recognized column types.
var validColumnTypes = map[ColumnType]bool{
	TypeNumber: true,
	TypeString: true,
	TypeDate:   true,
	TypeOpaque: true,
}

// Column describes one stored column of an entity.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
	Default  any

	// Min and Max bound numeric values when set.
	Min *float64
	Max *float64

	// Pattern must match the stringified value; ErrorMsg prefixes the
	// failure message.
	Pattern  *regexp.Regexp
	ErrorMsg string

	// Unique rejects values already held by another record.
	Unique bool

	// Hashed marks a credential column whose stored value is a digest.
	// Digest-shaped values skip validation.
	Hashed bool

	// Validator runs after every built-in check.
	Validator Validator

	// References declares a many-to-one relation from this column.
	References *Reference
}

// Float returns a pointer to f, for Column.Min and Column.Max literals.
func Float(f float64) *float64 {
	return &f
}

// Validator is an optional custom check on a column. It receives the
// candidate value, every existing record of the entity (the candidate's own
// prior version excluded on update), and the candidate record itself.
type Validator interface {
	Validate(value any, records []types.Record, candidate types.Record) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(value any, records []types.Record, candidate types.Record) error

// Validate calls f.
func (f ValidatorFunc) Validate(value any, records []types.Record, candidate types.Record) error {
	return f(value, records, candidate)
}
