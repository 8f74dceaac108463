package schema

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/rowset/pkg/credential"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Validate checks candidate against every column in declaration order and
// stops at the first failure. It writes defaults and coerced values back into
// candidate, so callers must treat the record as modified.
//
// existing is the entity's current record set; on update it must exclude the
// candidate's own prior version so unique columns do not collide with
// themselves.
func (d *Definition) Validate(candidate types.Record, existing []types.Record) error {
	if candidate == nil {
		return fmt.Errorf("%w: %s: candidate record is nil", types.ErrInvalidArgument, d.name)
	}
	for i := range d.columns {
		if err := d.validateColumn(&d.columns[i], candidate, existing); err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition) validateColumn(col *Column, candidate types.Record, existing []types.Record) error {
	value := candidate[col.Name]

	if col.Hashed && credential.IsHashed(value) {
		return nil
	}

	if isEmpty(value) && col.Default != nil {
		value = col.Default
		candidate[col.Name] = value
	}

	if col.Required {
		if isEmpty(value) {
			return d.invalid(col, "is required but not provided")
		}
		coerced, err := coerce(col.Type, value)
		if err != nil {
			return d.invalid(col, fmt.Sprintf("must be a %s: value %v (%T)", col.Type, value, value))
		}
		value = coerced
		candidate[col.Name] = value
	}

	if col.Pattern != nil {
		s := cast.ToString(value)
		if !col.Pattern.MatchString(s) {
			if col.ErrorMsg != "" {
				return fmt.Errorf("%w: %s %s", types.ErrValidation, col.ErrorMsg, s)
			}
			return d.invalid(col, fmt.Sprintf("has an invalid format: %s", s))
		}
	}

	if col.Min != nil || col.Max != nil {
		if f, ok := toNumber(value); ok {
			if col.Min != nil && f < *col.Min {
				return d.invalid(col, fmt.Sprintf("cannot be less than %v", *col.Min))
			}
			if col.Max != nil && f > *col.Max {
				return d.invalid(col, fmt.Sprintf("cannot be greater than %v", *col.Max))
			}
		}
	}

	// SameValue never matches nil, so a missing value never collides. An
	// empty string collides with another empty string.
	if col.Unique {
		for _, rec := range existing {
			if SameValue(rec[col.Name], value) {
				return &types.UniqueConstraintError{Column: col.Name, Value: value}
			}
		}
	}

	return d.runValidator(col, value, candidate, existing)
}

func (d *Definition) runValidator(col *Column, value any, candidate types.Record, existing []types.Record) error {
	if col.Validator == nil {
		return nil
	}
	return col.Validator.Validate(value, existing, candidate)
}

func (d *Definition) invalid(col *Column, reason string) error {
	return fmt.Errorf("%w: %s: column %q %s", types.ErrValidation, d.name, col.Name, reason)
}

// coerce converts a required column's value to its declared type. Opaque
// values pass through untouched.
func coerce(t ColumnType, value any) (any, error) {
	switch t {
	case TypeNumber:
		if s, ok := value.(string); ok {
			value = strings.TrimSpace(s)
		}
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) {
			return nil, fmt.Errorf("not a number")
		}
		return f, nil
	case TypeString:
		return cast.ToString(value), nil
	case TypeDate:
		return cast.ToTimeE(value)
	default:
		return value, nil
	}
}

// isEmpty reports whether v counts as "not provided": nil or the empty
// string. Zero and false are values.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// toNumber returns v as a float64 when v is numeric or a numeric string.
// Empty values are not numbers, so range checks skip them.
func toNumber(v any) (float64, bool) {
	if isEmpty(v) {
		return 0, false
	}
	switch v.(type) {
	case time.Time, bool:
		return 0, false
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// SameValue compares two cell values the way unique columns do: numbers
// compare by value whatever their Go type, times by instant, everything else
// by deep equality. Strings never equal numbers.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isNumeric(a) && isNumeric(b) {
		fa, _ := cast.ToFloat64E(a)
		fb, _ := cast.ToFloat64E(b)
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func isNumeric(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
