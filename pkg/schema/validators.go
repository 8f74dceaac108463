package schema

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// OneOf returns a Validator that accepts only the listed values. Empty
// values pass; combine with Required to forbid them.
func OneOf(values ...any) Validator {
	return ValidatorFunc(func(value any, _ []types.Record, _ types.Record) error {
		if isEmpty(value) {
			return nil
		}
		for _, allowed := range values {
			if SameValue(value, allowed) {
				return nil
			}
		}
		return fmt.Errorf("%w: value %v is not one of %v", types.ErrValidation, value, values)
	})
}
