package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraintError(t *testing.T) {
	err := fmt.Errorf("insert Users: %w", &UniqueConstraintError{Column: "email", Value: "a@x.com"})

	assert.ErrorIs(t, err, ErrUniqueConstraint)

	var uce *UniqueConstraintError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "email", uce.Column)
	assert.Equal(t, "a@x.com", uce.Value)
	assert.Contains(t, err.Error(), `"email"`)
}

func TestRecordHelpers(t *testing.T) {
	r := Record{"id": "abc", "name": "x"}
	assert.Equal(t, "abc", r.ID())
	assert.Equal(t, "", Record{"id": 7}.ID())

	c := r.Clone()
	c["name"] = "y"
	assert.Equal(t, "x", r["name"])
}
