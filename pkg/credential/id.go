// Package credential provides record identifiers and one-way digests for
// credential columns.
package credential

import "github.com/google/uuid"

// NewID returns a new UUID v7 string. It falls back to a random v4 when the
// v7 generator fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
