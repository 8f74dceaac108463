package types

// Record is one entity instance keyed by column name. Every persisted record
// carries a string "id". After relation population a record also holds one
// []Record per child relation and one Record (or nil) per reference.
type Record map[string]any

// IDColumn is the reserved identifier column.
const IDColumn = "id"

// MaxDepth bounds relation traversal. Cyclic schemas rely on it to terminate.
const MaxDepth = 8

// ID returns the record identifier, or "" when unset or not a string.
func (r Record) ID() string {
	id, _ := r[IDColumn].(string)
	return id
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RemovedRecord identifies one row physically deleted by Collection.Remove.
type RemovedRecord struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// RemoveResult lists the rows a Remove call deleted, children first. It is
// returned on failure too, so callers can reconcile a partially applied
// cascade.
type RemoveResult struct {
	Removed []RemovedRecord `json:"removed"`
}
