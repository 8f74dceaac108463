package types

// Collection provides schema-checked CRUD and relation loading for one
// entity. Read operations take a relation depth in [0, MaxDepth]; depth 0
// never attaches relation fields.
type Collection interface {
	// Name returns the entity name.
	Name() string

	// BuildIndex rebuilds the id -> row index from the store.
	// Returns ErrSchema if the entity declares no id column.
	BuildIndex() error

	// FindByID returns the record with the given id, or nil when the id is
	// unknown. A missing id is not an error.
	FindByID(id string, depth int) (Record, error)

	// All returns every record, served from the collection cache when present.
	All(depth int) ([]Record, error)

	// Where filters All(0) with pred.
	Where(pred func(Record) bool) ([]Record, error)

	// Count returns the number of records.
	Count() (int, error)

	// Insert validates rec, assigns a fresh id, hashes hashFields, and appends
	// it. The passed record is modified in place and returned.
	// Returns ErrInvalidArgument for a nil record.
	Insert(rec Record, hashFields ...string) (Record, error)

	// Update validates rec against every other record and overwrites the row
	// for id. Returns ErrNotFound for an unknown id and ErrInvalidArgument
	// when rec carries a different id.
	Update(id string, rec Record, hashFields ...string) (Record, error)

	// Remove deletes the record after applying the child deletion policies.
	// An unknown id is a no-op. Returns ErrIntegrity when a restrict
	// relation has matching children.
	Remove(id string) (RemoveResult, error)

	// RemoveAll deletes every data row without integrity checks.
	RemoveAll() error
}

// Registry owns one Collection per entity over a single Store.
type Registry interface {
	// Collection returns the collection for the named entity.
	// Returns ErrUnknownEntity if the name is not registered.
	Collection(name string) (Collection, error)

	// Entities lists registered entity names in registration order.
	Entities() []string

	// Invalidate drops every cached snapshot of the named entity and the
	// relation-populated snapshots of entities that embed its records.
	Invalidate(name string)

	// InvalidateAll drops every cached snapshot.
	InvalidateAll()
}

// CachePolicy selects how the collection cache keys snapshots.
type CachePolicy string

const (
	// CachePerDepth keys snapshots by entity and relation depth, so a
	// deeper read never receives a shallower cached graph.
	CachePerDepth CachePolicy = "per_depth"

	// CacheShared keeps one snapshot per entity, reused whatever depth a
	// later caller asks for.
	CacheShared CachePolicy = "shared"
)
