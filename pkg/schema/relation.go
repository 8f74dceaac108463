package schema

// DeletionPolicy decides what removing a parent does to its children.
type DeletionPolicy string

// Deletion policies.
const (
	Restrict DeletionPolicy = "restrict"
	Cascade  DeletionPolicy = "cascade"
)

// Reference is a many-to-one relation declared on the child column. The
// parent record whose ForeignKey equals the child's LocalKey is attached to
// the child under As.
type Reference struct {
	Entity     string
	LocalKey   string // defaults to the declaring column
	ForeignKey string // defaults to "id"
	As         string
}

// Child is a one-to-many relation declared on the parent. Every record of
// Entity whose ForeignKey equals the parent's LocalKey is attached to the
// parent under As.
type Child struct {
	Entity     string
	LocalKey   string // defaults to "id"
	ForeignKey string
	As         string
	OnDelete   DeletionPolicy
}
