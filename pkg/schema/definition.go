package schema

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Definition is the immutable schema of one entity.
type Definition struct {
	name     string
	columns  []Column
	byName   map[string]int
	children []Child
}

// New builds a Definition. Column order becomes header order.
// Returns an error wrapping types.ErrSchema when the declaration is
// inconsistent: empty names, duplicate columns, unknown column types, or
// relations missing their target or attachment name.
func New(name string, columns []Column, children ...Child) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entity name must not be empty", types.ErrSchema)
	}

	d := &Definition{
		name:    name,
		columns: make([]Column, 0, len(columns)),
		byName:  make(map[string]int, len(columns)),
	}

	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: %s: column name must not be empty", types.ErrSchema, name)
		}
		if _, dup := d.byName[col.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate column %q", types.ErrSchema, name, col.Name)
		}
		if col.Type == "" {
			col.Type = TypeOpaque
		}
		if !validColumnTypes[col.Type] {
			return nil, fmt.Errorf("%w: %s.%s: unknown column type %q", types.ErrSchema, name, col.Name, col.Type)
		}
		if col.References != nil {
			ref := *col.References
			if ref.Entity == "" || ref.As == "" {
				return nil, fmt.Errorf("%w: %s.%s: reference needs an entity and an attachment name", types.ErrSchema, name, col.Name)
			}
			if ref.LocalKey == "" {
				ref.LocalKey = col.Name
			}
			if ref.ForeignKey == "" {
				ref.ForeignKey = types.IDColumn
			}
			col.References = &ref
		}
		d.byName[col.Name] = len(d.columns)
		d.columns = append(d.columns, col)
	}

	attachments := make(map[string]bool)
	for _, col := range d.columns {
		if col.References == nil {
			continue
		}
		if err := d.claimAttachment(attachments, col.References.As); err != nil {
			return nil, err
		}
	}

	for _, child := range children {
		if child.Entity == "" || child.ForeignKey == "" || child.As == "" {
			return nil, fmt.Errorf("%w: %s: child relation needs an entity, a foreign key and an attachment name", types.ErrSchema, name)
		}
		if child.LocalKey == "" {
			child.LocalKey = types.IDColumn
		}
		if err := d.claimAttachment(attachments, child.As); err != nil {
			return nil, err
		}
		d.children = append(d.children, child)
	}

	return d, nil
}

// MustNew is like New but panics on error. It simplifies package-level
// schema declarations.
func MustNew(name string, columns []Column, children ...Child) *Definition {
	d, err := New(name, columns, children...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Definition) claimAttachment(seen map[string]bool, as string) error {
	if _, isColumn := d.byName[as]; isColumn {
		return fmt.Errorf("%w: %s: attachment %q shadows a column", types.ErrSchema, d.name, as)
	}
	if seen[as] {
		return fmt.Errorf("%w: %s: attachment %q declared twice", types.ErrSchema, d.name, as)
	}
	seen[as] = true
	return nil
}

// Name returns the entity name.
func (d *Definition) Name() string { return d.name }

// Headers returns the column names in declaration order.
func (d *Definition) Headers() []string {
	headers := make([]string, len(d.columns))
	for i, col := range d.columns {
		headers[i] = col.Name
	}
	return headers
}

// DefaultValues returns each column's default, aligned to Headers.
func (d *Definition) DefaultValues() []any {
	defaults := make([]any, len(d.columns))
	for i, col := range d.columns {
		defaults[i] = col.Default
	}
	return defaults
}

// Columns returns a copy of the column descriptors in declaration order.
func (d *Definition) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column returns the named column descriptor.
func (d *Definition) Column(name string) (Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// ColumnIndex returns the 0-based position of the named column, or -1.
func (d *Definition) ColumnIndex(name string) int {
	i, ok := d.byName[name]
	if !ok {
		return -1
	}
	return i
}

// Children returns the declared one-to-many relations.
func (d *Definition) Children() []Child {
	out := make([]Child, len(d.children))
	copy(out, d.children)
	return out
}

// References returns the columns that declare a many-to-one relation.
func (d *Definition) References() []Column {
	var out []Column
	for _, col := range d.columns {
		if col.References != nil {
			out = append(out, col)
		}
	}
	return out
}

// Related lists every entity this definition points at through children or
// references, without duplicates.
func (d *Definition) Related() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, col := range d.columns {
		if col.References != nil {
			add(col.References.Entity)
		}
	}
	for _, child := range d.children {
		add(child.Entity)
	}
	return out
}
