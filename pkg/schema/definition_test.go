package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

func TestNewDefinition(t *testing.T) {
	def, err := New("Orders",
		[]Column{
			{Name: "id", Type: TypeString},
			{Name: "userId", References: &Reference{Entity: "Users", As: "user"}},
			{Name: "total", Type: TypeNumber, Required: true, Default: 0},
			{Name: "note"},
		},
		Child{Entity: "Lines", ForeignKey: "orderId", As: "lines", OnDelete: Cascade},
	)
	require.NoError(t, err)

	assert.Equal(t, "Orders", def.Name())
	assert.Equal(t, []string{"id", "userId", "total", "note"}, def.Headers())
	assert.Equal(t, []any{nil, nil, 0, nil}, def.DefaultValues())
	assert.Equal(t, 2, def.ColumnIndex("total"))
	assert.Equal(t, -1, def.ColumnIndex("missing"))

	note, ok := def.Column("note")
	require.True(t, ok)
	assert.Equal(t, TypeOpaque, note.Type, "empty type defaults to opaque")

	refs := def.References()
	require.Len(t, refs, 1)
	assert.Equal(t, "userId", refs[0].References.LocalKey, "local key defaults to the column")
	assert.Equal(t, "id", refs[0].References.ForeignKey, "foreign key defaults to id")

	children := def.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "id", children[0].LocalKey, "child local key defaults to id")

	assert.Equal(t, []string{"Users", "Lines"}, def.Related())
}

func TestNewDefinitionIsImmutable(t *testing.T) {
	ref := &Reference{Entity: "Users", As: "user"}
	cols := []Column{{Name: "id"}, {Name: "userId", References: ref}}
	def := MustNew("Orders", cols)

	cols[0].Name = "changed"
	ref.As = "changed"
	headers := def.Headers()
	headers[0] = "mutated"

	assert.Equal(t, []string{"id", "userId"}, def.Headers())
	assert.Equal(t, "user", def.References()[0].References.As)
}

func TestNewDefinitionErrors(t *testing.T) {
	tests := []struct {
		name     string
		entity   string
		columns  []Column
		children []Child
	}{
		{name: "empty entity name", entity: "", columns: []Column{{Name: "id"}}},
		{name: "empty column name", entity: "E", columns: []Column{{Name: ""}}},
		{name: "duplicate column", entity: "E", columns: []Column{{Name: "id"}, {Name: "id"}}},
		{name: "unknown type", entity: "E", columns: []Column{{Name: "id", Type: "uuid"}}},
		{
			name:    "reference without entity",
			entity:  "E",
			columns: []Column{{Name: "p", References: &Reference{As: "parent"}}},
		},
		{
			name:    "reference without attachment",
			entity:  "E",
			columns: []Column{{Name: "p", References: &Reference{Entity: "P"}}},
		},
		{
			name:     "child without foreign key",
			entity:   "E",
			columns:  []Column{{Name: "id"}},
			children: []Child{{Entity: "C", As: "cs"}},
		},
		{
			name:     "attachment shadows column",
			entity:   "E",
			columns:  []Column{{Name: "id"}, {Name: "items"}},
			children: []Child{{Entity: "C", ForeignKey: "eId", As: "items"}},
		},
		{
			name:    "attachment declared twice",
			entity:  "E",
			columns: []Column{{Name: "id"}, {Name: "a", References: &Reference{Entity: "P", As: "p"}}},
			children: []Child{
				{Entity: "C", ForeignKey: "eId", As: "p"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entity, tt.columns, tt.children...)
			assert.ErrorIs(t, err, types.ErrSchema)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew("", nil) })
}
