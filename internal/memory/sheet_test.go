package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

func newSheet(t *testing.T, headers ...string) types.Sheet {
	t.Helper()
	s, err := NewWorkbook().CreateSheet("Users", headers)
	require.NoError(t, err)
	return s
}

func TestSheetOperations(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s types.Sheet)
		check func(t *testing.T, s types.Sheet)
	}{
		{
			name: "headers seed row one",
			check: func(t *testing.T, s types.Sheet) {
				last, err := s.LastRow()
				require.NoError(t, err)
				assert.Equal(t, 1, last)
				width, err := s.LastColumn()
				require.NoError(t, err)
				assert.Equal(t, 3, width)
			},
		},
		{
			name: "append pads reads with nil",
			setup: func(t *testing.T, s types.Sheet) {
				require.NoError(t, s.AppendRow([]any{"1", "ann"}))
			},
			check: func(t *testing.T, s types.Sheet) {
				got, err := s.Range(2, 1, 1, 3)
				require.NoError(t, err)
				assert.Equal(t, [][]any{{"1", "ann", nil}}, got)
			},
		},
		{
			name: "range past last row reads nil",
			check: func(t *testing.T, s types.Sheet) {
				got, err := s.Range(5, 2, 2, 2)
				require.NoError(t, err)
				assert.Equal(t, [][]any{{nil, nil}, {nil, nil}}, got)
			},
		},
		{
			name: "set range overwrites and grows",
			setup: func(t *testing.T, s types.Sheet) {
				require.NoError(t, s.AppendRow([]any{"1", "ann", "a@x"}))
				require.NoError(t, s.SetRange(2, 2, [][]any{{"anne"}}))
				require.NoError(t, s.SetRange(3, 1, [][]any{{"2", "bob", "b@x", "extra"}}))
			},
			check: func(t *testing.T, s types.Sheet) {
				vals, err := s.Values()
				require.NoError(t, err)
				assert.Equal(t, [][]any{
					{"id", "name", "email", nil},
					{"1", "anne", "a@x", nil},
					{"2", "bob", "b@x", "extra"},
				}, vals)
			},
		},
		{
			name: "delete rows shifts later rows up",
			setup: func(t *testing.T, s types.Sheet) {
				for _, id := range []string{"1", "2", "3", "4"} {
					require.NoError(t, s.AppendRow([]any{id}))
				}
				require.NoError(t, s.DeleteRows(3, 2))
			},
			check: func(t *testing.T, s types.Sheet) {
				vals, err := s.Range(2, 1, 2, 1)
				require.NoError(t, err)
				assert.Equal(t, [][]any{{"1"}, {"4"}}, vals)
				last, _ := s.LastRow()
				assert.Equal(t, 3, last)
			},
		},
		{
			name: "delete past last row fails",
			check: func(t *testing.T, s types.Sheet) {
				assert.ErrorIs(t, s.DeleteRows(2, 1), types.ErrInvalidRange)
			},
		},
		{
			name: "clear range keeps rows in place",
			setup: func(t *testing.T, s types.Sheet) {
				require.NoError(t, s.AppendRow([]any{"1", "ann"}))
				require.NoError(t, s.ClearRange(1, 1, 1, 3))
			},
			check: func(t *testing.T, s types.Sheet) {
				last, _ := s.LastRow()
				assert.Equal(t, 2, last)
				vals, _ := s.Range(1, 1, 2, 2)
				assert.Equal(t, [][]any{{nil, nil}, {"1", "ann"}}, vals)
			},
		},
		{
			name: "clearing the last row drops it",
			setup: func(t *testing.T, s types.Sheet) {
				require.NoError(t, s.AppendRow([]any{"1"}))
				require.NoError(t, s.ClearRange(2, 1, 1, 5))
			},
			check: func(t *testing.T, s types.Sheet) {
				last, _ := s.LastRow()
				assert.Equal(t, 1, last)
			},
		},
		{
			name: "invalid coordinates rejected",
			check: func(t *testing.T, s types.Sheet) {
				_, err := s.Range(0, 1, 1, 1)
				assert.ErrorIs(t, err, types.ErrInvalidRange)
				assert.ErrorIs(t, s.ClearRange(1, 0, 1, 1), types.ErrInvalidRange)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSheet(t, "id", "name", "email")
			if tt.setup != nil {
				tt.setup(t, s)
			}
			tt.check(t, s)
		})
	}
}

func TestWorkbookSheets(t *testing.T) {
	wb := NewWorkbook()
	_, err := wb.CreateSheet("B", []string{"id"})
	require.NoError(t, err)
	_, err = wb.CreateSheet("A", nil)
	require.NoError(t, err)

	_, err = wb.CreateSheet("A", nil)
	assert.ErrorIs(t, err, types.ErrSheetExists)
	_, err = wb.CreateSheet("", nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = wb.Sheet("C")
	assert.ErrorIs(t, err, types.ErrSheetNotFound)

	names, err := wb.SheetNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, names)

	a, err := wb.Sheet("A")
	require.NoError(t, err)
	last, _ := a.LastRow()
	assert.Equal(t, 0, last)
}
