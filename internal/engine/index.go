package engine

// rowIndex maps record ids to 1-based sheet rows.
type rowIndex struct {
	rows map[string]int
}

func newRowIndex() *rowIndex {
	return &rowIndex{rows: make(map[string]int)}
}

func (ix *rowIndex) lookup(id string) (int, bool) {
	row, ok := ix.rows[id]
	return row, ok
}

func (ix *rowIndex) add(id string, row int) {
	ix.rows[id] = row
}

// remove drops id and moves every later row up by one, mirroring a
// single-row delete in the sheet.
func (ix *rowIndex) remove(id string) {
	row, ok := ix.rows[id]
	if !ok {
		return
	}
	delete(ix.rows, id)
	for k, r := range ix.rows {
		if r > row {
			ix.rows[k] = r - 1
		}
	}
}

func (ix *rowIndex) len() int {
	return len(ix.rows)
}
