// Package memory implements an in-process workbook of sheets. The bare
// workbook backs the memory backend; with a data directory it persists as a
// single BSON document and backs the bson backend.
package memory

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Sheet is an in-memory grid. Rows are stored ragged; reads pad with nil.
type Sheet struct {
	name string
	wb   *Workbook
	rows [][]any
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// LastRow returns the last populated row number.
func (s *Sheet) LastRow() (int, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	if err := s.wb.checkOpen(); err != nil {
		return 0, err
	}
	return len(s.rows), nil
}

// LastColumn returns the width of the widest populated row.
func (s *Sheet) LastColumn() (int, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	if err := s.wb.checkOpen(); err != nil {
		return 0, err
	}
	return s.width(), nil
}

// Values returns every row padded to LastColumn.
func (s *Sheet) Values() ([][]any, error) {
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	if err := s.wb.checkOpen(); err != nil {
		return nil, err
	}
	return s.read(1, 1, len(s.rows), s.width()), nil
}

// Range reads a rectangle of cells.
func (s *Sheet) Range(row, col, numRows, numCols int) ([][]any, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	s.wb.mu.RLock()
	defer s.wb.mu.RUnlock()
	if err := s.wb.checkOpen(); err != nil {
		return nil, err
	}
	return s.read(row, col, numRows, numCols), nil
}

// SetRange writes values at (row, col).
func (s *Sheet) SetRange(row, col int, values [][]any) error {
	if err := checkRange(row, col, len(values), 1); err != nil {
		return err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	if err := s.wb.checkOpen(); err != nil {
		return err
	}
	for i, vals := range values {
		r := row - 1 + i
		for len(s.rows) <= r {
			s.rows = append(s.rows, nil)
		}
		s.rows[r] = writeCells(s.rows[r], col-1, vals)
	}
	s.trim()
	return s.wb.changed()
}

// ClearRange blanks a rectangle without shifting rows.
func (s *Sheet) ClearRange(row, col, numRows, numCols int) error {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	if err := s.wb.checkOpen(); err != nil {
		return err
	}
	for r := row - 1; r < row-1+numRows && r < len(s.rows); r++ {
		cells := s.rows[r]
		for c := col - 1; c < col-1+numCols && c < len(cells); c++ {
			cells[c] = nil
		}
		s.rows[r] = trimCells(cells)
	}
	s.trim()
	return s.wb.changed()
}

// AppendRow writes values after the last row.
func (s *Sheet) AppendRow(values []any) error {
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	if err := s.wb.checkOpen(); err != nil {
		return err
	}
	s.rows = append(s.rows, trimCells(append([]any(nil), values...)))
	s.trim()
	return s.wb.changed()
}

// DeleteRows removes count rows starting at row.
func (s *Sheet) DeleteRows(row, count int) error {
	if err := checkRange(row, 1, count, 1); err != nil {
		return err
	}
	s.wb.mu.Lock()
	defer s.wb.mu.Unlock()
	if err := s.wb.checkOpen(); err != nil {
		return err
	}
	if row-1+count > len(s.rows) {
		return fmt.Errorf("%w: %s: rows %d..%d past last row %d", types.ErrInvalidRange, s.name, row, row+count-1, len(s.rows))
	}
	s.rows = append(s.rows[:row-1], s.rows[row-1+count:]...)
	return s.wb.changed()
}

func (s *Sheet) width() int {
	w := 0
	for _, r := range s.rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func (s *Sheet) read(row, col, numRows, numCols int) [][]any {
	out := make([][]any, numRows)
	for i := range out {
		out[i] = make([]any, numCols)
		r := row - 1 + i
		if r >= len(s.rows) {
			continue
		}
		cells := s.rows[r]
		for j := range out[i] {
			if c := col - 1 + j; c < len(cells) {
				out[i][j] = cells[c]
			}
		}
	}
	return out
}

// trim drops trailing empty rows so LastRow tracks content.
func (s *Sheet) trim() {
	n := len(s.rows)
	for n > 0 && len(s.rows[n-1]) == 0 {
		n--
	}
	s.rows = s.rows[:n]
}

func writeCells(cells []any, offset int, vals []any) []any {
	for len(cells) < offset+len(vals) {
		cells = append(cells, nil)
	}
	copy(cells[offset:], vals)
	return trimCells(cells)
}

// trimCells drops trailing nil cells.
func trimCells(cells []any) []any {
	n := len(cells)
	for n > 0 && cells[n-1] == nil {
		n--
	}
	return cells[:n]
}

func checkRange(row, col, numRows, numCols int) error {
	if row < 1 || col < 1 || numRows < 0 || numCols < 0 {
		return fmt.Errorf("%w: row %d col %d size %dx%d", types.ErrInvalidRange, row, col, numRows, numCols)
	}
	return nil
}
