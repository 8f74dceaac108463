package sqlstore

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Sheet is a handle on one sheet of an attached Backend.
type Sheet struct {
	b    *Backend
	name string
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// LastRow returns the last populated row number.
func (s *Sheet) LastRow() (int, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if !s.b.attached {
		return 0, types.ErrDetached
	}
	return lastRow(s.b.db, s.name)
}

// LastColumn returns the width of the widest populated row.
func (s *Sheet) LastColumn() (int, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if !s.b.attached {
		return 0, types.ErrDetached
	}
	return lastColumn(s.b.db, s.name)
}

// Values returns every row padded to LastColumn.
func (s *Sheet) Values() ([][]any, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if !s.b.attached {
		return nil, types.ErrDetached
	}
	rows, err := lastRow(s.b.db, s.name)
	if err != nil {
		return nil, err
	}
	cols, err := lastColumn(s.b.db, s.name)
	if err != nil {
		return nil, err
	}
	return s.readLocked(1, 1, rows, cols)
}

// Range reads a rectangle of cells.
func (s *Sheet) Range(row, col, numRows, numCols int) ([][]any, error) {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return nil, err
	}
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	if !s.b.attached {
		return nil, types.ErrDetached
	}
	return s.readLocked(row, col, numRows, numCols)
}

func (s *Sheet) readLocked(row, col, numRows, numCols int) ([][]any, error) {
	stored, err := readRows(s.b.db, s.name, row, row+numRows-1)
	if err != nil {
		return nil, err
	}
	out := make([][]any, numRows)
	for i := range out {
		out[i] = make([]any, numCols)
		cells := stored[row+i]
		for j := range out[i] {
			if c := col - 1 + j; c < len(cells) {
				out[i][j] = cells[c]
			}
		}
	}
	return out, nil
}

// SetRange writes values at (row, col).
func (s *Sheet) SetRange(row, col int, values [][]any) error {
	if err := checkRange(row, col, len(values), 1); err != nil {
		return err
	}
	return s.mutate("set", func(q querier) error {
		stored, err := readRows(q, s.name, row, row+len(values)-1)
		if err != nil {
			return err
		}
		for i, vals := range values {
			cells := stored[row+i]
			for len(cells) < col-1+len(vals) {
				cells = append(cells, nil)
			}
			copy(cells[col-1:], vals)
			if err := writeRow(q, s.name, row+i, cells); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearRange blanks a rectangle without shifting rows.
func (s *Sheet) ClearRange(row, col, numRows, numCols int) error {
	if err := checkRange(row, col, numRows, numCols); err != nil {
		return err
	}
	return s.mutate("clear", func(q querier) error {
		stored, err := readRows(q, s.name, row, row+numRows-1)
		if err != nil {
			return err
		}
		for pos, cells := range stored {
			for c := col - 1; c < col-1+numCols && c < len(cells); c++ {
				cells[c] = nil
			}
			if err := writeRow(q, s.name, pos, cells); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendRow writes values after the last row.
func (s *Sheet) AppendRow(values []any) error {
	return s.mutate("append", func(q querier) error {
		last, err := lastRow(q, s.name)
		if err != nil {
			return err
		}
		return writeRow(q, s.name, last+1, append([]any(nil), values...))
	})
}

// DeleteRows removes count rows starting at row and shifts later rows up.
func (s *Sheet) DeleteRows(row, count int) error {
	if err := checkRange(row, 1, count, 1); err != nil {
		return err
	}
	return s.mutate("delete", func(q querier) error {
		last, err := lastRow(q, s.name)
		if err != nil {
			return err
		}
		end := row + count - 1
		if end > last {
			return fmt.Errorf("%w: %s: rows %d..%d past last row %d", types.ErrInvalidRange, s.name, row, end, last)
		}
		if _, err := q.Exec(
			"DELETE FROM sheet_rows WHERE sheet = ? AND pos >= ? AND pos <= ?",
			s.name, row, end,
		); err != nil {
			return err
		}
		_, err = q.Exec(
			"UPDATE sheet_rows SET pos = pos - ? WHERE sheet = ? AND pos > ?",
			count, s.name, end,
		)
		return err
	})
}

// mutate runs fn in a transaction and then persists the sheet according to
// the sync strategy.
func (s *Sheet) mutate(operation string, fn func(q querier) error) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if !s.b.attached {
		return types.ErrDetached
	}

	tx, err := s.b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning %s on %s: %w", operation, s.name, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s on %s: %w", operation, s.name, err)
	}
	return s.b.sheetChangedLocked(s.name, operation)
}

func checkRange(row, col, numRows, numCols int) error {
	if row < 1 || col < 1 || numRows < 0 || numCols < 0 {
		return fmt.Errorf("%w: row %d col %d size %dx%d", types.ErrInvalidRange, row, col, numRows, numCols)
	}
	return nil
}
