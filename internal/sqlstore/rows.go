package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// querier is the subset of *sql.DB and *sql.Tx the grid helpers need.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func sheetExists(q querier, name string) (bool, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM sheets WHERE name = ?", name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func insertSheet(q querier, name string) error {
	_, err := q.Exec("INSERT INTO sheets (name) VALUES (?)", name)
	return err
}

func sheetNames(q querier) ([]string, error) {
	rows, err := q.Query("SELECT name FROM sheets ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func lastRow(q querier, sheet string) (int, error) {
	var n sql.NullInt64
	if err := q.QueryRow("SELECT MAX(pos) FROM sheet_rows WHERE sheet = ?", sheet).Scan(&n); err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

func lastColumn(q querier, sheet string) (int, error) {
	var n sql.NullInt64
	if err := q.QueryRow("SELECT MAX(width) FROM sheet_rows WHERE sheet = ?", sheet).Scan(&n); err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

// readRows returns the populated rows between from and to inclusive, keyed
// by position.
func readRows(q querier, sheet string, from, to int) (map[int][]any, error) {
	rows, err := q.Query(
		"SELECT pos, cells FROM sheet_rows WHERE sheet = ? AND pos >= ? AND pos <= ?",
		sheet, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]any)
	for rows.Next() {
		var pos int
		var raw string
		if err := rows.Scan(&pos, &raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: %w", sheet, pos, err)
		}
		out[pos] = cells
	}
	return out, rows.Err()
}

// writeRow replaces the row at pos. Empty rows are not stored.
func writeRow(q querier, sheet string, pos int, cells []any) error {
	if _, err := q.Exec("DELETE FROM sheet_rows WHERE sheet = ? AND pos = ?", sheet, pos); err != nil {
		return err
	}
	cells = trimCells(cells)
	if len(cells) == 0 {
		return nil
	}
	raw, err := encodeCells(cells)
	if err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, pos, err)
	}
	_, err = q.Exec(
		"INSERT INTO sheet_rows (sheet, pos, width, cells) VALUES (?, ?, ?, ?)",
		sheet, pos, len(cells), string(raw),
	)
	return err
}

func encodeCells(cells []any) ([]byte, error) {
	return json.Marshal(cells)
}

func decodeCells(raw []byte) ([]any, error) {
	var cells []any
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// trimCells drops trailing nil cells.
func trimCells(cells []any) []any {
	n := len(cells)
	for n > 0 && cells[n-1] == nil {
		n--
	}
	return cells[:n]
}
