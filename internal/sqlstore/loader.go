package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// loadAllJSONL reads the manifest and every listed sheet file into the
// database. Loading is transactional: all succeed or the database remains
// empty. Malformed manifest lines are skipped; malformed row lines load as
// empty rows so later rows keep their positions.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	manifest, err := readJSONL(sheetPath(dataDir, manifestName))
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range manifest {
		var entry manifestEntry
		if line == nil || json.Unmarshal(line, &entry) != nil || entry.Name == "" {
			continue
		}
		if ok, err := sheetExists(tx, entry.Name); err != nil {
			return err
		} else if ok {
			continue
		}
		if err := insertSheet(tx, entry.Name); err != nil {
			return fmt.Errorf("registering sheet %s: %w", entry.Name, err)
		}
		if err := loadSheet(tx, dataDir, entry.Name); err != nil {
			return fmt.Errorf("loading sheet %s: %w", entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

func loadSheet(tx *sql.Tx, dataDir, sheet string) error {
	lines, err := readJSONL(sheetPath(dataDir, sheet))
	if err != nil {
		return err
	}
	for i, line := range lines {
		if line == nil {
			continue
		}
		cells, err := decodeCells(line)
		if err != nil {
			// Not an array; keep the position empty.
			continue
		}
		if err := writeRow(tx, sheet, i+1, cells); err != nil {
			return err
		}
	}
	return nil
}
