package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// workbookDoc is the persisted shape of a workbook.
type workbookDoc struct {
	Version int        `bson:"version"`
	Sheets  []sheetDoc `bson:"sheets"`
}

type sheetDoc struct {
	Name string  `bson:"name"`
	Rows [][]any `bson:"rows"`
}

const workbookVersion = 1

// loadWorkbook fills wb from path. A missing file leaves wb empty.
func loadWorkbook(path string, wb *Workbook) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc workbookDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	for _, sd := range doc.Sheets {
		rows := make([][]any, len(sd.Rows))
		for i, r := range sd.Rows {
			cells := make([]any, len(r))
			for j, c := range r {
				cells[j] = fromBSON(c)
			}
			rows[i] = trimCells(cells)
		}
		wb.addSheet(sd.Name, rows)
	}
	return nil
}

// saveWorkbookLocked writes wb to path atomically. The caller holds wb.mu.
func saveWorkbookLocked(path string, wb *Workbook) error {
	doc := workbookDoc{Version: workbookVersion}
	for _, name := range wb.order {
		doc.Sheets = append(doc.Sheets, sheetDoc{Name: name, Rows: wb.sheets[name].rows})
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return writeFileAtomic(path, data)
}

// fromBSON maps decoded BSON values back to the cell types the engine
// writes: time.Time for dates, int64 for integers, plain slices and maps for
// nested values.
func fromBSON(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case int32:
		return int64(x)
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromBSON(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// writeFileAtomic writes data using the temp-file, fsync, rename pattern.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".workbook-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
