package sqlstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// manifestName is the JSONL file listing sheets in creation order. It is
// reserved and cannot be used as a sheet name.
const manifestName = "sheets"

// manifestEntry is one line of the manifest.
type manifestEntry struct {
	Name string `json:"name"`
}

func sheetPath(dataDir, sheet string) string {
	return filepath.Join(dataDir, sheet+".jsonl")
}

// readJSONL reads a JSONL file and returns one entry per line. Blank and
// malformed lines come back as nil so that line numbers keep their meaning.
// A missing file reads as empty.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			records = append(records, nil)
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
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

// persistSheetLocked writes the manifest and the sheet's rows, one JSON
// array per line in row order. Empty rows are written as [].
func persistSheetLocked(q querier, dataDir, sheet string) error {
	names, err := sheetNames(q)
	if err != nil {
		return err
	}
	manifest := make([]json.RawMessage, 0, len(names))
	for _, name := range names {
		line, err := json.Marshal(manifestEntry{Name: name})
		if err != nil {
			return err
		}
		manifest = append(manifest, line)
	}
	if err := writeJSONL(sheetPath(dataDir, manifestName), manifest); err != nil {
		return err
	}

	last, err := lastRow(q, sheet)
	if err != nil {
		return err
	}
	stored, err := readRows(q, sheet, 1, last)
	if err != nil {
		return err
	}
	lines := make([]json.RawMessage, last)
	for pos := 1; pos <= last; pos++ {
		cells, ok := stored[pos]
		if !ok {
			lines[pos-1] = json.RawMessage("[]")
			continue
		}
		raw, err := encodeCells(cells)
		if err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, pos, err)
		}
		lines[pos-1] = raw
	}
	return writeJSONL(sheetPath(dataDir, sheet), lines)
}
