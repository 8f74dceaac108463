package memory

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Workbook is a set of named sheets held in memory. It implements
// types.Store and is safe for concurrent use.
type Workbook struct {
	mu     sync.RWMutex
	sheets map[string]*Sheet
	order  []string
	closed bool

	// onChange runs after every mutation with mu held for writing.
	onChange func() error
}

// NewWorkbook returns an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{sheets: make(map[string]*Sheet)}
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (types.Sheet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	s, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSheetNotFound, name)
	}
	return s, nil
}

// CreateSheet adds a sheet whose first row holds headers.
func (w *Workbook) CreateSheet(name string, headers []string) (types.Sheet, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: sheet name must not be empty", types.ErrInvalidArgument)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if _, ok := w.sheets[name]; ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSheetExists, name)
	}
	s := w.addSheet(name, nil)
	if len(headers) > 0 {
		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		s.rows = [][]any{row}
	}
	return s, w.changed()
}

// SheetNames lists sheets in creation order.
func (w *Workbook) SheetNames() ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	return append([]string(nil), w.order...), nil
}

func (w *Workbook) addSheet(name string, rows [][]any) *Sheet {
	s := &Sheet{name: name, wb: w, rows: rows}
	w.sheets[name] = s
	w.order = append(w.order, name)
	return s
}

func (w *Workbook) checkOpen() error {
	if w.closed {
		return types.ErrDetached
	}
	return nil
}

func (w *Workbook) changed() error {
	if w.onChange == nil {
		return nil
	}
	return w.onChange()
}
