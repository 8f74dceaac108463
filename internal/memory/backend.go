package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// WorkbookFile is the file the bson backend keeps under DataDir.
const WorkbookFile = "workbook.bson"

// Backend implements types.Backend over a Workbook. With the memory backend
// the workbook lives only until Detach. With the bson backend it is loaded
// from DataDir on Attach and written back according to the sync strategy.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	wb       *Workbook
	path     string
	dirty    bool
}

// NewBackend creates a detached backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the workbook described by config.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	wb := NewWorkbook()
	switch config.Backend {
	case types.BackendMemory:
	case types.BackendBSON:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		b.path = filepath.Join(dataDir, WorkbookFile)
		if err := loadWorkbook(b.path, wb); err != nil {
			return fmt.Errorf("load workbook: %w", err)
		}
		immediate := config.GetSyncStrategy() == types.SyncImmediate
		wb.onChange = func() error {
			if !immediate {
				b.dirty = true
				return nil
			}
			return saveWorkbookLocked(b.path, wb)
		}
	default:
		return fmt.Errorf("%w: %s is not served by the memory package", types.ErrBackendUnknown, config.Backend)
	}

	b.wb = wb
	b.config = config
	b.dirty = false
	b.attached = true
	return nil
}

// Detach flushes pending writes and closes the workbook. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	wb := b.wb
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if b.dirty {
		if err := saveWorkbookLocked(b.path, wb); err != nil {
			return fmt.Errorf("flush workbook: %w", err)
		}
		b.dirty = false
	}
	wb.closed = true
	b.wb = nil
	b.attached = false
	return nil
}

// Sheet returns the named sheet.
func (b *Backend) Sheet(name string) (types.Sheet, error) {
	wb, err := b.workbook()
	if err != nil {
		return nil, err
	}
	return wb.Sheet(name)
}

// CreateSheet adds a sheet seeded with headers.
func (b *Backend) CreateSheet(name string, headers []string) (types.Sheet, error) {
	wb, err := b.workbook()
	if err != nil {
		return nil, err
	}
	return wb.CreateSheet(name, headers)
}

// SheetNames lists sheets in creation order.
func (b *Backend) SheetNames() ([]string, error) {
	wb, err := b.workbook()
	if err != nil {
		return nil, err
	}
	return wb.SheetNames()
}

func (b *Backend) workbook() (*Workbook, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.wb, nil
}
