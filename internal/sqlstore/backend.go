// Package sqlstore implements the tabular store on a SQL engine. With the
// sqlite backend, SQLite is the query engine and one JSONL file per sheet is
// the source of truth; the database is rebuilt from those files on Attach.
// With the mysql backend the server holds the data and no files are written.
package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// DatabaseFile is the SQLite file kept under DataDir.
const DatabaseFile = "rowset.db"

// Backend implements types.Backend on a SQL database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dialect  dialect
	db       *sql.DB

	// persist is true when sheets are mirrored to JSONL (sqlite).
	persist bool

	// Sync strategy state.
	syncStrategy  string         // effective sync strategy: immediate or on_close
	pendingWrites []pendingWrite // sheets awaiting JSONL persist
}

// pendingWrite is a deferred JSONL write for one sheet.
type pendingWrite struct {
	sheet     string // sheet whose JSONL file is stale
	operation string // last operation that touched it
}

// NewBackend creates a new SQL backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database described by config.
// For sqlite it creates DataDir, recreates the database file, and loads
// every sheet from JSONL. For mysql it connects to DSN and creates the grid
// tables if needed.
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

	var (
		db  *sql.DB
		err error
	)
	switch config.Backend {
	case types.BackendSQLite:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		config.DataDir = dataDir

		// The database is a cache of the JSONL files; start fresh.
		dbPath := filepath.Join(dataDir, DatabaseFile)
		_ = os.Remove(dbPath)

		b.dialect = sqliteDialect
		b.persist = true
		db, err = sql.Open(b.dialect.driver, dbPath)
	case types.BackendMySQL:
		var dsn *mysql.Config
		dsn, err = mysql.ParseDSN(config.DSN)
		if err != nil {
			return fmt.Errorf("parse dsn: %w", err)
		}
		b.dialect = mysqlDialect
		b.persist = false
		db, err = sql.Open(b.dialect.driver, dsn.FormatDSN())
	default:
		return fmt.Errorf("%w: %s is not served by the sql store", types.ErrBackendUnknown, config.Backend)
	}
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connect %s: %w", config.Backend, err)
	}
	for _, stmt := range b.dialect.ddl {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if b.persist {
		if err := loadAllJSONL(db, config.DataDir); err != nil {
			db.Close()
			return fmt.Errorf("load JSONL: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.syncStrategy = config.GetSyncStrategy()
	b.pendingWrites = nil
	b.attached = true
	return nil
}

// Detach flushes pending writes and closes the database. Idempotent.
// After Detach, all operations return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil // idempotent
	}

	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// Sheet returns a handle on an existing sheet.
func (b *Backend) Sheet(name string) (types.Sheet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	ok, err := sheetExists(b.db, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSheetNotFound, name)
	}
	return &Sheet{b: b, name: name}, nil
}

// CreateSheet registers a sheet and writes headers to row 1.
func (b *Backend) CreateSheet(name string, headers []string) (types.Sheet, error) {
	if err := b.checkSheetName(name); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ok, err := sheetExists(tx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSheetExists, name)
	}
	if err := insertSheet(tx, name); err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		if err := writeRow(tx, name, 1, row); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := b.sheetChangedLocked(name, "create"); err != nil {
		return nil, err
	}
	return &Sheet{b: b, name: name}, nil
}

// SheetNames lists sheets in creation order.
func (b *Backend) SheetNames() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return sheetNames(b.db)
}

// checkSheetName rejects names that cannot double as JSONL file names.
func (b *Backend) checkSheetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: sheet name must not be empty", types.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") || name == manifestName {
		return fmt.Errorf("%w: invalid sheet name %q", types.ErrInvalidArgument, name)
	}
	return nil
}

// Sync strategy methods

// shouldPersistImmediately returns true if JSONL writes should happen immediately.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// sheetChangedLocked persists the sheet now or queues it for Detach.
// The caller must hold b.mu write lock.
func (b *Backend) sheetChangedLocked(sheet, operation string) error {
	if !b.persist {
		return nil
	}
	if b.shouldPersistImmediately() {
		return persistSheetLocked(b.db, b.config.DataDir, sheet)
	}
	b.queueWrite(sheet, operation)
	return nil
}

// queueWrite records that sheet needs persisting. A sheet is queued once;
// the flush writes its state at that time.
func (b *Backend) queueWrite(sheet, operation string) {
	for i := range b.pendingWrites {
		if b.pendingWrites[i].sheet == sheet {
			b.pendingWrites[i].operation = operation
			return
		}
	}
	b.pendingWrites = append(b.pendingWrites, pendingWrite{sheet: sheet, operation: operation})
}

// flushPendingWritesLocked writes every queued sheet to JSONL.
// The caller must hold b.mu write lock.
func (b *Backend) flushPendingWritesLocked() error {
	if len(b.pendingWrites) == 0 {
		return nil
	}
	for _, pw := range b.pendingWrites {
		if err := persistSheetLocked(b.db, b.config.DataDir, pw.sheet); err != nil {
			return fmt.Errorf("flush %s %s: %w", pw.sheet, pw.operation, err)
		}
	}
	b.pendingWrites = nil
	return nil
}
