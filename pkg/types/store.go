package types

// Sheet is a single table in a Store. Rows and columns are 1-based; row 1
// holds the headers. Cells are untyped; missing cells read as nil.
type Sheet interface {
	// Name returns the sheet name.
	Name() string

	// LastRow returns the last populated row number, or 0 for an empty sheet.
	LastRow() (int, error)

	// LastColumn returns the width of the widest populated row.
	LastColumn() (int, error)

	// Values returns the full data range, header row included.
	Values() ([][]any, error)

	// Range reads a numRows x numCols rectangle starting at (row, col).
	// Cells outside populated data are nil.
	Range(row, col, numRows, numCols int) ([][]any, error)

	// SetRange writes values starting at (row, col), growing the sheet
	// when the rectangle extends past the last row.
	SetRange(row, col int, values [][]any) error

	// ClearRange blanks a numRows x numCols rectangle without shifting rows.
	ClearRange(row, col, numRows, numCols int) error

	// AppendRow writes values to the row after LastRow.
	AppendRow(values []any) error

	// DeleteRows removes count rows starting at row. Later rows shift up.
	DeleteRows(row, count int) error
}

// Store is a workbook of named sheets.
type Store interface {
	// Sheet opens an existing sheet.
	// Returns ErrSheetNotFound if no sheet has that name.
	Sheet(name string) (Sheet, error)

	// CreateSheet creates a sheet and seeds row 1 with headers.
	// Returns ErrSheetExists if the name is taken.
	CreateSheet(name string, headers []string) (Sheet, error)

	// SheetNames lists sheets in creation order.
	SheetNames() ([]string, error)
}

// Backend is a Store with an attach/detach lifecycle. Callers attach to a
// backend, use its sheets, and detach when done.
type Backend interface {
	Store

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach flushes pending writes and releases resources. Idempotent.
	// After Detach, sheet operations return ErrDetached.
	Detach() error
}
