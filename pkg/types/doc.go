// Package types defines the Store, Sheet, Collection, and Registry interfaces,
// the Record shape, backend configuration, and the standard error values for
// the rowset mapping engine.
//
// A Store is a workbook of named sheets addressed by 1-based row and column.
// Row 1 of every sheet holds the column headers; data starts at row 2.
// A Registry binds a Store to a set of schema definitions and hands out one
// Collection per entity.
package types
