package engine

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Collection implements types.Collection for one entity.
type Collection struct {
	reg     *Registry
	def     *schema.Definition
	sheet   types.Sheet
	headers []string
	columns []schema.Column
	index   *rowIndex // nil until first id-based access
}

func newCollection(reg *Registry, def *schema.Definition, sheet types.Sheet) *Collection {
	return &Collection{
		reg:     reg,
		def:     def,
		sheet:   sheet,
		headers: def.Headers(),
		columns: def.Columns(),
	}
}

// Name returns the entity name.
func (c *Collection) Name() string { return c.def.Name() }

// Definition returns the entity schema.
func (c *Collection) Definition() *schema.Definition { return c.def }

// BuildIndex reads the id column and replaces the row index.
func (c *Collection) BuildIndex() error {
	idCol := c.def.ColumnIndex(types.IDColumn)
	if idCol < 0 {
		return fmt.Errorf("%w: %s has no %q column", types.ErrSchema, c.Name(), types.IDColumn)
	}

	ix := newRowIndex()
	lastRow, err := c.sheet.LastRow()
	if err != nil {
		return err
	}
	if lastRow > 1 {
		ids, err := c.sheet.Range(2, idCol+1, lastRow-1, 1)
		if err != nil {
			return err
		}
		for i, cells := range ids {
			if id := cast.ToString(cells[0]); id != "" {
				ix.add(id, i+2)
			}
		}
	}
	c.index = ix
	c.reg.log.Debugw("built row index", "entity", c.Name(), "rows", ix.len())
	return nil
}

func (c *Collection) ensureIndex() error {
	if c.index != nil {
		return nil
	}
	return c.BuildIndex()
}

// FindByID returns the record with the given id, or nil when it is unknown.
func (c *Collection) FindByID(id string, depth int) (types.Record, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	if err := c.ensureIndex(); err != nil {
		return nil, err
	}
	row, ok := c.index.lookup(id)
	if !ok {
		return nil, nil
	}

	cells, err := c.sheet.Range(row, 1, 1, len(c.headers))
	if err != nil {
		return nil, err
	}
	rec := c.rowToRecord(cells[0])

	if depth > 0 {
		recs := []types.Record{rec}
		if err := c.populateReferences(recs, depth); err != nil {
			return nil, err
		}
		if err := c.populateChildren(recs, depth); err != nil {
			return nil, err
		}
		return cloneGraph(rec), nil
	}
	return rec, nil
}

// All returns every record of the entity. Relations are attached when depth
// is positive. Results come from the registry cache when present; the
// returned records, nested relation records included, are copies.
func (c *Collection) All(depth int) ([]types.Record, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	recs, err := c.snapshot(depth)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, len(recs))
	for i, rec := range recs {
		out[i] = cloneGraph(rec)
	}
	return out, nil
}

// snapshot returns the cached record set at depth, reading and populating
// it on a miss.
func (c *Collection) snapshot(depth int) ([]types.Record, error) {
	if recs, ok := c.reg.cache.Get(c.Name(), depth); ok {
		return recs, nil
	}
	c.reg.log.Debugw("cache miss", "entity", c.Name(), "depth", depth)

	recs, err := c.readAll()
	if err != nil {
		return nil, err
	}
	if depth > 0 {
		if err := c.populateChildren(recs, depth); err != nil {
			return nil, err
		}
		if err := c.populateReferences(recs, depth); err != nil {
			return nil, err
		}
	}
	c.reg.cache.Put(c.Name(), depth, recs)
	return recs, nil
}

func (c *Collection) readAll() ([]types.Record, error) {
	lastRow, err := c.sheet.LastRow()
	if err != nil {
		return nil, err
	}
	if lastRow < 2 {
		return []types.Record{}, nil
	}
	rows, err := c.sheet.Range(2, 1, lastRow-1, len(c.headers))
	if err != nil {
		return nil, err
	}
	recs := make([]types.Record, len(rows))
	for i, row := range rows {
		recs[i] = c.rowToRecord(row)
	}
	return recs, nil
}

// Where returns the depth-0 records for which pred is true.
func (c *Collection) Where(pred func(types.Record) bool) ([]types.Record, error) {
	all, err := c.All(0)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, 0, len(all))
	for _, rec := range all {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of records.
func (c *Collection) Count() (int, error) {
	recs, err := c.snapshot(0)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Insert assigns a fresh id, validates rec against the stored records,
// hashes hashFields, and appends the row.
func (c *Collection) Insert(rec types.Record, hashFields ...string) (types.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: %s: record to insert is nil", types.ErrInvalidArgument, c.Name())
	}
	if c.def.ColumnIndex(types.IDColumn) < 0 {
		return nil, fmt.Errorf("%w: %s has no %q column to hold the new id", types.ErrSchema, c.Name(), types.IDColumn)
	}

	rec[types.IDColumn] = c.reg.newID()
	existing, err := c.snapshot(0)
	if err != nil {
		return nil, err
	}
	if err := c.def.Validate(rec, existing); err != nil {
		return nil, err
	}
	c.hashFields(rec, hashFields)

	if err := c.sheet.AppendRow(c.recordToRow(rec)); err != nil {
		return nil, err
	}
	if c.index != nil {
		lastRow, err := c.sheet.LastRow()
		if err != nil {
			c.index = nil
		} else {
			c.index.add(rec.ID(), lastRow)
		}
	}
	c.reg.Invalidate(c.Name())
	return rec, nil
}

// Update validates rec against every other record and overwrites the row
// holding id.
func (c *Collection) Update(id string, rec types.Record, hashFields ...string) (types.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: %s: record to update is nil", types.ErrInvalidArgument, c.Name())
	}
	if err := c.ensureIndex(); err != nil {
		return nil, err
	}
	row, ok := c.index.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", types.ErrNotFound, c.Name(), id)
	}
	if got := rec[types.IDColumn]; got != id {
		return nil, fmt.Errorf("%w: %s: id mismatch: %s != %v", types.ErrInvalidArgument, c.Name(), id, got)
	}

	all, err := c.snapshot(0)
	if err != nil {
		return nil, err
	}
	others := make([]types.Record, 0, len(all))
	for _, r := range all {
		if r.ID() != id {
			others = append(others, r)
		}
	}
	if err := c.def.Validate(rec, others); err != nil {
		return nil, err
	}
	c.hashFields(rec, hashFields)

	if err := c.sheet.SetRange(row, 1, [][]any{c.recordToRow(rec)}); err != nil {
		return nil, err
	}
	c.reg.Invalidate(c.Name())
	return rec, nil
}

// RemoveAll deletes every data row without integrity checks.
func (c *Collection) RemoveAll() error {
	lastRow, err := c.sheet.LastRow()
	if err != nil {
		return err
	}
	if lastRow > 1 {
		if err := c.sheet.DeleteRows(2, lastRow-1); err != nil {
			c.index = nil
			c.reg.Invalidate(c.Name())
			return err
		}
	}
	c.index = newRowIndex()
	c.reg.Invalidate(c.Name())
	return nil
}

func (c *Collection) hashFields(rec types.Record, fields []string) {
	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil || v == "" {
			continue
		}
		rec[f] = c.reg.hasher.Hash(cast.ToString(v))
	}
}

// rowToRecord maps cells to columns by header position. Date columns
// stored as RFC 3339 text read back as time.Time.
func (c *Collection) rowToRecord(row []any) types.Record {
	rec := make(types.Record, len(c.headers))
	for i, h := range c.headers {
		var v any
		if i < len(row) {
			v = row[i]
		}
		if c.columns[i].Type == schema.TypeDate {
			if s, ok := v.(string); ok && s != "" {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					v = t
				}
			}
		}
		rec[h] = v
	}
	return rec
}

// recordToRow lays rec out in header order. Relation attachments are not
// columns and are dropped.
func (c *Collection) recordToRow(rec types.Record) []any {
	row := make([]any, len(c.headers))
	for i, h := range c.headers {
		row[i] = rec[h]
	}
	return row
}

func checkDepth(depth int) error {
	if depth < 0 || depth > types.MaxDepth {
		return fmt.Errorf("%w: depth %d outside 0..%d", types.ErrInvalidArgument, depth, types.MaxDepth)
	}
	return nil
}
