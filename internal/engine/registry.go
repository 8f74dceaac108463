// Package engine maps sheets of a tabular store to validated, related
// records. A Registry owns one Collection per entity and the cache they
// share.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/rowset/pkg/credential"
	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// Options configures a Registry. Zero values select the defaults.
type Options struct {
	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger *zap.SugaredLogger

	// Hasher digests the fields named in Insert and Update hash lists.
	// Defaults to credential.SHA256Hasher.
	Hasher credential.Hasher

	// CachePolicy selects how snapshots are keyed. Defaults to
	// types.CachePerDepth.
	CachePolicy types.CachePolicy

	// NewID generates record ids. Defaults to credential.NewID.
	NewID func() string
}

// Registry binds a store to a set of entity definitions.
type Registry struct {
	store       types.Store
	log         *zap.SugaredLogger
	hasher      credential.Hasher
	newID       func() string
	cache       *Cache
	dependents  map[string][]string
	collections map[string]*Collection
	order       []string
}

// NewRegistry creates a collection per definition, creating missing sheets
// and repairing header rows that drifted from the definition.
// Returns an error wrapping types.ErrSchema when definitions collide or
// point at unregistered entities or columns.
func NewRegistry(store types.Store, defs []*schema.Definition, opts Options) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is nil", types.ErrInvalidArgument)
	}
	switch opts.CachePolicy {
	case "":
		opts.CachePolicy = types.CachePerDepth
	case types.CachePerDepth, types.CacheShared:
	default:
		return nil, fmt.Errorf("%w: unknown cache policy %q", types.ErrInvalidArgument, opts.CachePolicy)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Hasher == nil {
		opts.Hasher = credential.SHA256Hasher{}
	}
	if opts.NewID == nil {
		opts.NewID = credential.NewID
	}

	r := &Registry{
		store:       store,
		log:         opts.Logger,
		hasher:      opts.Hasher,
		newID:       opts.NewID,
		cache:       NewCache(opts.CachePolicy),
		collections: make(map[string]*Collection, len(defs)),
	}

	byName := make(map[string]*schema.Definition, len(defs))
	for _, def := range defs {
		if def == nil {
			return nil, fmt.Errorf("%w: nil definition", types.ErrSchema)
		}
		if _, dup := byName[def.Name()]; dup {
			return nil, fmt.Errorf("%w: entity %q registered twice", types.ErrSchema, def.Name())
		}
		byName[def.Name()] = def
	}
	for _, def := range defs {
		if err := checkRelations(def, byName); err != nil {
			return nil, err
		}
	}
	r.dependents = dependentsOf(defs)

	for _, def := range defs {
		sheet, err := r.ensureSheet(def)
		if err != nil {
			return nil, fmt.Errorf("preparing sheet %s: %w", def.Name(), err)
		}
		r.collections[def.Name()] = newCollection(r, def, sheet)
		r.order = append(r.order, def.Name())
	}
	return r, nil
}

// checkRelations verifies that every relation of def names a registered
// entity and existing key columns on both sides.
func checkRelations(def *schema.Definition, byName map[string]*schema.Definition) error {
	for _, col := range def.References() {
		ref := col.References
		target, ok := byName[ref.Entity]
		if !ok {
			return fmt.Errorf("%w: %s.%s references unregistered entity %q", types.ErrSchema, def.Name(), col.Name, ref.Entity)
		}
		if target.ColumnIndex(ref.ForeignKey) < 0 {
			return fmt.Errorf("%w: %s.%s references missing column %s.%s", types.ErrSchema, def.Name(), col.Name, ref.Entity, ref.ForeignKey)
		}
		if def.ColumnIndex(ref.LocalKey) < 0 {
			return fmt.Errorf("%w: %s: reference key %q is not a column", types.ErrSchema, def.Name(), ref.LocalKey)
		}
	}
	for _, child := range def.Children() {
		target, ok := byName[child.Entity]
		if !ok {
			return fmt.Errorf("%w: %s has children in unregistered entity %q", types.ErrSchema, def.Name(), child.Entity)
		}
		if target.ColumnIndex(child.ForeignKey) < 0 {
			return fmt.Errorf("%w: %s: child key %s.%s is not a column", types.ErrSchema, def.Name(), child.Entity, child.ForeignKey)
		}
		if def.ColumnIndex(child.LocalKey) < 0 {
			return fmt.Errorf("%w: %s: local key %q is not a column", types.ErrSchema, def.Name(), child.LocalKey)
		}
	}
	return nil
}

// dependentsOf maps each entity to the entities whose relation-populated
// snapshots can embed its records, directly or through further relations.
func dependentsOf(defs []*schema.Definition) map[string][]string {
	reverse := make(map[string][]string)
	for _, def := range defs {
		for _, related := range def.Related() {
			reverse[related] = append(reverse[related], def.Name())
		}
	}

	out := make(map[string][]string, len(defs))
	for _, def := range defs {
		name := def.Name()
		seen := map[string]bool{}
		queue := []string{name}
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			for _, dep := range reverse[next] {
				if !seen[dep] {
					seen[dep] = true
					out[name] = append(out[name], dep)
					queue = append(queue, dep)
				}
			}
		}
	}
	return out
}

func (r *Registry) ensureSheet(def *schema.Definition) (types.Sheet, error) {
	headers := def.Headers()
	sheet, err := r.store.Sheet(def.Name())
	if errors.Is(err, types.ErrSheetNotFound) {
		r.log.Infow("creating sheet", "sheet", def.Name(), "columns", len(headers))
		return r.store.CreateSheet(def.Name(), headers)
	}
	if err != nil {
		return nil, err
	}
	if err := r.repairHeaders(sheet, headers); err != nil {
		return nil, err
	}
	return sheet, nil
}

// repairHeaders rewrites row 1 when it differs from headers.
func (r *Registry) repairHeaders(sheet types.Sheet, headers []string) error {
	width, err := sheet.LastColumn()
	if err != nil {
		return err
	}
	n := max(width, len(headers))
	got, err := sheet.Range(1, 1, 1, n)
	if err != nil {
		return err
	}
	if headersMatch(got[0], headers) {
		return nil
	}

	r.log.Warnw("repairing header row", "sheet", sheet.Name(), "found", got[0], "want", headers)
	if width > 0 {
		if err := sheet.ClearRange(1, 1, 1, width); err != nil {
			return err
		}
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return sheet.SetRange(1, 1, [][]any{row})
}

func headersMatch(row []any, headers []string) bool {
	for i, cell := range row {
		if i >= len(headers) {
			if cell != nil && cell != "" {
				return false
			}
			continue
		}
		if s, ok := cell.(string); !ok || s != headers[i] {
			return false
		}
	}
	return true
}

// Collection returns the collection for the named entity.
func (r *Registry) Collection(name string) (types.Collection, error) {
	c, err := r.collection(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Registry) collection(name string) (*Collection, error) {
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownEntity, name)
	}
	return c, nil
}

// Entities lists registered entity names in registration order.
func (r *Registry) Entities() []string {
	return append([]string(nil), r.order...)
}

// Invalidate drops every cached snapshot of the named entity, along with
// the relation-populated snapshots of entities that embed its records.
func (r *Registry) Invalidate(name string) {
	r.cache.Invalidate(name)
	for _, dep := range r.dependents[name] {
		r.cache.InvalidatePopulated(dep)
	}
}

// InvalidateAll drops every cached snapshot.
func (r *Registry) InvalidateAll() {
	r.cache.Clear()
}
