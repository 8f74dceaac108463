package engine

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// populateChildren attaches, for every child relation, the child records
// whose foreign key equals each parent's local key. Parents without
// children get an empty slice.
func (c *Collection) populateChildren(parents []types.Record, depth int) error {
	for _, rel := range c.def.Children() {
		childCol, err := c.reg.collection(rel.Entity)
		if err != nil {
			return err
		}
		children, err := childCol.snapshot(depth - 1)
		if err != nil {
			return err
		}

		groups := make(map[string][]types.Record)
		for _, child := range children {
			if k, ok := keyOf(child[rel.ForeignKey]); ok {
				groups[k] = append(groups[k], child)
			}
		}
		for _, parent := range parents {
			matched := []types.Record{}
			if k, ok := keyOf(parent[rel.LocalKey]); ok && groups[k] != nil {
				matched = append(matched, groups[k]...)
			}
			parent[rel.As] = matched
		}
	}
	return nil
}

// populateReferences attaches, for every reference column, the parent
// record whose foreign key equals the column value, or nil.
func (c *Collection) populateReferences(records []types.Record, depth int) error {
	for _, col := range c.def.References() {
		ref := col.References
		parentCol, err := c.reg.collection(ref.Entity)
		if err != nil {
			return err
		}
		parents, err := parentCol.snapshot(depth - 1)
		if err != nil {
			return err
		}

		lookup := make(map[string]types.Record, len(parents))
		for _, p := range parents {
			if k, ok := keyOf(p[ref.ForeignKey]); ok {
				lookup[k] = p
			}
		}
		for _, rec := range records {
			var parent types.Record
			if k, ok := keyOf(rec[ref.LocalKey]); ok {
				parent = lookup[k]
			}
			if parent == nil {
				rec[ref.As] = nil
			} else {
				rec[ref.As] = parent
			}
		}
	}
	return nil
}

// keyOf returns the join key of a cell value. Values join on their string
// form, so the number 7 and the text "7" match. Empty values never join.
func keyOf(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	k := fmt.Sprint(v)
	if k == "" {
		return "", false
	}
	return k, true
}

// cloneGraph copies rec and every relation record attached below it, so
// callers never hold records that live in the cache.
func cloneGraph(rec types.Record) types.Record {
	if rec == nil {
		return nil
	}
	out := make(types.Record, len(rec))
	for k, v := range rec {
		switch v := v.(type) {
		case types.Record:
			out[k] = cloneGraph(v)
		case []types.Record:
			list := make([]types.Record, len(v))
			for i, r := range v {
				list[i] = cloneGraph(r)
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}
