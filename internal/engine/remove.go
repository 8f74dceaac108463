package engine

import (
	"fmt"

	"github.com/mesh-intelligence/rowset/pkg/schema"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

// removal is one node of a planned delete: the record and the cascaded
// removals that must run before it.
type removal struct {
	col      *Collection
	id       string
	children []*removal
}

// Remove deletes the record with the given id after applying every child
// deletion policy. The whole cascade is planned before any row is touched,
// so a restrict anywhere in the tree fails without deleting anything. An
// unknown id is a no-op.
func (c *Collection) Remove(id string) (types.RemoveResult, error) {
	var res types.RemoveResult
	if err := c.ensureIndex(); err != nil {
		return res, err
	}
	if _, ok := c.index.lookup(id); !ok {
		return res, nil
	}

	plan, err := c.plan(id, make(map[string]bool))
	if err != nil {
		return res, err
	}
	c.reg.log.Debugw("removing", "entity", c.Name(), "id", id, "rows", plan.size())

	err = plan.execute(&res)
	return res, err
}

func (c *Collection) plan(id string, visited map[string]bool) (*removal, error) {
	visited[c.Name()+"\x00"+id] = true
	node := &removal{col: c, id: id}

	children := c.def.Children()
	if len(children) == 0 {
		return node, nil
	}
	rec, err := c.FindByID(id, 0)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return node, nil
	}

	for _, rel := range children {
		childCol, err := c.reg.collection(rel.Entity)
		if err != nil {
			return nil, err
		}
		var matches []types.Record
		if key, ok := keyOf(rec[rel.LocalKey]); ok {
			all, err := childCol.snapshot(0)
			if err != nil {
				return nil, err
			}
			for _, child := range all {
				if k, ok := keyOf(child[rel.ForeignKey]); ok && k == key {
					matches = append(matches, child)
				}
			}
		}

		switch rel.OnDelete {
		case schema.Restrict:
			if len(matches) > 0 {
				return nil, fmt.Errorf("%w: cannot remove %s %s: %d %s record(s) reference it",
					types.ErrIntegrity, c.Name(), id, len(matches), rel.Entity)
			}
		case schema.Cascade:
			for _, child := range matches {
				childID := child.ID()
				if childID == "" || visited[rel.Entity+"\x00"+childID] {
					continue
				}
				sub, err := childCol.plan(childID, visited)
				if err != nil {
					return nil, err
				}
				node.children = append(node.children, sub)
			}
		default:
			return nil, fmt.Errorf("%w: %s: invalid deletion policy %q for %s", types.ErrSchema, c.Name(), rel.OnDelete, rel.Entity)
		}
	}
	return node, nil
}

// execute deletes children depth-first, then the record itself. Rows are
// looked up again at deletion time since earlier deletes shift positions.
func (r *removal) execute(res *types.RemoveResult) error {
	for _, child := range r.children {
		if err := child.execute(res); err != nil {
			return err
		}
	}

	c := r.col
	if err := c.ensureIndex(); err != nil {
		return err
	}
	row, ok := c.index.lookup(r.id)
	if !ok {
		return nil
	}
	if err := c.sheet.DeleteRows(row, 1); err != nil {
		c.index = nil
		c.reg.Invalidate(c.Name())
		return fmt.Errorf("removing %s %s: %w", c.Name(), r.id, err)
	}
	c.index.remove(r.id)
	c.reg.Invalidate(c.Name())
	res.Removed = append(res.Removed, types.RemovedRecord{Entity: c.Name(), ID: r.id})
	return nil
}

func (r *removal) size() int {
	n := 1
	for _, child := range r.children {
		n += child.size()
	}
	return n
}
