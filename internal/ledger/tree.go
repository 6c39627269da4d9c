package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// Node is one account in a rendered hierarchy. Children are in name order.
type Node struct {
	Name     string    `json:"name"`
	ID       uuid.UUID `json:"id"`
	Children []*Node   `json:"children"`
}

// Item is one account in a flattened hierarchy.
type Item struct {
	Name string    `json:"name"`
	ID   uuid.UUID `json:"id"`
}

// Flatten lists n and its descendants in pre-order.
func (n *Node) Flatten() []Item {
	var out []Item
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, Item{Name: cur.Name, ID: cur.ID})
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}

// chartEntry is the slice of an account the hierarchy helpers need.
type chartEntry struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID
}

// chart indexes an entity's flat account list once. Entries keep their
// input order, so children inherit the name ordering of the read.
type chart struct {
	entries  []chartEntry
	byID     map[uuid.UUID]int
	children map[uuid.UUID][]int
}

func newChart(entries []chartEntry) *chart {
	c := &chart{
		entries:  entries,
		byID:     make(map[uuid.UUID]int, len(entries)),
		children: make(map[uuid.UUID][]int),
	}
	for i, e := range entries {
		c.byID[e.ID] = i
		if e.ParentID != nil {
			c.children[*e.ParentID] = append(c.children[*e.ParentID], i)
		}
	}
	return c
}

func (c *chart) find(id uuid.UUID) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

func (c *chart) findName(name string) (int, bool) {
	for i, e := range c.entries {
		if e.Name == name {
			return i, true
		}
	}
	return 0, false
}

// tree materializes the hierarchy below root without recursion.
func (c *chart) tree(root int) (*Node, error) {
	visited := make(map[uuid.UUID]struct{}, len(c.entries))
	top := &Node{Name: c.entries[root].Name, ID: c.entries[root].ID, Children: []*Node{}}
	visited[top.ID] = struct{}{}

	stack := []*Node{top}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, idx := range c.children[cur.ID] {
			e := c.entries[idx]
			if _, seen := visited[e.ID]; seen {
				return nil, fmt.Errorf("%w: account %s appears twice below %s", ErrLogic, e.ID, top.ID)
			}
			visited[e.ID] = struct{}{}
			child := &Node{Name: e.Name, ID: e.ID, Children: []*Node{}}
			cur.Children = append(cur.Children, child)
			stack = append(stack, child)
		}
	}
	return top, nil
}

// list flattens the hierarchy below root in pre-order. With onlyLeaves set,
// accounts that have children are left out.
func (c *chart) list(root int, onlyLeaves bool) ([]Item, error) {
	visited := make(map[uuid.UUID]struct{}, len(c.entries))
	var out []Item
	stack := []int{root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := c.entries[idx]
		if _, seen := visited[e.ID]; seen {
			return nil, fmt.Errorf("%w: account %s appears twice in hierarchy", ErrLogic, e.ID)
		}
		visited[e.ID] = struct{}{}

		kids := c.children[e.ID]
		if !onlyLeaves || len(kids) == 0 {
			out = append(out, Item{Name: e.Name, ID: e.ID})
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out, nil
}
