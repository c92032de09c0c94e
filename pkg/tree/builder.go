// Package tree implements the hierarchical tree subsystem: building a
// nested forest from a flat item collection, classifying drag gestures
// into drop zones, and resolving a completed drop into the batch of
// persistence updates that keeps sibling order values consistent.
//
// Everything in this package is pure: functions read the item collection
// they are given and never mutate it. The rendering and I/O live in
// pkg/ui and pkg/api.
package tree

import "sort"

// Item is the flat record the tree subsystem organizes. ParentID of nil
// means the item sits at the root level; Order defines the sequence among
// items sharing a parent. Kind is passthrough rendering metadata.
type Item struct {
	ID        string
	Name      string
	ParentID  *string
	Order     int
	Kind      string
	Draggable bool
	Disabled  bool
}

// Node is a transient, derived view over an Item collection. It is
// rebuilt from scratch whenever the collection changes, never patched in
// place. Children is nil for leaves.
type Node struct {
	Item     Item
	Children []*Node
}

// Build converts a flat collection into a forest rooted at parentID
// (nil for the top level). Children at every level are sorted ascending
// by Order, with ID as the tiebreaker so transiently duplicated orders
// still render deterministically.
//
// Items whose parent reference points at a missing item are simply never
// surfaced: the remote collection may be mid-commit and briefly
// inconsistent, and an orphan is not worth an error.
func Build(items []Item, parentID *string) []*Node {
	return build(items, parentID, make(map[string]bool))
}

func build(items []Item, parentID *string, visited map[string]bool) []*Node {
	var level []Item
	for _, it := range items {
		if sameParent(it.ParentID, parentID) && !visited[it.ID] {
			level = append(level, it)
		}
	}
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].Order != level[j].Order {
			return level[i].Order < level[j].Order
		}
		return level[i].ID < level[j].ID
	})

	var nodes []*Node
	for _, it := range level {
		// Guard against malformed collections (duplicate ids, parent
		// loops). A well-formed strict tree never trips this.
		visited[it.ID] = true
		id := it.ID
		nodes = append(nodes, &Node{
			Item:     it,
			Children: build(items, &id, visited),
		})
	}
	return nodes
}

// Count returns the total number of nodes in the forest.
func Count(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Children)
	}
	return n
}

// ByID builds a lookup map over the collection.
func ByID(items []Item) map[string]Item {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID
}

// AncestorChain returns the ids of the item's ancestors, nearest parent
// first. Dangling references and cycles end the walk; the item itself is
// not included.
func AncestorChain(items []Item, id string) []string {
	byID := ByID(items)
	seen := map[string]bool{id: true}

	var chain []string
	cur, ok := byID[id]
	for ok && cur.ParentID != nil {
		pid := *cur.ParentID
		if seen[pid] {
			break
		}
		seen[pid] = true
		if cur, ok = byID[pid]; ok {
			chain = append(chain, pid)
		}
	}
	return chain
}

// IsDescendant reports whether id sits somewhere below ancestorID by
// walking id's parent chain.
func IsDescendant(items []Item, ancestorID, id string) bool {
	for _, a := range AncestorChain(items, id) {
		if a == ancestorID {
			return true
		}
	}
	return false
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
