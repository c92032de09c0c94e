package tree

import "sort"

// Target is what a drag was dropped on: either a concrete item or the
// root sentinel, the synthetic region after the last root row that means
// "append at the top level, no parent". Dropping at the start of the
// root list is expressed as ZoneBefore on the first root, not as a
// sentinel.
type Target struct {
	Item Item
	Root bool
}

// ItemTarget wraps an item as a drop target.
func ItemTarget(it Item) Target {
	return Target{Item: it}
}

// RootTarget returns the root sentinel target.
func RootTarget() Target {
	return Target{Root: true}
}

// Update describes one intended persistence write. Sibling shifts carry
// only a new Order; the dragged item additionally carries its resolved
// parent (SetParent with a nil Parent means "move to root level").
type Update struct {
	ID        string
	Order     int
	Parent    *string
	SetParent bool
}

// Resolve computes the update batch for dropping dragged onto target at
// the given zone. It never mutates items; applying the batch atomically
// is the caller's concern.
//
// Illegal drops resolve to an empty batch rather than an error: dropping
// an item on itself, and any drop that would make an item its own
// descendant. Callers treat an empty batch as "nothing to commit".
func Resolve(items []Item, dragged Item, target Target, zone DropZone) []Update {
	if !target.Root {
		if target.Item.ID == dragged.ID {
			return nil
		}
		if IsDescendant(items, dragged.ID, target.Item.ID) {
			return nil
		}
	}

	// Root sentinel and "on" both append past the end of an existing
	// sibling run, so no re-indexing of neighbours is needed.
	if target.Root {
		return []Update{{
			ID:        dragged.ID,
			Order:     nextOrder(items, nil, dragged.ID),
			SetParent: true,
		}}
	}

	if zone == ZoneOn {
		pid := target.Item.ID
		return []Update{{
			ID:        dragged.ID,
			Order:     nextOrder(items, &pid, dragged.ID),
			Parent:    &pid,
			SetParent: true,
		}}
	}

	// Before/after: the dragged item takes the target's slot (or the one
	// just below it) and every sibling at or past that slot shifts down,
	// preserving relative sequence.
	newParent := clone(target.Item.ParentID)
	newOrder := target.Item.Order
	if zone == ZoneAfter {
		newOrder++
	}

	var shifted []Item
	for _, it := range items {
		if it.ID == dragged.ID {
			continue
		}
		if sameParent(it.ParentID, newParent) && it.Order >= newOrder {
			shifted = append(shifted, it)
		}
	}
	sort.SliceStable(shifted, func(i, j int) bool {
		return shifted[i].Order < shifted[j].Order
	})

	updates := make([]Update, 0, len(shifted)+1)
	for i, it := range shifted {
		updates = append(updates, Update{ID: it.ID, Order: newOrder + i + 1})
	}
	updates = append(updates, Update{
		ID:        dragged.ID,
		Order:     newOrder,
		Parent:    newParent,
		SetParent: true,
	})
	return updates
}

// nextOrder returns one past the highest order among parentID's children,
// excluding the dragged item, or 0 when there are none.
func nextOrder(items []Item, parentID *string, excludeID string) int {
	next := 0
	for _, it := range items {
		if it.ID == excludeID || !sameParent(it.ParentID, parentID) {
			continue
		}
		if it.Order+1 > next {
			next = it.Order + 1
		}
	}
	return next
}

func clone(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
