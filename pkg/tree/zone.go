package tree

// DropZone classifies where within a target's rendered bounds a drag is
// hovering or was released.
type DropZone int

const (
	ZoneBefore DropZone = iota // insert as the sibling above the target
	ZoneOn                     // append as the target's last child
	ZoneAfter                  // insert as the sibling below the target
)

func (z DropZone) String() string {
	switch z {
	case ZoneBefore:
		return "before"
	case ZoneOn:
		return "on"
	case ZoneAfter:
		return "after"
	}
	return "unknown"
}

// The three-way split is a fixed design constant: the top third of a
// target's band means "before", the bottom third "after", the middle
// "on".
const (
	zoneBeforeBoundary = 1.0 / 3.0
	zoneAfterBoundary  = 2.0 / 3.0
)

// ClassifyDropZone maps the pointer's vertical offset (in cells, zero
// based) within a target band of the given height to a drop zone. The
// offset is measured from the band's top row; callers re-run this on
// every pointer-move tick since the zone changes as the pointer drifts
// within the same band.
//
// Classification uses the cell's centre, so a one-line band is always
// "on" and a three-line band maps line-per-zone. Out-of-range offsets
// clamp to the nearest edge.
func ClassifyDropZone(offset, height int) DropZone {
	if height <= 0 {
		return ZoneOn
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= height {
		offset = height - 1
	}
	frac := (float64(offset) + 0.5) / float64(height)
	switch {
	case frac < zoneBeforeBoundary:
		return ZoneBefore
	case frac > zoneAfterBoundary:
		return ZoneAfter
	default:
		return ZoneOn
	}
}
