package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/mossdocs/arbor/pkg/tree"
)

func newTreeTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(nil))
}

func newTestTree(t *testing.T) *TreeModel {
	t.Helper()
	zones := zone.New()
	t.Cleanup(zones.Close)
	tm := NewTreeModel(newTreeTestTheme(), zones)
	tm.SetSize(80, 40)
	return &tm
}

func treeStrptr(s string) *string { return &s }

// guideItems is a small forest: two guides at the root, the first with a
// nested chapter under a section.
//
//	getting-started
//	└── install
//	    └── install-linux
//	reference
func guideItems() []tree.Item {
	return []tree.Item{
		{ID: "getting-started", Name: "Getting Started", Order: 0, Kind: "markdown", Draggable: true},
		{ID: "install", Name: "Install", ParentID: treeStrptr("getting-started"), Order: 0, Kind: "markdown", Draggable: true},
		{ID: "install-linux", Name: "Install on Linux", ParentID: treeStrptr("install"), Order: 0, Kind: "markdown", Draggable: true},
		{ID: "reference", Name: "Reference", Order: 1, Kind: "whiteboard", Draggable: true},
	}
}

func TestTreeLoadCollapsedByDefault(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	// Only the roots are visible until branches are expanded.
	if got := tm.RowCount(); got != 2 {
		t.Errorf("expected 2 visible rows, got %d", got)
	}
}

func TestTreeLoadRevealsSelection(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "install-linux")

	// Ancestors of the selected item are expanded, siblings stay folded.
	if got := tm.RowCount(); got != 4 {
		t.Fatalf("expected 4 visible rows, got %d", got)
	}
	if tm.SelectedID() != "install-linux" {
		t.Errorf("expected selection install-linux, got %q", tm.SelectedID())
	}
	r, ok := tm.rowAt(tm.cursor)
	if !ok || r.item.ID != "install-linux" {
		t.Errorf("expected cursor on install-linux, got %+v", r.item)
	}
}

func TestTreeToggleExpand(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	tm.ToggleExpand() // expand getting-started
	if got := tm.RowCount(); got != 3 {
		t.Fatalf("expected 3 rows after expand, got %d", got)
	}

	tm.ToggleExpand() // collapse it again
	if got := tm.RowCount(); got != 2 {
		t.Errorf("expected 2 rows after collapse, got %d", got)
	}
}

func TestTreeExpandCollapse(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	tm.Collapse() // already collapsed, no-op
	if got := tm.RowCount(); got != 2 {
		t.Errorf("expected collapse on a folded branch to be a no-op, got %d rows", got)
	}

	tm.Expand()
	if got := tm.RowCount(); got != 3 {
		t.Fatalf("expected 3 rows after expand, got %d", got)
	}
	tm.Expand() // already expanded, no-op
	if got := tm.RowCount(); got != 3 {
		t.Errorf("expected repeated expand to be a no-op, got %d rows", got)
	}

	tm.Collapse()
	if got := tm.RowCount(); got != 2 {
		t.Errorf("expected 2 rows after collapse, got %d", got)
	}
}

func TestTreeExpandAll(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")

	if got := tm.RowCount(); got != 4 {
		t.Fatalf("expected all 4 rows visible, got %d", got)
	}

	// Collapse is a no-op while expand-all is on.
	tm.ToggleExpand()
	if got := tm.RowCount(); got != 4 {
		t.Errorf("expected collapse to be ignored, got %d rows", got)
	}
}

func TestTreeReloadPreservesState(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")
	tm.ToggleExpand() // expand getting-started
	tm.MoveDown()
	if cmd := tm.SelectCursor(); cmd == nil {
		t.Fatal("expected a selection command")
	}
	if tm.SelectedID() != "install" {
		t.Fatalf("expected selection install, got %q", tm.SelectedID())
	}

	// Refetch with the same shape: expansion and selection survive.
	tm.Reload(guideItems())
	if got := tm.RowCount(); got != 3 {
		t.Errorf("expected expansion to survive reload, got %d rows", got)
	}
	if tm.SelectedID() != "install" {
		t.Errorf("expected selection to survive reload, got %q", tm.SelectedID())
	}
	if r, ok := tm.rowAt(tm.cursor); !ok || r.item.ID != "install" {
		t.Errorf("expected cursor re-anchored on install")
	}
}

func TestTreeCursorMovement(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")

	tm.MoveUp() // clamped at the top
	if tm.cursor != 0 {
		t.Errorf("expected cursor clamped at 0, got %d", tm.cursor)
	}

	tm.JumpToBottom()
	if tm.cursor != tm.RowCount()-1 {
		t.Errorf("expected cursor on last row, got %d", tm.cursor)
	}
	tm.MoveDown() // clamped at the bottom
	if tm.cursor != tm.RowCount()-1 {
		t.Errorf("expected cursor clamped at last row, got %d", tm.cursor)
	}

	tm.JumpToTop()
	if tm.cursor != 0 {
		t.Errorf("expected cursor back at 0, got %d", tm.cursor)
	}
}

func TestTreeSelectCursorEmitsOnce(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	cmd := tm.SelectCursor()
	if cmd == nil {
		t.Fatal("expected a selection command")
	}
	msg, ok := cmd().(SelectionChangedMsg)
	if !ok {
		t.Fatalf("expected SelectionChangedMsg, got %T", cmd())
	}
	if msg.Item.ID != "getting-started" {
		t.Errorf("expected getting-started selected, got %q", msg.Item.ID)
	}

	// Re-selecting the same row is not an event.
	if cmd := tm.SelectCursor(); cmd != nil {
		t.Error("expected no command for repeated selection")
	}
}

func TestTreeSelectCursorSkipsDisabled(t *testing.T) {
	tm := newTestTree(t)
	tm.Load([]tree.Item{
		{ID: "archived", Name: "Archived note", Order: 0, Disabled: true},
	}, "")

	if cmd := tm.SelectCursor(); cmd != nil {
		t.Error("expected disabled row to swallow selection")
	}
	if tm.SelectedID() != "" {
		t.Errorf("expected no selection, got %q", tm.SelectedID())
	}
}

func TestTreeCommitLockClearsDrag(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")
	tm.drag = &dragState{item: tm.items[0]}

	tm.SetCommitLock(true)
	if tm.Dragging() {
		t.Error("expected commit lock to cancel the in-flight drag")
	}
}

func TestTreeCompleteDrag(t *testing.T) {
	items := guideItems()

	tests := []struct {
		name     string
		drag     dragState
		wantDrop bool
		wantRoot bool
		wantID   string
		wantZone tree.DropZone
	}{
		{
			name:     "release outside any target cancels",
			drag:     dragState{item: items[1], valid: false},
			wantDrop: false,
		},
		{
			name:     "self drop is suppressed",
			drag:     dragState{item: items[1], overID: "install", zone: tree.ZoneOn, valid: true},
			wantDrop: false,
		},
		{
			name:     "drop onto a row",
			drag:     dragState{item: items[1], overID: "reference", zone: tree.ZoneOn, valid: true},
			wantDrop: true,
			wantID:   "reference",
			wantZone: tree.ZoneOn,
		},
		{
			name:     "drop before a row",
			drag:     dragState{item: items[3], overID: "getting-started", zone: tree.ZoneBefore, valid: true},
			wantDrop: true,
			wantID:   "getting-started",
			wantZone: tree.ZoneBefore,
		},
		{
			name:     "drop on a root sentinel",
			drag:     dragState{item: items[2], overRoot: true, zone: tree.ZoneOn, valid: true},
			wantDrop: true,
			wantRoot: true,
			wantZone: tree.ZoneOn,
		},
		{
			name:     "target vanished between motion and release",
			drag:     dragState{item: items[1], overID: "gone", zone: tree.ZoneOn, valid: true},
			wantDrop: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tm := newTestTree(t)
			tm.Load(items, "")

			drag := tc.drag
			cmd := tm.completeDrag(&drag)
			if !tc.wantDrop {
				if cmd != nil {
					t.Fatalf("expected no drop, got %v", cmd())
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected a drop command")
			}
			msg, ok := cmd().(DropMsg)
			if !ok {
				t.Fatalf("expected DropMsg, got %T", cmd())
			}
			if msg.Dragged.ID != tc.drag.item.ID {
				t.Errorf("dragged = %q, want %q", msg.Dragged.ID, tc.drag.item.ID)
			}
			if msg.Target.Root != tc.wantRoot {
				t.Errorf("target root = %v, want %v", msg.Target.Root, tc.wantRoot)
			}
			if !tc.wantRoot && msg.Target.Item.ID != tc.wantID {
				t.Errorf("target = %q, want %q", msg.Target.Item.ID, tc.wantID)
			}
			if msg.Zone != tc.wantZone {
				t.Errorf("zone = %v, want %v", msg.Zone, tc.wantZone)
			}
		})
	}
}

// TestTreeTopSentinelInsertsAtStart drops an item on the band above the
// first root row and verifies it lands at the start of the root list,
// with the existing roots shifted down.
func TestTreeTopSentinelInsertsAtStart(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	dragged, ok := tm.itemByID("reference")
	if !ok {
		t.Fatal("missing fixture item")
	}
	drag := &dragState{item: dragged}
	tm.hoverSentinel(drag, zoneTopSentinel)

	if drag.overRoot {
		t.Fatal("top band should target the first root row, not the append slot")
	}
	if drag.overID != "getting-started" || drag.zone != tree.ZoneBefore {
		t.Fatalf("expected insert before the first root, got %q/%v", drag.overID, drag.zone)
	}

	cmd := tm.completeDrag(drag)
	if cmd == nil {
		t.Fatal("expected a drop command")
	}
	msg := cmd().(DropMsg)
	updates := tree.Resolve(tm.Items(), msg.Dragged, msg.Target, msg.Zone)
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %+v", updates)
	}
	if updates[0].ID != "getting-started" || updates[0].Order != 1 {
		t.Errorf("expected the old first root shifted to 1, got %+v", updates[0])
	}
	last := updates[1]
	if last.ID != "reference" || last.Order != 0 || !last.SetParent || last.Parent != nil {
		t.Errorf("expected the dragged item first at root level, got %+v", last)
	}
}

// TestTreeEndSentinelAppends drops an item on the band below the last
// row and verifies it lands at the end of the root list.
func TestTreeEndSentinelAppends(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")

	dragged, ok := tm.itemByID("install-linux")
	if !ok {
		t.Fatal("missing fixture item")
	}
	drag := &dragState{item: dragged}
	tm.hoverSentinel(drag, zoneEndSentinel)

	if !drag.overRoot {
		t.Fatal("end band should target the root append slot")
	}

	msg := tm.completeDrag(drag)().(DropMsg)
	updates := tree.Resolve(tm.Items(), msg.Dragged, msg.Target, msg.Zone)
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %+v", updates)
	}
	// One past the last root (reference, order 1); no siblings shift.
	if updates[0].Order != 2 || !updates[0].SetParent || updates[0].Parent != nil {
		t.Errorf("expected append at root order 2, got %+v", updates[0])
	}
}

// TestTreeTopSentinelFirstRootNoop drags the first root onto its own
// start band.
func TestTreeTopSentinelFirstRootNoop(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(guideItems(), "")

	dragged, _ := tm.itemByID("getting-started")
	drag := &dragState{item: dragged}
	tm.hoverSentinel(drag, zoneTopSentinel)

	if cmd := tm.completeDrag(drag); cmd != nil {
		t.Errorf("expected no drop for an item already at the start, got %v", cmd())
	}
}

func TestTreeViewRendersBranches(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")

	view := tm.View()
	for _, want := range []string{"Getting Started", "Install on Linux", "Reference", "└──"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	// Sentinels only appear during a drag.
	if strings.Contains(view, "start of list") {
		t.Error("expected no root sentinel while idle")
	}
}

func TestTreeViewShowsSentinelsDuringDrag(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")
	tm.drag = &dragState{item: tm.items[2]}

	view := tm.View()
	if !strings.Contains(view, "start of list") || !strings.Contains(view, "end of list") {
		t.Errorf("expected both root sentinels during drag:\n%s", view)
	}
}

func TestTreeViewDropBand(t *testing.T) {
	tm := newTestTree(t)
	tm.SetExpandAll(true)
	tm.Load(guideItems(), "")
	tm.drag = &dragState{
		item:   tm.items[2],
		overID: "reference",
		zone:   tree.ZoneBefore,
		valid:  true,
	}

	view := tm.View()
	if !strings.Contains(view, "▸───────") {
		t.Errorf("expected an insert marker on the hovered row:\n%s", view)
	}
}

func TestTreeViewEmptyState(t *testing.T) {
	tm := newTestTree(t)
	tm.Load(nil, "")

	if !strings.Contains(tm.View(), "No documents yet") {
		t.Error("expected empty-state message")
	}
}

func TestTreeScrollFollowsCursor(t *testing.T) {
	items := make([]tree.Item, 20)
	for i := range items {
		items[i] = tree.Item{ID: string(rune('a' + i)), Name: "Doc", Order: i, Draggable: true}
	}

	tm := newTestTree(t)
	tm.SetSize(80, 5)
	tm.Load(items, "")

	tm.JumpToBottom()
	start, end := tm.visibleRange()
	if end != 20 || end-start != 5 {
		t.Errorf("expected window [15,20), got [%d,%d)", start, end)
	}

	tm.JumpToTop()
	start, _ = tm.visibleRange()
	if start != 0 {
		t.Errorf("expected window back at top, got start=%d", start)
	}
}
