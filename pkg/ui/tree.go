// tree.go - Hierarchical document tree view with drag-and-drop reordering
package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/mossdocs/arbor/pkg/tree"
)

// SelectionChangedMsg is emitted exactly once per user selection.
type SelectionChangedMsg struct {
	Item tree.Item
}

// DropMsg is emitted exactly once per completed drop. The receiving page
// model resolves it into an update batch and commits; the tree itself
// never touches the store.
type DropMsg struct {
	Dragged tree.Item
	Target  tree.Target
	Zone    tree.DropZone
}

// Zone mark ids. Prefixed so several mounted trees sharing one zone
// manager cannot collide.
const (
	zoneRowPrefix   = "arbor/row/"
	zoneTopSentinel = "arbor/sentinel/top"
	zoneEndSentinel = "arbor/sentinel/end"
)

// row is one visible line of the flattened tree.
type row struct {
	item        tree.Item
	depth       int
	hasChildren bool
	expanded    bool
	prefix      string
}

// dragState tracks the singleton in-flight drag. A tree is either Idle
// (drag == nil) or Dragging.
type dragState struct {
	item tree.Item

	// Current hover target, recomputed on every motion tick.
	overRoot bool
	overID   string
	zone     tree.DropZone
	valid    bool
}

// TreeModel renders the document forest as an expandable, selectable,
// draggable list. It owns only UI state (cursor, expansion, drag);
// the item collection is read-only input, swapped by the caller after
// every refetch.
type TreeModel struct {
	items []tree.Item
	roots []*tree.Node
	rows  []row

	cursor     int
	selectedID string
	expanded   map[string]bool
	expandAll  bool

	drag       *dragState
	commitLock bool // drags suppressed while a reorder is settling

	zones  *zone.Manager
	theme  Theme
	width  int
	height int
	offset int // first visible row index
}

// NewTreeModel creates an empty tree view. The zone manager is shared
// with the page model, which wraps the final frame in zones.Scan.
func NewTreeModel(theme Theme, zones *zone.Manager) TreeModel {
	return TreeModel{
		theme:    theme,
		zones:    zones,
		expanded: make(map[string]bool),
	}
}

// SetSize updates the available dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// SetExpandAll expands every branch and disables collapsing while set.
func (t *TreeModel) SetExpandAll(on bool) {
	t.expandAll = on
	t.rebuildRows()
}

// SetCommitLock suppresses drag starts while a reorder batch is in
// flight, so the resolver never runs against a collection known to be
// mid-update.
func (t *TreeModel) SetCommitLock(locked bool) {
	t.commitLock = locked
	if locked {
		t.drag = nil
	}
}

// Load swaps in a new collection wholesale (e.g. a different project):
// expansion and selection reset, then the ancestors of initialSelectedID
// are expanded so the current selection is revealed without force-opening
// unrelated branches.
func (t *TreeModel) Load(items []tree.Item, initialSelectedID string) {
	t.items = items
	t.expanded = make(map[string]bool)
	t.selectedID = initialSelectedID
	t.cursor = 0
	t.offset = 0
	t.drag = nil

	for _, id := range tree.AncestorChain(items, initialSelectedID) {
		t.expanded[id] = true
	}

	t.roots = tree.Build(items, nil)
	t.rebuildRows()
	t.moveCursorTo(initialSelectedID)
}

// Reload replaces the collection after a refetch of the same view,
// preserving expansion and re-anchoring the cursor on the selected item.
func (t *TreeModel) Reload(items []tree.Item) {
	t.items = items
	t.roots = tree.Build(items, nil)
	t.drag = nil
	t.rebuildRows()
	t.moveCursorTo(t.selectedID)
}

// Items returns the current flat collection (the resolver's input).
func (t *TreeModel) Items() []tree.Item {
	return t.items
}

// Selected returns the currently selected item, if any.
func (t *TreeModel) Selected() (tree.Item, bool) {
	for _, it := range t.items {
		if it.ID == t.selectedID {
			return it, true
		}
	}
	return tree.Item{}, false
}

// SelectedID returns the id of the selected item, or empty.
func (t *TreeModel) SelectedID() string {
	return t.selectedID
}

// RowCount returns the number of visible rows.
func (t *TreeModel) RowCount() int {
	return len(t.rows)
}

// Dragging reports whether a drag is in flight.
func (t *TreeModel) Dragging() bool {
	return t.drag != nil
}

// MoveUp moves the cursor up one visible row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.clampScroll()
}

// MoveDown moves the cursor down one visible row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.clampScroll()
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.clampScroll()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.clampScroll()
}

// ToggleExpand expands or collapses the branch under the cursor.
// Collapse is a no-op while expand-all is set.
func (t *TreeModel) ToggleExpand() {
	r, ok := t.rowAt(t.cursor)
	if !ok || !r.hasChildren {
		return
	}
	if t.isExpanded(r.item.ID) {
		if t.expandAll {
			return
		}
		t.expanded[r.item.ID] = false
	} else {
		t.expanded[r.item.ID] = true
	}
	t.rebuildRows()
}

// Expand opens the branch under the cursor.
func (t *TreeModel) Expand() {
	r, ok := t.rowAt(t.cursor)
	if !ok || !r.hasChildren || t.isExpanded(r.item.ID) {
		return
	}
	t.expanded[r.item.ID] = true
	t.rebuildRows()
}

// Collapse closes the branch under the cursor. No-op while expand-all
// is set.
func (t *TreeModel) Collapse() {
	r, ok := t.rowAt(t.cursor)
	if !ok || !r.hasChildren || !t.isExpanded(r.item.ID) || t.expandAll {
		return
	}
	t.expanded[r.item.ID] = false
	t.rebuildRows()
}

// SelectCursor makes the row under the cursor the selection and emits
// the selection event. Disabled items swallow the gesture.
func (t *TreeModel) SelectCursor() tea.Cmd {
	r, ok := t.rowAt(t.cursor)
	if !ok || r.item.Disabled {
		return nil
	}
	if r.item.ID == t.selectedID {
		return nil
	}
	t.selectedID = r.item.ID
	item := r.item
	return func() tea.Msg { return SelectionChangedMsg{Item: item} }
}

// HandleMouse drives the drag state machine:
//
//	Idle -> Dragging   on press over a draggable, enabled row
//	Dragging -> Dragging  on motion (drop zone recomputed every tick)
//	Dragging -> Idle   on release (emits DropMsg) or cancel
//
// Returns a command for any emitted event and whether the msg was
// consumed.
func (t *TreeModel) HandleMouse(msg tea.MouseMsg) (tea.Cmd, bool) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil, false
		}
		idx, ok := t.rowIndexAt(msg)
		if !ok {
			return nil, false
		}
		t.cursor = idx
		cmd := t.SelectCursor()
		r := t.rows[idx]
		if r.item.Draggable && !r.item.Disabled && !t.commitLock {
			t.drag = &dragState{item: r.item}
		}
		return cmd, true

	case tea.MouseActionMotion:
		if t.drag == nil {
			return nil, false
		}
		t.updateDragTarget(msg)
		return nil, true

	case tea.MouseActionRelease:
		if t.drag == nil {
			return nil, false
		}
		drag := t.drag
		t.drag = nil
		t.updateDragTargetFrom(drag, msg)
		return t.completeDrag(drag), true
	}
	return nil, false
}

// completeDrag turns the final drag state into a drop event, or nothing
// for a cancelled gesture or suppressed self-drop.
func (t *TreeModel) completeDrag(drag *dragState) tea.Cmd {
	if !drag.valid {
		return nil // cancelled: released outside any target
	}
	if !drag.overRoot && drag.overID == drag.item.ID {
		return nil // self-drop is suppressed, not an event
	}
	dropped := DropMsg{Dragged: drag.item, Zone: drag.zone}
	if drag.overRoot {
		dropped.Target = tree.RootTarget()
	} else if target, ok := t.itemByID(drag.overID); ok {
		dropped.Target = tree.ItemTarget(target)
	} else {
		return nil
	}
	return func() tea.Msg { return dropped }
}

// hoverSentinel resolves a hit on a root sentinel band. The top band
// means "start of the root list": it becomes an insert before the first
// root row, shifting every root down. The end band appends at the root
// level.
func (t *TreeModel) hoverSentinel(drag *dragState, id string) {
	if id == zoneTopSentinel && len(t.roots) > 0 {
		drag.overID = t.roots[0].Item.ID
		drag.zone = tree.ZoneBefore
		drag.valid = true
		return
	}
	drag.overRoot = true
	drag.zone = tree.ZoneOn
	drag.valid = true
}

// updateDragTarget reclassifies the hover target on a motion tick.
func (t *TreeModel) updateDragTarget(msg tea.MouseMsg) {
	t.updateDragTargetFrom(t.drag, msg)
}

func (t *TreeModel) updateDragTargetFrom(drag *dragState, msg tea.MouseMsg) {
	drag.valid = false
	drag.overRoot = false
	drag.overID = ""

	for _, id := range []string{zoneTopSentinel, zoneEndSentinel} {
		if z := t.zones.Get(id); !z.IsZero() && z.InBounds(msg) {
			t.hoverSentinel(drag, id)
			return
		}
	}

	for _, r := range t.visibleRows() {
		z := t.zones.Get(zoneRowPrefix + r.item.ID)
		if z.IsZero() || !z.InBounds(msg) {
			continue
		}
		// Self-hover is visually suppressed; keep the gesture alive so
		// the user can drift to a real target.
		if r.item.ID == drag.item.ID {
			return
		}
		_, offsetY := z.Pos(msg)
		height := z.EndY - z.StartY + 1
		drag.overID = r.item.ID
		drag.zone = tree.ClassifyDropZone(offsetY, height)
		drag.valid = true
		return
	}
}

// View renders the visible window of the tree. During a drag the hovered
// row grows into a three-line band (insert-above gutter, the row, an
// insert-below gutter) so all three drop zones are reachable, and the
// root sentinels appear at both ends of the list.
func (t *TreeModel) View() string {
	if len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder

	if t.drag != nil {
		sb.WriteString(t.zones.Mark(zoneTopSentinel,
			t.theme.DropHint.Render("┄┄ start of list ┄┄")))
		sb.WriteString("\n")
	}

	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		r := t.rows[i]
		hovered := t.drag != nil && t.drag.valid && !t.drag.overRoot && t.drag.overID == r.item.ID

		line := t.renderRow(r, i == t.cursor)
		if hovered {
			band := t.renderDropBand(r, line)
			sb.WriteString(t.zones.Mark(zoneRowPrefix+r.item.ID, band))
		} else {
			sb.WriteString(t.zones.Mark(zoneRowPrefix+r.item.ID, line))
		}
		sb.WriteString("\n")
	}

	if t.drag != nil {
		sb.WriteString(t.zones.Mark(zoneEndSentinel,
			t.theme.DropHint.Render("┄┄ end of list ┄┄")))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderDropBand wraps a hovered row with its insertion gutters, with the
// active zone highlighted.
func (t *TreeModel) renderDropBand(r row, line string) string {
	indent := strings.Repeat("    ", r.depth)
	gutter := indent + "┄┄┄┄┄┄┄┄"

	above, below := t.theme.Dragging.Render(gutter), t.theme.Dragging.Render(gutter)
	mid := line
	switch t.drag.zone {
	case tree.ZoneBefore:
		above = t.theme.DropHint.Render(indent + "▸───────")
	case tree.ZoneAfter:
		below = t.theme.DropHint.Render(indent + "▸───────")
	case tree.ZoneOn:
		mid = t.theme.DropHint.Render("▸ ") + line
	}
	return above + "\n" + mid + "\n" + below
}

// renderRow renders a single visible row: tree prefix, expand indicator,
// kind icon, name.
func (t *TreeModel) renderRow(r row, underCursor bool) string {
	rdr := t.theme.Renderer
	var sb strings.Builder

	sb.WriteString(rdr.NewStyle().Foreground(t.theme.Muted).Render(r.prefix))

	indicator := "•"
	if r.hasChildren {
		if r.expanded {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}
	sb.WriteString(rdr.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	icon, color := t.theme.KindIcon(r.item.Kind)
	sb.WriteString(rdr.NewStyle().Foreground(color).Render(icon))
	sb.WriteString(" ")

	maxName := t.width - lipgloss.Width(r.prefix) - 6
	if maxName < 12 {
		maxName = 12
	}
	name := runewidth.Truncate(r.item.Name, maxName, "…")

	switch {
	case t.drag != nil && r.item.ID == t.drag.item.ID:
		sb.WriteString(t.theme.Dragging.Render(name))
	case r.item.Disabled:
		sb.WriteString(t.theme.Disabled.Render(name))
	case r.item.ID == t.selectedID:
		sb.WriteString(rdr.NewStyle().Foreground(t.theme.Highlight).Bold(true).Render(name))
	default:
		sb.WriteString(name)
	}

	line := sb.String()
	if underCursor && t.drag == nil {
		line = t.theme.Selected.Render(line)
	}
	return line
}

func (t *TreeModel) renderEmptyState() string {
	muted := t.theme.Renderer.NewStyle().Foreground(t.theme.Muted)
	return muted.Render("No documents yet.") + "\n\n" +
		muted.Render("Documents created on the server appear here after a refresh (r).")
}

// rebuildRows flattens the forest into the visible row list.
func (t *TreeModel) rebuildRows() {
	t.rows = t.rows[:0]
	for i, root := range t.roots {
		t.appendVisible(root, 0, "", i == len(t.roots)-1)
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

// appendVisible adds a node and its visible descendants. childPrefix
// carries the accumulated branch glyphs for nested levels.
func (t *TreeModel) appendVisible(node *tree.Node, depth int, prefix string, last bool) {
	linePrefix := prefix
	childPrefix := prefix
	if depth > 0 {
		if last {
			linePrefix += "└── "
			childPrefix += "    "
		} else {
			linePrefix += "├── "
			childPrefix += "│   "
		}
	}

	expanded := t.isExpanded(node.Item.ID)
	t.rows = append(t.rows, row{
		item:        node.Item,
		depth:       depth,
		hasChildren: len(node.Children) > 0,
		expanded:    expanded,
		prefix:      linePrefix,
	})

	if expanded {
		for i, child := range node.Children {
			t.appendVisible(child, depth+1, childPrefix, i == len(node.Children)-1)
		}
	}
}

func (t *TreeModel) isExpanded(id string) bool {
	if t.expandAll {
		return true
	}
	return t.expanded[id]
}

func (t *TreeModel) rowAt(i int) (row, bool) {
	if i < 0 || i >= len(t.rows) {
		return row{}, false
	}
	return t.rows[i], true
}

func (t *TreeModel) itemByID(id string) (tree.Item, bool) {
	for _, it := range t.items {
		if it.ID == id {
			return it, true
		}
	}
	return tree.Item{}, false
}

func (t *TreeModel) moveCursorTo(id string) {
	for i, r := range t.rows {
		if r.item.ID == id {
			t.cursor = i
			t.clampScroll()
			return
		}
	}
}

// rowIndexAt hit-tests the pointer against the visible row zones.
func (t *TreeModel) rowIndexAt(msg tea.MouseMsg) (int, bool) {
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		z := t.zones.Get(zoneRowPrefix + t.rows[i].item.ID)
		if !z.IsZero() && z.InBounds(msg) {
			return i, true
		}
	}
	return 0, false
}

func (t *TreeModel) visibleRows() []row {
	start, end := t.visibleRange()
	return t.rows[start:end]
}

// visibleRange returns the [start, end) window of rows that fit the
// viewport.
func (t *TreeModel) visibleRange() (int, int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	visible := t.height
	if visible <= 0 {
		visible = len(t.rows)
	}
	start := t.offset
	end := start + visible
	if end > len(t.rows) {
		end = len(t.rows)
	}
	return start, end
}

// clampScroll keeps the cursor inside the visible window.
func (t *TreeModel) clampScroll() {
	if t.height <= 0 {
		t.offset = 0
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}
