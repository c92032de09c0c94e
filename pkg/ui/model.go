package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/mossdocs/arbor/pkg/model"
	"github.com/mossdocs/arbor/pkg/store"
	"github.com/mossdocs/arbor/pkg/tree"
)

// SplitViewThreshold is the terminal width above which the markdown
// preview pane is shown beside the tree.
const SplitViewThreshold = 100

const commitTimeout = 2 * time.Minute

// DocumentsLoadedMsg delivers a (re)fetched collection.
type DocumentsLoadedMsg struct {
	Docs []model.Document
}

// LoadErrorMsg reports a failed fetch.
type LoadErrorMsg struct {
	Err error
}

// CommitDoneMsg reports a fully committed reorder batch.
type CommitDoneMsg struct{}

// CommitErrorMsg reports a reorder batch that failed partway: updates
// before the failure are committed, the rest never went out. The
// follow-up refetch reconciles the tree with whatever the server holds.
type CommitErrorMsg struct {
	Err error
}

// WorkspaceChangedMsg is posted by the file watcher when another process
// writes the local workspace.
type WorkspaceChangedMsg struct{}

// Model is the page-level bubbletea model: the tree pane, the markdown
// preview, and the commit flow between them.
type Model struct {
	store store.Store
	docs  []model.Document

	tree     TreeModel
	viewport viewport.Model
	renderer *glamour.TermRenderer
	zones    *zone.Manager
	theme    Theme

	title     string
	loaded    bool
	syncing   bool // reorder batch in flight; drags disabled
	showHelp  bool
	statusErr string

	width  int
	height int
	split  bool
}

// Options configures the page model.
type Options struct {
	Store     store.Store
	Title     string
	ExpandAll bool
	Theme     *Theme
	Zones     *zone.Manager
}

// NewModel wires the page model around a document store.
func NewModel(opts Options) Model {
	theme := DefaultTheme(nil)
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	zones := opts.Zones
	if zones == nil {
		zones = zone.New()
	}

	t := NewTreeModel(theme, zones)
	t.SetExpandAll(opts.ExpandAll)

	// A nil renderer degrades the preview to raw markdown.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		store:    opts.Store,
		tree:     t,
		renderer: renderer,
		zones:    zones,
		theme:    theme,
		title:    opts.Title,
	}
}

// Zones exposes the zone manager for program wiring.
func (m Model) Zones() *zone.Manager {
	return m.zones
}

func (m Model) Init() tea.Cmd {
	return loadCmd(m.store)
}

// loadCmd fetches the full collection off the UI loop.
func loadCmd(s store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		docs, err := s.Load(ctx)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}
		return DocumentsLoadedMsg{Docs: docs}
	}
}

// commitCmd issues the resolved batch sequentially, then reports.
func commitCmd(s store.Store, updates []tree.Update) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		if err := s.Apply(ctx, updates); err != nil {
			return CommitErrorMsg{Err: err}
		}
		return CommitDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case DocumentsLoadedMsg:
		first := !m.loaded
		m.loaded = true
		m.docs = msg.Docs
		items := model.TreeItems(msg.Docs)
		if first {
			m.tree.Load(items, "")
		} else {
			m.tree.Reload(items)
		}
		m.updatePreview()

	case LoadErrorMsg:
		m.statusErr = fmt.Sprintf("load failed: %v", msg.Err)

	case SelectionChangedMsg:
		m.updatePreview()

	case DropMsg:
		if m.syncing {
			break
		}
		updates := tree.Resolve(m.tree.Items(), msg.Dragged, msg.Target, msg.Zone)
		if len(updates) == 0 {
			break // illegal or degenerate drop: nothing to commit
		}
		m.syncing = true
		m.statusErr = ""
		m.tree.SetCommitLock(true)
		cmds = append(cmds, commitCmd(m.store, updates))

	case CommitDoneMsg:
		m.syncing = false
		m.tree.SetCommitLock(false)
		cmds = append(cmds, loadCmd(m.store))

	case CommitErrorMsg:
		// Partial commits are not rolled back; refetch shows exactly
		// what the server holds.
		m.syncing = false
		m.tree.SetCommitLock(false)
		m.statusErr = fmt.Sprintf("reorder failed: %v", msg.Err)
		cmds = append(cmds, loadCmd(m.store))

	case WorkspaceChangedMsg:
		if !m.syncing {
			cmds = append(cmds, loadCmd(m.store))
		}

	case tea.KeyMsg:
		if m.showHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "?":
			m.showHelp = true
		case "j", "down":
			m.tree.MoveDown()
		case "k", "up":
			m.tree.MoveUp()
		case "g":
			m.tree.JumpToTop()
		case "G":
			m.tree.JumpToBottom()
		case "h":
			m.tree.Collapse()
		case "l":
			m.tree.Expand()
		case " ":
			m.tree.ToggleExpand()
		case "enter":
			cmds = append(cmds, m.tree.SelectCursor())
		case "r":
			if !m.syncing {
				cmds = append(cmds, loadCmd(m.store))
			}
		case "y":
			if item, ok := m.tree.Selected(); ok {
				// Best effort; clipboard may be unavailable over SSH.
				_ = clipboard.WriteAll(item.ID)
			}
		}

	case tea.MouseMsg:
		if cmd, handled := m.tree.HandleMouse(msg); handled {
			cmds = append(cmds, cmd)
		} else if m.split {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.split = msg.Width > SplitViewThreshold

		availHeight := msg.Height - 2 // title + footer
		if m.split {
			treeWidth := int(float64(msg.Width) * 0.4)
			m.tree.SetSize(treeWidth, availHeight)
			m.viewport = viewport.New(msg.Width-treeWidth-4, availHeight)
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.viewport.Width),
			)
		} else {
			m.tree.SetSize(msg.Width, availHeight)
		}
		m.updatePreview()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.loaded {
		return "Loading documents..."
	}

	body := m.tree.View()
	if m.split {
		treeView := lipgloss.NewStyle().Width(m.tree.width).Render(body)
		body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, "  ", m.viewport.View())
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	frame := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	if m.showHelp {
		frame = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			RenderHelp(m.theme, m.width))
	}

	// Scan registers the zone marks' final positions for mouse hit
	// testing on the next event.
	return m.zones.Scan(frame)
}

func (m *Model) renderHeader() string {
	style := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Primary)
	title := m.title
	if title == "" {
		title = "arbor"
	}
	return style.Render(title)
}

func (m *Model) renderFooter() string {
	muted := m.theme.Renderer.NewStyle().Foreground(m.theme.Muted)

	switch {
	case m.statusErr != "":
		return m.theme.Renderer.NewStyle().Foreground(m.theme.Danger).Render(m.statusErr)
	case m.syncing:
		return muted.Render("saving order…")
	case m.tree.Dragging():
		return muted.Render("drop: above/onto/below a row • end bands: first/last root slot • release elsewhere to cancel")
	default:
		return muted.Render("j/k: move • space: fold • enter: open • drag: reorder • r: refresh • ?: help • q: quit")
	}
}

// updatePreview renders the selected document into the preview pane.
func (m *Model) updatePreview() {
	if !m.split {
		return
	}
	id := m.tree.SelectedID()
	var doc *model.Document
	for i := range m.docs {
		if m.docs[i].ID == id {
			doc = &m.docs[i]
			break
		}
	}

	switch {
	case doc == nil:
		m.viewport.SetContent("No document selected")
	case doc.Kind == model.KindWhiteboard:
		m.viewport.SetContent("Whiteboard content — open in the browser workspace to edit.")
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s\n\n", doc.Name)
		sb.WriteString(doc.Content)
		// Without a renderer the raw markdown is still readable.
		if m.renderer == nil {
			m.viewport.SetContent(sb.String())
			return
		}
		rendered, err := m.renderer.Render(sb.String())
		if err != nil {
			m.viewport.SetContent(sb.String())
			return
		}
		m.viewport.SetContent(rendered)
	}
}
