// arbor is a terminal tree navigator for a documentation server: it
// renders a project's document hierarchy (or a library category's
// template hierarchy), lets you reorder and reparent entries by
// dragging, and commits every move back to the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/mossdocs/arbor/pkg/api"
	"github.com/mossdocs/arbor/pkg/config"
	"github.com/mossdocs/arbor/pkg/model"
	"github.com/mossdocs/arbor/pkg/store"
	"github.com/mossdocs/arbor/pkg/tree"
	"github.com/mossdocs/arbor/pkg/ui"
	"github.com/mossdocs/arbor/pkg/version"
)

const watchDebounce = 250 * time.Millisecond

// errNeedPrompt signals that no project could be chosen without asking.
var errNeedPrompt = errors.New("multiple projects available")

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	serverFlag := flag.String("server", "", "Documentation server base URL (overrides config)")
	tokenFlag := flag.String("token", "", "Bearer token (overrides config and env)")
	projectFlag := flag.String("project", "", "Project name or id to open")
	categoryFlag := flag.String("category", "", "Open a library category's template tree instead of a project")
	localFlag := flag.String("local", "", "Open a local sqlite workspace file instead of a server")
	expandAll := flag.Bool("expand-all", false, "Expand every branch on load")
	noWatch := flag.Bool("no-watch", false, "Disable live reload of a local workspace")
	robotTree := flag.Bool("robot-tree", false, "Print the document tree as JSON and exit")
	flag.Parse()

	if *help {
		fmt.Println("Usage: arbor [options]")
		fmt.Println("\nA TUI tree navigator for documentation workspaces.")
		fmt.Println("Drag rows with the mouse to reorder; drop on the upper or")
		fmt.Println("lower third of a row to insert before or after it, on the")
		fmt.Println("middle to nest inside it.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("arbor %s\n", version.String())
		os.Exit(0)
	}

	cfg, cfgPath, err := config.Discover()
	if err != nil {
		fatalf("config %s: %v", cfgPath, err)
	}
	if *serverFlag != "" {
		cfg.Server.URL = *serverFlag
	}
	if *tokenFlag != "" {
		cfg.Server.Token = *tokenFlag
	}
	if *expandAll {
		cfg.UI.ExpandAll = true
	}

	src, title, watchPath, err := openStore(cfg, *projectFlag, *categoryFlag, *localFlag)
	if err != nil {
		fatalf("%v", err)
	}

	if *robotTree {
		if err := printRobotTree(src); err != nil {
			fatalf("robot-tree: %v", err)
		}
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fatalf("arbor is interactive; use --robot-tree for scripted output")
	}

	// The TUI owns stdout, so debug logging goes to a file.
	if os.Getenv("ARBOR_DEBUG") != "" {
		f, err := tea.LogToFile("arbor-debug.log", "debug")
		if err != nil {
			fatalf("debug log: %v", err)
		}
		defer f.Close()
	}

	m := ui.NewModel(ui.Options{
		Store:     src,
		Title:     title,
		ExpandAll: cfg.UI.ExpandAll,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if watchPath != "" && !*noWatch {
		w, err := store.WatchFile(watchPath, watchDebounce, func() {
			p.Send(ui.WorkspaceChangedMsg{})
		})
		if err != nil {
			fatalf("watch %s: %v", watchPath, err)
		}
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		fatalf("%v", err)
	}
}

// openStore builds the document source for the requested view: a local
// sqlite workspace, a library category, or a server project. watchPath
// is non-empty only for local workspaces.
func openStore(cfg config.Config, project, category, local string) (src store.Store, title, watchPath string, err error) {
	if local != "" {
		l, err := store.OpenLocal(local)
		if err != nil {
			return nil, "", "", fmt.Errorf("open workspace %s: %w", local, err)
		}
		return l, local, local, nil
	}

	serverURL := cfg.Server.ResolveURL()
	if serverURL == "" {
		return nil, "", "", errors.New("no server configured; pass --server, set ARBOR_SERVER, or add one to .arbor/config.yaml")
	}
	client := api.NewClient(serverURL, cfg.Server.ResolveToken())

	if category != "" {
		return store.NewRemoteTemplates(client, category), "templates: " + category, "", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, name, err := chooseProject(ctx, client, cfg, project)
	if err != nil {
		return nil, "", "", err
	}
	return store.NewRemote(client, id), name, "", nil
}

// chooseProject resolves the project to open, prompting when the choice
// is ambiguous and a terminal is attached.
func chooseProject(ctx context.Context, client *api.Client, cfg config.Config, key string) (string, string, error) {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return "", "", fmt.Errorf("list projects: %w", err)
	}

	id, name, err := resolveProject(cfg, projects, key)
	if err == nil {
		return id, name, nil
	}
	if !errors.Is(err, errNeedPrompt) {
		return "", "", err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", errors.New("multiple projects available; pass --project")
	}
	return promptProject(projects)
}

// resolveProject maps a --project value (or its absence) onto a project
// id. Config entries are checked before the server list so short local
// names keep working when the server knows the project by a longer one.
func resolveProject(cfg config.Config, projects []model.Project, key string) (string, string, error) {
	if key != "" {
		if ref, ok := cfg.ProjectByName(key); ok {
			return ref.ID, ref.Name, nil
		}
		for _, p := range projects {
			if p.ID == key || p.Name == key {
				return p.ID, p.Name, nil
			}
		}
		return "", "", fmt.Errorf("unknown project %q", key)
	}

	if len(cfg.Projects) == 1 {
		return cfg.Projects[0].ID, cfg.Projects[0].Name, nil
	}
	if len(projects) == 1 {
		return projects[0].ID, projects[0].Name, nil
	}
	if len(projects) == 0 && len(cfg.Projects) == 0 {
		return "", "", errors.New("no projects available on the server")
	}
	return "", "", errNeedPrompt
}

// promptProject asks the user to pick one of the server's projects.
func promptProject(projects []model.Project) (string, string, error) {
	opts := make([]huh.Option[string], len(projects))
	byID := make(map[string]string, len(projects))
	for i, p := range projects {
		opts[i] = huh.NewOption(p.Name, p.ID)
		byID[p.ID] = p.Name
	}

	var id string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Open project").
			Options(opts...).
			Value(&id),
	))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return id, byID[id], nil
}

// treeJSON is the nested shape emitted by --robot-tree.
type treeJSON struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind,omitempty"`
	Order    int        `json:"order"`
	Archived bool       `json:"archived,omitempty"`
	Children []treeJSON `json:"children,omitempty"`
}

func printRobotTree(src store.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	docs, err := src.Load(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(robotTreeNodes(docs), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// robotTreeNodes nests the flat collection the same way the viewer does,
// so scripted consumers see exactly what the screen would show.
func robotTreeNodes(docs []model.Document) []treeJSON {
	roots := tree.Build(model.TreeItems(docs), nil)
	return convertNodes(roots)
}

func convertNodes(nodes []*tree.Node) []treeJSON {
	out := make([]treeJSON, len(nodes))
	for i, n := range nodes {
		out[i] = treeJSON{
			ID:       n.Item.ID,
			Name:     n.Item.Name,
			Kind:     n.Item.Kind,
			Order:    n.Item.Order,
			Archived: n.Item.Disabled,
			Children: convertNodes(n.Children),
		}
	}
	return out
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "arbor: "+format+"\n", args...)
	os.Exit(1)
}
