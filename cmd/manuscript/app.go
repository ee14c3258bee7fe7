package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/config"
	"github.com/maruel/manuscript/internal/tree"
	"github.com/maruel/manuscript/internal/workspace"
)

// noWorkspace marks commands that run without opening a project.
const noWorkspace = "no-workspace"

var errAmbiguous = errors.New("ambiguous reference")

// app holds the state shared by every subcommand.
type app struct {
	level      *slog.LevelVar
	dir        string
	configPath string
	logLevel   string

	cfg *config.Config
	ws  *workspace.Workspace
}

func newApp(level *slog.LevelVar) *app {
	return &app{level: level}
}

// defaultDir returns $MANUSCRIPT_DIR, else the default project under
// ./manuscript_data/projects.
func defaultDir() string {
	if d := os.Getenv("MANUSCRIPT_DIR"); d != "" {
		return d
	}
	name := config.Default().DefaultProjectName
	if v := os.Getenv(config.EnvPrefix + "DEFAULT_PROJECT_NAME"); v != "" {
		name = v
	}
	return filepath.Join("manuscript_data", "projects", name)
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "manuscript",
		Short: "Local-first novel writing store",
		Long: `manuscript manages a novel project stored as plain files.

The project directory holds the chapter tree (project.json), one file per
chapter under chapters/, snapshots under versions/, the word count history
under stats/ and the knowledge base under knowledge/.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.dir, "dir", "d", defaultDir(), "project directory")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default <dir>/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(
		a.initCmd(),
		a.treeCmd(),
		a.addCmd(),
		a.renameCmd(),
		a.rmCmd(),
		a.mvCmd(),
		a.writeCmd(),
		a.catCmd(),
		a.snapshotCmd(),
		a.versionsCmd(),
		a.showVersionCmd(),
		a.restoreCmd(),
		a.statsCmd(),
		a.exportCmd(),
		a.knowledgeCmd(),
		a.schemaCmd(),
		a.searchCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads the configuration and opens the workspace.
func (a *app) setup(cmd *cobra.Command) error {
	if skipWorkspace(cmd) {
		return a.applyLevel(a.logLevel)
	}
	path := a.configPath
	if path == "" {
		path = filepath.Join(a.dir, config.Filename)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(filepath.Join(a.dir, ".env")); err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := a.applyLevel(cfg.LogLevel); err != nil {
		return err
	}
	ws, err := workspace.Open(a.dir, cfg, workspace.Options{})
	if err != nil {
		return fmt.Errorf("failed to open project in %s: %w", a.dir, err)
	}
	slog.Debug("Opened project", "dir", a.dir, "title", ws.Project().Title, "nodes", ws.Tree().Len())
	a.cfg = cfg
	a.ws = ws
	return nil
}

func skipWorkspace(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" || c.Annotations[noWorkspace] != "" {
			return true
		}
	}
	return false
}

func (a *app) applyLevel(s string) error {
	l, err := parseLevel(s)
	if err != nil {
		return err
	}
	a.level.Set(l)
	return nil
}

// resolve finds a node by id, else by exact title.
func (a *app) resolve(ref string) (*tree.Node, error) {
	t := a.ws.Tree()
	if n, ok := t.Find(ref); ok && n.ID != t.Root().ID {
		return n, nil
	}
	var found *tree.Node
	for n := range t.All() {
		if n.Title != ref {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q matches more than one node, use its id", errAmbiguous, ref)
		}
		found = n
	}
	if found == nil {
		return nil, fmt.Errorf("no node matches %q", ref)
	}
	return found, nil
}

// resolveChapter is resolve restricted to chapters.
func (a *app) resolveChapter(ref string) (*tree.Node, error) {
	n, err := a.resolve(ref)
	if err != nil {
		return nil, err
	}
	if n.IsFolder {
		return nil, fmt.Errorf("%q is a folder", ref)
	}
	return n, nil
}

// resolveFolder resolves a parent reference; "" is the root.
func (a *app) resolveFolder(ref string) (*tree.Node, error) {
	if ref == "" || ref == tree.RootID {
		return a.ws.Tree().Root(), nil
	}
	n, err := a.resolve(ref)
	if err != nil {
		return nil, err
	}
	if !n.IsFolder {
		return nil, fmt.Errorf("%q is not a folder", ref)
	}
	return n, nil
}
