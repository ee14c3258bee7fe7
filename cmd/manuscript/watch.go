package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/maruel/manuscript/internal/session"
	"github.com/maruel/manuscript/internal/storage/project"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [chapter]",
		Short: "Autosave, snapshot and sample word counts while chapters are edited",
		Long: `Run a headless editing session until interrupted.

Chapter files edited by an external editor are picked up as they change. The
open chapter (default the first one) is snapshotted at most once per
snapshot_interval while it has words, and the project total is sampled every
stats_interval.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			first, err := a.ws.EnsureFirstChapter()
			if err != nil {
				return err
			}
			id := first.ID
			if len(args) == 1 {
				n, err := a.resolveChapter(args[0])
				if err != nil {
					return err
				}
				id = n.ID
			}
			sess := session.New(a.ws, session.Options{
				SnapshotInterval: a.cfg.SnapshotInterval,
				StatsInterval:    a.cfg.StatsInterval,
			})
			if _, err := sess.Open(id); err != nil {
				return err
			}
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()
			chapters := filepath.Join(a.ws.Dir(), project.ChaptersDirname)
			if err := w.Add(chapters); err != nil {
				return fmt.Errorf("failed to watch %s: %w", chapters, err)
			}
			slog.InfoContext(ctx, "Watching", "dir", chapters, "chapter", id, "words", sess.Total())

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return sess.Run(ctx, a.cfg.AutosaveInterval)
			})
			eg.Go(func() error {
				return a.watchChapters(ctx, w, sess)
			})
			return eg.Wait()
		},
	}
}

// watchChapters feeds chapter file changes to the session.
func (a *app) watchChapters(ctx context.Context, w *fsnotify.Watcher, sess *session.Session) error {
	ext := a.cfg.ChapterExt
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			// Atomic writes go through hidden temporary files.
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
				continue
			}
			id := strings.TrimSuffix(name, ext)
			slog.DebugContext(ctx, "Chapter changed", "chapter", id, "op", event.Op.String())
			sess.Refresh(id)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching chapters", "err", err)
		}
	}
}
