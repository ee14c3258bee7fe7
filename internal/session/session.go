// Package session drives an editing session headlessly: it holds the open
// chapter's text, saves it periodically, takes throttled snapshots and
// samples the project word count.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/version"
	"github.com/maruel/manuscript/internal/textmetrics"
	"github.com/maruel/manuscript/internal/workspace"
)

// Options configures a Session. Zero intervals use the defaults.
type Options struct {
	// SnapshotInterval is the minimum time between two snapshots of a chapter.
	SnapshotInterval time.Duration
	// StatsInterval is the minimum time between two word count samples.
	StatsInterval time.Duration
	// Clock is used by Run. Defaults to time.Now.
	Clock storage.Clock
}

const (
	defaultSnapshotInterval = 60 * time.Second
	defaultStatsInterval    = 60 * time.Second
)

// Status is the outcome of a Tick.
type Status struct {
	Chapter string
	// Words is the open chapter's word count.
	Words int
	// Total is the project word count.
	Total int
	// Snapshot is set when the tick took a snapshot.
	Snapshot *version.Entry
	// Sampled reports whether a stats sample was appended.
	Sampled bool
}

// Session is safe for concurrent use.
type Session struct {
	ws    *workspace.Workspace
	opts  Options
	mu    sync.Mutex
	id    string
	text  string
	dirty bool

	counts    map[string]int
	total     int
	snapshots map[string]*rate.Limiter
	stats     *rate.Limiter
}

// New starts a session on ws with no chapter open. The word cache is built
// from the chapters on disk.
func New(ws *workspace.Workspace, opts Options) *Session {
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = defaultSnapshotInterval
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = defaultStatsInterval
	}
	counts, total := ws.Totals()
	return &Session{
		ws:        ws,
		opts:      opts,
		counts:    counts,
		total:     total,
		snapshots: map[string]*rate.Limiter{},
		stats:     rate.NewLimiter(rate.Every(opts.StatsInterval), 1),
	}
}

// Open saves the open chapter, if any, and opens id. It returns the chapter's text.
func (s *Session) Open(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.ws.Tree().Find(id); !ok || n.IsFolder {
		return "", fmt.Errorf("cannot open %q: not a chapter", id)
	}
	if id == s.id {
		return s.text, nil
	}
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	s.id = id
	s.text = s.ws.ReadChapter(id)
	s.dirty = false
	return s.text, nil
}

// Current returns the open chapter id, "" when none.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Text returns the open chapter's buffered text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the open chapter's buffer. It is persisted by the next Save or Tick.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" || text == s.text {
		return
	}
	s.text = text
	s.dirty = true
}

// Total returns the cached project word count.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Counts returns a copy of the cached per chapter word counts.
func (s *Session) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Save writes the buffer when it changed since the last save.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Refresh rereads a chapter changed outside the session and updates the word
// cache. An open chapter with unsaved edits keeps its buffer.
func (s *Session) Refresh(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.ws.Tree().Find(id); !ok || n.IsFolder {
		return
	}
	if id == s.id && s.dirty {
		return
	}
	text := s.ws.ReadChapter(id)
	if id == s.id {
		s.text = text
	}
	s.account(id, text)
}

// Rebuild recomputes the word cache after tree edits. The open chapter is
// closed, without saving, when it is no longer in the tree.
func (s *Session) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.ws.Tree().Find(s.id); s.id != "" && (!ok || n.IsFolder) {
		s.id, s.text, s.dirty = "", "", false
	}
	s.counts = workspace.RecomputeTotals(s.ws.Tree(), func(id string) string {
		if id == s.id {
			return s.text
		}
		return s.ws.ReadChapter(id)
	})
	s.total = textmetrics.Sum(s.counts)
}

// Tick saves the buffer, snapshots the open chapter when it has words and the
// snapshot interval elapsed for it, and samples the total when the stats
// interval elapsed.
func (s *Session) Tick(ctx context.Context, now time.Time) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return Status{Total: s.total}, nil
	}
	if err := s.saveLocked(); err != nil {
		return Status{}, err
	}
	st := Status{Chapter: s.id, Words: s.counts[s.id], Total: s.total}
	if st.Words > 0 && s.limiter(s.id).AllowN(now, 1) {
		e, err := s.ws.SnapshotText(ctx, s.id, s.text)
		if err != nil {
			return st, err
		}
		st.Snapshot = &e
	}
	if s.stats.AllowN(now, 1) {
		if err := s.ws.Stats().AppendTotal(s.total, storage.ToTime(now)); err != nil {
			return st, err
		}
		st.Sampled = true
	}
	return st, nil
}

// Run ticks every interval until ctx is done, then saves a last time.
//
// Tick failures are logged and do not stop the loop.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := s.Save(); err != nil {
				return err
			}
			return ctx.Err()
		case <-t.C:
			st, err := s.Tick(ctx, s.opts.Clock.Now())
			if err != nil {
				slog.WarnContext(ctx, "Autosave failed", "chapter", st.Chapter, "err", err)
				continue
			}
			if st.Snapshot != nil {
				slog.InfoContext(ctx, "Snapshot", "chapter", st.Chapter, "id", st.Snapshot.ID, "words", st.Words)
			}
			slog.DebugContext(ctx, "Tick", "chapter", st.Chapter, "words", st.Words, "total", st.Total, "sampled", st.Sampled)
		}
	}
}

func (s *Session) saveLocked() error {
	if s.id == "" || !s.dirty {
		return nil
	}
	if err := s.ws.WriteChapter(s.id, s.text); err != nil {
		return err
	}
	s.dirty = false
	s.account(s.id, s.text)
	return nil
}

// account updates the word cache with the chapter's new text.
func (s *Session) account(id, text string) {
	wc := textmetrics.WordCount(text)
	s.total += wc - s.counts[id]
	s.counts[id] = wc
}

func (s *Session) limiter(id string) *rate.Limiter {
	l, ok := s.snapshots[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.opts.SnapshotInterval), 1)
		s.snapshots[id] = l
	}
	return l
}
