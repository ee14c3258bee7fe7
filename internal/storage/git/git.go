// Package git mirrors snapshot blobs into a git repository using go-git.
//
// The mirror is an optional second copy of the version history that regular
// git tooling can browse. It is never the source of truth: the version index
// stays authoritative.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// DefaultName is the commit author name when none is configured.
	DefaultName = "manuscript"
	// DefaultEmail is the commit author email when none is configured.
	DefaultEmail = "manuscript@localhost"

	maxHistory = 1000
)

// Author identifies who made a change.
type Author struct {
	Name  string
	Email string
}

// Commit is a commit in the mirror's history.
type Commit struct {
	Hash       string    `json:"hash"`
	Message    string    `json:"message"` // Subject line.
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	AuthorDate time.Time `json:"author_date"`
}

// Repo is a git repository rooted at a directory.
type Repo struct {
	dir    string
	author Author
	repo   *gogit.Repository
	mu     sync.Mutex
}

// Open opens the repository in dir, initializing it when needed.
func Open(dir string, author Author) (*Repo, error) {
	if author.Name == "" {
		author.Name = DefaultName
	}
	if author.Email == "" {
		author.Email = DefaultEmail
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = author.Name
		cfg.User.Email = author.Email
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}
	return &Repo{dir: dir, author: author, repo: repo}, nil
}

// Dir returns the repository's working directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Commit stages files (relative to Dir, slash separated) and commits them.
//
// Nothing is committed when files is empty or staging leaves the worktree clean.
func (r *Repo) Commit(ctx context.Context, msg string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, f := range files {
		if _, err := w.Add(f); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	sig := &object.Signature{Name: r.author.Name, Email: r.author.Email, When: time.Now()}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CommitCount returns the number of commits reachable from HEAD. A repository
// without commits has none.
func (r *Repo) CommitCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, nil
	}
	commits, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to read log: %w", err)
	}
	n := 0
	err = commits.ForEach(func(*object.Commit) error {
		n++
		return ctx.Err()
	})
	return n, err
}

// History returns up to n commits, newest first, touching dir or any file below it.
//
// An empty dir means the whole repository. n is capped at 1000; n <= 0 means the cap.
func (r *Repo) History(ctx context.Context, dir string, n int) ([]*Commit, error) {
	if n <= 0 || n > maxHistory {
		n = maxHistory
	}
	opts := &gogit.LogOptions{}
	if dir = strings.Trim(path.Clean("/"+dir), "/"); dir != "" {
		prefix := dir + "/"
		opts.PathFilter = func(p string) bool {
			return p == dir || strings.HasPrefix(p, prefix)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, nil // no commits yet is not an error
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		if err := ctx.Err(); err != nil {
			return commits, err
		}
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, body, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:       c.Hash.String(),
			Message:    subject,
			Body:       strings.TrimSpace(body),
			Author:     c.Author.Name,
			AuthorDate: c.Author.When,
		})
	}
	return commits, nil
}

// FileAtCommit returns the content of a file at rev: a full or abbreviated
// commit hash, or any revision go-git resolves such as "HEAD".
func (r *Repo) FileAtCommit(_ context.Context, rev, filePath string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	f, err := c.File(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file at commit: %w", err)
	}
	reader, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
