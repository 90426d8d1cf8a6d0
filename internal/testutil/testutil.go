// Package testutil holds helpers for tests that need files or git history.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// GitRepo is a throwaway repository for history-driven tests.
type GitRepo struct {
	t    *testing.T
	Path string
	Repo *git.Repository

	// Email is the author used by Commit.
	Email string
	// Now is the commit time used by Commit; it moves forward one second per
	// commit so ordering is stable.
	Now time.Time
}

// InitGitRepo initializes an empty repository in a fresh temp directory.
func InitGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("Failed to init git repo: %v", err)
	}
	return &GitRepo{
		t:     t,
		Path:  path,
		Repo:  repo,
		Email: "test@example.com",
		Now:   time.Now().Add(-time.Hour),
	}
}

// Commit writes files (path -> content) and commits them.
func (g *GitRepo) Commit(files map[string]string, message string) plumbing.Hash {
	g.t.Helper()
	g.Now = g.Now.Add(time.Second)
	return g.CommitAt(files, message, g.Now)
}

// CommitAt is Commit with an explicit author and committer time.
func (g *GitRepo) CommitAt(files map[string]string, message string, when time.Time) plumbing.Hash {
	g.t.Helper()

	w, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("Failed to get worktree: %v", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		WriteFile(g.t, filepath.Join(g.Path, name), files[name])
		if _, err := w.Add(name); err != nil {
			g.t.Fatalf("Failed to add file %s: %v", name, err)
		}
	}

	sig := &object.Signature{Name: "Test Author", Email: g.Email, When: when}
	hash, err := w.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		g.t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}

// Touch commits a new revision of every named file.
func (g *GitRepo) Touch(message string, paths ...string) plumbing.Hash {
	g.t.Helper()
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		files[p] = message + " " + p + "\n"
	}
	return g.Commit(files, message)
}
