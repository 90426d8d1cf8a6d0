// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"errors"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrNotRepository is returned when a path is not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrGitNotFound is returned when the git executable is not in PATH.
	ErrGitNotFound = errors.New("git executable not found in PATH")
	// ErrTimeout is returned when a git subprocess exceeds its deadline.
	ErrTimeout = errors.New("git command timed out")
	// ErrInvalidType is returned when a type assertion fails for vcs types.
	ErrInvalidType = errors.New("invalid type")
)

// LogSource streams the commit log of a repository in the header/path line
// format described by FormatHeader. Merge commits may be omitted by the
// source or marked through the header's parent count.
type LogSource interface {
	Stream(ctx context.Context, root string, w io.Writer) error
}

// Blamer streams `git blame --line-porcelain` output for one file at HEAD.
type Blamer interface {
	Blame(ctx context.Context, root, relPath string, w io.Writer) error
}

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns the hash of the HEAD commit.
	Head() (plumbing.Hash, error)
	// Log returns a commit iterator starting from HEAD.
	Log() (CommitIterator, error)
	// RepoPath returns the root path of the working tree.
	RepoPath() string
}

// CommitIterator iterates over commits.
type CommitIterator interface {
	ForEach(fn func(Commit) error) error
	Close()
}

// Commit represents a git commit.
type Commit interface {
	Hash() plumbing.Hash
	NumParents() int
	// Stats returns per-file stats for this commit against its first parent.
	Stats() (object.FileStats, error)
	Author() object.Signature
	Committer() object.Signature
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
