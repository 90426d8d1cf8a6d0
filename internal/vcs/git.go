package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	return newGitRepository(repo, path), nil
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	return newGitRepository(repo, path), nil
}

func wrapOpenErr(path string, err error) error {
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	return err
}

func newGitRepository(repo *git.Repository, fallback string) *gitRepository {
	root := fallback
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (r *gitRepository) Log() (CommitIterator, error) {
	iter, err := r.repo.Log(&git.LogOptions{Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	return &gitCommitIterator{iter: iter}, nil
}

func (r *gitRepository) RepoPath() string {
	return r.root
}

// gitCommitIterator wraps go-git CommitIter.
type gitCommitIterator struct {
	iter object.CommitIter
}

func (i *gitCommitIterator) ForEach(fn func(Commit) error) error {
	return i.iter.ForEach(func(c *object.Commit) error {
		return fn(&gitCommit{commit: c})
	})
}

func (i *gitCommitIterator) Close() {
	i.iter.Close()
}

// gitCommit wraps go-git Commit.
type gitCommit struct {
	commit *object.Commit
}

func (c *gitCommit) Hash() plumbing.Hash {
	return c.commit.Hash
}

func (c *gitCommit) NumParents() int {
	return c.commit.NumParents()
}

func (c *gitCommit) Stats() (object.FileStats, error) {
	return c.commit.Stats()
}

func (c *gitCommit) Author() object.Signature {
	return c.commit.Author
}

func (c *gitCommit) Committer() object.Signature {
	return c.commit.Committer
}

// GoGitLog is a LogSource that walks history in-process with go-git. It is
// used when the git executable is unavailable.
type GoGitLog struct {
	opener Opener
}

// NewGoGitLog creates a go-git backed log source.
func NewGoGitLog(opener Opener) *GoGitLog {
	if opener == nil {
		opener = DefaultOpener()
	}
	return &GoGitLog{opener: opener}
}

// Stream writes one header line per non-merge commit followed by the paths
// it touched.
func (g *GoGitLog) Stream(ctx context.Context, root string, w io.Writer) error {
	repo, err := g.opener.PlainOpenWithDetect(root)
	if err != nil {
		return err
	}

	iter, err := repo.Log()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// No commits yet.
			return nil
		}
		return fmt.Errorf("failed to read git log: %w", err)
	}
	defer iter.Close()

	return iter.ForEach(func(c Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if c.NumParents() > 1 {
			return nil
		}

		stats, err := c.Stats()
		if err != nil {
			return nil
		}

		header := LogHeader{
			Timestamp: c.Committer().When.Unix(),
			Author:    c.Author().Email,
			Parents:   c.NumParents(),
		}
		if _, err := fmt.Fprintln(w, FormatHeader(header)); err != nil {
			return err
		}
		for _, stat := range stats {
			if _, err := fmt.Fprintln(w, stat.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindRoot returns the working tree root of the repository containing path.
func FindRoot(path string) (string, error) {
	repo, err := DefaultOpener().PlainOpenWithDetect(path)
	if err != nil {
		return "", err
	}
	return repo.RepoPath(), nil
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}
