package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultGitTimeout bounds a single git subprocess.
const DefaultGitTimeout = 5 * time.Minute

var (
	gitCheckOnce sync.Once
	gitCheckErr  error
)

// CheckGitAvailable verifies that git is installed and accessible.
func CheckGitAvailable() error {
	gitCheckOnce.Do(func() {
		if _, err := exec.LookPath("git"); err != nil {
			gitCheckErr = ErrGitNotFound
		}
	})
	return gitCheckErr
}

// NativeGit runs the git executable. It implements LogSource and Blamer.
type NativeGit struct {
	timeout time.Duration
}

// NewNativeGit creates a native git runner. A zero timeout uses
// DefaultGitTimeout.
func NewNativeGit(timeout time.Duration) *NativeGit {
	if timeout <= 0 {
		timeout = DefaultGitTimeout
	}
	return &NativeGit{timeout: timeout}
}

// Stream runs `git log --name-only --no-merges` and copies its output to w.
func (n *NativeGit) Stream(ctx context.Context, root string, w io.Writer) error {
	err := n.run(ctx, root, w, "log", "--name-only", "--no-merges", "--format="+NativeLogFormat)
	if err != nil && strings.Contains(err.Error(), "does not have any commits") {
		return nil
	}
	return err
}

// Blame runs `git blame --line-porcelain HEAD -- relPath`.
func (n *NativeGit) Blame(ctx context.Context, root, relPath string, w io.Writer) error {
	return n.run(ctx, root, w, "blame", "--line-porcelain", "HEAD", "--", relPath)
}

func (n *NativeGit) run(ctx context.Context, root string, w io.Writer, args ...string) error {
	if err := CheckGitAvailable(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", root}, args...)...)
	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: git %s after %s", ErrTimeout, args[0], n.timeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return fmt.Errorf("%w: %s", ErrNotRepository, root)
		}
		return fmt.Errorf("git %s failed: %w: %s", args[0], err, msg)
	}
	return nil
}

// DefaultLogSource picks the native runner when git is installed and
// preferNative is set, falling back to go-git otherwise.
func DefaultLogSource(preferNative bool, timeout time.Duration) LogSource {
	if preferNative && CheckGitAvailable() == nil {
		return NewNativeGit(timeout)
	}
	return NewGoGitLog(nil)
}
