// Package analyzer holds the contracts shared by the forensic analyzers.
package analyzer

import "context"

// RepoAnalyzer analyzes a whole repository in one pass.
type RepoAnalyzer[T any] interface {
	Analyze(ctx context.Context, repoPath string) (T, error)
}

