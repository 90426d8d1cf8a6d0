package vcs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/panbanda/decay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    LogHeader
		wantErr bool
	}{
		{
			name: "full header",
			line: "###1700000000###dev@example.com###abc123",
			want: LogHeader{Timestamp: 1700000000, Author: "dev@example.com", Parents: 1},
		},
		{
			name: "merge header",
			line: "###1700000000###dev@example.com###abc123 def456",
			want: LogHeader{Timestamp: 1700000000, Author: "dev@example.com", Parents: 2},
		},
		{
			name: "root commit has no parents",
			line: "###1700000000###dev@example.com###",
			want: LogHeader{Timestamp: 1700000000, Author: "dev@example.com", Parents: 0},
		},
		{
			name: "timestamp only",
			line: "###1700000000",
			want: LogHeader{Timestamp: 1700000000, Parents: -1},
		},
		{name: "bad timestamp", line: "###yesterday###dev@example.com", wantErr: true},
		{name: "negative timestamp", line: "###-5###dev@example.com", wantErr: true},
		{name: "not a header", line: "src/main.go", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatHeaderIsParseable(t *testing.T) {
	h := LogHeader{Timestamp: 42, Author: "a@b.c", Parents: 2}
	got, err := ParseHeader(FormatHeader(h))
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.True(t, got.IsMerge())
}

func TestGoGitLog_Stream(t *testing.T) {
	repo := testutil.InitGitRepo(t)
	repo.Commit(map[string]string{"a.go": "package a\n", "b.go": "package b\n"}, "first")
	repo.Commit(map[string]string{"a.go": "package a // v2\n"}, "second")

	var buf bytes.Buffer
	err := NewGoGitLog(nil).Stream(context.Background(), repo.Path, &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var headers, paths int
	for _, line := range lines {
		if IsHeader(line) {
			headers++
			h, err := ParseHeader(line)
			require.NoError(t, err)
			assert.Equal(t, "test@example.com", h.Author)
			assert.False(t, h.IsMerge())
		} else {
			paths++
		}
	}
	assert.Equal(t, 2, headers)
	assert.Equal(t, 3, paths)
}

func TestGoGitLog_EmptyRepository(t *testing.T) {
	repo := testutil.InitGitRepo(t)

	var buf bytes.Buffer
	err := NewGoGitLog(nil).Stream(context.Background(), repo.Path, &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestGoGitLog_NotARepository(t *testing.T) {
	var buf bytes.Buffer
	err := NewGoGitLog(nil).Stream(context.Background(), t.TempDir(), &buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRepository), "got %v", err)
}

func TestGoGitLog_Cancelled(t *testing.T) {
	repo := testutil.InitGitRepo(t)
	repo.Commit(map[string]string{"a.go": "package a\n"}, "first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewGoGitLog(nil).Stream(ctx, repo.Path, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNativeGit_Stream(t *testing.T) {
	if err := CheckGitAvailable(); err != nil {
		t.Skip("git not installed")
	}

	repo := testutil.InitGitRepo(t)
	repo.Commit(map[string]string{"a.go": "package a\n", "b.go": "package b\n"}, "first")

	var buf bytes.Buffer
	err := NewNativeGit(time.Minute).Stream(context.Background(), repo.Path, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, CommitMarker)
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "b.go")
}

func TestNativeGit_NotARepository(t *testing.T) {
	if err := CheckGitAvailable(); err != nil {
		t.Skip("git not installed")
	}

	var buf bytes.Buffer
	err := NewNativeGit(time.Minute).Stream(context.Background(), t.TempDir(), &buf)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestFindRoot(t *testing.T) {
	repo := testutil.InitGitRepo(t)
	repo.Commit(map[string]string{"pkg/a/a.go": "package a\n"}, "first")

	root, err := FindRoot(repo.Path + "/pkg/a")
	require.NoError(t, err)
	assert.Equal(t, repo.Path, root)

	_, err = FindRoot(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}
