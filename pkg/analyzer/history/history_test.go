package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/panbanda/decay/internal/testutil"
	"github.com/panbanda/decay/internal/vcs"
	"github.com/panbanda/decay/internal/vcs/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestMiner_Mine_FromMockSource(t *testing.T) {
	recent := fixedNow.Add(-24 * time.Hour).Unix()
	old := fixedNow.AddDate(-1, 0, 0).Unix()

	src := mocks.NewMockLogSource(t)
	src.EXPECT().
		Stream(mock.Anything, "/repo", mock.Anything).
		RunAndReturn(func(ctx context.Context, root string, w io.Writer) error {
			for i := 0; i < 6; i++ {
				ts := old
				if i < 2 {
					ts = recent
				}
				fmt.Fprintf(w, "###%d###dev@example.com###p\na.go\nb.go\n", ts)
			}
			return nil
		})

	m := New(WithSource(src), WithClock(func() time.Time { return fixedNow }))
	result, err := m.Mine(context.Background(), "/repo")
	require.NoError(t, err)

	assert.Equal(t, 6, result.ChurnOf("a.go"))
	assert.Equal(t, 2, result.RecentChurnOf("a.go"))
	assert.Equal(t, []string{"b.go"}, result.Peers("a.go"))
	assert.Equal(t, 1, result.PeerCount("b.go"))
	assert.Equal(t, 1, result.DaysSinceLastCommit("a.go", fixedNow))
	assert.Equal(t, -1, result.DaysSinceLastCommit("missing.go", fixedNow))
	assert.Equal(t, 0, result.ChurnOf("missing.go"))
}

func TestMiner_Mine_SourceFailureIsFatal(t *testing.T) {
	src := mocks.NewMockLogSource(t)
	src.EXPECT().
		Stream(mock.Anything, mock.Anything, mock.Anything).
		Return(vcs.ErrNotRepository)

	_, err := New(WithSource(src)).Mine(context.Background(), "/nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHistoryUnavailable))
	assert.True(t, errors.Is(err, vcs.ErrNotRepository))
}

func TestMiner_Mine_PartialOutputThenFailure(t *testing.T) {
	src := mocks.NewMockLogSource(t)
	src.EXPECT().
		Stream(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, root string, w io.Writer) error {
			fmt.Fprintln(w, "###1###a@b###p")
			fmt.Fprintln(w, "a.go")
			return vcs.ErrTimeout
		})

	_, err := New(WithSource(src)).Mine(context.Background(), "/repo")
	assert.ErrorIs(t, err, vcs.ErrTimeout)
}

func TestMiner_Mine_GoGitRepository(t *testing.T) {
	repo := testutil.InitGitRepo(t)
	for i := 0; i < 6; i++ {
		repo.Touch(fmt.Sprintf("change %d", i), "svc/order.go", "svc/invoice.go")
	}
	repo.Touch("docs", "README.md")
	repo.Touch("solo", "svc/order.go")

	m := New(WithSource(vcs.NewGoGitLog(nil)))
	result, err := m.Mine(context.Background(), repo.Path)
	require.NoError(t, err)

	assert.Equal(t, 7, result.ChurnOf("svc/order.go"))
	assert.Equal(t, 6, result.ChurnOf("svc/invoice.go"))
	assert.Equal(t, 0, result.ChurnOf("README.md"))
	assert.Equal(t, 7, result.RecentChurnOf("svc/order.go"))
	assert.Equal(t, []string{"svc/invoice.go"}, result.Peers("svc/order.go"))
	assert.Equal(t, []string{"svc/order.go"}, result.Peers("svc/invoice.go"))
	assert.Equal(t, 1, result.Stats.Empty)
}

func TestMiner_Mine_Idempotent(t *testing.T) {
	repo := testutil.InitGitRepo(t)
	for i := 0; i < 8; i++ {
		repo.Touch(fmt.Sprintf("change %d", i), "a.go", "b.go", fmt.Sprintf("c%d.go", i%3))
	}

	m := New(WithSource(vcs.NewGoGitLog(nil)), WithClock(func() time.Time { return fixedNow }))
	first, err := m.Mine(context.Background(), repo.Path)
	require.NoError(t, err)
	second, err := m.Mine(context.Background(), repo.Path)
	require.NoError(t, err)

	assert.Equal(t, first.Churn, second.Churn)
	assert.Equal(t, first.RecentChurn, second.RecentChurn)
	assert.Equal(t, first.Coupling, second.Coupling)
}
