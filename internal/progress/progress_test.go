package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNilTracker(t *testing.T) {
	var tr *Tracker
	tr.Tick()
	tr.FinishSuccess()
	tr.FinishSkipped(3)

	if NewTracker(nil, "files", 3) != nil || NewSpinner(nil, "history") != nil {
		t.Error("a nil writer should yield a nil tracker")
	}
}

func TestTracker_ConcurrentTicks(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, "files", 100)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Tick()
		}()
	}
	wg.Wait()
	tr.FinishSuccess()

	if got := tr.bar.State().CurrentNum; got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
}

func TestTracker_FinishMessages(t *testing.T) {
	var buf bytes.Buffer
	NewTracker(&buf, "files", 1).FinishSkipped(2)
	if !strings.Contains(buf.String(), "files: 2 skipped") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	NewTracker(&buf, "files", 1).FinishSkipped(0)
	if strings.Contains(buf.String(), "skipped") {
		t.Errorf("output = %q", buf.String())
	}
}
