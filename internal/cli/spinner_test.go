package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestSpinnerSetMessage(t *testing.T) {
	s := newSpinner("fetch-images")
	s.Start()
	s.SetMessage("fetch-images 3/10")
	time.Sleep(250 * time.Millisecond)
	s.SetMessage("canvas")
	s.Stop()

	if s.message != "canvas" {
		t.Errorf("message = %q, want %q", s.message, "canvas")
	}
	if s.width < len("fetch-images 3/10") {
		t.Errorf("width = %d, should cover the widest message drawn", s.width)
	}
}

func TestSpinnerPhase(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Building")
	s.out = &buf
	s.Start()
	s.Phase("canvas", 12, 40)
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "canvas 12/40") {
		t.Errorf("output %q should show the phase progress", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Error("the line should be cleared on stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()

	// Cancel the context
	cancel()

	// Give goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.Start()

	// Wait for timeout
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled due to timeout
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithSuccess(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")
}

func TestSpinnerStopWithError(t *testing.T) {
	s := newSpinner("Testing error...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Failed!")
}
