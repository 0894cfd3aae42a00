package jobs

import (
	"errors"
	"testing"
)

func TestRegistryRejectsConcurrentJobs(t *testing.T) {
	reg := NewRegistry()

	job, err := reg.Begin(SlotEstimation)
	if err != nil {
		t.Fatalf("first Begin failed: %v", err)
	}

	if _, err := reg.Begin(SlotEstimation); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	// A different slot is independent
	if _, err := reg.Begin(SlotCuration); err != nil {
		t.Fatalf("curation slot should be free: %v", err)
	}

	// Once finished, the slot opens up again
	job.Complete()
	if _, err := reg.Begin(SlotEstimation); err != nil {
		t.Fatalf("Begin after Complete failed: %v", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	reg := NewRegistry()
	job, _ := reg.Begin(SlotEstimation)

	job.SetTotal(40)
	job.Advance(20, 18, 2)

	snap, ok := reg.Current(SlotEstimation)
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.Status != StatusRunning {
		t.Fatalf("expected running, got %s", snap.Status)
	}
	if snap.Progress.Processed != 20 || snap.Progress.Enriched != 18 || snap.Progress.Errors != 2 {
		t.Fatalf("unexpected progress: %+v", snap.Progress)
	}

	job.Complete()
	snap, _ = reg.Current(SlotEstimation)
	if snap.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", snap.Status)
	}
	if snap.EndedAt == nil {
		t.Fatal("expected EndedAt to be set")
	}
}

func TestCancelledJobLandsInCancelled(t *testing.T) {
	reg := NewRegistry()
	job, _ := reg.Begin(SlotEstimation)

	if !reg.Cancel(SlotEstimation) {
		t.Fatal("Cancel should succeed on a running job")
	}
	if !job.Cancelled() {
		t.Fatal("job should observe the cancellation flag")
	}

	// The worker finishes its batch, then completes -> cancelled, not complete
	job.Complete()
	snap, _ := reg.Current(SlotEstimation)
	if snap.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", snap.Status)
	}

	// Cancelling a finished job is a no-op
	if reg.Cancel(SlotEstimation) {
		t.Fatal("Cancel on a finished job should return false")
	}
}

func TestFailSurfacesErrorAsState(t *testing.T) {
	reg := NewRegistry()
	job, _ := reg.Begin(SlotCuration)

	job.Fail(errors.New("planner unreachable"))

	snap, _ := reg.Current(SlotCuration)
	if snap.Status != StatusError {
		t.Fatalf("expected error status, got %s", snap.Status)
	}
	if snap.Error != "planner unreachable" {
		t.Fatalf("expected error message, got %q", snap.Error)
	}
}
