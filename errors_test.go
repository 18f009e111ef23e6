package motif_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/TuftsBCB/motif"
)

func TestClassify(t *testing.T) {
	invalid := motif.Invalidf("No residues.")
	io := errors.New("disk on fire")

	if motif.Classify(nil, 0) != nil {
		t.Fatalf("Expected nil to stay nil.")
	}

	// Invalid queries are found through any number of wraps.
	wrapped := fmt.Errorf("worker: %w", fmt.Errorf("filter: %w", invalid))
	if got := motif.Classify(wrapped, 0); got != invalid {
		t.Fatalf("Expected %v but got %v.", invalid, got)
	}

	got := motif.Classify(fmt.Errorf("read: %w", context.DeadlineExceeded),
		time.Second)
	var timeout *motif.TimeoutError
	if !errors.As(got, &timeout) || timeout.After != time.Second {
		t.Fatalf("Expected a timeout error after 1s but got %v.", got)
	}
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("Expected a timeout error to be a deadline error.")
	}

	got = motif.Classify(fmt.Errorf("read: %w", context.Canceled), 0)
	if got != context.Canceled {
		t.Fatalf("Expected %v but got %v.", context.Canceled, got)
	}

	got = motif.Classify(io, 0)
	var internal *motif.InternalError
	if !errors.As(got, &internal) || internal.Cause != io {
		t.Fatalf("Expected an internal error caused by %v but got %v.", io, got)
	}
	if !errors.Is(got, io) {
		t.Fatalf("Expected the cause of an internal error to be kept.")
	}
	if again := motif.Classify(got, 0); again != got {
		t.Fatalf("Expected an internal error to not be wrapped again.")
	}
}
