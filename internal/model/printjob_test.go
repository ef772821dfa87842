package model

import (
	"testing"
	"time"
)

func TestPrintJobApplyStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := &PrintJob{OrderID: "o1", Status: PrintQueued}

	job.ApplyStatus(PrintPrinting, "sending", now)
	if job.Attempts != 1 || job.LastAttempt == nil || !job.LastAttempt.Equal(now) {
		t.Fatalf("printing must increment attempts and stamp last_attempt, got attempts=%d", job.Attempts)
	}
	if job.LastSuccess != nil {
		t.Fatal("last_success must stay unset before any success")
	}

	job.ApplyStatus(PrintFailed, "printer unreachable", now.Add(time.Second))
	if job.Attempts != 2 {
		t.Fatalf("failed must increment attempts, got %d", job.Attempts)
	}

	later := now.Add(time.Minute)
	job.ApplyStatus(PrintSuccess, "ticket printed", later)
	if job.Attempts != 2 {
		t.Fatalf("success must not increment attempts, got %d", job.Attempts)
	}
	if job.LastSuccess == nil || !job.LastSuccess.Equal(later) {
		t.Fatal("success must stamp last_success")
	}
	if job.Message != "ticket printed" {
		t.Fatalf("success must overwrite message, got %q", job.Message)
	}
}

// Two failures then a success leave attempts at 2 and last_success set
// only by the third call.
func TestPrintJobFailTwiceThenSucceed(t *testing.T) {
	now := time.Now()
	job := &PrintJob{OrderID: "o2", Status: PrintQueued}

	job.ApplyStatus(PrintFailed, "timeout", now)
	job.ApplyStatus(PrintFailed, "timeout", now.Add(time.Second))
	if job.LastSuccess != nil {
		t.Fatal("last_success must be nil until a success")
	}

	job.ApplyStatus(PrintSuccess, "ticket printed", now.Add(2*time.Second))

	if job.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", job.Attempts)
	}
	if job.LastSuccess == nil {
		t.Fatal("last_success must be set after success")
	}
	if job.Message != "ticket printed" {
		t.Fatalf("message = %q, want success text", job.Message)
	}
}
