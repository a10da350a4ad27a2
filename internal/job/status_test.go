package job

import (
	"testing"

	"dashpress/internal/services"
)

func TestSequentialTransitions(t *testing.T) {
	path := []Status{
		StatusPending,
		StatusFetching,
		StatusPlanning,
		StatusTranscoding,
		StatusPackaging,
		StatusPublishing,
		StatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestNoSkippingOrReentry(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusPending, StatusPlanning},
		{StatusPending, StatusCompleted},
		{StatusFetching, StatusPending},
		{StatusTranscoding, StatusFetching},
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusPublishing},
	}
	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestFailedReachableFromEveryNonTerminalStatus(t *testing.T) {
	for _, status := range AllStatuses() {
		want := !status.IsTerminal()
		if got := CanTransition(status, StatusFailed); got != want {
			t.Fatalf("CanTransition(%s, failed) = %v, want %v", status, got, want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range AllStatuses() {
		want := status == StatusCompleted || status == StatusFailed
		if got := status.IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Transcoding "); !ok || status != StatusTranscoding {
		t.Fatalf("ParseStatus failed: %v %v", status, ok)
	}
	if _, ok := ParseStatus("unknown"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestAdvanceRejectsIllegalTransition(t *testing.T) {
	j := &Job{Status: StatusPending}
	if err := j.Advance(StatusTranscoding); err == nil {
		t.Fatal("expected skip to be rejected")
	}
	if j.Status != StatusPending {
		t.Fatalf("failed advance must not mutate status, got %s", j.Status)
	}
	if err := j.Advance(StatusFetching); err != nil {
		t.Fatalf("legal advance returned error: %v", err)
	}
}

func TestFailRecordsOriginAndKind(t *testing.T) {
	j := &Job{Status: StatusTranscoding}
	j.Fail(services.Wrap(services.ErrEngine, "transcode", "rendition 1", "", nil))
	if j.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", j.Status)
	}
	if j.FailedFrom != StatusTranscoding {
		t.Fatalf("expected failed_from transcoding, got %s", j.FailedFrom)
	}
	if j.ErrorKind != "engine" {
		t.Fatalf("expected engine error kind, got %q", j.ErrorKind)
	}
	if j.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}
}
