package job

import "strings"

// Status represents the lifecycle of a job. Transitions are strictly
// sequential; Failed is reachable from every non-terminal status.
type Status string

const (
	StatusPending     Status = "pending"
	StatusFetching    Status = "fetching"
	StatusPlanning    Status = "planning"
	StatusTranscoding Status = "transcoding"
	StatusPackaging   Status = "packaging"
	StatusPublishing  Status = "publishing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusPlanning,
	StatusTranscoding,
	StatusPackaging,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// sequence is the single legal forward path. No skipping, no re-entry.
var sequence = map[Status]Status{
	StatusPending:     StatusFetching,
	StatusFetching:    StatusPlanning,
	StatusPlanning:    StatusTranscoding,
	StatusTranscoding: StatusPackaging,
	StatusPackaging:   StatusPublishing,
	StatusPublishing:  StatusCompleted,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the job's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	if to == StatusFailed {
		return !from.IsTerminal()
	}
	return sequence[from] == to
}
