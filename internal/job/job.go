package job

import (
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"dashpress/internal/event"
	"dashpress/internal/journal"
	"dashpress/internal/services"
)

// Job is one transcoding request, created at trigger receipt and destroyed
// (scratch released) at terminal status. Exactly one Job exists per
// invocation and it is never reused.
type Job struct {
	ID                string
	SourceBucket      string
	SourceKey         string
	DestinationPrefix string
	Status            Status
	FailedFrom        Status
	ErrorKind         string
	ErrorMessage      string
	Renditions        int
	PublishedKeys     []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// New creates a pending job for the trigger record. The destination prefix
// is derived from the source object's base filename under outputPrefix.
func New(rec event.Record, outputPrefix string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:                uuid.NewString(),
		SourceBucket:      rec.Bucket,
		SourceKey:         rec.Key,
		DestinationPrefix: path.Join(outputPrefix, rec.BaseName()),
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Advance moves the job one step along the sequential status path.
func (j *Job) Advance(to Status) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("illegal job transition %s -> %s", j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail records the originating state and the classified error kind, then
// enters the terminal Failed status.
func (j *Job) Fail(err error) {
	j.FailedFrom = j.Status
	j.Status = StatusFailed
	j.ErrorKind = services.Kind(err)
	if err != nil {
		j.ErrorMessage = err.Error()
	}
	j.UpdatedAt = time.Now().UTC()
}

// JournalRecord converts the job into its persisted observability form.
func (j *Job) JournalRecord() *journal.Record {
	return &journal.Record{
		ID:                j.ID,
		SourceBucket:      j.SourceBucket,
		SourceKey:         j.SourceKey,
		DestinationPrefix: j.DestinationPrefix,
		Status:            string(j.Status),
		FailedFrom:        string(j.FailedFrom),
		ErrorKind:         j.ErrorKind,
		ErrorMessage:      j.ErrorMessage,
		Renditions:        j.Renditions,
		PublishedObjects:  len(j.PublishedKeys),
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}
