package calendar

import (
	"context"
	"time"

	"coachly/models"
)

// Gateway is the boundary to the shared external calendar. Reads are
// non-authoritative snapshots: the caller must re-query right before any
// write that depends on them. All calls carry the request context and an
// internal timeout; expiry is reported as a transient failure.
type Gateway interface {
	// FreeBusy returns the busy intervals between from and to, ordered by start.
	FreeBusy(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error)
	// CreateEvent writes a new event and returns its external ID.
	CreateEvent(ctx context.Context, input EventInput) (string, error)
	// DeleteEvent removes an event. Deleting an already-gone event is not an error.
	DeleteEvent(ctx context.Context, eventID string) error
}

// EventInput describes the event to create for a confirmed booking.
type EventInput struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}
