package booking

import (
	"errors"
	"fmt"
)

// Failure reason codes. Every terminal failure carries one so the
// requester-facing layer can render it; none is ever swallowed.
const (
	ReasonInvalidSelection    = "invalid_selection"
	ReasonInvalidTransition   = "invalid_transition"
	ReasonSessionNotFound     = "session_not_found"
	ReasonSlotTaken           = "slot_taken"
	ReasonCalendarUnavailable = "calendar_unavailable"
	ReasonGatewayPermanent    = "gateway_permanent"
	ReasonPersistenceFailed   = "persistence_failed"
	ReasonOrphanedEvent       = "orphaned_event"
)

// FlowError is a booking-lifecycle failure with a machine-readable reason.
type FlowError struct {
	Reason  string
	Message string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func NewFlowError(reason, message string) error {
	return &FlowError{Reason: reason, Message: message}
}

// ReasonOf extracts the reason code from an error, empty when it is not a
// FlowError.
func ReasonOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// Recoverable reports whether the requester can retry from slot/date
// selection after this failure.
func Recoverable(err error) bool {
	switch ReasonOf(err) {
	case ReasonInvalidSelection, ReasonSlotTaken, ReasonCalendarUnavailable:
		return true
	}
	return false
}
