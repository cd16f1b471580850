package models

import "time"

// SessionState is the lifecycle state of an in-flight booking request.
type SessionState string

const (
	StateStarted      SessionState = "started"
	StateTypeSelected SessionState = "type_selected"
	StateDateSelected SessionState = "date_selected"
	StateSlotSelected SessionState = "slot_selected"
	StateReserving    SessionState = "reserving"
	StateConfirmed    SessionState = "confirmed"
	StateCancelled    SessionState = "cancelled"
	StateFailed       SessionState = "failed"
)

// allowedTransitions enumerates every legal state change. Anything not
// listed here is rejected, so a session can never reach "confirmed"
// without passing through "reserving".
var allowedTransitions = map[SessionState][]SessionState{
	StateStarted:      {StateTypeSelected, StateCancelled, StateFailed},
	StateTypeSelected: {StateDateSelected, StateCancelled, StateFailed},
	StateDateSelected: {StateSlotSelected, StateDateSelected, StateCancelled, StateFailed},
	StateSlotSelected: {StateReserving, StateDateSelected, StateCancelled, StateFailed},
	StateReserving:    {StateConfirmed, StateDateSelected, StateCancelled, StateFailed},
	StateConfirmed:    {},
	StateCancelled:    {},
	StateFailed:       {StateDateSelected},
}

// CanTransition reports whether moving from the current state to next is legal.
func (s SessionState) CanTransition(next SessionState) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends the lifecycle. A failed session
// may still re-enter date selection to pick another slot.
func (s SessionState) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

// BookingSession holds one requester's booking attempt between steps.
// It lives in Redis with a TTL so an abandoned session self-cancels by
// expiry; the chosen slot stays contestable until the reserving step
// commits a calendar write.
type BookingSession struct {
	SessionID       string       `json:"sessionId"`
	RequesterID     string       `json:"requesterId"`
	RequesterName   string       `json:"requesterName"`
	State           SessionState `json:"state"`
	SessionType     string       `json:"sessionType,omitempty"`
	DurationMinutes int          `json:"durationMinutes,omitempty"`
	Date            string       `json:"date,omitempty"` // "2006-01-02" in the configured timezone
	OfferedSlots    []Slot       `json:"offeredSlots,omitempty"`
	ChosenSlot      *Slot        `json:"chosenSlot,omitempty"`
	FailReason      string       `json:"failReason,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// SessionResponse is what the chat-facing layer renders after each step.
type SessionResponse struct {
	SessionID  string       `json:"sessionId"`
	State      SessionState `json:"state"`
	Slots      []Slot       `json:"slots,omitempty"`
	Booking    *Booking     `json:"booking,omitempty"`
	FailReason string       `json:"failReason,omitempty"`
}
