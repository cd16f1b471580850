package models

import "time"

// Session types.
const (
	SessionTypeFree = "free"
	SessionTypePaid = "paid"
)

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
	BookingStatusFailed    = "failed"
)

// Booking is a persisted coaching-session reservation. A booking only
// reaches "confirmed" once both the calendar event exists and this record
// is stored; CalendarEventID back-references the external event, whose
// lifecycle we own only for create and delete.
type Booking struct {
	ID              string    `bson:"id" json:"id"`
	ClientID        string    `bson:"client_id" json:"client_id"`
	RequesterID     string    `bson:"requester_id" json:"requester_id"`
	RequesterName   string    `bson:"requester_name" json:"requester_name"`
	SessionType     string    `bson:"session_type" json:"session_type"`
	Slot            Slot      `bson:"slot" json:"slot"`
	CalendarEventID string    `bson:"calendar_event_id,omitempty" json:"calendar_event_id,omitempty"`
	Status          string    `bson:"status" json:"status"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// BookingStats aggregates booking counts for the coach dashboard.
type BookingStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByType      map[string]int64 `json:"by_type"`
	ClientsSeen int64            `json:"clients_seen"`
}
