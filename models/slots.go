package models

import "time"

// BusyInterval is a time range already occupied on the external calendar.
// Intervals are fetched fresh for every availability query and are never
// cached beyond a single selection step; the calendar stays the only
// source of truth for conflicts.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the interval intersects [start, end) using
// half-open comparison.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// Slot is a fixed-duration bookable interval derived from business hours
// and current busy time. Slots are regenerated on each query and only
// persisted once a booking claims one.
type Slot struct {
	Start           time.Time `bson:"start" json:"start"`
	End             time.Time `bson:"end" json:"end"`
	DurationMinutes int       `bson:"duration_minutes" json:"durationMinutes"`
}

// Equal reports whether two slots denote the same interval.
func (s Slot) Equal(other Slot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// BusinessHours is the daily bookable window, e.g. {9, 20} for 9:00-20:00.
type BusinessHours struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}
