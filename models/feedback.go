package models

import "time"

// Feedback is a client rating left after a completed session.
type Feedback struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"booking_id" json:"booking_id"`
	Rating    int       `bson:"rating" json:"rating"` // 1-5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
