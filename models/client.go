package models

import "time"

// Client is a requester who has booked at least one coaching session.
type Client struct {
	ID            string    `bson:"id" json:"id"`
	RequesterID   string    `bson:"requester_id" json:"requester_id"`
	RequesterName string    `bson:"requester_name" json:"requester_name"`
	TotalSessions int       `bson:"total_sessions" json:"total_sessions"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Note is a coach-authored remark attached to a client.
type Note struct {
	ID        string    `bson:"id" json:"id"`
	ClientID  string    `bson:"client_id" json:"client_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
