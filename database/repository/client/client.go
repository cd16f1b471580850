package clientRepo

import "coachly/models"

// ClientRepository defines methods for client data access.
type ClientRepository interface {
	// GetOrCreateByRequester fetches the client for a requester, creating a
	// fresh record on first booking.
	GetOrCreateByRequester(requesterID, requesterName string) (*models.Client, error)
	// GetByID retrieves a client by its unique ID, nil when absent.
	GetByID(id string) (*models.Client, error)
	// IncrementSessions bumps the completed-session counter.
	IncrementSessions(id string) error
	// AddNote attaches a coach note to a client.
	AddNote(note *models.Note) error
	// GetNotes lists a client's notes, newest first.
	GetNotes(clientID string) ([]models.Note, error)
}
