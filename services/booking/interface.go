package booking

import (
	"context"
	"time"

	bookingRepo "coachly/database/repository/booking"
	clientRepo "coachly/database/repository/client"
	"coachly/models"
	"coachly/services/availability"
	"coachly/services/calendar"
	"coachly/services/notification"
)

// FlowService drives one requester's booking attempt through its states.
// Each call corresponds to one requester interaction; the session suspends
// in the store between calls.
type FlowService interface {
	InitiateSession(ctx context.Context, requesterID, requesterName string) (*models.SessionResponse, error)
	SelectType(ctx context.Context, sessionID, sessionType string) (*models.SessionResponse, error)
	SelectDate(ctx context.Context, sessionID, date string) (*models.SessionResponse, error)
	SelectSlot(ctx context.Context, sessionID string, slotStart time.Time) (*models.SessionResponse, error)
	Confirm(ctx context.Context, sessionID string) (*models.SessionResponse, error)
	CancelSession(ctx context.Context, sessionID string) error
}

// DefaultFlowService implements FlowService.
type DefaultFlowService struct {
	Gateway     calendar.Gateway
	Engine      *availability.Engine
	Sessions    SessionStore
	BookingRepo bookingRepo.BookingRepository
	ClientRepo  clientRepo.ClientRepository
	Notifier    notification.NotificationService

	Location     *time.Location
	Durations    map[string]int // session type -> minutes
	SessionTTL   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// sleep is swapped out in tests to keep retry paths fast.
	sleep func(time.Duration)
}

// NewDefaultFlowService wires a flow service with production defaults.
func NewDefaultFlowService(
	gateway calendar.Gateway,
	engine *availability.Engine,
	sessions SessionStore,
	bookings bookingRepo.BookingRepository,
	clients clientRepo.ClientRepository,
	notifier notification.NotificationService,
	location *time.Location,
	durations map[string]int,
	sessionTTL time.Duration,
	maxRetries int,
	retryBackoff time.Duration,
) *DefaultFlowService {
	return &DefaultFlowService{
		Gateway:      gateway,
		Engine:       engine,
		Sessions:     sessions,
		BookingRepo:  bookings,
		ClientRepo:   clients,
		Notifier:     notifier,
		Location:     location,
		Durations:    durations,
		SessionTTL:   sessionTTL,
		MaxRetries:   maxRetries,
		RetryBackoff: retryBackoff,
		sleep:        time.Sleep,
	}
}
