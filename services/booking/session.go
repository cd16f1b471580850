package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coachly/models"
	"coachly/services/calendar"
	"coachly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiateSession creates a new booking session in the started state and
// stores it with the idle TTL.
func (s *DefaultFlowService) InitiateSession(ctx context.Context, requesterID, requesterName string) (*models.SessionResponse, error) {
	if requesterID == "" {
		return nil, NewFlowError(ReasonInvalidSelection, "requester id is required")
	}

	session := &models.BookingSession{
		SessionID:     uuid.New().String(),
		RequesterID:   requesterID,
		RequesterName: requesterName,
		State:         models.StateStarted,
		CreatedAt:     time.Now(),
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store booking session: %w", err)
	}
	return s.respond(session, nil), nil
}

// SelectType records the requester's session type and resolves its duration
// from configuration.
func (s *DefaultFlowService) SelectType(ctx context.Context, sessionID, sessionType string) (*models.SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	duration, ok := s.Durations[sessionType]
	if !ok {
		// Bad input re-prompts; the session stays where it is.
		return nil, NewFlowError(ReasonInvalidSelection, fmt.Sprintf("unknown session type %q", sessionType))
	}
	if err := transition(session, models.StateTypeSelected); err != nil {
		return nil, err
	}

	session.SessionType = sessionType
	session.DurationMinutes = duration
	if err := s.saveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store booking session: %w", err)
	}
	return s.respond(session, nil), nil
}

// SelectDate records the chosen day and offers its free slots, computed from
// a fresh busy-interval snapshot. The snapshot is never reused beyond this
// step: the reserving step takes its own.
func (s *DefaultFlowService) SelectDate(ctx context.Context, sessionID, date string) (*models.SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, s.Location)
	if err != nil {
		return nil, NewFlowError(ReasonInvalidSelection, fmt.Sprintf("invalid date %q", date))
	}
	if err := transition(session, models.StateDateSelected); err != nil {
		return nil, err
	}

	busy, err := s.fetchBusy(ctx, day)
	if err != nil {
		return nil, s.failSession(ctx, session, err)
	}

	session.Date = date
	session.OfferedSlots = s.Engine.ComputeAvailableSlots(day, session.DurationMinutes, busy)
	session.ChosenSlot = nil
	session.FailReason = ""
	if err := s.saveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store booking session: %w", err)
	}
	return s.respond(session, nil), nil
}

// SelectSlot records the requester's pick from the offered slots. The slot
// is not reserved yet: it stays contestable by concurrent sessions until
// Confirm commits the calendar write.
func (s *DefaultFlowService) SelectSlot(ctx context.Context, sessionID string, slotStart time.Time) (*models.SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var chosen *models.Slot
	for i := range session.OfferedSlots {
		if session.OfferedSlots[i].Start.Equal(slotStart) {
			chosen = &session.OfferedSlots[i]
			break
		}
	}
	if chosen == nil {
		return nil, NewFlowError(ReasonInvalidSelection, fmt.Sprintf("slot starting %s was not offered", slotStart.Format(time.RFC3339)))
	}
	if err := transition(session, models.StateSlotSelected); err != nil {
		return nil, err
	}

	session.ChosenSlot = chosen
	if err := s.saveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store booking session: %w", err)
	}
	return s.respond(session, nil), nil
}

// Confirm runs the reserving step: re-validate the chosen slot against a
// fresh busy snapshot, write the calendar event, then persist the booking.
// The re-validation sits as close to the write as the external API allows;
// the residual race window is bounded by gateway latency; the calendar, not
// this service, is the source of truth.
func (s *DefaultFlowService) Confirm(ctx context.Context, sessionID string) (*models.SessionResponse, error) {
	logger := utils.GetLogger()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transition(session, models.StateReserving); err != nil {
		return nil, err
	}
	if session.ChosenSlot == nil {
		return nil, NewFlowError(ReasonInvalidSelection, "no slot chosen")
	}
	slot := *session.ChosenSlot

	day, err := time.ParseInLocation("2006-01-02", session.Date, s.Location)
	if err != nil {
		return nil, NewFlowError(ReasonInvalidSelection, fmt.Sprintf("invalid session date %q", session.Date))
	}

	// A session idling near its TTL can outlive its own slot.
	if !slot.Start.After(s.Engine.Now()) {
		return nil, s.failSession(ctx, session, NewFlowError(ReasonSlotTaken, "slot start has already passed"))
	}

	// Last check before the write.
	busy, err := s.fetchBusy(ctx, day)
	if err != nil {
		return nil, s.failSession(ctx, session, err)
	}
	if !s.Engine.SlotFree(slot, busy) {
		logger.Info("slot lost to a concurrent booking",
			zap.String("sessionID", session.SessionID),
			zap.Time("slotStart", slot.Start),
		)
		return nil, s.failSession(ctx, session, NewFlowError(ReasonSlotTaken, "slot no longer available"))
	}

	eventID, err := s.createEvent(ctx, session, slot)
	if err != nil {
		return nil, s.failSession(ctx, session, err)
	}

	client, err := s.ClientRepo.GetOrCreateByRequester(session.RequesterID, session.RequesterName)
	if err != nil {
		return nil, s.compensate(ctx, session, eventID, err)
	}

	record := &models.Booking{
		ID:              uuid.New().String(),
		ClientID:        client.ID,
		RequesterID:     session.RequesterID,
		RequesterName:   session.RequesterName,
		SessionType:     session.SessionType,
		Slot:            slot,
		CalendarEventID: eventID,
		Status:          models.BookingStatusConfirmed,
		CreatedAt:       time.Now(),
	}
	if err := s.BookingRepo.Create(record); err != nil {
		return nil, s.compensate(ctx, session, eventID, err)
	}

	if err := s.ClientRepo.IncrementSessions(client.ID); err != nil {
		logger.Warn("failed to bump client session count",
			zap.String("clientID", client.ID), zap.Error(err))
	}

	session.State = models.StateConfirmed
	// The lifecycle is over; drop the session rather than letting it idle out.
	if err := s.Sessions.Del(ctx, session.SessionID); err != nil {
		logger.Warn("failed to delete finished session",
			zap.String("sessionID", session.SessionID), zap.Error(err))
	}

	if err := s.Notifier.NotifyBookingConfirmed(ctx, *record); err != nil {
		logger.Warn("confirmation notification failed",
			zap.String("bookingID", record.ID), zap.Error(err))
	}

	return s.respond(session, record), nil
}

// CancelSession aborts a lifecycle. Before the reserving step commits
// nothing external exists, so cancellation needs no compensating action.
func (s *DefaultFlowService) CancelSession(ctx context.Context, sessionID string) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.State.CanTransition(models.StateCancelled) {
		return NewFlowError(ReasonInvalidTransition,
			fmt.Sprintf("cannot cancel a session in state %s", session.State))
	}
	if err := s.Sessions.Del(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to cancel booking session: %w", err)
	}
	return nil
}

// fetchBusy queries the calendar for the business window of day, retrying
// transient failures with bounded backoff.
func (s *DefaultFlowService) fetchBusy(ctx context.Context, day time.Time) ([]models.BusyInterval, error) {
	windowStart := time.Date(day.Year(), day.Month(), day.Day(), s.Engine.Hours.StartHour, 0, 0, 0, s.Location)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), s.Engine.Hours.EndHour, 0, 0, 0, s.Location)

	var busy []models.BusyInterval
	err := s.withRetry(func() error {
		var err error
		busy, err = s.Gateway.FreeBusy(ctx, windowStart, windowEnd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return busy, nil
}

// createEvent writes the calendar event for a reservation, retrying
// transient failures.
func (s *DefaultFlowService) createEvent(ctx context.Context, session *models.BookingSession, slot models.Slot) (string, error) {
	input := calendar.EventInput{
		Start:   slot.Start,
		End:     slot.End,
		Summary: fmt.Sprintf("[%s] Coaching - %s", strings.ToUpper(session.SessionType), session.RequesterName),
		Description: fmt.Sprintf("Requester: %s\nType: %s\nBooked at: %s",
			session.RequesterID, session.SessionType, time.Now().In(s.Location).Format("02/01/2006 15:04")),
	}

	var eventID string
	err := s.withRetry(func() error {
		var err error
		eventID, err = s.Gateway.CreateEvent(ctx, input)
		return err
	})
	if err != nil {
		return "", err
	}
	return eventID, nil
}

// compensate handles a failure after the calendar write succeeded: delete
// the just-created event so no orphan outlives a missing booking record.
// When the delete itself fails the session surfaces orphaned_event instead
// of an ordinary failure, so operators know to reconcile by hand.
func (s *DefaultFlowService) compensate(ctx context.Context, session *models.BookingSession, eventID string, cause error) error {
	logger := utils.GetLogger()
	logger.Error("persistence failed after calendar write, deleting event",
		zap.String("sessionID", session.SessionID),
		zap.String("eventID", eventID),
		zap.Error(cause),
	)

	if err := s.Gateway.DeleteEvent(ctx, eventID); err != nil {
		logger.Error("compensating delete failed, calendar event is orphaned",
			zap.String("eventID", eventID),
			zap.Error(err),
		)
		return s.failSession(ctx, session, NewFlowError(ReasonOrphanedEvent,
			fmt.Sprintf("booking not persisted and event %s could not be removed", eventID)))
	}
	return s.failSession(ctx, session, NewFlowError(ReasonPersistenceFailed, "booking record could not be persisted"))
}

// failSession marks the session failed with the error's reason code, saves
// it (a failed session may re-enter date selection), notifies the
// requester, and returns the original error.
func (s *DefaultFlowService) failSession(ctx context.Context, session *models.BookingSession, cause error) error {
	reason := ReasonOf(cause)
	if reason == "" {
		reason = classifyGatewayError(cause)
		cause = NewFlowError(reason, cause.Error())
	}

	session.State = models.StateFailed
	session.FailReason = reason
	if err := s.saveSession(ctx, session); err != nil {
		utils.GetLogger().Warn("failed to store failed session",
			zap.String("sessionID", session.SessionID), zap.Error(err))
	}

	if err := s.Notifier.NotifyBookingFailed(ctx, session.RequesterID, reason); err != nil {
		utils.GetLogger().Warn("failure notification failed",
			zap.String("sessionID", session.SessionID), zap.Error(err))
	}
	return cause
}

// classifyGatewayError maps calendar errors to reason codes: exhausted
// transient retries surface as calendar_unavailable, anything else from the
// gateway is permanent.
func classifyGatewayError(err error) string {
	if calendar.IsTransient(err) {
		return ReasonCalendarUnavailable
	}
	return ReasonGatewayPermanent
}

// withRetry runs fn up to MaxRetries times, backing off linearly between
// transient failures. Permanent errors return immediately.
func (s *DefaultFlowService) withRetry(fn func() error) error {
	attempts := s.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !calendar.IsTransient(err) {
			return err
		}
		if attempt < attempts {
			s.sleep(s.RetryBackoff * time.Duration(attempt))
		}
	}
	return err
}

func (s *DefaultFlowService) loadSession(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	data, err := s.Sessions.Get(ctx, sessionID)
	if err == ErrSessionNotFound {
		return nil, NewFlowError(ReasonSessionNotFound, "booking session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking session: %w", err)
	}

	var session models.BookingSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse booking session: %w", err)
	}
	return &session, nil
}

// saveSession stores the session and refreshes the idle TTL; every
// requester interaction restarts the clock.
func (s *DefaultFlowService) saveSession(ctx context.Context, session *models.BookingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	return s.Sessions.Set(ctx, session.SessionID, data, s.SessionTTL)
}

func (s *DefaultFlowService) respond(session *models.BookingSession, record *models.Booking) *models.SessionResponse {
	resp := &models.SessionResponse{
		SessionID:  session.SessionID,
		State:      session.State,
		FailReason: session.FailReason,
		Booking:    record,
	}
	if session.State == models.StateDateSelected {
		resp.Slots = session.OfferedSlots
	}
	return resp
}

// transition enforces the lifecycle table; anything not enumerated there is
// rejected so invalid states are unrepresentable.
func transition(session *models.BookingSession, next models.SessionState) error {
	if !session.State.CanTransition(next) {
		return NewFlowError(ReasonInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", session.State, next))
	}
	session.State = next
	return nil
}
