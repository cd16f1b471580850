package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"coachly/models"
	"coachly/services/availability"
	"coachly/services/calendar"
)

// testDay is a Tuesday.
var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

func (s *memStore) Set(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = data
	return nil
}

func (s *memStore) Del(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

type fakeGateway struct {
	freeBusy    func(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error)
	createEvent func(ctx context.Context, input calendar.EventInput) (string, error)
	deleteEvent func(ctx context.Context, eventID string) error
}

func (g *fakeGateway) FreeBusy(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
	if g.freeBusy == nil {
		return nil, nil
	}
	return g.freeBusy(ctx, start, end)
}

func (g *fakeGateway) CreateEvent(ctx context.Context, input calendar.EventInput) (string, error) {
	if g.createEvent == nil {
		return "evt_test", nil
	}
	return g.createEvent(ctx, input)
}

func (g *fakeGateway) DeleteEvent(ctx context.Context, eventID string) error {
	if g.deleteEvent == nil {
		return nil
	}
	return g.deleteEvent(ctx, eventID)
}

type fakeBookingRepo struct {
	create  func(booking *models.Booking) error
	created []models.Booking
}

func (r *fakeBookingRepo) Create(booking *models.Booking) error {
	if r.create != nil {
		if err := r.create(booking); err != nil {
			return err
		}
	}
	r.created = append(r.created, *booking)
	return nil
}

func (r *fakeBookingRepo) GetByID(id string) (*models.Booking, error)  { return nil, nil }
func (r *fakeBookingRepo) UpdateStatus(id string, status string) error { return nil }
func (r *fakeBookingRepo) FindBySlot(s models.Slot) (*models.Booking, error) {
	return nil, nil
}
func (r *fakeBookingRepo) ListUpcoming(after time.Time) ([]models.Booking, error) {
	return nil, nil
}
func (r *fakeBookingRepo) ListEndedBefore(cutoff time.Time) ([]models.Booking, error) {
	return nil, nil
}
func (r *fakeBookingRepo) Stats() (*models.BookingStats, error) { return nil, nil }

type fakeClientRepo struct {
	incremented []string
}

func (r *fakeClientRepo) GetOrCreateByRequester(requesterID, requesterName string) (*models.Client, error) {
	return &models.Client{ID: "client_" + requesterID, RequesterID: requesterID, RequesterName: requesterName}, nil
}

func (r *fakeClientRepo) GetByID(id string) (*models.Client, error) { return nil, nil }
func (r *fakeClientRepo) IncrementSessions(id string) error {
	r.incremented = append(r.incremented, id)
	return nil
}
func (r *fakeClientRepo) AddNote(note *models.Note) error                 { return nil }
func (r *fakeClientRepo) GetNotes(clientID string) ([]models.Note, error) { return nil, nil }

type fakeNotifier struct {
	confirmed []models.Booking
	failed    []string // reasons
	cancelled []models.Booking
}

func (n *fakeNotifier) NotifyBookingConfirmed(ctx context.Context, booking models.Booking) error {
	n.confirmed = append(n.confirmed, booking)
	return nil
}

func (n *fakeNotifier) NotifyBookingFailed(ctx context.Context, requesterID, reason string) error {
	n.failed = append(n.failed, reason)
	return nil
}

func (n *fakeNotifier) NotifyBookingCancelled(ctx context.Context, booking models.Booking) error {
	n.cancelled = append(n.cancelled, booking)
	return nil
}

type testFlow struct {
	svc      *DefaultFlowService
	gateway  *fakeGateway
	store    *memStore
	bookings *fakeBookingRepo
	clients  *fakeClientRepo
	notifier *fakeNotifier
	slept    *[]time.Duration
}

func newTestFlow() *testFlow {
	gateway := &fakeGateway{}
	store := newMemStore()
	bookings := &fakeBookingRepo{}
	clients := &fakeClientRepo{}
	notifier := &fakeNotifier{}

	engine := availability.NewEngine(
		models.BusinessHours{StartHour: 9, EndHour: 20},
		[]int{1, 2, 3, 4, 5, 6},
	)
	engine.Now = func() time.Time { return testDay.Add(8 * time.Hour) }

	svc := NewDefaultFlowService(
		gateway, engine, store, bookings, clients, notifier,
		time.UTC,
		map[string]int{models.SessionTypeFree: 30, models.SessionTypePaid: 60},
		30*time.Minute,
		3,
		time.Millisecond,
	)
	slept := &[]time.Duration{}
	svc.sleep = func(d time.Duration) { *slept = append(*slept, d) }

	return &testFlow{
		svc: svc, gateway: gateway, store: store,
		bookings: bookings, clients: clients, notifier: notifier,
		slept: slept,
	}
}

// advanceToSlotSelected walks a fresh session to slot_selected on the first
// offered slot and returns the session ID plus that slot.
func advanceToSlotSelected(t *testing.T, f *testFlow, requesterID string) (string, models.Slot) {
	t.Helper()
	ctx := context.Background()

	resp, err := f.svc.InitiateSession(ctx, requesterID, "Alex")
	if err != nil {
		t.Fatalf("InitiateSession: %v", err)
	}
	sessionID := resp.SessionID

	if _, err := f.svc.SelectType(ctx, sessionID, models.SessionTypePaid); err != nil {
		t.Fatalf("SelectType: %v", err)
	}
	resp, err = f.svc.SelectDate(ctx, sessionID, "2026-03-10")
	if err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	if len(resp.Slots) == 0 {
		t.Fatal("expected offered slots")
	}
	slot := resp.Slots[0]

	if _, err := f.svc.SelectSlot(ctx, sessionID, slot.Start); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	return sessionID, slot
}

func TestFullLifecycleConfirms(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		return "evt_42", nil
	}

	sessionID, slot := advanceToSlotSelected(t, f, "user-1")

	resp, err := f.svc.Confirm(ctx, sessionID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if resp.State != models.StateConfirmed {
		t.Errorf("state = %s, want confirmed", resp.State)
	}
	if resp.Booking == nil {
		t.Fatal("expected a booking on the response")
	}
	if resp.Booking.CalendarEventID != "evt_42" {
		t.Errorf("event ID = %q, want evt_42", resp.Booking.CalendarEventID)
	}
	if !resp.Booking.Slot.Start.Equal(slot.Start) {
		t.Errorf("booked slot start = %v, want %v", resp.Booking.Slot.Start, slot.Start)
	}

	if len(f.bookings.created) != 1 {
		t.Fatalf("persisted %d bookings, want 1", len(f.bookings.created))
	}
	if got := f.bookings.created[0].Status; got != models.BookingStatusConfirmed {
		t.Errorf("persisted status = %q, want confirmed", got)
	}
	if len(f.clients.incremented) != 1 {
		t.Errorf("incremented %d clients, want 1", len(f.clients.incremented))
	}
	if len(f.notifier.confirmed) != 1 {
		t.Errorf("sent %d confirmations, want 1", len(f.notifier.confirmed))
	}

	// The finished session must be gone from the store.
	if _, err := f.store.Get(ctx, sessionID); err != ErrSessionNotFound {
		t.Errorf("session still stored after confirm: %v", err)
	}
}

func TestSelectTypeUnknownKeepsState(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	resp, err := f.svc.InitiateSession(ctx, "user-1", "Alex")
	if err != nil {
		t.Fatalf("InitiateSession: %v", err)
	}

	_, err = f.svc.SelectType(ctx, resp.SessionID, "platinum")
	if ReasonOf(err) != ReasonInvalidSelection {
		t.Fatalf("reason = %q, want invalid_selection", ReasonOf(err))
	}

	// The bad input must not have advanced the session.
	again, err := f.svc.SelectType(ctx, resp.SessionID, models.SessionTypeFree)
	if err != nil {
		t.Fatalf("SelectType after re-prompt: %v", err)
	}
	if again.State != models.StateTypeSelected {
		t.Errorf("state = %s, want type_selected", again.State)
	}
}

func TestSelectSlotNotOffered(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	resp, _ := f.svc.InitiateSession(ctx, "user-1", "Alex")
	f.svc.SelectType(ctx, resp.SessionID, models.SessionTypeFree)
	f.svc.SelectDate(ctx, resp.SessionID, "2026-03-10")

	_, err := f.svc.SelectSlot(ctx, resp.SessionID, testDay.Add(3*time.Hour)) // 03:00, outside hours
	if ReasonOf(err) != ReasonInvalidSelection {
		t.Errorf("reason = %q, want invalid_selection", ReasonOf(err))
	}
}

func TestConfirmWithoutSlotIsInvalidTransition(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	resp, _ := f.svc.InitiateSession(ctx, "user-1", "Alex")
	_, err := f.svc.Confirm(ctx, resp.SessionID)
	if ReasonOf(err) != ReasonInvalidTransition {
		t.Errorf("reason = %q, want invalid_transition", ReasonOf(err))
	}
}

func TestExpiredSession(t *testing.T) {
	f := newTestFlow()
	_, err := f.svc.SelectDate(context.Background(), "gone", "2026-03-10")
	if ReasonOf(err) != ReasonSessionNotFound {
		t.Errorf("reason = %q, want session_not_found", ReasonOf(err))
	}
}

func TestConcurrentSessionsOneWins(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	// The fake calendar registers created events as busy time, so the second
	// confirm's re-validation sees the first one's write.
	var (
		mu   sync.Mutex
		busy []models.BusyInterval
	)
	f.gateway.freeBusy = func(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
		mu.Lock()
		defer mu.Unlock()
		out := make([]models.BusyInterval, len(busy))
		copy(out, busy)
		return out, nil
	}
	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		busy = append(busy, models.BusyInterval{Start: input.Start, End: input.End})
		return fmt.Sprintf("evt_%d", len(busy)), nil
	}

	sessionA, slotA := advanceToSlotSelected(t, f, "user-a")
	sessionB, slotB := advanceToSlotSelected(t, f, "user-b")
	if !slotA.Start.Equal(slotB.Start) {
		t.Fatalf("sessions contend for different slots: %v vs %v", slotA.Start, slotB.Start)
	}

	if _, err := f.svc.Confirm(ctx, sessionA); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err := f.svc.Confirm(ctx, sessionB)
	if ReasonOf(err) != ReasonSlotTaken {
		t.Fatalf("second confirm reason = %q, want slot_taken", ReasonOf(err))
	}
	if len(f.bookings.created) != 1 {
		t.Errorf("persisted %d bookings, want exactly 1", len(f.bookings.created))
	}
	if len(f.notifier.failed) != 1 || f.notifier.failed[0] != ReasonSlotTaken {
		t.Errorf("failure notifications = %v, want [slot_taken]", f.notifier.failed)
	}

	// The loser re-enters date selection and gets slots minus the taken one.
	resp, err := f.svc.SelectDate(ctx, sessionB, "2026-03-10")
	if err != nil {
		t.Fatalf("re-entering date selection: %v", err)
	}
	if resp.State != models.StateDateSelected {
		t.Errorf("state = %s, want date_selected", resp.State)
	}
	for _, s := range resp.Slots {
		if s.Start.Equal(slotA.Start) {
			t.Errorf("taken slot %v still offered", s.Start)
		}
	}
}

func TestTransientFreeBusyRetriesThenSucceeds(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	calls := 0
	f.gateway.freeBusy = func(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
		calls++
		if calls <= 2 {
			return nil, &calendar.GatewayError{Op: "freeBusy", StatusCode: 503, Transient: true, Err: errors.New("upstream busy")}
		}
		return nil, nil
	}

	resp, _ := f.svc.InitiateSession(ctx, "user-1", "Alex")
	f.svc.SelectType(ctx, resp.SessionID, models.SessionTypeFree)
	out, err := f.svc.SelectDate(ctx, resp.SessionID, "2026-03-10")
	if err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	if calls != 3 {
		t.Errorf("gateway called %d times, want 3", calls)
	}
	if len(out.Slots) == 0 {
		t.Error("expected slots after retries succeeded")
	}

	// Backoff grows with the attempt number.
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond}
	if len(*f.slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(*f.slept), len(want))
	}
	for i, d := range want {
		if (*f.slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*f.slept)[i], d)
		}
	}
}

func TestRetryExhaustionIsCalendarUnavailable(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	creates := 0
	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		creates++
		return "", &calendar.GatewayError{Op: "createEvent", StatusCode: 503, Transient: true, Err: errors.New("upstream busy")}
	}

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	_, err := f.svc.Confirm(ctx, sessionID)
	if ReasonOf(err) != ReasonCalendarUnavailable {
		t.Fatalf("reason = %q, want calendar_unavailable", ReasonOf(err))
	}
	if creates != 3 {
		t.Errorf("createEvent called %d times, want 3", creates)
	}
	if len(f.bookings.created) != 0 {
		t.Errorf("persisted %d bookings, want 0", len(f.bookings.created))
	}
}

func TestPermanentGatewayErrorDoesNotRetry(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	creates := 0
	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		creates++
		return "", &calendar.GatewayError{Op: "createEvent", StatusCode: 403, Transient: false, Err: errors.New("forbidden")}
	}

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	_, err := f.svc.Confirm(ctx, sessionID)
	if ReasonOf(err) != ReasonGatewayPermanent {
		t.Fatalf("reason = %q, want gateway_permanent", ReasonOf(err))
	}
	if creates != 1 {
		t.Errorf("createEvent called %d times, want 1", creates)
	}
}

func TestPersistenceFailureDeletesEvent(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	var deleted []string
	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		return "evt_doomed", nil
	}
	f.gateway.deleteEvent = func(ctx context.Context, eventID string) error {
		deleted = append(deleted, eventID)
		return nil
	}
	f.bookings.create = func(booking *models.Booking) error {
		return errors.New("write concern failed")
	}

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	_, err := f.svc.Confirm(ctx, sessionID)
	if ReasonOf(err) != ReasonPersistenceFailed {
		t.Fatalf("reason = %q, want persistence_failed", ReasonOf(err))
	}
	if len(deleted) != 1 || deleted[0] != "evt_doomed" {
		t.Errorf("deleted events = %v, want [evt_doomed]", deleted)
	}
}

func TestCompensationFailureIsOrphanedEvent(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		return "evt_orphan", nil
	}
	f.gateway.deleteEvent = func(ctx context.Context, eventID string) error {
		return &calendar.GatewayError{Op: "deleteEvent", StatusCode: 500, Transient: true, Err: errors.New("boom")}
	}
	f.bookings.create = func(booking *models.Booking) error {
		return errors.New("write concern failed")
	}

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	_, err := f.svc.Confirm(ctx, sessionID)
	if ReasonOf(err) != ReasonOrphanedEvent {
		t.Fatalf("reason = %q, want orphaned_event", ReasonOf(err))
	}
}

func TestConfirmAfterSlotStartFails(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	creates := 0
	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		creates++
		return "evt_late", nil
	}

	sessionID, slot := advanceToSlotSelected(t, f, "user-1")

	// The session sat until after its chosen slot began.
	f.svc.Engine.Now = func() time.Time { return slot.Start.Add(time.Minute) }

	_, err := f.svc.Confirm(ctx, sessionID)
	if ReasonOf(err) != ReasonSlotTaken {
		t.Fatalf("reason = %q, want slot_taken", ReasonOf(err))
	}
	if creates != 0 {
		t.Errorf("createEvent called %d times, want 0", creates)
	}

	// The failure is recoverable: date selection offers the remaining slots.
	resp, err := f.svc.SelectDate(ctx, sessionID, "2026-03-10")
	if err != nil {
		t.Fatalf("SelectDate after failure: %v", err)
	}
	for _, s := range resp.Slots {
		if !s.Start.After(slot.Start) {
			t.Errorf("elapsed slot %v still offered", s.Start)
		}
	}
}

func TestCancelSession(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	if err := f.svc.CancelSession(ctx, sessionID); err != nil {
		t.Fatalf("CancelSession: %v", err)
	}

	// Nothing external existed yet, so nothing to undo; the session is gone.
	if _, err := f.svc.Confirm(ctx, sessionID); ReasonOf(err) != ReasonSessionNotFound {
		t.Errorf("reason after cancel = %q, want session_not_found", ReasonOf(err))
	}

	if err := f.svc.CancelSession(ctx, "never-existed"); ReasonOf(err) != ReasonSessionNotFound {
		t.Errorf("cancel unknown reason = %q, want session_not_found", ReasonOf(err))
	}
}

func TestFailedSessionReentersDateSelection(t *testing.T) {
	f := newTestFlow()
	ctx := context.Background()

	f.gateway.createEvent = func(ctx context.Context, input calendar.EventInput) (string, error) {
		return "", &calendar.GatewayError{Op: "createEvent", StatusCode: 400, Transient: false, Err: errors.New("bad request")}
	}

	sessionID, _ := advanceToSlotSelected(t, f, "user-1")
	if _, err := f.svc.Confirm(ctx, sessionID); ReasonOf(err) != ReasonGatewayPermanent {
		t.Fatalf("reason = %q, want gateway_permanent", ReasonOf(err))
	}

	resp, err := f.svc.SelectDate(ctx, sessionID, "2026-03-11")
	if err != nil {
		t.Fatalf("SelectDate after failure: %v", err)
	}
	if resp.State != models.StateDateSelected {
		t.Errorf("state = %s, want date_selected", resp.State)
	}
	if resp.FailReason != "" {
		t.Errorf("fail reason not cleared: %q", resp.FailReason)
	}
}

func TestRecoverableReasons(t *testing.T) {
	cases := []struct {
		reason string
		want   bool
	}{
		{ReasonSlotTaken, true},
		{ReasonCalendarUnavailable, true},
		{ReasonInvalidSelection, true},
		{ReasonGatewayPermanent, false},
		{ReasonOrphanedEvent, false},
		{ReasonPersistenceFailed, false},
	}
	for _, tc := range cases {
		if got := Recoverable(NewFlowError(tc.reason, "x")); got != tc.want {
			t.Errorf("Recoverable(%s) = %v, want %v", tc.reason, got, tc.want)
		}
	}
}
