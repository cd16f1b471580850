package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*RestGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gw := NewRestGateway(srv.URL, "test-token", "coach@example.com", "Europe/Paris", 2*time.Second)
	return gw, srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func TestFreeBusyParsesAndOrdersIntervals(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freeBusy" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, `{
			"calendars": {
				"coach@example.com": {
					"busy": [
						{"start": "2026-03-10T14:00:00+01:00", "end": "2026-03-10T15:00:00+01:00"},
						{"start": "2026-03-10T09:00:00+01:00", "end": "2026-03-10T10:30:00+01:00"}
					]
				}
			}
		}`)
	})

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	busy, err := gw.FreeBusy(context.Background(), from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("FreeBusy returned error: %v", err)
	}
	if len(busy) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(busy))
	}
	if !busy[0].Start.Before(busy[1].Start) {
		t.Error("intervals not ordered by start")
	}
	if busy[0].Start.Hour() != 9 || busy[0].Start.Minute() != 0 {
		t.Errorf("unexpected first interval start: %v", busy[0].Start)
	}
}

func TestFreeBusyMissingCalendar(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"calendars": {}}`)
	})

	_, err := gw.FreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error for missing calendar entry")
	}
	if IsTransient(err) {
		t.Error("missing calendar entry should not be transient")
	}
}

func TestFreeBusyServerErrorIsTransient(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
	})

	_, err := gw.FreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("503 should classify as transient, got %v", err)
	}
}

func TestFreeBusyForbiddenIsPermanent(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "calendar not shared with service account", http.StatusForbidden)
	})

	_, err := gw.FreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Errorf("403 should classify as permanent, got %v", err)
	}
}

func TestCreateEventReturnsID(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/calendars/coach@example.com/events"
		if r.URL.Path != want {
			t.Errorf("unexpected path %s, want %s", r.URL.Path, want)
		}
		writeJSON(w, `{"id": "evt_123"}`)
	})

	id, err := gw.CreateEvent(context.Background(), EventInput{
		Start:   time.Now(),
		End:     time.Now().Add(time.Hour),
		Summary: "[FREE] Coaching - tester",
	})
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if id != "evt_123" {
		t.Errorf("expected evt_123, got %q", id)
	}
}

func TestCreateEventEmptyID(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{}`)
	})

	if _, err := gw.CreateEvent(context.Background(), EventInput{}); err == nil {
		t.Fatal("expected error when response carries no event id")
	}
}

func TestResponsesDecodeWithoutContentType(t *testing.T) {
	// Some gateways drop the Content-Type header; decoding must not depend
	// on it.
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/freeBusy":
			fmt.Fprint(w, `{
				"calendars": {
					"coach@example.com": {
						"busy": [{"start": "2026-03-10T09:00:00+01:00", "end": "2026-03-10T10:00:00+01:00"}]
					}
				}
			}`)
		default:
			fmt.Fprint(w, `{"id": "evt_plain"}`)
		}
	})

	busy, err := gw.FreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("FreeBusy returned error: %v", err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(busy))
	}

	id, err := gw.CreateEvent(context.Background(), EventInput{
		Start: time.Now(),
		End:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if id != "evt_plain" {
		t.Errorf("expected evt_plain, got %q", id)
	}
}

func TestDeleteEventTreatsGoneAsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusGone} {
		gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		if err := gw.DeleteEvent(context.Background(), "evt_123"); err != nil {
			t.Errorf("status %d should count as deleted, got %v", status, err)
		}
	}
}

func TestDeleteEventServerError(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := gw.DeleteEvent(context.Background(), "evt_123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("500 should classify as transient, got %v", err)
	}
}

func TestGatewayTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	gw := NewRestGateway(srv.URL, "tok", "coach@example.com", "Europe/Paris", 20*time.Millisecond)

	_, err := gw.FreeBusy(context.Background(), time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Errorf("timeout should classify as transient, got %v", err)
	}
}
