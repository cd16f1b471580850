package calendar

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"coachly/models"

	"github.com/go-resty/resty/v2"
)

// RestGateway talks to the external calendar's REST API (Google Calendar v3
// wire format). Authentication is a bearer token supplied by configuration.
type RestGateway struct {
	client     *resty.Client
	calendarID string
	timezone   string
}

// NewRestGateway builds a gateway for a single shared calendar.
func NewRestGateway(baseURL, token, calendarID, timezone string, timeout time.Duration) *RestGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &RestGateway{
		client:     client,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

type freeBusyRequest struct {
	TimeMin  string             `json:"timeMin"`
	TimeMax  string             `json:"timeMax"`
	TimeZone string             `json:"timeZone"`
	Items    []freeBusyCalendar `json:"items"`
}

type freeBusyCalendar struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busy"`
	} `json:"calendars"`
}

// FreeBusy queries occupied time between from and to for the configured
// calendar and returns the intervals ordered by start.
func (g *RestGateway) FreeBusy(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error) {
	var result freeBusyResponse
	resp, err := g.client.R().
		SetContext(ctx).
		// Decode the body as JSON even when the server omits the content type.
		ForceContentType("application/json").
		SetBody(freeBusyRequest{
			TimeMin:  from.Format(time.RFC3339),
			TimeMax:  to.Format(time.RFC3339),
			TimeZone: g.timezone,
			Items:    []freeBusyCalendar{{ID: g.calendarID}},
		}).
		SetResult(&result).
		Post("/freeBusy")
	if err != nil {
		return nil, newTransportError("freeBusy", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, newStatusError("freeBusy", resp.StatusCode(), resp.String())
	}

	entry, ok := result.Calendars[g.calendarID]
	if !ok {
		return nil, &GatewayError{
			Op:  "freeBusy",
			Err: fmt.Errorf("calendar %q missing from response", g.calendarID),
		}
	}

	busy := make([]models.BusyInterval, 0, len(entry.Busy))
	for _, iv := range entry.Busy {
		start, err := time.Parse(time.RFC3339, iv.Start)
		if err != nil {
			return nil, &GatewayError{Op: "freeBusy", Err: fmt.Errorf("bad interval start %q: %w", iv.Start, err)}
		}
		end, err := time.Parse(time.RFC3339, iv.End)
		if err != nil {
			return nil, &GatewayError{Op: "freeBusy", Err: fmt.Errorf("bad interval end %q: %w", iv.End, err)}
		}
		busy = append(busy, models.BusyInterval{Start: start, End: end})
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventBody struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateEvent inserts a new event on the shared calendar and returns its ID.
func (g *RestGateway) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	var result eventResponse
	resp, err := g.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetBody(eventBody{
			Summary:     input.Summary,
			Description: input.Description,
			Start:       eventTime{DateTime: input.Start.Format(time.RFC3339), TimeZone: g.timezone},
			End:         eventTime{DateTime: input.End.Format(time.RFC3339), TimeZone: g.timezone},
		}).
		SetResult(&result).
		SetPathParam("calendarID", g.calendarID).
		Post("/calendars/{calendarID}/events")
	if err != nil {
		return "", newTransportError("createEvent", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", newStatusError("createEvent", resp.StatusCode(), resp.String())
	}
	if result.ID == "" {
		return "", &GatewayError{Op: "createEvent", Err: fmt.Errorf("response carried no event id")}
	}
	return result.ID, nil
}

// DeleteEvent removes an event from the shared calendar. An event that is
// already gone counts as deleted, so compensation stays idempotent.
func (g *RestGateway) DeleteEvent(ctx context.Context, eventID string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"calendarID": g.calendarID,
			"eventID":    eventID,
		}).
		Delete("/calendars/{calendarID}/events/{eventID}")
	if err != nil {
		return newTransportError("deleteEvent", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound, http.StatusGone:
		return nil
	}
	return newStatusError("deleteEvent", resp.StatusCode(), resp.String())
}
