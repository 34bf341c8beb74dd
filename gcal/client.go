package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"golang.org/x/oauth2"
	"waypoint/apperr"
	"waypoint/config"
)

// Event is an upcoming calendar event as shown to the user.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateEventRequest carries a user-confirmed event proposal.
type CreateEventRequest struct {
	Title       string
	Description string
	StartISO    string
	EndISO      string
}

// Client calls the Google Calendar v3 API on behalf of a user.
type Client struct {
	baseURL  string
	timezone string
	oauth    *OAuth
}

// NewClient creates a calendar client.
func NewClient(cfg *config.Config, oauth *OAuth) *Client {
	return &Client{
		baseURL:  cfg.CalendarAPIURL,
		timezone: cfg.Timezone,
		oauth:    oauth,
	}
}

// wire shapes of the Calendar v3 API

type eventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type calendarEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventList struct {
	Items []calendarEvent `json:"items"`
}

// CreateEvent inserts an event into the user's primary calendar and
// returns the created event id.
func (c *Client) CreateEvent(ctx context.Context, token *oauth2.Token, req CreateEventRequest) (string, error) {
	if req.Title == "" || req.StartISO == "" || req.EndISO == "" {
		return "", apperr.New(apperr.InvalidArgument, "missing event fields")
	}

	body := calendarEvent{
		Summary:     req.Title,
		Description: req.Description,
		Start:       eventDateTime{DateTime: req.StartISO, TimeZone: c.timezone},
		End:         eventDateTime{DateTime: req.EndISO, TimeZone: c.timezone},
	}

	var created calendarEvent
	err := c.do(ctx, token, "POST", "/calendars/primary/events", nil, &body, &created)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "calendar creation failed")
	}

	logger.Info("Calendar event created", "event_id", created.ID, "title", req.Title)
	return created.ID, nil
}

// ListUpcomingEvents returns up to 50 upcoming events from the user's
// primary calendar, soonest first.
func (c *Client) ListUpcomingEvents(ctx context.Context, token *oauth2.Token) ([]Event, error) {
	params := url.Values{
		"timeMin":      {time.Now().UTC().Format(time.RFC3339)},
		"maxResults":   {"50"},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}

	var list eventList
	err := c.do(ctx, token, "GET", "/calendars/primary/events", params, nil, &list)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "failed to list calendar events")
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, Event{
			ID:    item.ID,
			Title: item.Summary,
			Start: firstOf(item.Start.DateTime, item.Start.Date),
			End:   firstOf(item.End.DateTime, item.End.Date),
		})
	}

	return events, nil
}

func (c *Client) do(ctx context.Context, token *oauth2.Token, method, path string,
	params url.Values, body, out any) error {

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return serr.Wrap(err, "failed to marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return serr.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := oauth2.NewClient(ctx, c.oauth.TokenSource(ctx, token))
	resp, err := httpClient.Do(req)
	if err != nil {
		return serr.Wrap(err, "calendar request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return serr.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serr.New(fmt.Sprintf("calendar API error: %s - %s", resp.Status, string(respBody)))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return serr.Wrap(err, "failed to parse response")
		}
	}

	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
