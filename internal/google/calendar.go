package google

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const callTimeout = 15 * time.Second

// CalendarInfo describes one accessible calendar.
type CalendarInfo struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Color      string `json:"color"`
	AccessRole string `json:"access_role"`
	Selected   bool   `json:"selected"`
}

// EventItem is one upstream event, normalized from the API's shapes.
// Start or End are zero when the upstream entry had no resolvable
// instant for them.
type EventItem struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Recurring   bool
}

// CalendarClient wraps the Calendar API.
type CalendarClient struct {
	svc *calendar.Service
}

func NewCalendarClient(ctx context.Context, creds *CredentialProvider) (*CalendarClient, error) {
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar credentials: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &CalendarClient{svc: svc}, nil
}

// ListCalendars returns all calendars on the account's calendar list.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	out := make([]CalendarInfo, 0, len(resp.Items))
	for _, item := range resp.Items {
		summary := item.Summary
		if summary == "" {
			summary = "Untitled Calendar"
		}
		color := item.ColorId
		if color == "" {
			color = "1"
		}
		selected := item.Selected
		if item.Primary {
			selected = true
		}
		out = append(out, CalendarInfo{
			ID:         item.Id,
			Summary:    summary,
			Color:      color,
			AccessRole: item.AccessRole,
			Selected:   selected,
		})
	}
	return out, nil
}

// ListEvents fetches single-instance events intersecting [start, end),
// ordered by start time.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]EventItem, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.svc.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
	}

	out := make([]EventItem, 0, len(resp.Items))
	for _, ev := range resp.Items {
		item := EventItem{
			ID:          ev.Id,
			Summary:     ev.Summary,
			Description: ev.Description,
			Recurring:   len(ev.Recurrence) > 0 || ev.RecurringEventId != "",
		}
		item.Start, item.AllDay = parseEventTime(ev.Start)
		item.End, _ = parseEventTime(ev.End)
		out = append(out, item)
	}
	return out, nil
}

// parseEventTime resolves an EventDateTime to an instant. Date-only
// values (all-day events) resolve to midnight of that date.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err == nil {
			return t, false
		}
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
