package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"homeview/internal/google"
	"homeview/internal/model"
	"homeview/internal/repository"
)

// CalendarAPI is the upstream calendar capability the engine consumes.
type CalendarAPI interface {
	ListCalendars(ctx context.Context) ([]google.CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]google.EventItem, error)
}

var readableRoles = map[string]bool{
	"owner":  true,
	"reader": true,
	"writer": true,
}

// categoryKeywords is checked in order; the first category whose
// keywords match the title wins.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{model.CategoryWork, []string{"work", "meeting", "office"}},
	{model.CategoryFamily, []string{"family", "kids", "child"}},
}

// CalendarService pulls events from every accessible calendar, merges
// them into one ordered view and writes them through the local cache.
// Its operations are total: upstream failures fall back to cached data
// and are never propagated to the caller.
type CalendarService struct {
	api    CalendarAPI
	events *repository.EventRepository
}

func NewCalendarService(api CalendarAPI, events *repository.EventRepository) *CalendarService {
	return &CalendarService{api: api, events: events}
}

// GetCalendars returns the accessible, readable calendars.
func (s *CalendarService) GetCalendars(ctx context.Context) []google.CalendarInfo {
	if s.api == nil {
		return nil
	}
	cals, err := s.api.ListCalendars(ctx)
	if err != nil {
		slog.Error("list calendars failed", "err", err)
		return nil
	}
	out := make([]google.CalendarInfo, 0, len(cals))
	for _, cal := range cals {
		if readableRoles[cal.AccessRole] {
			out = append(out, cal)
		}
	}
	return out
}

// GetEventsFromAllCalendars fetches events intersecting [start, end)
// from every selected calendar, merges them sorted by start instant and
// caches them. When the upstream is unreachable it returns the cached
// events in the window instead.
func (s *CalendarService) GetEventsFromAllCalendars(ctx context.Context, start, end time.Time) []model.CalendarEvent {
	if s.api == nil {
		return s.cached(ctx, start, end)
	}

	cals, err := s.api.ListCalendars(ctx)
	if err != nil {
		slog.Error("list calendars failed, serving cache", "err", err)
		return s.cached(ctx, start, end)
	}

	selected := make([]google.CalendarInfo, 0, len(cals))
	for _, cal := range cals {
		if readableRoles[cal.AccessRole] && cal.Selected {
			selected = append(selected, cal)
		}
	}
	if len(selected) == 0 {
		selected = []google.CalendarInfo{{ID: "primary", Summary: "Primary", Color: "1"}}
	}

	// Per-calendar fetches are independent; run them concurrently and
	// keep results indexed by calendar so merge order stays
	// deterministic regardless of completion order.
	results := make([][]model.CalendarEvent, len(selected))
	var wg sync.WaitGroup
	for i, cal := range selected {
		wg.Add(1)
		go func(i int, cal google.CalendarInfo) {
			defer wg.Done()
			items, err := s.api.ListEvents(ctx, cal.ID, start, end)
			if err != nil {
				slog.Warn("calendar fetch failed, skipping", "calendar", cal.ID, "err", err)
				return
			}
			results[i] = normalizeEvents(items, cal)
		}(i, cal)
	}
	wg.Wait()

	var all []model.CalendarEvent
	for _, events := range results {
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].StartTime.Before(all[j].StartTime)
	})

	if err := s.events.UpsertBatch(ctx, all); err != nil {
		// A failed cache write must not fail the read path.
		slog.Error("event cache write failed", "err", err, "count", len(all))
	}

	return all
}

// cached serves the store's view of the requested window.
func (s *CalendarService) cached(ctx context.Context, start, end time.Time) []model.CalendarEvent {
	events, err := s.events.ListBetween(ctx, start, end)
	if err != nil {
		slog.Error("read cached events failed", "err", err)
		return nil
	}
	return events
}

// normalizeEvents maps upstream items to cache records, tagging them
// with their source calendar. Items without both a resolvable start and
// end are dropped.
func normalizeEvents(items []google.EventItem, cal google.CalendarInfo) []model.CalendarEvent {
	now := time.Now().UTC()
	out := make([]model.CalendarEvent, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Start.IsZero() || item.End.IsZero() {
			continue
		}
		out = append(out, model.CalendarEvent{
			ID:            item.ID,
			Title:         item.Summary,
			StartTime:     item.Start,
			EndTime:       item.End,
			Category:      categorize(item.Summary),
			Description:   item.Description,
			CalendarID:    cal.ID,
			CalendarName:  cal.Summary,
			CalendarColor: cal.Color,
			Recurring:     item.Recurring,
			LastUpdated:   now,
		})
	}
	return out
}

// categorize derives the event category from title keywords.
func categorize(title string) string {
	lower := strings.ToLower(title)
	for _, group := range categoryKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.category
			}
		}
	}
	return model.CategoryPersonal
}
