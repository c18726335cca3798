package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	calendar "google.golang.org/api/calendar/v3"
)

func TestParseEventTime(t *testing.T) {
	got, allDay := parseEventTime(&calendar.EventDateTime{DateTime: "2026-03-02T09:30:00-05:00"})
	assert.False(t, allDay)
	want := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("", -5*3600))
	assert.True(t, got.Equal(want))

	got, allDay = parseEventTime(&calendar.EventDateTime{Date: "2026-03-02"})
	assert.True(t, allDay)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)

	got, allDay = parseEventTime(nil)
	assert.True(t, got.IsZero())
	assert.False(t, allDay)

	got, _ = parseEventTime(&calendar.EventDateTime{DateTime: "garbage"})
	assert.True(t, got.IsZero())
}
