package model

import "time"

// Event categories derived from the event title.
const (
	CategoryWork     = "work"
	CategoryFamily   = "family"
	CategoryPersonal = "personal"
)

// CalendarEvent is a locally cached copy of an upstream calendar event.
// The primary key is the provider-assigned event id, so repeated sync
// cycles overwrite rather than duplicate.
type CalendarEvent struct {
	ID            string    `gorm:"primaryKey;size:100" json:"id"`
	Title         string    `gorm:"size:200" json:"title"`
	StartTime     time.Time `gorm:"index" json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Category      string    `gorm:"size:50;default:personal" json:"category"`
	Description   string    `json:"description"`
	CalendarID    string    `gorm:"size:200" json:"calendar_id"`
	CalendarName  string    `gorm:"size:200" json:"calendar_name"`
	CalendarColor string    `gorm:"size:20" json:"calendar_color"`
	Recurring     bool      `gorm:"default:false" json:"recurring"`
	LastUpdated   time.Time `json:"last_updated"`
}
