package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homeview/internal/model"
)

// EventRepository caches calendar events keyed by provider event id.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// UpsertBatch writes all events in one transaction, overwriting rows
// that share an event id. Stale events are never deleted here; they
// simply stop being refreshed.
func (r *EventRepository) UpsertBatch(ctx context.Context, events []model.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&events).Error
	if err != nil {
		return fmt.Errorf("upsert events: %w", err)
	}
	return nil
}

// ListBetween returns cached events whose start time falls in [start, end].
func (r *EventRepository) ListBetween(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := r.db.WithContext(ctx).
		Where("start_time >= ? AND start_time <= ?", start, end).
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list cached events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) ListAll(ctx context.Context) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := r.db.WithContext(ctx).Order("start_time ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
