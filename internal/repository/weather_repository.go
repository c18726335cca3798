package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homeview/internal/model"
)

// WeatherRepository manages the singleton weather snapshot row. The
// snapshot lives under a fixed key so the store stays the single source
// of mutable process state.
type WeatherRepository struct {
	db *gorm.DB
}

func NewWeatherRepository(db *gorm.DB) *WeatherRepository {
	return &WeatherRepository{db: db}
}

// Load returns the snapshot row. found is false before the first
// successful write; that is an absence, not an error.
func (r *WeatherRepository) Load(ctx context.Context) (*model.WeatherSnapshot, bool, error) {
	var snap model.WeatherSnapshot
	err := r.db.WithContext(ctx).First(&snap, model.WeatherSnapshotID).Error
	switch {
	case err == nil:
		return &snap, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("load weather snapshot: %w", err)
	}
}

// SaveCurrent stores the current-conditions payload and refreshes the
// shared last-updated timestamp.
func (r *WeatherRepository) SaveCurrent(ctx context.Context, cur *model.CurrentConditions, at time.Time) error {
	data, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encode current weather: %w", err)
	}
	return r.savePayload(ctx, "current_data", string(data), at)
}

// SaveForecast stores the forecast payload and refreshes the shared
// last-updated timestamp.
func (r *WeatherRepository) SaveForecast(ctx context.Context, days []model.ForecastDay, at time.Time) error {
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	return r.savePayload(ctx, "forecast_data", string(data), at)
}

// SaveAlerts stores the alerts payload and refreshes the shared
// last-updated timestamp.
func (r *WeatherRepository) SaveAlerts(ctx context.Context, alerts []model.Alert, at time.Time) error {
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	return r.savePayload(ctx, "alerts_data", string(data), at)
}

func (r *WeatherRepository) savePayload(ctx context.Context, column, data string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snap model.WeatherSnapshot
		err := tx.First(&snap, model.WeatherSnapshotID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			snap = model.WeatherSnapshot{ID: model.WeatherSnapshotID}
			if err := tx.Create(&snap).Error; err != nil {
				return fmt.Errorf("create snapshot row: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load snapshot row: %w", err)
		}
		updates := map[string]interface{}{
			column:         data,
			"last_updated": at,
		}
		return tx.Model(&model.WeatherSnapshot{}).
			Where("id = ?", model.WeatherSnapshotID).
			Updates(updates).Error
	})
	if err != nil {
		return fmt.Errorf("save weather %s: %w", column, err)
	}
	return nil
}
