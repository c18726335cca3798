package model

import (
	"encoding/json"
	"time"
)

// WeatherSnapshotID is the fixed key of the single snapshot row.
const WeatherSnapshotID = 1

// CurrentConditions is the normalized current-weather payload.
type CurrentConditions struct {
	Temp        int     `json:"temp"`
	Description string  `json:"description"`
	Main        string  `json:"main"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Icon        string  `json:"icon"`
	High        int     `json:"high"`
	Low         int     `json:"low"`
	LastUpdated string  `json:"last_updated"`
}

// ForecastDay is one aggregated day of the forecast.
type ForecastDay struct {
	Date                string `json:"date"`
	High                int    `json:"high"`
	Low                 int    `json:"low"`
	Condition           string `json:"condition"`
	Icon                string `json:"icon"`
	PrecipitationChance int    `json:"precipitation_chance"`
}

// Alert is a normalized weather alert.
type Alert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Expires     string `json:"expires"`
}

// WeatherSnapshot holds the cached weather payloads as opaque JSON
// blobs. At most one row exists; all three categories share one
// last-updated timestamp, refreshed on any successful write.
type WeatherSnapshot struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	CurrentData  string    `json:"-"`
	ForecastData string    `json:"-"`
	AlertsData   string    `json:"-"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Current decodes the current-conditions payload, or nil if never written.
func (s *WeatherSnapshot) Current() *CurrentConditions {
	if s == nil || s.CurrentData == "" {
		return nil
	}
	var cur CurrentConditions
	if err := json.Unmarshal([]byte(s.CurrentData), &cur); err != nil {
		return nil
	}
	return &cur
}

// Forecast decodes the forecast payload, or nil if never written.
func (s *WeatherSnapshot) Forecast() []ForecastDay {
	if s == nil || s.ForecastData == "" {
		return nil
	}
	var days []ForecastDay
	if err := json.Unmarshal([]byte(s.ForecastData), &days); err != nil {
		return nil
	}
	return days
}

// Alerts decodes the alerts payload, or nil if never written.
func (s *WeatherSnapshot) Alerts() []Alert {
	if s == nil || s.AlertsData == "" {
		return nil
	}
	var alerts []Alert
	if err := json.Unmarshal([]byte(s.AlertsData), &alerts); err != nil {
		return nil
	}
	return alerts
}
