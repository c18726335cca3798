package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"homeview/internal/model"
	"homeview/internal/repository"
	"homeview/internal/weatherapi"
)

// WeatherAPI is the upstream weather capability the engine consumes.
type WeatherAPI interface {
	FetchCurrent(ctx context.Context) (*weatherapi.Current, error)
	FetchForecast(ctx context.Context) (*weatherapi.Forecast, error)
	FetchAlerts(ctx context.Context) (*weatherapi.OneCall, error)
}

// AlertNotifier receives alerts that were not present in the previous
// snapshot. A nil notifier disables notification.
type AlertNotifier interface {
	AlertsChanged(alerts []model.Alert)
}

// iconNames maps provider icon codes to the dashboard's icon set.
var iconNames = map[string]string{
	"01d": "sunny",
	"01n": "clear-night",
	"02d": "partly-cloudy",
	"02n": "partly-cloudy-night",
	"03d": "cloudy",
	"03n": "cloudy",
	"04d": "cloudy",
	"04n": "cloudy",
	"09d": "rainy",
	"09n": "rainy",
	"10d": "rainy",
	"10n": "rainy",
	"11d": "thunderstorm",
	"11n": "thunderstorm",
	"13d": "snowy",
	"13n": "snowy",
	"50d": "foggy",
	"50n": "foggy",
}

const defaultIcon = "partly-cloudy"

// WeatherBundle is the combined result of all three categories.
type WeatherBundle struct {
	Current  *model.CurrentConditions `json:"current"`
	Forecast []model.ForecastDay      `json:"forecast"`
	Alerts   []model.Alert            `json:"alerts"`
}

// WeatherService follows fetch -> transform -> cache-write -> return.
// On any fetch failure it serves the cached snapshot while it is
// younger than the TTL, and an empty result past that. The snapshot's
// single last-updated timestamp covers all three categories.
type WeatherService struct {
	api      WeatherAPI
	repo     *repository.WeatherRepository
	notifier AlertNotifier
	ttl      time.Duration
	loc      *time.Location

	now func() time.Time // test hook
}

func NewWeatherService(api WeatherAPI, repo *repository.WeatherRepository, notifier AlertNotifier, ttl time.Duration, loc *time.Location) *WeatherService {
	if loc == nil {
		loc = time.Local
	}
	return &WeatherService{
		api:      api,
		repo:     repo,
		notifier: notifier,
		ttl:      ttl,
		loc:      loc,
		now:      time.Now,
	}
}

// GetCurrentWeather returns current conditions with today's high/low
// derived from same-day forecast samples.
func (s *WeatherService) GetCurrentWeather(ctx context.Context) *model.CurrentConditions {
	if s.api == nil {
		return s.cachedCurrent(ctx)
	}

	cur, err := s.api.FetchCurrent(ctx)
	if err != nil {
		slog.Error("current weather fetch failed, serving cache", "err", err)
		return s.cachedCurrent(ctx)
	}
	fc, err := s.api.FetchForecast(ctx)
	if err != nil {
		slog.Error("forecast fetch failed, serving cache", "err", err)
		return s.cachedCurrent(ctx)
	}

	now := s.now()
	today := now.In(s.loc).Format("2006-01-02")
	var todayTemps []float64
	for _, sample := range fc.List {
		if time.Unix(sample.DT, 0).In(s.loc).Format("2006-01-02") == today {
			todayTemps = append(todayTemps, sample.Main.Temp)
		}
	}

	temp := roundTemp(cur.Main.Temp)
	high, low := temp, temp
	if len(todayTemps) > 0 {
		high = roundTemp(maxOf(todayTemps))
		low = roundTemp(minOf(todayTemps))
	}

	var cond weatherapi.Condition
	if len(cur.Weather) > 0 {
		cond = cur.Weather[0]
	}

	conditions := &model.CurrentConditions{
		Temp:        temp,
		Description: titleCase(cond.Description),
		Main:        cond.Main,
		Condition:   strings.ToLower(cond.Main),
		Humidity:    cur.Main.Humidity,
		WindSpeed:   cur.Wind.Speed,
		Icon:        iconName(cond.Icon),
		High:        high,
		Low:         low,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}

	if err := s.repo.SaveCurrent(ctx, conditions, now.UTC()); err != nil {
		// A failed cache write must not fail the read path.
		slog.Error("current weather cache write failed", "err", err)
	}
	return conditions
}

// GetForecast returns the per-day aggregated forecast.
func (s *WeatherService) GetForecast(ctx context.Context) []model.ForecastDay {
	if s.api == nil {
		return s.cachedForecast(ctx)
	}

	fc, err := s.api.FetchForecast(ctx)
	if err != nil {
		slog.Error("forecast fetch failed, serving cache", "err", err)
		return s.cachedForecast(ctx)
	}

	forecast := aggregateForecast(fc.List, s.loc)

	now := s.now().UTC()
	if err := s.repo.SaveForecast(ctx, forecast, now); err != nil {
		slog.Error("forecast cache write failed", "err", err)
	}
	return forecast
}

// GetWeatherAlerts returns active alerts, notifying about ones not
// present in the previous snapshot.
func (s *WeatherService) GetWeatherAlerts(ctx context.Context) []model.Alert {
	if s.api == nil {
		return s.cachedAlerts(ctx)
	}

	raw, err := s.api.FetchAlerts(ctx)
	if err != nil {
		slog.Error("alerts fetch failed, serving cache", "err", err)
		return s.cachedAlerts(ctx)
	}

	alerts := make([]model.Alert, 0, len(raw.Alerts))
	for _, entry := range raw.Alerts {
		title := entry.Event
		if title == "" {
			title = "Weather Alert"
		}
		severity := entry.Severity
		if severity == "" {
			severity = "moderate"
		}
		expires := ""
		if entry.End > 0 {
			expires = time.Unix(entry.End, 0).UTC().Format(time.RFC3339)
		}
		alerts = append(alerts, model.Alert{
			Title:       title,
			Description: entry.Description,
			Severity:    severity,
			Expires:     expires,
		})
	}

	s.notifyNewAlerts(ctx, alerts)

	if err := s.repo.SaveAlerts(ctx, alerts, s.now().UTC()); err != nil {
		slog.Error("alerts cache write failed", "err", err)
	}
	return alerts
}

// GetAllWeatherData runs all three operations; one failing category
// does not prevent the others.
func (s *WeatherService) GetAllWeatherData(ctx context.Context) WeatherBundle {
	return WeatherBundle{
		Current:  s.GetCurrentWeather(ctx),
		Forecast: s.GetForecast(ctx),
		Alerts:   s.GetWeatherAlerts(ctx),
	}
}

// freshSnapshot returns the snapshot iff it is younger than the TTL.
func (s *WeatherService) freshSnapshot(ctx context.Context) *model.WeatherSnapshot {
	snap, found, err := s.repo.Load(ctx)
	if err != nil {
		slog.Error("load weather snapshot failed", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	if s.now().UTC().Sub(snap.LastUpdated) >= s.ttl {
		return nil
	}
	return snap
}

func (s *WeatherService) cachedCurrent(ctx context.Context) *model.CurrentConditions {
	return s.freshSnapshot(ctx).Current()
}

func (s *WeatherService) cachedForecast(ctx context.Context) []model.ForecastDay {
	return s.freshSnapshot(ctx).Forecast()
}

func (s *WeatherService) cachedAlerts(ctx context.Context) []model.Alert {
	return s.freshSnapshot(ctx).Alerts()
}

// notifyNewAlerts hands alerts absent from the previous snapshot to the
// notifier.
func (s *WeatherService) notifyNewAlerts(ctx context.Context, alerts []model.Alert) {
	if s.notifier == nil || len(alerts) == 0 {
		return
	}
	known := make(map[string]bool)
	if snap, found, err := s.repo.Load(ctx); err == nil && found {
		for _, prev := range snap.Alerts() {
			known[prev.Title] = true
		}
	}
	var fresh []model.Alert
	for _, alert := range alerts {
		if !known[alert.Title] {
			fresh = append(fresh, alert)
		}
	}
	if len(fresh) > 0 {
		s.notifier.AlertsChanged(fresh)
	}
}

// aggregateForecast folds 3-hour samples into per-day entries,
// preserving the order dates first appear in the feed.
func aggregateForecast(samples []weatherapi.ForecastSample, loc *time.Location) []model.ForecastDay {
	type dayAgg struct {
		temps      []float64
		conditions []string
		icons      []string
		precip     float64
	}

	var dates []string
	byDate := make(map[string]*dayAgg)

	for _, sample := range samples {
		date := sampleDateIn(sample, loc)
		agg, ok := byDate[date]
		if !ok {
			agg = &dayAgg{}
			byDate[date] = agg
			dates = append(dates, date)
		}
		agg.temps = append(agg.temps, sample.Main.Temp)
		var cond weatherapi.Condition
		if len(sample.Weather) > 0 {
			cond = sample.Weather[0]
		}
		agg.conditions = append(agg.conditions, cond.Main)
		agg.icons = append(agg.icons, cond.Icon)
		agg.precip += sample.PrecipAmount()
	}

	out := make([]model.ForecastDay, 0, len(dates))
	for _, date := range dates {
		agg := byDate[date]

		dominant := dominantCondition(agg.conditions)
		icon := conditionIcon(agg.conditions, agg.icons, dominant)

		out = append(out, model.ForecastDay{
			Date:                date,
			High:                roundTemp(maxOf(agg.temps)),
			Low:                 roundTemp(minOf(agg.temps)),
			Condition:           descriptiveCondition(dominant, icon),
			Icon:                icon,
			PrecipitationChance: int(math.Min(100, agg.precip*10)),
		})
	}
	return out
}

// dominantCondition picks the most frequent condition; ties go to the
// condition seen first in sample order.
func dominantCondition(conditions []string) string {
	counts := make(map[string]int, len(conditions))
	for _, c := range conditions {
		counts[c]++
	}
	best := ""
	for _, c := range conditions {
		if best == "" || counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// conditionIcon resolves the icon for the dominant condition,
// preferring a daytime variant over a nighttime one.
func conditionIcon(conditions, icons []string, dominant string) string {
	dayCode, nightCode := "", ""
	for i, c := range conditions {
		if c != dominant {
			continue
		}
		code := icons[i]
		switch {
		case strings.HasSuffix(code, "d") && dayCode == "":
			dayCode = code
		case strings.HasSuffix(code, "n") && nightCode == "":
			nightCode = code
		}
	}
	if dayCode != "" {
		return iconName(dayCode)
	}
	if nightCode != "" {
		return iconName(nightCode)
	}
	return defaultIcon
}

// descriptiveCondition refines a raw condition label into the
// presentation string, disambiguating by icon where needed.
func descriptiveCondition(condition, icon string) string {
	switch condition {
	case "Clouds":
		if icon == "cloudy" {
			return "Cloudy"
		}
		return "Partly Cloudy"
	case "Clear":
		if icon == "sunny" {
			return "Sunny"
		}
		return "Clear"
	case "Rain", "Drizzle":
		return "Rainy"
	case "Snow":
		return "Snowy"
	case "Thunderstorm":
		return "Thunderstorm"
	case "Fog", "Mist", "Haze":
		return "Foggy"
	default:
		return condition
	}
}

// sampleDateIn resolves the sample's calendar date, preferring the
// feed's dt_txt field over the unix timestamp.
func sampleDateIn(sample weatherapi.ForecastSample, loc *time.Location) string {
	if len(sample.DTText) >= 10 {
		return sample.DTText[:10]
	}
	return time.Unix(sample.DT, 0).In(loc).Format("2006-01-02")
}

func iconName(code string) string {
	if name, ok := iconNames[code]; ok {
		return name
	}
	return defaultIcon
}

func roundTemp(f float64) int {
	return int(math.Round(f))
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// titleCase capitalizes each word of a lower-case provider description.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
