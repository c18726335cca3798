package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeview/internal/model"
	"homeview/internal/repository"
	"homeview/internal/weatherapi"
)

type fakeWeatherAPI struct {
	current  *weatherapi.Current
	forecast *weatherapi.Forecast
	onecall  *weatherapi.OneCall
	fail     bool
}

func (f *fakeWeatherAPI) FetchCurrent(ctx context.Context) (*weatherapi.Current, error) {
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.current, nil
}

func (f *fakeWeatherAPI) FetchForecast(ctx context.Context) (*weatherapi.Forecast, error) {
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.forecast, nil
}

func (f *fakeWeatherAPI) FetchAlerts(ctx context.Context) (*weatherapi.OneCall, error) {
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return f.onecall, nil
}

type recordingNotifier struct {
	batches [][]model.Alert
}

func (n *recordingNotifier) AlertsChanged(alerts []model.Alert) {
	n.batches = append(n.batches, alerts)
}

func sampleAt(at time.Time, temp float64, main, icon string) weatherapi.ForecastSample {
	s := weatherapi.ForecastSample{DT: at.Unix(), DTText: at.UTC().Format("2006-01-02 15:04:05")}
	s.Main.Temp = temp
	s.Weather = []weatherapi.Condition{{Main: main, Icon: icon}}
	return s
}

func currentOf(temp float64, main, description, icon string) *weatherapi.Current {
	cur := &weatherapi.Current{Weather: []weatherapi.Condition{{Main: main, Description: description, Icon: icon}}}
	cur.Main.Temp = temp
	cur.Main.Humidity = 40
	cur.Wind.Speed = 6.5
	return cur
}

func newWeatherService(t *testing.T, api WeatherAPI, notifier AlertNotifier, at time.Time) *WeatherService {
	t.Helper()
	repo := repository.NewWeatherRepository(newTestDB(t))
	svc := NewWeatherService(api, repo, notifier, 10*time.Minute, time.UTC)
	svc.now = func() time.Time { return at }
	return svc
}

func TestGetCurrentWeatherDerivesTodayHighLow(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	api := &fakeWeatherAPI{
		current: currentOf(48.6, "Clouds", "scattered clouds", "03d"),
		forecast: &weatherapi.Forecast{List: []weatherapi.ForecastSample{
			sampleAt(t0.Add(3*time.Hour), 55.2, "Clouds", "03d"),
			sampleAt(t0.Add(6*time.Hour), 40.1, "Clouds", "03n"),
			sampleAt(t0.Add(24*time.Hour), 70.0, "Clear", "01d"), // tomorrow, ignored
		}},
	}
	svc := newWeatherService(t, api, nil, t0)

	cur := svc.GetCurrentWeather(context.Background())
	require.NotNil(t, cur)
	assert.Equal(t, 49, cur.Temp)
	assert.Equal(t, 55, cur.High)
	assert.Equal(t, 40, cur.Low)
	assert.Equal(t, "Scattered Clouds", cur.Description)
	assert.Equal(t, "clouds", cur.Condition)
	assert.Equal(t, "cloudy", cur.Icon)
	assert.Equal(t, 40, cur.Humidity)
}

func TestGetCurrentWeatherWithoutTodaySamples(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	api := &fakeWeatherAPI{
		current: currentOf(33.4, "Clear", "clear sky", "01n"),
		forecast: &weatherapi.Forecast{List: []weatherapi.ForecastSample{
			sampleAt(t0.Add(2*time.Hour), 30, "Clear", "01n"),
		}},
	}
	svc := newWeatherService(t, api, nil, t0)

	cur := svc.GetCurrentWeather(context.Background())
	require.NotNil(t, cur)
	assert.Equal(t, 33, cur.Temp)
	assert.Equal(t, 33, cur.High)
	assert.Equal(t, 33, cur.Low)
	assert.Equal(t, "clear-night", cur.Icon)
}

func TestWeatherCacheServedWithinTTL(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	api := &fakeWeatherAPI{
		current:  currentOf(50, "Clear", "clear sky", "01d"),
		forecast: &weatherapi.Forecast{List: []weatherapi.ForecastSample{sampleAt(t0.Add(time.Hour), 52, "Clear", "01d")}},
	}
	svc := newWeatherService(t, api, nil, t0)
	ctx := context.Background()

	fresh := svc.GetCurrentWeather(ctx)
	require.NotNil(t, fresh)

	// Upstream goes dark just inside the TTL: serve the cache verbatim.
	api.fail = true
	svc.now = func() time.Time { return t0.Add(10*time.Minute - time.Second) }
	cached := svc.GetCurrentWeather(ctx)
	require.NotNil(t, cached)
	assert.Equal(t, *fresh, *cached)

	// Past the TTL the cache no longer qualifies.
	svc.now = func() time.Time { return t0.Add(10*time.Minute + time.Second) }
	assert.Nil(t, svc.GetCurrentWeather(ctx))
	assert.Nil(t, svc.GetForecast(ctx))
	assert.Nil(t, svc.GetWeatherAlerts(ctx))
}

func TestWeatherCacheStaleAtExactTTL(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	api := &fakeWeatherAPI{
		current:  currentOf(50, "Clear", "clear sky", "01d"),
		forecast: &weatherapi.Forecast{},
	}
	svc := newWeatherService(t, api, nil, t0)
	ctx := context.Background()

	require.NotNil(t, svc.GetCurrentWeather(ctx))

	api.fail = true
	svc.now = func() time.Time { return t0.Add(10 * time.Minute) }
	assert.Nil(t, svc.GetCurrentWeather(ctx))
}

func TestAggregateForecast(t *testing.T) {
	day1 := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	rain := sampleAt(day2.Add(12*time.Hour), 44, "Rain", "10d")
	rain.Rain = &weatherapi.Volume{ThreeHour: 3.5}

	days := aggregateForecast([]weatherapi.ForecastSample{
		sampleAt(day1.Add(6*time.Hour), 40, "Clouds", "02n"),
		sampleAt(day1.Add(12*time.Hour), 55, "Clouds", "02d"),
		sampleAt(day1.Add(18*time.Hour), 50, "Clear", "01d"),
		sampleAt(day2.Add(6*time.Hour), 38, "Rain", "10n"),
		rain,
	}, time.UTC)

	require.Len(t, days, 2)

	first := days[0]
	assert.Equal(t, "2026-03-03", first.Date)
	assert.Equal(t, 55, first.High)
	assert.Equal(t, 40, first.Low)
	assert.Equal(t, "Partly Cloudy", first.Condition)
	// Daytime icon wins over the night variant of the same condition.
	assert.Equal(t, "partly-cloudy", first.Icon)
	assert.Equal(t, 0, first.PrecipitationChance)

	second := days[1]
	assert.Equal(t, "2026-03-04", second.Date)
	assert.Equal(t, "Rainy", second.Condition)
	assert.Equal(t, "rainy", second.Icon)
	assert.Equal(t, 35, second.PrecipitationChance)
}

func TestAggregateForecastPrecipitationCapped(t *testing.T) {
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	heavy := sampleAt(day.Add(12*time.Hour), 44, "Rain", "09d")
	heavy.Rain = &weatherapi.Volume{ThreeHour: 25}

	days := aggregateForecast([]weatherapi.ForecastSample{heavy}, time.UTC)
	require.Len(t, days, 1)
	assert.Equal(t, 100, days[0].PrecipitationChance)
}

func TestDominantConditionTieGoesToFirstSeen(t *testing.T) {
	assert.Equal(t, "Clear", dominantCondition([]string{"Clear", "Rain", "Rain", "Clear"}))
	assert.Equal(t, "Rain", dominantCondition([]string{"Rain", "Clear", "Rain"}))
}

func TestDescriptiveCondition(t *testing.T) {
	cases := []struct {
		condition, icon, want string
	}{
		{"Clouds", "cloudy", "Cloudy"},
		{"Clouds", "partly-cloudy", "Partly Cloudy"},
		{"Clear", "sunny", "Sunny"},
		{"Clear", "clear-night", "Clear"},
		{"Drizzle", "rainy", "Rainy"},
		{"Mist", "foggy", "Foggy"},
		{"Squall", "partly-cloudy", "Squall"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, descriptiveCondition(tc.condition, tc.icon), "%s/%s", tc.condition, tc.icon)
	}
}

func TestIconNameUnknownCodeDefaults(t *testing.T) {
	assert.Equal(t, "sunny", iconName("01d"))
	assert.Equal(t, "thunderstorm", iconName("11n"))
	assert.Equal(t, defaultIcon, iconName(""))
	assert.Equal(t, defaultIcon, iconName("99x"))
}

func TestGetWeatherAlertsNormalizesAndNotifiesNewOnly(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	expires := t0.Add(6 * time.Hour)
	api := &fakeWeatherAPI{onecall: &weatherapi.OneCall{Alerts: []weatherapi.AlertEntry{
		{Event: "Wind Advisory", Description: "Gusts to 45 mph", Severity: "minor", End: expires.Unix()},
		{Description: "Unnamed hazard"},
	}}}
	notifier := &recordingNotifier{}
	svc := newWeatherService(t, api, notifier, t0)
	ctx := context.Background()

	alerts := svc.GetWeatherAlerts(ctx)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Wind Advisory", alerts[0].Title)
	assert.Equal(t, "minor", alerts[0].Severity)
	assert.Equal(t, expires.UTC().Format(time.RFC3339), alerts[0].Expires)
	assert.Equal(t, "Weather Alert", alerts[1].Title)
	assert.Equal(t, "moderate", alerts[1].Severity)
	assert.Empty(t, alerts[1].Expires)

	require.Len(t, notifier.batches, 1)
	assert.Len(t, notifier.batches[0], 2)

	// A repeat fetch with the same alerts notifies nothing new.
	svc.GetWeatherAlerts(ctx)
	assert.Len(t, notifier.batches, 1)

	// A brand-new alert alongside a known one notifies only the new one.
	api.onecall.Alerts = append(api.onecall.Alerts, weatherapi.AlertEntry{Event: "Flood Watch"})
	svc.GetWeatherAlerts(ctx)
	require.Len(t, notifier.batches, 2)
	require.Len(t, notifier.batches[1], 1)
	assert.Equal(t, "Flood Watch", notifier.batches[1][0].Title)
}
