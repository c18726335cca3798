// Package weatherapi is a thin typed client for the OpenWeatherMap
// data/2.5 endpoints the dashboard consumes.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const fetchTimeout = 10 * time.Second

// Condition is one entry of a sample's weather array.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Current is the /weather response subset the engine reads.
type Current struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	DT int64 `json:"dt"`
}

// Volume carries a 3-hour precipitation amount.
type Volume struct {
	ThreeHour float64 `json:"3h"`
}

// ForecastSample is one 3-hour forecast entry.
type ForecastSample struct {
	DT     int64  `json:"dt"`
	DTText string `json:"dt_txt"`
	Main   struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Rain    *Volume     `json:"rain,omitempty"`
	Snow    *Volume     `json:"snow,omitempty"`
}

// Forecast is the /forecast response: 3-hour samples over five days.
type Forecast struct {
	List []ForecastSample `json:"list"`
}

// AlertEntry is one government weather alert from /onecall.
type AlertEntry struct {
	Event       string `json:"event"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	End         int64  `json:"end"`
}

// OneCall is the /onecall response subset carrying alerts.
type OneCall struct {
	Alerts []AlertEntry `json:"alerts"`
}

// Client fetches raw weather data for a fixed location.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	lat, lon   float64
	units      string
}

func NewClient(baseURL, apiKey string, lat, lon float64, units string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: fetchTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		lat:        lat,
		lon:        lon,
		units:      units,
	}
}

// FetchCurrent returns current conditions at the configured location.
func (c *Client) FetchCurrent(ctx context.Context) (*Current, error) {
	var out Current
	if err := c.get(ctx, "/weather", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchForecast returns the 5-day, 3-hour-resolution forecast.
func (c *Client) FetchForecast(ctx context.Context) (*Forecast, error) {
	var out Forecast
	if err := c.get(ctx, "/forecast", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAlerts returns active weather alerts.
func (c *Client) FetchAlerts(ctx context.Context) (*OneCall, error) {
	var out OneCall
	extra := url.Values{"exclude": {"minutely,hourly,daily"}}
	if err := c.get(ctx, "/onecall", extra, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, extra url.Values, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("weather api key is not configured")
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(c.lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(c.lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {c.units},
	}
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// PrecipAmount returns the sample's 3-hour rain or snow volume.
func (s ForecastSample) PrecipAmount() float64 {
	if s.Rain != nil {
		return s.Rain.ThreeHour
	}
	if s.Snow != nil {
		return s.Snow.ThreeHour
	}
	return 0
}
