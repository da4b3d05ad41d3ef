// Package meteo fetches hourly wind and air-quality readings from Open-Meteo.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/provider/resilience"
)

const (
	// ProviderName identifies this reading source.
	ProviderName = "open-meteo"

	// DefaultWeatherURL is the Open-Meteo historical weather API.
	DefaultWeatherURL = "https://archive-api.open-meteo.com/v1/archive"

	// DefaultAirQualityURL is the Open-Meteo air-quality API.
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	timeLayout = "2006-01-02T15:04"
	dateLayout = "2006-01-02"
)

var (
	weatherVariables = []string{
		"wind_speed_10m", "wind_speed_100m",
		"wind_direction_10m", "wind_direction_100m",
		"temperature_2m", "precipitation",
	}
	airQualityVariables = []string{"european_aqi"}
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// WeatherURL is the weather API URL (optional, defaults to the archive API).
	WeatherURL string

	// AirQualityURL is the air-quality API URL (optional).
	AirQualityURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client. It implements plant.ReadingSource.
type Client struct {
	weatherURL    string
	airQualityURL string
	httpClient    *resilience.Client
	logger        zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	weatherURL := cfg.WeatherURL
	if weatherURL == "" {
		weatherURL = DefaultWeatherURL
	}

	airQualityURL := cfg.AirQualityURL
	if airQualityURL == "" {
		airQualityURL = DefaultAirQualityURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		weatherURL:    weatherURL,
		airQualityURL: airQualityURL,
		httpClient:    httpClient,
		logger:        cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Reading fetches the plant's wind and European AQI for the hour containing at.
// Returns plant.ErrNoReading if the API has no row for that hour.
func (c *Client) Reading(ctx context.Context, p *plant.Plant, at time.Time) (*plant.Reading, error) {
	hour := plant.HourOf(at)

	weather, err := c.fetchHourly(ctx, c.weatherURL, weatherVariables, p, hour, url.Values{"wind_speed_unit": {"ms"}})
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	airQuality, err := c.fetchHourly(ctx, c.airQualityURL, airQualityVariables, p, hour, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching air quality: %w", err)
	}

	wi := weather.indexOf(hour)
	if wi < 0 {
		return nil, plant.ErrNoReading
	}

	reading := &plant.Reading{
		PlantID:           p.ID,
		Time:              hour,
		WindSpeed10m:      weather.value("wind_speed_10m", wi),
		WindSpeed100m:     weather.value("wind_speed_100m", wi),
		WindDirection10m:  weather.value("wind_direction_10m", wi),
		WindDirection100m: weather.value("wind_direction_100m", wi),
		Temperature:       weather.value("temperature_2m", wi),
		Precipitation:     weather.value("precipitation", wi),
	}
	if ai := airQuality.indexOf(hour); ai >= 0 {
		reading.EuropeanAQI = airQuality.value("european_aqi", ai)
	}

	c.logger.Debug().
		Int64("plant_id", p.ID).
		Time("hour", hour).
		Msg("fetched reading from open-meteo")

	return reading, nil
}

// hourlyResponse is the subset of an Open-Meteo response used here.
type hourlyResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    hourly  `json:"hourly"`
}

// hourly holds the time axis and one series per requested variable.
// Series values are nil where the API has no data.
type hourly struct {
	Time   []string
	Series map[string][]*float64
}

func (h *hourly) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Series = make(map[string][]*float64, len(raw))
	for key, msg := range raw {
		if key == "time" {
			if err := json.Unmarshal(msg, &h.Time); err != nil {
				return fmt.Errorf("decoding time axis: %w", err)
			}
			continue
		}
		var values []*float64
		if err := json.Unmarshal(msg, &values); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		h.Series[key] = values
	}
	return nil
}

func (r *hourlyResponse) indexOf(hour time.Time) int {
	want := hour.UTC().Format(timeLayout)
	for i, t := range r.Hourly.Time {
		if t == want {
			return i
		}
	}
	return -1
}

func (r *hourlyResponse) value(name string, i int) *float64 {
	series := r.Hourly.Series[name]
	if i >= len(series) {
		return nil
	}
	return series[i]
}

func (c *Client) fetchHourly(ctx context.Context, baseURL string, variables []string, p *plant.Plant, hour time.Time, extra url.Values) (*hourlyResponse, error) {
	day := hour.UTC().Format(dateLayout)

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	q.Set("longitude", strconv.FormatFloat(p.Lon, 'f', 6, 64))
	q.Set("hourly", strings.Join(variables, ","))
	q.Set("start_date", day)
	q.Set("end_date", day)
	q.Set("timezone", "GMT")
	for k, v := range extra {
		q[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}
