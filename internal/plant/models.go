// Package plant provides access to power plants and their hourly wind and
// air-quality statistics.
package plant

import (
	"errors"
	"time"
)

// Plant errors.
var (
	ErrPlantNotFound = errors.New("plant not found")
	ErrNoReading     = errors.New("no reading for the requested hour")
	ErrInvalidPlant  = errors.New("invalid plant id")
)

// DefaultAirQualityStart is used when a plant has no recorded air-quality data.
var DefaultAirQualityStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Plant is a power plant with the date coverage of its stored statistics.
type Plant struct {
	ID   int64
	Name string
	Lat  float64
	Lon  float64

	WeatherMinDate *time.Time
	WeatherMaxDate *time.Time
	AirMinDate     *time.Time
	AirMaxDate     *time.Time
}

// AirQualityRange returns the range of dates with air-quality data.
// A missing start defaults to DefaultAirQualityStart and a missing end to now.
func (p *Plant) AirQualityRange(now time.Time) (from, to time.Time) {
	from = DefaultAirQualityStart
	if p.AirMinDate != nil {
		from = *p.AirMinDate
	}
	to = now
	if p.AirMaxDate != nil {
		to = *p.AirMaxDate
	}
	return from, to
}

// ClampDate keeps d inside the plant's air-quality range, compared by UTC day.
func (p *Plant) ClampDate(d, now time.Time) time.Time {
	from, to := p.AirQualityRange(now)
	day := dayOf(d)
	if day.Before(dayOf(from)) {
		return from
	}
	if day.After(dayOf(to)) {
		return to
	}
	return d
}

// DateRange returns the earliest and latest of missing, or the defaults when
// nothing is missing.
func DateRange(missing []time.Time, defMin, defMax time.Time) (from, to time.Time) {
	if len(missing) == 0 {
		return defMin, defMax
	}
	from, to = missing[0], missing[0]
	for _, d := range missing[1:] {
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return from, to
}

// Reading is one hour of statistics for a plant. Wind speeds are in m/s,
// directions in meteorological degrees. Nil means the value was not recorded.
type Reading struct {
	PlantID           int64
	Time              time.Time
	WindSpeed10m      *float64
	WindSpeed100m     *float64
	WindDirection10m  *float64
	WindDirection100m *float64
	EuropeanAQI       *float64
	Temperature       *float64
	Precipitation     *float64
}

// Wind returns the 100 m wind speed and direction. Missing values count as 0.
func (r *Reading) Wind() (speed, direction float64) {
	return valueOrZero(r.WindSpeed100m), valueOrZero(r.WindDirection100m)
}

// AQI returns the European AQI, or 0 when it was not recorded.
func (r *Reading) AQI() float64 {
	return valueOrZero(r.EuropeanAQI)
}

// HourOf truncates t to the start of its UTC hour.
func HourOf(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// DateID formats t as the warehouse's yyyymmdd date key.
func DateID(t time.Time) int {
	u := t.UTC()
	return u.Year()*10000 + int(u.Month())*100 + u.Day()
}

// ParseDateID converts a yyyymmdd key to midnight UTC of that day.
func ParseDateID(id int) time.Time {
	return time.Date(id/10000, time.Month(id/100%100), id%100, 0, 0, 0, 0, time.UTC)
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
