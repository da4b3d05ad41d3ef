package models

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Plant is a thermal power plant.
type Plant struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Location        LatLon     `json:"location"`
	WeatherRange    *DateRange `json:"weatherRange,omitempty"`
	AirQualityRange DateRange  `json:"airQualityRange"`
}

// PlantList is the body of GET /v1/plants.
type PlantList struct {
	Items []Plant `json:"items"`
}

// Reading is the hourly observation a plant plume is driven by.
type Reading struct {
	Time              Timestamp `json:"time"`
	WindSpeed10m      *float64  `json:"windSpeed10m,omitempty"`
	WindSpeed100m     *float64  `json:"windSpeed100m,omitempty"`
	WindDirection10m  *float64  `json:"windDirection10m,omitempty"`
	WindDirection100m *float64  `json:"windDirection100m,omitempty"`
	EuropeanAQI       *float64  `json:"europeanAqi,omitempty"`
	Temperature       *float64  `json:"temperature,omitempty"`
	Precipitation     *float64  `json:"precipitation,omitempty"`
}
