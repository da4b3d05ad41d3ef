package handler

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/plumewatch/plumewatch/internal/api/models"
	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/plume"
	"github.com/plumewatch/plumewatch/pkg/geoproj"
)

// overlayOpacity is the fill opacity of every arc in the map overlay.
const overlayOpacity = 0.3

func toPlume(p *plume.Plume) models.Plume {
	out := models.Plume{
		Status:      string(p.Status),
		Arcs:        make([]models.Arc, len(p.Arcs)),
		RenderOrder: make([]int, 0, len(p.Arcs)),
	}
	for i, a := range p.Arcs {
		boundary := make([][2]float64, len(a.Boundary))
		for j, pt := range a.Boundary {
			boundary[j] = [2]float64{pt.Lat, pt.Lon}
		}
		out.Arcs[i] = models.Arc{
			Index:          a.Index,
			EstimatedAQI:   a.EstimatedAQI,
			DistanceRatio:  a.DistanceRatio,
			DistanceMeters: a.DistanceMeters,
			WidthMeters:    a.WidthMeters,
			Color:          string(a.Color),
			Band:           a.Band,
			Boundary:       boundary,
			Polyline:       geoproj.EncodePolyline(a.Boundary),
		}
	}
	for _, a := range p.RenderOrder() {
		out.RenderOrder = append(out.RenderOrder, a.Index)
	}
	return out
}

func toInputs(req plume.Request) models.PlumeInputs {
	return models.PlumeInputs{
		Source:      models.LatLon{Lat: req.Source.Lat, Lon: req.Source.Lon},
		Wind:        models.WindInput{Speed: req.Wind.Speed, Direction: req.Wind.Direction},
		Stability:   string(req.Stability),
		BaselineAQI: req.BaselineAQI,
		ArcCount:    req.ArcCount,
	}
}

func toPlant(p *plant.Plant, now time.Time) models.Plant {
	from, to := p.AirQualityRange(now)
	out := models.Plant{
		ID:              p.ID,
		Name:            p.Name,
		Location:        models.LatLon{Lat: p.Lat, Lon: p.Lon},
		AirQualityRange: models.DateRange{From: models.Date(from), To: models.Date(to)},
	}
	if p.WeatherMinDate != nil && p.WeatherMaxDate != nil {
		out.WeatherRange = &models.DateRange{From: models.Date(*p.WeatherMinDate), To: models.Date(*p.WeatherMaxDate)}
	}
	return out
}

func toReading(r *plant.Reading) models.Reading {
	return models.Reading{
		Time:              models.Timestamp(r.Time),
		WindSpeed10m:      r.WindSpeed10m,
		WindSpeed100m:     r.WindSpeed100m,
		WindDirection10m:  r.WindDirection10m,
		WindDirection100m: r.WindDirection100m,
		EuropeanAQI:       r.EuropeanAQI,
		Temperature:       r.Temperature,
		Precipitation:     r.Precipitation,
	}
}

// toAttribution resolves record colors through the colored plume, which
// holds the same arcs by index.
func toAttribution(pp *plume.PlantPlume) []models.Attribution {
	if pp.Attribution == nil {
		return nil
	}
	colors := make(map[int]string, len(pp.Plume.Arcs))
	for _, a := range pp.Plume.Arcs {
		colors[a.Index] = string(a.Color)
	}

	source := geoproj.LatLon{Lat: pp.Plant.Lat, Lon: pp.Plant.Lon}
	out := make([]models.Attribution, 0, len(pp.Attribution.Records))
	for _, rec := range pp.Attribution.Records {
		out = append(out, models.Attribution{
			ArcIndex:       rec.Arc.Index,
			EstimatedAQI:   rec.Arc.EstimatedAQI,
			Color:          colors[rec.Arc.Index],
			LocationID:     rec.Location.ID,
			LocationName:   rec.Location.Name,
			Location:       models.LatLon{Lat: rec.Location.Point.Lat, Lon: rec.Location.Point.Lon},
			DistanceMeters: geoproj.HaversineDistance(source, rec.Location.Point),
		})
	}
	return out
}

// toOverlay renders the plume as a GeoJSON FeatureCollection, far arcs first
// so near arcs are drawn on top. Properties follow the simplestyle names map
// clients understand.
func toOverlay(p *plume.Plume) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{"status": string(p.Status)}

	for _, a := range p.RenderOrder() {
		ring := make(orb.Ring, len(a.Boundary))
		for i, pt := range a.Boundary {
			ring[i] = orb.Point{pt.Lon, pt.Lat}
		}

		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = a.Index
		f.Properties["index"] = a.Index
		f.Properties["estimatedAqi"] = a.EstimatedAQI
		f.Properties["band"] = a.Band
		f.Properties["fill"] = string(a.Color)
		f.Properties["stroke"] = string(a.Color)
		f.Properties["fill-opacity"] = overlayOpacity
		fc.Append(f)
	}
	return fc
}
