package models

import (
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// WGS84 is the spatial reference used for every stored point.
const WGS84 = 4326

// Point is a WGS84 position. GeoJSON orders coordinates [lon, lat].
type Point struct {
	Longitude float64
	Latitude  float64
}

// Neo4j converts the point for storage as a Neo4j spatial property.
func (p Point) Neo4j() dbtype.Point2D {
	return dbtype.Point2D{X: p.Longitude, Y: p.Latitude, SpatialRefId: WGS84}
}

// PointFromNeo4j reads a point property written by Point.Neo4j.
// A nil value yields a nil point.
func PointFromNeo4j(value interface{}) (*Point, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case dbtype.Point2D:
		if v.SpatialRefId != WGS84 {
			return nil, fmt.Errorf("expected SRID %d, got %d", WGS84, v.SpatialRefId)
		}
		return &Point{Longitude: v.X, Latitude: v.Y}, nil
	default:
		return nil, fmt.Errorf("failed to read point: expected Point2D, got %T", value)
	}
}

// MarshalJSON implements json.Marshaler for API responses.
func (p Point) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: [2]float64{p.Longitude, p.Latitude},
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for GeoJSON input.
func (p *Point) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}
	if len(geom.Coordinates) < 2 {
		return fmt.Errorf("point needs two coordinates, got %d", len(geom.Coordinates))
	}

	p.Longitude = geom.Coordinates[0]
	p.Latitude = geom.Coordinates[1]
	return nil
}

// Point returns the address coordinates, or nil when either is unset.
func (a Address) Point() *Point {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	return &Point{Longitude: *a.Longitude, Latitude: *a.Latitude}
}

// Feature is a GeoJSON feature with a point geometry.
type Feature struct {
	ID         string
	Geometry   Point
	Properties map[string]interface{}
}

// MarshalJSON implements json.Marshaler.
func (f Feature) MarshalJSON() ([]byte, error) {
	props := f.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	return json.Marshal(struct {
		Type       string                 `json:"type"`
		ID         string                 `json:"id,omitempty"`
		Geometry   Point                  `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}{Type: "Feature", ID: f.ID, Geometry: f.Geometry, Properties: props})
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Features []Feature
}

// MarshalJSON implements json.Marshaler.
func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	features := fc.Features
	if features == nil {
		features = []Feature{}
	}
	return json.Marshal(struct {
		Type     string    `json:"type"`
		Features []Feature `json:"features"`
	}{Type: "FeatureCollection", Features: features})
}

// FeatureCollection maps every located property to a feature. Properties
// without coordinates are skipped.
func (p Portfolio) FeatureCollection() FeatureCollection {
	features := make([]Feature, 0, len(p.Properties))
	for _, prop := range p.Properties {
		pt := prop.Address.Point()
		if pt == nil {
			continue
		}
		props := map[string]interface{}{"portfolio_id": p.ID}
		for key, value := range map[string]*string{
			"name":              prop.Address.Name,
			"formatted_address": prop.Address.FormattedAddress,
			"h3_cell":           prop.Address.H3Cell(),
		} {
			if value != nil {
				props[key] = *value
			}
		}
		features = append(features, Feature{ID: prop.ID, Geometry: *pt, Properties: props})
	}
	return FeatureCollection{Features: features}
}
