// Package geo converts farm locations between the GeoJSON the API speaks and
// the WKB stored on farmer rows.
package geo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

var ErrNotPoint = errors.New("location must be a GeoJSON Point")

// PointToWKB parses a GeoJSON Point into WKB bytes. Empty input yields nil.
func PointToWKB(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, ErrNotPoint
	}
	if lng, lat := p.X(), p.Y(); lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", lng, lat)
	}
	return wkb.Marshal(p, binary.LittleEndian)
}

// FromLatLng builds WKB for a point given as latitude/longitude.
func FromLatLng(lat, lng float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
	return wkb.Marshal(p, binary.LittleEndian)
}

// WKBToGeoJSON converts stored WKB back into GeoJSON. Empty input yields nil.
func WKBToGeoJSON(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	return gjson.Marshal(g)
}
