// Package tracking decides which GPS fixes reported for a lorry are worth
// keeping and computes the distance and heading between them.
package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const earthRadiusM = 6371000

// Movement thresholds for Classify.
const (
	MinDistanceM     = 5.0
	MinInterval      = 10 * time.Second
	PeriodicInterval = 60 * time.Second
	MovingSpeed      = 0.5 // m/s
	StoppedSpeed     = 1.0 // m/s
)

type Event string

const (
	EventInitial       Event = "initial"
	EventMove          Event = "move"
	EventStopped       Event = "stopped"
	EventStarted       Event = "started"
	EventPeriodic      Event = "periodic"
	EventInsignificant Event = "insignificant"
)

var ErrOutOfRange = errors.New("coordinates out of range")

// Fix is one position report from a device on the lorry.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Speed     float64   `json:"speed"`
	Altitude  float64   `json:"altitude"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts RFC 3339 timestamps with or without a zone suffix;
// zoneless values are read as UTC. A missing timestamp is left zero.
func (f *Fix) UnmarshalJSON(data []byte) error {
	type alias Fix
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		return nil
	}
	ts := aux.Timestamp
	if !hasZone(ts) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	f.Timestamp = t
	return nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") || strings.HasSuffix(ts, "z") {
		return true
	}
	if len(ts) < 6 {
		return false
	}
	return strings.ContainsAny(ts[len(ts)-6:], "+-")
}

// Validate checks the coordinates and clamps a negative speed to zero.
func (f *Fix) Validate() error {
	if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("%w: %v,%v", ErrOutOfRange, f.Latitude, f.Longitude)
	}
	if f.Speed < 0 {
		f.Speed = 0
	}
	return nil
}

// Last is the most recently stored position of a lorry.
type Last struct {
	Latitude  float64
	Longitude float64
	IsMoving  bool
	Timestamp time.Time
}

// Decision is the outcome of comparing a new fix against the last stored one.
type Decision struct {
	Save     bool
	Event    Event
	Distance float64
	Bearing  float64
	IsMoving bool
}

// Classify decides whether fix should be stored. last is nil when the lorry
// has no stored position yet.
func Classify(last *Last, fix Fix) Decision {
	d := Decision{IsMoving: fix.Speed >= MovingSpeed}
	if last == nil {
		d.Save, d.Event = true, EventInitial
		return d
	}

	d.Distance = Distance(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
	d.Bearing = Bearing(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
	elapsed := fix.Timestamp.Sub(last.Timestamp)

	switch {
	case d.Distance >= MinDistanceM:
		d.Event = EventMove
	case last.IsMoving && fix.Speed < StoppedSpeed && elapsed >= MinInterval:
		d.Event = EventStopped
	case !last.IsMoving && fix.Speed >= MovingSpeed && elapsed >= MinInterval:
		d.Event = EventStarted
	case elapsed >= PeriodicInterval:
		d.Event = EventPeriodic
	default:
		d.Event = EventInsignificant
		return d
	}
	d.Save = true
	return d
}

// Distance returns the great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bearing returns the initial heading from the first point to the second,
// in degrees clockwise from north.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := radians(lat1), radians(lat2)
	Δλ := radians(lon2 - lon1)
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
