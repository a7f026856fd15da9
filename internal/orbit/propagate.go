package orbit

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/spade/model"
)

// State is a propagated position. Distances are kilometres.
type State struct {
	Time      time.Time
	ECI       satellite.Vector3
	ECEF      satellite.Vector3
	Latitude  float64 // degrees
	Longitude float64 // degrees
	Altitude  float64
	Speed     float64 // km/s, inertial
}

// Propagator runs SGP4 for one record.
type Propagator struct {
	Line1, Line2 string
	sat          satellite.Satellite
}

// NewPropagator formats the record as a TLE and initialises SGP4 from it.
func NewPropagator(r model.Record) (*Propagator, error) {
	line1, line2, err := FormatTLE(r)
	if err != nil {
		return nil, err
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init for %s: %s", r.InternationalDesignator, sat.ErrorStr)
	}
	return &Propagator{Line1: line1, Line2: line2, sat: sat}, nil
}

// At propagates to t, at one second resolution.
func (p *Propagator) At(t time.Time) (State, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, velECI := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	if !finite(posECI) || !finite(velECI) || (posECI.X == 0 && posECI.Y == 0 && posECI.Z == 0) {
		return State{}, fmt.Errorf("sgp4 produced no position at %s", t.Format(time.RFC3339))
	}

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	alt, _, ll := satellite.ECIToLLA(posECI, gmst)
	deg := satellite.LatLongDeg(ll)

	return State{
		Time:      t.Truncate(time.Second),
		ECI:       posECI,
		ECEF:      satellite.ECIToECEF(posECI, gmst),
		Latitude:  deg.Latitude,
		Longitude: deg.Longitude,
		Altitude:  alt,
		Speed:     math.Sqrt(velECI.X*velECI.X + velECI.Y*velECI.Y + velECI.Z*velECI.Z),
	}, nil
}

func finite(v satellite.Vector3) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
