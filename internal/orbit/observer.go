package orbit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"
)

// EarthRadiusKm is the mean Earth radius used for observer geometry.
const EarthRadiusKm = 6371.0

// Observer is a ground site on a spherical Earth.
type Observer struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees
	Altitude  float64 // km above the sphere
}

// ParseObserver reads "lat,lon" or "lat,lon,altKm".
func ParseObserver(s string) (Observer, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Observer{}, fmt.Errorf("observer %q: want lat,lon[,alt_km]", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Observer{}, fmt.Errorf("observer %q: %w", s, err)
		}
		vals[i] = v
	}
	o := Observer{Latitude: vals[0], Longitude: vals[1], Altitude: vals[2]}
	if math.Abs(o.Latitude) > 90 || math.Abs(o.Longitude) > 180 {
		return Observer{}, fmt.Errorf("observer %q: latitude or longitude out of range", s)
	}
	return o, nil
}

// ECEF returns the observer position in kilometres.
func (o Observer) ECEF() satellite.Vector3 {
	lat := o.Latitude * math.Pi / 180
	lon := o.Longitude * math.Pi / 180
	r := EarthRadiusKm + o.Altitude
	return satellite.Vector3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// Look returns the elevation in degrees and slant range in km of st as seen
// from o. visible is false when the Earth blocks the line of sight or the
// target is below the horizon.
func (o Observer) Look(st State) (elevation, rangeKm float64, visible bool) {
	obs := o.ECEF()
	elevation = elevationDegrees(obs, st.ECEF)
	rangeKm = norm(sub(st.ECEF, obs))
	return elevation, rangeKm, elevation > 0 && hasLineOfSight(obs, st.ECEF)
}

func sub(a, b satellite.Vector3) satellite.Vector3 {
	return satellite.Vector3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b satellite.Vector3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func norm(v satellite.Vector3) float64 { return math.Sqrt(dot(v, v)) }

// hasLineOfSight reports whether the segment p1-p2 stays outside the Earth
// sphere.
func hasLineOfSight(p1, p2 satellite.Vector3) bool {
	v := sub(p2, p1)
	a := dot(v, v)
	if a == 0 {
		return dot(p1, p1) > EarthRadiusKm*EarthRadiusKm
	}

	// Closest point on the segment to the Earth's centre.
	t := -dot(p1, v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := satellite.Vector3{X: p1.X + v.X*t, Y: p1.Y + v.Y*t, Z: p1.Z + v.Z*t}

	// A ground observer sits on the sphere, so allow a small tolerance.
	return dot(closest, closest) >= EarthRadiusKm*EarthRadiusKm-1e-6
}

// elevationDegrees is the angle of target above the observer's local
// horizon. 90 is overhead.
func elevationDegrees(observer, target satellite.Vector3) float64 {
	v := sub(target, observer)
	vNorm := norm(v)
	r := norm(observer)
	if vNorm == 0 || r == 0 {
		return 90
	}

	cosGamma := dot(v, observer) / (vNorm * r)
	cosGamma = math.Max(-1, math.Min(1, cosGamma))
	return 90.0 - math.Acos(cosGamma)*180.0/math.Pi
}
