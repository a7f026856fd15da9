package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingIdentity is returned when a record has no international designator.
var ErrMissingIdentity = errors.New("record: international designator is required")

// Record is the unified satellite record. Every source maps into this shape.
// Apart from InternationalDesignator all fields are optional; a record built
// from a single source usually has most of them nil.
//
// Records are values: nothing in the pipeline mutates a Record after
// NewRecord returns it.
type Record struct {
	// Identity
	InternationalDesignator string
	NoradID                 *string
	Name                    *string

	// Orbital elements (TLE/OMM)
	Epoch          *time.Time
	Inclination    *float64
	RAOfAscNode    *float64 // right ascension of the ascending node
	Eccentricity   *float64
	ArgOfPerigee   *float64
	MeanAnomaly    *float64
	MeanMotion     *float64 // revolutions per day
	MeanMotionDot  *float64
	MeanMotionDDot *float64
	BStar          *float64
	ElementSetNum  *int
	RevAtEpoch     *int
	EphemerisType  *int    // conventionally 0
	Classification *string // U, C or S

	// Derived orbital metadata
	CenterName        *string
	TimeSystem        *string
	MeanElementTheory *string
	SemimajorAxis     *float64 // km
	Period            *float64 // minutes
	Apoapsis          *float64 // km altitude
	Periapsis         *float64 // km altitude

	// Catalog metadata
	ObjectType  *string
	RCSSize     *string // SMALL, MEDIUM or LARGE
	CountryCode *string
	LaunchDate  *Date
	Site        *string
	DecayDate   *Date

	// Physical characteristics
	DryMass     *float64 // kg
	WetMass     *float64 // kg
	Shape       *string
	Width       *float64
	Height      *float64
	Depth       *float64
	Diameter    *float64
	Span        *float64
	XSectMin    *float64
	XSectMax    *float64
	XSectAvg    *float64
	MissionDesc *string

	// Sources lists the tags of the providers that contributed to the record.
	Sources []string
}

// NewRecord builds a Record from a typed field dictionary keyed by the
// Field* names. Values must already carry their declared Go type (see
// core.Coerce); a nil value leaves the field unset. Unknown keys and
// mistyped values reject the whole record.
func NewRecord(fields map[string]any) (*Record, error) {
	rec := &Record{Sources: []string{}}
	for key, value := range fields {
		if value == nil {
			continue
		}
		set, ok := setters[key]
		if !ok {
			return nil, fmt.Errorf("record: unknown field %q", key)
		}
		if err := set(rec, value); err != nil {
			return nil, fmt.Errorf("record: field %s: %w", key, err)
		}
	}
	if rec.InternationalDesignator == "" {
		return nil, ErrMissingIdentity
	}
	return rec, nil
}

// WithSource returns a copy of r with tag appended to Sources.
func (r Record) WithSource(tag string) Record {
	sources := make([]string, 0, len(r.Sources)+1)
	sources = append(sources, r.Sources...)
	r.Sources = append(sources, tag)
	return r
}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
