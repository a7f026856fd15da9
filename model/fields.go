package model

import (
	"fmt"
	"time"
)

// Raw field names shared by the mapping tables, the coercion table and
// NewRecord.
const (
	FieldSatelliteName           = "SATELLITE_NAME"
	FieldInternationalDesignator = "INTERNATIONAL_DESIGNATOR"
	FieldNoradCatID              = "NORAD_CAT_ID"

	FieldEpoch          = "EPOCH"
	FieldInclination    = "INCLINATION"
	FieldRAOfAscNode    = "RA_OF_ASC_NODE"
	FieldEccentricity   = "ECCENTRICITY"
	FieldArgOfPerigee   = "ARG_OF_PERIGEE"
	FieldMeanAnomaly    = "MEAN_ANOMALY"
	FieldMeanMotion     = "MEAN_MOTION"
	FieldMeanMotionDot  = "MEAN_MOTION_DOT"
	FieldMeanMotionDDot = "MEAN_MOTION_DDOT"
	FieldBStar          = "B_STAR"
	FieldElementSetNum  = "ELEMENT_SET_NUM"
	FieldRevAtEpoch     = "REV_AT_EPOCH"
	FieldEphemerisType  = "EPHEMERIS_TYPE"
	FieldClassification = "CLASSIFICATION"

	FieldCenterName        = "CENTER_NAME"
	FieldTimeSystem        = "TIME_SYSTEM"
	FieldMeanElementTheory = "MEAN_ELEMENT_THEORY"
	FieldSemimajorAxis     = "SEMIMAJOR_AXIS"
	FieldPeriod            = "PERIOD"
	FieldApoapsis          = "APOAPSIS"
	FieldPeriapsis         = "PERIAPSIS"

	FieldObjectType  = "OBJECT_TYPE"
	FieldRCSSize     = "RCS_SIZE"
	FieldCountryCode = "COUNTRY_CODE"
	FieldLaunchDate  = "LAUNCH_DATE"
	FieldSite        = "SITE"
	FieldDecayDate   = "DECAY_DATE"

	FieldDryMass     = "DRY_MASS"
	FieldWetMass     = "WET_MASS"
	FieldShape       = "SHAPE"
	FieldWidth       = "WIDTH"
	FieldHeight      = "HEIGHT"
	FieldDepth       = "DEPTH"
	FieldDiameter    = "DIAMETER"
	FieldSpan        = "SPAN"
	FieldXSectMin    = "X_SECT_MIN"
	FieldXSectMax    = "X_SECT_MAX"
	FieldXSectAvg    = "X_SECT_AVG"
	FieldMissionDesc = "MISSION_DESC"

	FieldSources = "SOURCES"
)

type setter func(*Record, any) error

var setters = map[string]setter{
	FieldSatelliteName: setString(func(r *Record, v *string) { r.Name = v }),
	FieldInternationalDesignator: func(r *Record, v any) error {
		s, ok := v.(string)
		if !ok {
			return typeError("string", v)
		}
		r.InternationalDesignator = s
		return nil
	},
	FieldNoradCatID: setString(func(r *Record, v *string) { r.NoradID = v }),

	FieldEpoch: func(r *Record, v any) error {
		t, ok := v.(time.Time)
		if !ok {
			return typeError("time.Time", v)
		}
		r.Epoch = &t
		return nil
	},
	FieldInclination:    setFloat(func(r *Record, v *float64) { r.Inclination = v }),
	FieldRAOfAscNode:    setFloat(func(r *Record, v *float64) { r.RAOfAscNode = v }),
	FieldEccentricity:   setFloat(func(r *Record, v *float64) { r.Eccentricity = v }),
	FieldArgOfPerigee:   setFloat(func(r *Record, v *float64) { r.ArgOfPerigee = v }),
	FieldMeanAnomaly:    setFloat(func(r *Record, v *float64) { r.MeanAnomaly = v }),
	FieldMeanMotion:     setFloat(func(r *Record, v *float64) { r.MeanMotion = v }),
	FieldMeanMotionDot:  setFloat(func(r *Record, v *float64) { r.MeanMotionDot = v }),
	FieldMeanMotionDDot: setFloat(func(r *Record, v *float64) { r.MeanMotionDDot = v }),
	FieldBStar:          setFloat(func(r *Record, v *float64) { r.BStar = v }),
	FieldElementSetNum:  setInt(func(r *Record, v *int) { r.ElementSetNum = v }),
	FieldRevAtEpoch:     setInt(func(r *Record, v *int) { r.RevAtEpoch = v }),
	FieldEphemerisType:  setInt(func(r *Record, v *int) { r.EphemerisType = v }),
	FieldClassification: setString(func(r *Record, v *string) { r.Classification = v }),

	FieldCenterName:        setString(func(r *Record, v *string) { r.CenterName = v }),
	FieldTimeSystem:        setString(func(r *Record, v *string) { r.TimeSystem = v }),
	FieldMeanElementTheory: setString(func(r *Record, v *string) { r.MeanElementTheory = v }),
	FieldSemimajorAxis:     setFloat(func(r *Record, v *float64) { r.SemimajorAxis = v }),
	FieldPeriod:            setFloat(func(r *Record, v *float64) { r.Period = v }),
	FieldApoapsis:          setFloat(func(r *Record, v *float64) { r.Apoapsis = v }),
	FieldPeriapsis:         setFloat(func(r *Record, v *float64) { r.Periapsis = v }),

	FieldObjectType:  setString(func(r *Record, v *string) { r.ObjectType = v }),
	FieldRCSSize:     setString(func(r *Record, v *string) { r.RCSSize = v }),
	FieldCountryCode: setString(func(r *Record, v *string) { r.CountryCode = v }),
	FieldLaunchDate:  setDate(func(r *Record, v *Date) { r.LaunchDate = v }),
	FieldSite:        setString(func(r *Record, v *string) { r.Site = v }),
	FieldDecayDate:   setDate(func(r *Record, v *Date) { r.DecayDate = v }),

	FieldDryMass:     setFloat(func(r *Record, v *float64) { r.DryMass = v }),
	FieldWetMass:     setFloat(func(r *Record, v *float64) { r.WetMass = v }),
	FieldShape:       setString(func(r *Record, v *string) { r.Shape = v }),
	FieldWidth:       setFloat(func(r *Record, v *float64) { r.Width = v }),
	FieldHeight:      setFloat(func(r *Record, v *float64) { r.Height = v }),
	FieldDepth:       setFloat(func(r *Record, v *float64) { r.Depth = v }),
	FieldDiameter:    setFloat(func(r *Record, v *float64) { r.Diameter = v }),
	FieldSpan:        setFloat(func(r *Record, v *float64) { r.Span = v }),
	FieldXSectMin:    setFloat(func(r *Record, v *float64) { r.XSectMin = v }),
	FieldXSectMax:    setFloat(func(r *Record, v *float64) { r.XSectMax = v }),
	FieldXSectAvg:    setFloat(func(r *Record, v *float64) { r.XSectAvg = v }),
	FieldMissionDesc: setString(func(r *Record, v *string) { r.MissionDesc = v }),

	FieldSources: func(r *Record, v any) error {
		tags, ok := v.([]string)
		if !ok {
			return typeError("[]string", v)
		}
		r.Sources = append([]string{}, tags...)
		return nil
	},
}

// IsField reports whether name is a field NewRecord accepts.
func IsField(name string) bool {
	_, ok := setters[name]
	return ok
}

func setString(assign func(*Record, *string)) setter {
	return func(r *Record, v any) error {
		s, ok := v.(string)
		if !ok {
			return typeError("string", v)
		}
		assign(r, &s)
		return nil
	}
}

func setFloat(assign func(*Record, *float64)) setter {
	return func(r *Record, v any) error {
		f, ok := v.(float64)
		if !ok {
			return typeError("float64", v)
		}
		assign(r, &f)
		return nil
	}
}

func setInt(assign func(*Record, *int)) setter {
	return func(r *Record, v any) error {
		i, ok := v.(int)
		if !ok {
			return typeError("int", v)
		}
		assign(r, &i)
		return nil
	}
}

func setDate(assign func(*Record, *Date)) setter {
	return func(r *Record, v any) error {
		d, ok := v.(Date)
		if !ok {
			return typeError("model.Date", v)
		}
		assign(r, &d)
		return nil
	}
}

func typeError(want string, got any) error {
	return fmt.Errorf("expected %s, got %T", want, got)
}
