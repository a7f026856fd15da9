package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/spade/model"
)

// FieldError reports a raw value that could not be coerced to the type its
// field declares.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: cannot coerce %v (%T): %v", e.Field, e.Value, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

type coerceFunc func(any) (any, error)

// coercions is the closed field-to-type table. Fields missing from it pass
// through Coerce unchanged; adding a typed field is a one-line edit here.
var coercions = map[string]coerceFunc{
	model.FieldNoradCatID: toIdentifier,

	model.FieldInclination:    toFloat,
	model.FieldRAOfAscNode:    toFloat,
	model.FieldEccentricity:   toFloat,
	model.FieldArgOfPerigee:   toFloat,
	model.FieldMeanAnomaly:    toFloat,
	model.FieldMeanMotion:     toFloat,
	model.FieldMeanMotionDot:  toFloat,
	model.FieldMeanMotionDDot: toFloat,
	model.FieldBStar:          toFloat,
	model.FieldSemimajorAxis:  toFloat,
	model.FieldPeriod:         toFloat,
	model.FieldApoapsis:       toFloat,
	model.FieldPeriapsis:      toFloat,
	model.FieldDryMass:        toFloat,
	model.FieldWetMass:        toFloat,
	model.FieldWidth:          toFloat,
	model.FieldHeight:         toFloat,
	model.FieldDepth:          toFloat,
	model.FieldDiameter:       toFloat,
	model.FieldSpan:           toFloat,
	model.FieldXSectMin:       toFloat,
	model.FieldXSectMax:       toFloat,
	model.FieldXSectAvg:       toFloat,

	model.FieldElementSetNum: toInt,
	model.FieldRevAtEpoch:    toInt,
	model.FieldEphemerisType: toInt,

	model.FieldEpoch: toTimestamp,

	model.FieldLaunchDate: toDate,
	model.FieldDecayDate:  toDate,
}

// Coerce converts raw values (strings from XML, native JSON scalars) into the
// Go types model.NewRecord expects. Nil and empty-string values become nil
// for every field. The first value that fails to parse fails the whole call;
// raw is never modified.
func Coerce(raw map[string]any) (map[string]any, error) {
	typed := make(map[string]any, len(raw))
	for key, value := range raw {
		if isEmpty(value) {
			typed[key] = nil
			continue
		}
		fn, ok := coercions[key]
		if !ok {
			typed[key] = value
			continue
		}
		v, err := fn(value)
		if err != nil {
			return nil, &FieldError{Field: key, Value: value, Err: err}
		}
		typed[key] = v
	}
	return typed, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case json.Number:
		return x == ""
	}
	return false
}

func toFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%v is not integral", x)
		}
		return int(x), nil
	case json.Number:
		n, err := strconv.Atoi(x.String())
		return n, err
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// toIdentifier keeps catalog numbers textual even when a JSON source sends
// them as numbers.
func toIdentifier(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		if _, err := strconv.ParseInt(x.String(), 10, 64); err != nil {
			return nil, err
		}
		return x.String(), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%v is not integral", x)
		}
		return strconv.FormatInt(int64(x), 10), nil
	case int:
		return strconv.Itoa(x), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// Layouts accepted for EPOCH. Values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

func toTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		var lastErr error
		for _, layout := range timestampLayouts {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

func toDate(v any) (any, error) {
	switch x := v.(type) {
	case model.Date:
		return x, nil
	case string:
		return model.ParseDate(strings.TrimSpace(x))
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}
