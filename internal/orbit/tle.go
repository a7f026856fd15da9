// Package orbit turns ingested mean elements back into two-line element sets
// and propagates them with SGP4, as a sanity check on ingested records.
package orbit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/spade/model"
)

var (
	// ErrIncompleteElements is returned when a record lacks an element needed for a TLE.
	ErrIncompleteElements = errors.New("record lacks mean elements")
	// ErrUnrepresentable is returned when a value does not fit its TLE column.
	ErrUnrepresentable = errors.New("value does not fit TLE format")
)

// FormatTLE renders the record's mean elements as the two 69-column lines of
// a TLE. Drag terms, element set and revolution numbers default to zero.
func FormatTLE(r model.Record) (line1, line2 string, err error) {
	if r.NoradID == nil || r.Epoch == nil || r.Inclination == nil || r.RAOfAscNode == nil ||
		r.Eccentricity == nil || r.ArgOfPerigee == nil || r.MeanAnomaly == nil || r.MeanMotion == nil {
		return "", "", fmt.Errorf("%w: %s", ErrIncompleteElements, r.InternationalDesignator)
	}

	satnum, err := strconv.Atoi(*r.NoradID)
	if err != nil || satnum < 0 || satnum > 99999 {
		return "", "", fmt.Errorf("%w: catalog number %q", ErrUnrepresentable, *r.NoradID)
	}
	class := "U"
	if r.Classification != nil && len(*r.Classification) == 1 {
		class = *r.Classification
	}

	ndot, err := firstDerivative(deref(r.MeanMotionDot))
	if err != nil {
		return "", "", err
	}
	nddot, err := exponential(deref(r.MeanMotionDDot))
	if err != nil {
		return "", "", fmt.Errorf("mean motion ddot: %w", err)
	}
	bstar, err := exponential(deref(r.BStar))
	if err != nil {
		return "", "", fmt.Errorf("bstar: %w", err)
	}
	ecc, err := eccentricity(*r.Eccentricity)
	if err != nil {
		return "", "", err
	}
	ephType := 0
	if r.EphemerisType != nil && *r.EphemerisType >= 0 && *r.EphemerisType <= 9 {
		ephType = *r.EphemerisType
	}
	setNum := 0
	if r.ElementSetNum != nil {
		setNum = *r.ElementSetNum % 10000
	}
	rev := 0
	if r.RevAtEpoch != nil {
		rev = *r.RevAtEpoch % 100000
	}

	line1 = fmt.Sprintf("1 %05d%s %-8s %s %s %s %s %d %4d",
		satnum, class, designator(r.InternationalDesignator), epochField(*r.Epoch),
		ndot, nddot, bstar, ephType, setNum)
	line2 = fmt.Sprintf("2 %05d %8.4f %8.4f %s %8.4f %8.4f %11.8f%5d",
		satnum, angle(*r.Inclination), angle(*r.RAOfAscNode), ecc,
		angle(*r.ArgOfPerigee), angle(*r.MeanAnomaly), *r.MeanMotion, rev)
	if len(line1) != 68 || len(line2) != 68 {
		return "", "", fmt.Errorf("%w: element out of column range for %s", ErrUnrepresentable, r.InternationalDesignator)
	}
	return line1 + checksum(line1), line2 + checksum(line2), nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// designator converts "1958-002B" to "58002B". Anything else is left blank.
func designator(id string) string {
	if len(id) < 9 || id[4] != '-' {
		return ""
	}
	out := id[2:4] + id[5:]
	if len(out) > 8 {
		return ""
	}
	return out
}

// epochField is YYDDD.DDDDDDDD in UTC.
func epochField(t time.Time) string {
	t = t.UTC()
	secs := float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(t.Nanosecond())/1e9
	day := float64(t.YearDay()) + secs/86400
	return fmt.Sprintf("%02d%012.8f", t.Year()%100, day)
}

// firstDerivative renders ±.NNNNNNNN.
func firstDerivative(v float64) (string, error) {
	s := fmt.Sprintf("%.8f", math.Abs(v))
	if !strings.HasPrefix(s, "0.") {
		return "", fmt.Errorf("%w: mean motion dot %v", ErrUnrepresentable, v)
	}
	sign := " "
	if v < 0 {
		sign = "-"
	}
	return sign + s[1:], nil
}

// exponential renders the assumed-decimal form ±NNNNN±E, e.g. " 22681-4"
// for 0.000022681.
func exponential(v float64) (string, error) {
	sign := " "
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v == 0 {
		return sign + "00000-0", nil
	}
	exp := int(math.Floor(math.Log10(v))) + 1
	mant := int(math.Round(v / math.Pow(10, float64(exp)) * 1e5))
	if mant >= 100000 {
		mant /= 10
		exp++
	}
	if exp < -9 {
		return sign + "00000-0", nil
	}
	if exp > 9 {
		return "", fmt.Errorf("%w: %v", ErrUnrepresentable, v)
	}
	expSign := "-"
	if exp >= 0 {
		expSign = "+"
	}
	if exp < 0 {
		exp = -exp
	}
	return fmt.Sprintf("%s%05d%s%d", sign, mant, expSign, exp), nil
}

// eccentricity renders the seven digits after an implied decimal point.
func eccentricity(e float64) (string, error) {
	s := fmt.Sprintf("%.7f", e)
	if e < 0 || !strings.HasPrefix(s, "0.") {
		return "", fmt.Errorf("%w: eccentricity %v", ErrUnrepresentable, e)
	}
	return s[2:], nil
}

// angle folds degrees into [0, 360).
func angle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// checksum is the modulo-10 sum of digits, counting '-' as 1.
func checksum(line string) string {
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return strconv.Itoa(sum % 10)
}
