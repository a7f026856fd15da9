package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecordRequiresDesignator(t *testing.T) {
	_, err := NewRecord(map[string]any{FieldSatelliteName: "VANGUARD 1"})
	if !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("NewRecord without designator: err = %v, want ErrMissingIdentity", err)
	}

	_, err = NewRecord(map[string]any{FieldInternationalDesignator: ""})
	if !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("NewRecord with empty designator: err = %v, want ErrMissingIdentity", err)
	}
}

func TestNewRecordAssignsTypedFields(t *testing.T) {
	epoch := time.Date(2025, 6, 8, 15, 45, 48, 574080000, time.UTC)
	rec, err := NewRecord(map[string]any{
		FieldInternationalDesignator: "1958-002B",
		FieldNoradCatID:              "5",
		FieldEpoch:                   epoch,
		FieldInclination:             34.2624,
		FieldElementSetNum:           999,
		FieldLaunchDate:              Date{Year: 1958, Month: time.March, Day: 17},
		FieldDecayDate:               nil,
	})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if rec.InternationalDesignator != "1958-002B" {
		t.Errorf("designator = %q", rec.InternationalDesignator)
	}
	if rec.NoradID == nil || *rec.NoradID != "5" {
		t.Errorf("NoradID = %v, want 5", rec.NoradID)
	}
	if rec.Epoch == nil || !rec.Epoch.Equal(epoch) {
		t.Errorf("Epoch = %v, want %v", rec.Epoch, epoch)
	}
	if rec.Inclination == nil || *rec.Inclination != 34.2624 {
		t.Errorf("Inclination = %v", rec.Inclination)
	}
	if rec.ElementSetNum == nil || *rec.ElementSetNum != 999 {
		t.Errorf("ElementSetNum = %v", rec.ElementSetNum)
	}
	if rec.LaunchDate == nil || rec.LaunchDate.String() != "1958-03-17" {
		t.Errorf("LaunchDate = %v", rec.LaunchDate)
	}
	if rec.DecayDate != nil {
		t.Errorf("DecayDate = %v, want nil", rec.DecayDate)
	}
	if rec.MeanMotion != nil {
		t.Errorf("MeanMotion = %v, want nil", rec.MeanMotion)
	}
	if rec.Sources == nil || len(rec.Sources) != 0 {
		t.Errorf("Sources = %#v, want empty non-nil slice", rec.Sources)
	}
}

func TestNewRecordRejectsMistypedAndUnknownFields(t *testing.T) {
	cases := map[string]map[string]any{
		"string in float field": {
			FieldInternationalDesignator: "1958-002B",
			FieldInclination:             "34.2624",
		},
		"float in int field": {
			FieldInternationalDesignator: "1958-002B",
			FieldRevAtEpoch:              40267.0,
		},
		"unknown field": {
			FieldInternationalDesignator: "1958-002B",
			"ORBIT_COLOUR":               "blue",
		},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			if rec, err := NewRecord(fields); err == nil {
				t.Fatalf("expected error, got record %+v", rec)
			}
		})
	}
}

func TestWithSourceDoesNotAlias(t *testing.T) {
	base, err := NewRecord(map[string]any{FieldInternationalDesignator: "1958-002B"})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	a := base.WithSource("space-track")
	b := a.WithSource("discos")

	if len(base.Sources) != 0 {
		t.Fatalf("base Sources mutated: %v", base.Sources)
	}
	if len(a.Sources) != 1 || a.Sources[0] != "space-track" {
		t.Fatalf("a.Sources = %v", a.Sources)
	}
	if len(b.Sources) != 2 || b.Sources[1] != "discos" {
		t.Fatalf("b.Sources = %v", b.Sources)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1958-03-17")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != (Date{Year: 1958, Month: time.March, Day: 17}) {
		t.Fatalf("ParseDate = %+v", d)
	}
	if _, err := ParseDate("17/03/1958"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}
