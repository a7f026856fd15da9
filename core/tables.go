package core

import "github.com/signalsfoundry/spade/model"

// Provenance tags.
const (
	SourceSpaceTrack = "space-track"
	SourceDiscos     = "discos"
)

// SpaceTrackOMM maps a Space-Track OMM XML document (gp class, format/xml).
var SpaceTrackOMM = XMLMapping{
	Source:   SourceSpaceTrack,
	ItemPath: "./omm/body/segment",
	Direct: map[string]string{
		model.FieldSatelliteName:           "./metadata/OBJECT_NAME",
		model.FieldInternationalDesignator: "./metadata/OBJECT_ID",
		model.FieldCenterName:              "./metadata/CENTER_NAME",
		model.FieldTimeSystem:              "./metadata/TIME_SYSTEM",
		model.FieldMeanElementTheory:       "./metadata/MEAN_ELEMENT_THEORY",
		model.FieldEpoch:                   "./data/meanElements/EPOCH",
		model.FieldMeanMotion:              "./data/meanElements/MEAN_MOTION",
		model.FieldEccentricity:            "./data/meanElements/ECCENTRICITY",
		model.FieldInclination:             "./data/meanElements/INCLINATION",
		model.FieldRAOfAscNode:             "./data/meanElements/RA_OF_ASC_NODE",
		model.FieldArgOfPerigee:            "./data/meanElements/ARG_OF_PERICENTER",
		model.FieldMeanAnomaly:             "./data/meanElements/MEAN_ANOMALY",
		model.FieldEphemerisType:           "./data/tleParameters/EPHEMERIS_TYPE",
		model.FieldClassification:          "./data/tleParameters/CLASSIFICATION_TYPE",
		model.FieldNoradCatID:              "./data/tleParameters/NORAD_CAT_ID",
		model.FieldElementSetNum:           "./data/tleParameters/ELEMENT_SET_NO",
		model.FieldRevAtEpoch:              "./data/tleParameters/REV_AT_EPOCH",
		model.FieldBStar:                   "./data/tleParameters/BSTAR",
		model.FieldMeanMotionDot:           "./data/tleParameters/MEAN_MOTION_DOT",
		model.FieldMeanMotionDDot:          "./data/tleParameters/MEAN_MOTION_DDOT",
	},
	KeyedPath: "./data/userDefinedParameters",
	Keyed: map[string]string{
		"SEMIMAJOR_AXIS": model.FieldSemimajorAxis,
		"PERIOD":         model.FieldPeriod,
		"APOAPSIS":       model.FieldApoapsis,
		"PERIAPSIS":      model.FieldPeriapsis,
		"OBJECT_TYPE":    model.FieldObjectType,
		"RCS_SIZE":       model.FieldRCSSize,
		"COUNTRY_CODE":   model.FieldCountryCode,
		"LAUNCH_DATE":    model.FieldLaunchDate,
		"SITE":           model.FieldSite,
		"DECAY_DATE":     model.FieldDecayDate,
	},
}

// DiscosObjects maps the DISCOSweb /api/objects list.
var DiscosObjects = JSONMapping{
	Source: SourceDiscos,
	Attributes: map[string]string{
		model.FieldSatelliteName:           "name",
		model.FieldInternationalDesignator: "cosparId",
		model.FieldNoradCatID:              "satno",
		model.FieldObjectType:              "objectClass",
		model.FieldDryMass:                 "mass",
		model.FieldShape:                   "shape",
		model.FieldWidth:                   "width",
		model.FieldHeight:                  "height",
		model.FieldDepth:                   "depth",
		model.FieldDiameter:                "diameter",
		model.FieldSpan:                    "span",
		model.FieldXSectMax:                "xSectMax",
		model.FieldXSectMin:                "xSectMin",
		model.FieldXSectAvg:                "xSectAvg",
		model.FieldMissionDesc:             "mission",
	},
}
