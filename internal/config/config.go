// Package config holds the immutable evaluation configuration: the
// required field schema, constraint tables, fusion weights, and task
// definitions. A loaded Config is a snapshot; content hashes over it are
// recorded in every trace so records stay attributable to the exact
// tables that produced them.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gurenolun/fly-eval/internal/domain"
)

// Limit is an inclusive [Min, Max] range for one field.
type Limit struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// CrossFieldConfig bounds the consistency checks between related fields.
// Each check has a warning bound and a critical bound; the critical bound
// must be at least the warning bound.
type CrossFieldConfig struct {
	// AltDiffWarnFt is the GPS vs baro altitude disagreement, in feet,
	// above which a warning is raised. The critical bound is AltDiffCritFt.
	AltDiffWarnFt float64 `yaml:"alt_diff_warn_ft" json:"alt_diff_warn_ft" validate:"gt=0"`
	AltDiffCritFt float64 `yaml:"alt_diff_crit_ft" json:"alt_diff_crit_ft" validate:"gtefield=AltDiffWarnFt"`

	// GroundSpeedWarnKt bounds the gap between reported ground speed and
	// the speed derived from the E/N velocity components.
	GroundSpeedWarnKt float64 `yaml:"ground_speed_warn_kt" json:"ground_speed_warn_kt" validate:"gt=0"`
	GroundSpeedCritKt float64 `yaml:"ground_speed_crit_kt" json:"ground_speed_crit_kt" validate:"gtefield=GroundSpeedWarnKt"`

	// TrackWarnDeg bounds the wrap-aware gap between reported ground
	// track and the track derived from the velocity components.
	TrackWarnDeg float64 `yaml:"track_warn_deg" json:"track_warn_deg" validate:"gt=0"`
	TrackCritDeg float64 `yaml:"track_crit_deg" json:"track_crit_deg" validate:"gtefield=TrackWarnDeg"`
}

// PhysicsConfig bounds the physical plausibility checks.
type PhysicsConfig struct {
	// LowAltFt divides the vertical speed envelope: below it the
	// magnitude limit is LowAltMaxVSFpm, above it MaxVSFpm.
	LowAltFt       float64 `yaml:"low_alt_ft" json:"low_alt_ft" validate:"gt=0"`
	LowAltMaxVSFpm float64 `yaml:"low_alt_max_vs_fpm" json:"low_alt_max_vs_fpm" validate:"gt=0"`
	MaxVSFpm       float64 `yaml:"max_vs_fpm" json:"max_vs_fpm" validate:"gt=0"`

	// ExtremeRollDeg and ExtremePitchDeg mark attitudes treated as
	// critically implausible for the evaluated regime.
	ExtremeRollDeg  float64 `yaml:"extreme_roll_deg" json:"extreme_roll_deg" validate:"gt=0"`
	ExtremePitchDeg float64 `yaml:"extreme_pitch_deg" json:"extreme_pitch_deg" validate:"gt=0"`

	// PitchVelocityPitchDeg is the pitch magnitude above which a matching
	// vertical velocity component is expected.
	PitchVelocityPitchDeg float64 `yaml:"pitch_velocity_pitch_deg" json:"pitch_velocity_pitch_deg" validate:"gt=0"`
}

// SafetyConfig bounds the operational safety checks.
type SafetyConfig struct {
	RapidDescentCritFpm float64 `yaml:"rapid_descent_crit_fpm" json:"rapid_descent_crit_fpm" validate:"lt=0"`
	RapidDescentWarnFpm float64 `yaml:"rapid_descent_warn_fpm" json:"rapid_descent_warn_fpm" validate:"lt=0"`

	MinIASKt float64 `yaml:"min_ias_kt" json:"min_ias_kt" validate:"gt=0"`
	MaxIASKt float64 `yaml:"max_ias_kt" json:"max_ias_kt" validate:"gt=0"`

	MinAltFt float64 `yaml:"min_alt_ft" json:"min_alt_ft"`
	MaxAltFt float64 `yaml:"max_alt_ft" json:"max_alt_ft" validate:"gt=0"`

	// Stall condition: all three must hold simultaneously.
	StallIASKt     float64 `yaml:"stall_ias_kt" json:"stall_ias_kt" validate:"gt=0"`
	StallPitchDeg  float64 `yaml:"stall_pitch_deg" json:"stall_pitch_deg" validate:"gt=0"`
	StallMaxVSFpm  float64 `yaml:"stall_max_vs_fpm" json:"stall_max_vs_fpm"`
}

// FusionConfig holds the severity weights and total score composition.
type FusionConfig struct {
	CriticalWeight float64 `yaml:"critical_weight" json:"critical_weight" validate:"gt=0"`
	WarningWeight  float64 `yaml:"warning_weight" json:"warning_weight" validate:"gt=0"`
	InfoWeight     float64 `yaml:"info_weight" json:"info_weight" validate:"gt=0"`

	// Total score composition; the three must sum to 1.
	AvailabilityWeight float64 `yaml:"availability_weight" json:"availability_weight" validate:"gt=0,lt=1"`
	ConstraintWeight   float64 `yaml:"constraint_weight" json:"constraint_weight" validate:"gt=0,lt=1"`
	ConditionalWeight  float64 `yaml:"conditional_weight" json:"conditional_weight" validate:"gt=0,lt=1"`

	// MAEWeight and RMSEWeight combine the two segment-mapped error
	// scores into the conditional error score; they must sum to 1.
	MAEWeight  float64 `yaml:"mae_weight" json:"mae_weight" validate:"gt=0,lt=1"`
	RMSEWeight float64 `yaml:"rmse_weight" json:"rmse_weight" validate:"gt=0,lt=1"`
}

// SeverityWeight returns the fusion weight for a severity level.
func (f FusionConfig) SeverityWeight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityCritical:
		return f.CriticalWeight
	case domain.SeverityWarning:
		return f.WarningWeight
	default:
		return f.InfoWeight
	}
}

// TaskSpec describes one prediction task.
type TaskSpec struct {
	Name      string           `yaml:"name" json:"name" validate:"required"`
	ValueKind domain.ValueKind `yaml:"value_kind" json:"value_kind" validate:"required,oneof=single_value array_value"`

	// WindowSize is the number of context frames the task provides.
	WindowSize int `yaml:"window_size" json:"window_size" validate:"min=1"`

	// Horizon is the number of predicted seconds; array tasks predict
	// Horizon elements per field.
	Horizon int `yaml:"horizon" json:"horizon" validate:"min=1"`
}

// Config is the full evaluation configuration snapshot.
type Config struct {
	Version string `yaml:"version" json:"version" validate:"required"`

	// RequiredFields is the exact field schema every prediction must
	// satisfy.
	RequiredFields []string `yaml:"required_fields" json:"required_fields" validate:"required,min=1"`

	// AngleFields lists fields whose deltas use shortest-arc distance.
	AngleFields []string `yaml:"angle_fields" json:"angle_fields"`

	// FieldLimits are the sane-value ranges per field.
	FieldLimits map[string]Limit `yaml:"field_limits" json:"field_limits" validate:"required,min=1"`

	// JumpThresholds are the per-second change thresholds per field.
	JumpThresholds map[string]float64 `yaml:"jump_thresholds" json:"jump_thresholds" validate:"required,min=1"`

	CrossField CrossFieldConfig `yaml:"cross_field" json:"cross_field"`
	Physics    PhysicsConfig    `yaml:"physics" json:"physics"`
	Safety     SafetyConfig     `yaml:"safety" json:"safety"`
	Fusion     FusionConfig     `yaml:"fusion" json:"fusion"`

	Tasks map[domain.TaskID]TaskSpec `yaml:"tasks" json:"tasks" validate:"required,min=1"`
}

// Canonical field names for the flight state schema.
const (
	FieldLatitude      = "Latitude (WGS84 deg)"
	FieldLongitude     = "Longitude (WGS84 deg)"
	FieldGPSAltitude   = "GPS Altitude (WGS84 ft)"
	FieldGroundTrack   = "GPS Ground Track (deg true)"
	FieldHeading       = "Magnetic Heading (deg)"
	FieldVelocityE     = "GPS Velocity E (m/s)"
	FieldVelocityN     = "GPS Velocity N (m/s)"
	FieldVelocityU     = "GPS Velocity U (m/s)"
	FieldGroundSpeed   = "GPS Ground Speed (kt)"
	FieldRoll          = "Roll (deg)"
	FieldPitch         = "Pitch (deg)"
	FieldTurnRate      = "Turn Rate (deg/sec)"
	FieldSlipSkid      = "Slip/Skid"
	FieldNormalAccel   = "Normal Acceleration (G)"
	FieldLateralAccel  = "Lateral Acceleration (G)"
	FieldVerticalSpeed = "Vertical Speed (fpm)"
	FieldAirspeed      = "Indicated Airspeed (kt)"
	FieldBaroAltitude  = "Baro Altitude (ft)"
	FieldPressureAlt   = "Pressure Altitude (ft)"
)

// MetersPerSecondToKnots converts m/s velocity components to knots for
// the ground speed consistency check.
const MetersPerSecondToKnots = 1.944

// Default returns the built-in configuration. File-based configuration
// overlays this wholesale; there is no partial merge.
func Default() *Config {
	return &Config{
		Version: "2.1.0",
		RequiredFields: []string{
			FieldLatitude, FieldLongitude, FieldGPSAltitude,
			FieldGroundTrack, FieldHeading,
			FieldVelocityE, FieldVelocityN, FieldVelocityU,
			FieldGroundSpeed, FieldRoll, FieldPitch, FieldTurnRate,
			FieldSlipSkid, FieldNormalAccel, FieldLateralAccel,
			FieldVerticalSpeed, FieldAirspeed, FieldBaroAltitude,
			FieldPressureAlt,
		},
		AngleFields: []string{FieldGroundTrack, FieldHeading},
		FieldLimits: map[string]Limit{
			FieldLatitude:      {Min: -90, Max: 90},
			FieldLongitude:     {Min: -180, Max: 180},
			FieldGPSAltitude:   {Min: -1000, Max: 60000},
			FieldGroundTrack:   {Min: 0, Max: 360},
			FieldHeading:       {Min: 0, Max: 360},
			FieldVelocityE:     {Min: -250, Max: 250},
			FieldVelocityN:     {Min: -250, Max: 250},
			FieldVelocityU:     {Min: -50, Max: 50},
			FieldGroundSpeed:   {Min: 0, Max: 500},
			FieldRoll:          {Min: -90, Max: 90},
			FieldPitch:         {Min: -90, Max: 90},
			FieldTurnRate:      {Min: -30, Max: 30},
			FieldSlipSkid:      {Min: -2, Max: 2},
			FieldNormalAccel:   {Min: -3, Max: 6},
			FieldLateralAccel:  {Min: -2, Max: 2},
			FieldVerticalSpeed: {Min: -10000, Max: 10000},
			FieldAirspeed:      {Min: 0, Max: 400},
			FieldBaroAltitude:  {Min: -1000, Max: 60000},
			FieldPressureAlt:   {Min: -1000, Max: 60000},
		},
		JumpThresholds: map[string]float64{
			FieldLatitude:      0.01,
			FieldLongitude:     0.01,
			FieldGPSAltitude:   200,
			FieldGroundTrack:   30,
			FieldHeading:       30,
			FieldVelocityE:     20,
			FieldVelocityN:     20,
			FieldVelocityU:     10,
			FieldGroundSpeed:   20,
			FieldRoll:          30,
			FieldPitch:         20,
			FieldTurnRate:      10,
			FieldSlipSkid:      1,
			FieldNormalAccel:   1,
			FieldLateralAccel:  0.5,
			FieldVerticalSpeed: 1500,
			FieldAirspeed:      20,
			FieldBaroAltitude:  200,
			FieldPressureAlt:   200,
		},
		CrossField: CrossFieldConfig{
			AltDiffWarnFt:     500,
			AltDiffCritFt:     1000,
			GroundSpeedWarnKt: 5,
			GroundSpeedCritKt: 15,
			TrackWarnDeg:      10,
			TrackCritDeg:      30,
		},
		Physics: PhysicsConfig{
			LowAltFt:              1000,
			LowAltMaxVSFpm:        2000,
			MaxVSFpm:              5000,
			ExtremeRollDeg:        60,
			ExtremePitchDeg:       60,
			PitchVelocityPitchDeg: 15,
		},
		Safety: SafetyConfig{
			RapidDescentCritFpm: -3000,
			RapidDescentWarnFpm: -2000,
			MinIASKt:            30,
			MaxIASKt:            180,
			MinAltFt:            0,
			MaxAltFt:            15000,
			StallIASKt:          50,
			StallPitchDeg:       15,
			StallMaxVSFpm:       500,
		},
		Fusion: FusionConfig{
			CriticalWeight:     3.0,
			WarningWeight:      1.0,
			InfoWeight:         0.5,
			AvailabilityWeight: 0.2,
			ConstraintWeight:   0.3,
			ConditionalWeight:  0.5,
			MAEWeight:          0.6,
			RMSEWeight:         0.4,
		},
		Tasks: map[domain.TaskID]TaskSpec{
			domain.TaskS1: {Name: "Next Second Prediction", ValueKind: domain.ValueSingle, WindowSize: 1, Horizon: 1},
			domain.TaskM1: {Name: "Next Second from 3-Window", ValueKind: domain.ValueSingle, WindowSize: 3, Horizon: 1},
			domain.TaskM3: {Name: "Next 3 Seconds from 3-Window", ValueKind: domain.ValueArray, WindowSize: 3, Horizon: 3},
		},
	}
}

// IsAngleField reports whether a field's deltas use shortest-arc distance.
func (c *Config) IsAngleField(field string) bool {
	for _, f := range c.AngleFields {
		if f == field {
			return true
		}
	}
	return false
}

// Validate checks structural validity plus the cross-field invariants the
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}

	const eps = 1e-9
	total := c.Fusion.AvailabilityWeight + c.Fusion.ConstraintWeight + c.Fusion.ConditionalWeight
	if total < 1-eps || total > 1+eps {
		return fmt.Errorf("%w: total score weights sum to %.4f, want 1.0",
			domain.ErrInvalidConfiguration, total)
	}
	errTotal := c.Fusion.MAEWeight + c.Fusion.RMSEWeight
	if errTotal < 1-eps || errTotal > 1+eps {
		return fmt.Errorf("%w: error score weights sum to %.4f, want 1.0",
			domain.ErrInvalidConfiguration, errTotal)
	}

	for _, f := range c.RequiredFields {
		if _, ok := c.FieldLimits[f]; !ok {
			return fmt.Errorf("%w: no field limit for required field %q",
				domain.ErrInvalidConfiguration, f)
		}
		if _, ok := c.JumpThresholds[f]; !ok {
			return fmt.Errorf("%w: no jump threshold for required field %q",
				domain.ErrInvalidConfiguration, f)
		}
	}
	for _, f := range c.AngleFields {
		if !containsField(c.RequiredFields, f) {
			return fmt.Errorf("%w: angle field %q is not a required field",
				domain.ErrInvalidConfiguration, f)
		}
	}

	return nil
}

var validate = validator.New()

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// Load reads a YAML configuration file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
