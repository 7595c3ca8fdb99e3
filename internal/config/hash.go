package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Digests are truncated to a fixed length: long enough to make
// collisions irrelevant for attribution, short enough to read in a trace.
const digestLen = 16

// shortDigest hashes the canonical JSON form of v and returns the first
// digestLen hex characters. encoding/json sorts map keys, which gives a
// stable byte form for equal snapshots.
func shortDigest(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Config snapshots are plain data; a marshal failure here means
		// a programming error, and an empty digest would silently alias
		// unrelated configs.
		panic("config: unmarshalable snapshot: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:digestLen]
}

// Hash returns the configuration identity digest covering the version,
// task definitions, and constraint table keys.
func (c *Config) Hash() string {
	return shortDigest(map[string]any{
		"version": c.Version,
		"tasks":   c.Tasks,
		"fusion":  c.Fusion,
	})
}

// SchemaHash returns the digest of the field schema: the required field
// list and which fields are angle-valued.
func (c *Config) SchemaHash() string {
	return shortDigest(map[string]any{
		"required_fields": c.RequiredFields,
		"angle_fields":    c.AngleFields,
	})
}

// ConstraintTableHash returns the digest of the constraint tables: field
// limits, jump thresholds, and the cross-field, physics, and safety
// bounds.
func (c *Config) ConstraintTableHash() string {
	return shortDigest(map[string]any{
		"field_limits":    c.FieldLimits,
		"jump_thresholds": c.JumpThresholds,
		"cross_field":     c.CrossField,
		"physics":         c.Physics,
		"safety":          c.Safety,
	})
}
