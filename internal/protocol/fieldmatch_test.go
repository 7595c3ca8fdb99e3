package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

func TestFindNearMisses(t *testing.T) {
	t.Run("misspelled key is paired", func(t *testing.T) {
		fields := map[string]any{"Lattitude (WGS84 deg)": 37.6}
		missing := []string{config.FieldLatitude}

		misses := findNearMisses(fields, missing)
		require.Len(t, misses, 1)
		assert.Equal(t, domain.NearMiss{
			Got:      "Lattitude (WGS84 deg)",
			Wanted:   config.FieldLatitude,
			Distance: 1,
		}, misses[0])
	})

	t.Run("case difference folds away", func(t *testing.T) {
		fields := map[string]any{"pitch (deg)": 2.4}
		missing := []string{config.FieldPitch}

		misses := findNearMisses(fields, missing)
		require.Len(t, misses, 1)
		assert.Zero(t, misses[0].Distance)
	})

	t.Run("distant key is not claimed", func(t *testing.T) {
		fields := map[string]any{"Outside Air Temp (C)": -4.0}
		missing := []string{config.FieldPitch}

		assert.Empty(t, findNearMisses(fields, missing))
	})

	t.Run("each key claimed once", func(t *testing.T) {
		fields := map[string]any{"Baro Altidude (ft)": 5500.0}
		missing := []string{config.FieldBaroAltitude, config.FieldPressureAlt}

		misses := findNearMisses(fields, missing)
		require.Len(t, misses, 1)
		assert.Equal(t, config.FieldBaroAltitude, misses[0].Wanted)
	})

	t.Run("no missing fields", func(t *testing.T) {
		assert.Nil(t, findNearMisses(map[string]any{"extra": 1.0}, nil))
	})
}

func TestParseReportsNearMisses(t *testing.T) {
	cfg := config.Default()
	frame := testutils.CruiseFrame()
	delete(frame, config.FieldAirspeed)
	frame["Indicated Airspead (kt)"] = 115.0

	result := Parse(testutils.ScalarResponseJSON(frame), cfg)
	require.True(t, result.ParseOK)
	require.Len(t, result.NearMisses, 1)
	assert.Equal(t, "Indicated Airspead (kt)", result.NearMisses[0].Got)
	assert.Equal(t, config.FieldAirspeed, result.NearMisses[0].Wanted)
}
