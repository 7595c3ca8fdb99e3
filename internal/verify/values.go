// Package verify implements the constraint checker graph: six flat,
// independent checker families that each turn a parsed prediction into
// evidence atoms. Checkers are pure functions of their input; the graph
// recovers their failures into evidence and guarantees a stable output
// ordering.
package verify

import "math"

// finite reports whether v is a usable number.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// scalarAt returns the field's value as a finite scalar.
func scalarAt(fields map[string]any, name string) (float64, bool) {
	v, ok := fields[name].(float64)
	if !ok || !finite(v) {
		return 0, false
	}
	return v, true
}

// seriesAt returns the field's value as a non-empty numeric series.
func seriesAt(fields map[string]any, name string) ([]float64, bool) {
	s, ok := fields[name].([]float64)
	if !ok || len(s) == 0 {
		return nil, false
	}
	for _, v := range s {
		if !finite(v) {
			return nil, false
		}
	}
	return s, true
}

// lastValue returns the field's effective current value: the scalar
// itself, or the final element of a predicted series.
func lastValue(fields map[string]any, name string) (float64, bool) {
	if v, ok := scalarAt(fields, name); ok {
		return v, true
	}
	if s, ok := seriesAt(fields, name); ok {
		return s[len(s)-1], true
	}
	return 0, false
}

// angleDelta returns the shortest-arc distance between two headings in
// degrees, in [0, 180].
func angleDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// delta returns the change magnitude between two values, shortest-arc
// when the field is angular.
func delta(a, b float64, angular bool) float64 {
	if angular {
		return angleDelta(a, b)
	}
	return math.Abs(a - b)
}

// normalizeTrack converts an atan2 result in degrees to a compass track
// in [0, 360).
func normalizeTrack(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
