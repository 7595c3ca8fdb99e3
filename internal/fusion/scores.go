package fusion

import (
	"math"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
)

// Availability scores schema completeness on a 0-100 scale.
func Availability(protocol domain.ProtocolResult) float64 {
	return protocol.Completeness * 100
}

// ConstraintSatisfaction scores the evidence pack as the severity-
// weighted pass share on a 0-100 scale. An empty pack scores zero:
// nothing was verifiable.
func ConstraintSatisfaction(atoms []domain.EvidenceAtom, fcfg config.FusionConfig) float64 {
	var total, passed float64
	for _, a := range atoms {
		w := fcfg.SeverityWeight(a.Severity)
		total += w
		if a.Pass {
			passed += w
		}
	}
	if total == 0 {
		return 0
	}
	return passed / total * 100
}

// MAEScore maps a mean absolute error onto a 0-100 score through fixed
// segments. Small errors are penalized gently, large errors steeply,
// with a floor of 5 so the scale never saturates completely.
func MAEScore(mae float64) float64 {
	switch {
	case mae < 5:
		return 100 - (mae/5)*10
	case mae < 20:
		return 90 - ((mae-5)/15)*20
	case mae < 50:
		return 70 - ((mae-20)/30)*20
	case mae < 100:
		return 50 - ((mae-50)/50)*20
	case mae < 200:
		return 30 - ((mae-100)/100)*15
	default:
		return math.Max(5, 15-((mae-200)/100)*10)
	}
}

// RMSEScore maps a root mean square error onto a 0-100 score through
// fixed segments, with wider bands than MAEScore since RMSE amplifies
// outliers.
func RMSEScore(rmse float64) float64 {
	switch {
	case rmse < 10:
		return 100 - (rmse/10)*10
	case rmse < 50:
		return 90 - ((rmse-10)/40)*20
	case rmse < 100:
		return 70 - ((rmse-50)/50)*20
	case rmse < 200:
		return 50 - ((rmse-100)/100)*20
	case rmse < 300:
		return 30 - ((rmse-200)/100)*15
	default:
		return math.Max(5, 15-((rmse-300)/100)*10)
	}
}

// predictionErrors collects per-field differences between the parsed
// prediction and the gold reference. Arrays compare element-wise over
// the common prefix; angle fields use shortest-arc distance.
func predictionErrors(fields map[string]any, gold *domain.Gold, cfg *config.Config) []float64 {
	if gold == nil || !gold.Available {
		return nil
	}

	var diffs []float64
	for _, field := range cfg.RequiredFields {
		goldVal, ok := gold.Fields[field]
		if !ok {
			continue
		}
		angular := cfg.IsAngleField(field)

		switch gv := goldVal.(type) {
		case float64:
			if pv, ok := fields[field].(float64); ok && !math.IsNaN(pv) && !math.IsInf(pv, 0) {
				diffs = append(diffs, fieldDiff(pv, gv, angular))
			}
		case []float64:
			pv, ok := fields[field].([]float64)
			if !ok {
				continue
			}
			n := len(gv)
			if len(pv) < n {
				n = len(pv)
			}
			for i := 0; i < n; i++ {
				if !math.IsNaN(pv[i]) && !math.IsInf(pv[i], 0) {
					diffs = append(diffs, fieldDiff(pv[i], gv[i], angular))
				}
			}
		}
	}
	return diffs
}

func fieldDiff(pred, gold float64, angular bool) float64 {
	d := math.Abs(pred - gold)
	if angular && d > 180 {
		d = 360 - d
	}
	return d
}

// ComputeScores assembles the full rule-fusion score set for a record.
// When the record is ineligible or no reference is comparable, the
// conditional error falls back to the constraint satisfaction proxy and
// is flagged as such.
func ComputeScores(
	protocol domain.ProtocolResult,
	atoms []domain.EvidenceAtom,
	sample domain.Sample,
	eligible bool,
	cfg *config.Config,
) domain.Scores {
	scores := domain.Scores{
		Availability:           Availability(protocol),
		ConstraintSatisfaction: ConstraintSatisfaction(atoms, cfg.Fusion),
	}

	diffs := predictionErrors(protocol.Fields, sample.Gold, cfg)
	if eligible && len(diffs) > 0 {
		var sum, sumSq float64
		for _, d := range diffs {
			sum += d
			sumSq += d * d
		}
		mae := sum / float64(len(diffs))
		rmse := math.Sqrt(sumSq / float64(len(diffs)))

		scores.MAEScore = MAEScore(mae)
		scores.RMSEScore = RMSEScore(rmse)
		scores.ConditionalErr = cfg.Fusion.MAEWeight*scores.MAEScore + cfg.Fusion.RMSEWeight*scores.RMSEScore
	} else {
		scores.ConditionalErr = scores.ConstraintSatisfaction
		scores.ConditionalErrProxy = true
	}

	scores.Total = cfg.Fusion.AvailabilityWeight*scores.Availability +
		cfg.Fusion.ConstraintWeight*scores.ConstraintSatisfaction +
		cfg.Fusion.ConditionalWeight*scores.ConditionalErr

	return scores
}
