package protocol

import (
	"sort"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/gurenolun/fly-eval/internal/domain"
)

// maxNearMissDistance is the largest case-folded edit distance still
// treated as a probable misspelling of a required field name.
const maxNearMissDistance = 3

// foldCaser is a package-level Unicode case folder so each comparison
// does not allocate a new caser.
var foldCaser = cases.Fold()

// findNearMisses pairs unrecognized response keys with the missing
// required fields they most plausibly meant. Each missing field claims
// at most one key, and matches are reported in a deterministic order.
func findNearMisses(fields map[string]any, missing []string) []domain.NearMiss {
	if len(missing) == 0 || len(fields) == 0 {
		return nil
	}

	missingSet := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		missingSet[m] = struct{}{}
	}

	var extras []string
	for key := range fields {
		if _, required := missingSet[key]; !required {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)

	var misses []domain.NearMiss
	claimed := make(map[string]struct{})
	for _, want := range missing {
		foldedWant := foldCaser.String(want)
		best := -1
		bestDist := maxNearMissDistance + 1
		for i, got := range extras {
			if _, taken := claimed[got]; taken {
				continue
			}
			dist := levenshtein.ComputeDistance(foldCaser.String(got), foldedWant)
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		if best >= 0 && bestDist <= maxNearMissDistance {
			claimed[extras[best]] = struct{}{}
			misses = append(misses, domain.NearMiss{
				Got:      extras[best],
				Wanted:   want,
				Distance: bestDist,
			})
		}
	}

	return misses
}
