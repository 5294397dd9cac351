// Package sheetmatch maps actual workbook tab names onto canonical target
// labels, tolerating small typographical discrepancies via edit distance.
package sheetmatch

import (
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Matcher performs fuzzy tab-name matching.
type Matcher struct {
	tolerance float64
	logger    *zap.Logger
}

// New builds a Matcher. tolerance is the allowed edit-distance ratio per
// target-name character; 0.1 allows roughly one edit per ten characters.
func New(tolerance float64, logger *zap.Logger) *Matcher {
	if tolerance <= 0 {
		tolerance = 0.1
	}
	return &Matcher{tolerance: tolerance, logger: logger}
}

// Match resolves each target label to an actual tab name. The result maps
// relation names to tab names; targets with no accepted tab are absent from
// the map. A tab accepted by more than one target, or a target accepted by
// more than one tab at the same distance, returns
// etl.ErrAmbiguousSheetMatch rather than silently picking the first.
func (m *Matcher) Match(targets []Target, sheetNames []string) (map[string]string, error) {
	type claim struct {
		target   Target
		distance int
	}
	claims := make(map[string]claim)
	mapping := make(map[string]string)

	for _, target := range targets {
		tab, distance, tie := m.bestTab(target.Label, sheetNames)
		if tab == "" {
			continue
		}
		if tie {
			return nil, fmt.Errorf("target %q accepts multiple tabs at distance %d: %w",
				target.Label, distance, etl.ErrAmbiguousSheetMatch)
		}
		if prev, taken := claims[tab]; taken {
			return nil, fmt.Errorf("tab %q accepted by both %q and %q: %w",
				tab, prev.target.Label, target.Label, etl.ErrAmbiguousSheetMatch)
		}
		claims[tab] = claim{target: target, distance: distance}
		mapping[target.Relation] = tab

		if distance > 0 {
			m.logger.Info("accepted inexact tab match",
				zap.String("target", target.Label),
				zap.String("tab", tab),
				zap.Int("distance", distance),
			)
		} else {
			m.logger.Debug("matched tab",
				zap.String("target", target.Label),
				zap.String("tab", tab),
			)
		}
	}
	return mapping, nil
}

// Allowance returns the number of edits tolerated for a target label.
func (m *Matcher) Allowance(label string) int {
	return int(math.Ceil(float64(len(canonical(label))) * m.tolerance))
}

// bestTab returns the closest accepted tab for a target label, its distance,
// and whether another tab tied for the same distance.
func (m *Matcher) bestTab(label string, sheetNames []string) (best string, bestDist int, tie bool) {
	want := canonical(label)
	allowance := m.Allowance(label)

	bestDist = allowance + 1
	for _, tab := range sheetNames {
		d := levenshtein.ComputeDistance(want, canonical(tab))
		switch {
		case d > allowance:
		case d < bestDist:
			best, bestDist, tie = tab, d, false
		case d == bestDist:
			tie = true
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestDist, tie
}

// canonical folds case and strips spaces before distance comparison.
func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}
