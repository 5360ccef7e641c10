// Package engine implements the pure lead-scoring computation: evaluating
// the active criteria set against a lead's fact set and producing a capped,
// composite 0-100 score with a quality tier. The engine holds no state and
// performs no I/O; the scoring service feeds it facts and criteria.
package engine

import (
	"nexus_crm_backend/internal/criteria/repository"
)

// Quality tiers derived from the composite score.
const (
	QualityQualified = "qualified" // >= 80
	QualityHot       = "hot"       // >= 60
	QualityWarm      = "warm"      // >= 40
	QualityCold      = "cold"      // < 40
)

// CategoryScore is one category's capped contribution to the composite.
type CategoryScore struct {
	Score int
	Max   int
}

// SkippedCriterion records a criterion that could not be evaluated. A
// malformed rule never aborts a scoring pass; the caller logs these.
type SkippedCriterion struct {
	Criterion repository.Criterion
	Err       error
}

// Result is the outcome of one scoring pass.
type Result struct {
	Categories map[string]CategoryScore
	Composite  int
	Quality    string
	Skipped    []SkippedCriterion
}

// Score evaluates the criteria set against the facts. Matching criteria add
// their weight to their category; each category is clamped to its cap and the
// composite is the sum of the clamped categories. Scoring the same facts with
// the same criteria always yields the same result.
func Score(facts Facts, criteria []repository.Criterion) Result {
	raw := make(map[string]int, len(repository.Categories()))
	result := Result{
		Categories: make(map[string]CategoryScore, len(repository.Categories())),
	}

	for _, crit := range criteria {
		matched, err := Evaluate(crit.Condition, facts)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedCriterion{Criterion: crit, Err: err})
			continue
		}
		if matched {
			raw[crit.Category] += crit.Weight
		}
	}

	for _, category := range repository.Categories() {
		max := repository.CategoryMax(category)
		result.Categories[category] = CategoryScore{
			Score: clamp(raw[category], max),
			Max:   max,
		}
		result.Composite += result.Categories[category].Score
	}

	result.Quality = QualityFor(result.Composite)
	return result
}

// QualityFor maps a composite score to its quality tier.
func QualityFor(composite int) string {
	switch {
	case composite >= 80:
		return QualityQualified
	case composite >= 60:
		return QualityHot
	case composite >= 40:
		return QualityWarm
	default:
		return QualityCold
	}
}

func clamp(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}
