// Package stats holds the post-aggregation arithmetic shared by the engine
// and the report layer. Every helper returns full-precision values; rounding
// belongs to whoever renders them.
package stats

import "math"

// Ratio returns num/den, or nil when the denominator is zero or non-finite.
// Consumers never see NaN or Inf.
func Ratio(num, den float64) *float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) || math.IsNaN(num) || math.IsInf(num, 0) {
		return nil
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Percent is Ratio scaled to a percentage.
func Percent(num, den float64) *float64 {
	r := Ratio(num, den)
	if r == nil {
		return nil
	}
	v := *r * 100
	return &v
}

// WeightedMean combines per-format values into an all-formats figure,
// weighting each value by its match count so a format with more matches
// dominates. Nil values are skipped along with their weights; nil is
// returned when nothing contributes.
func WeightedMean(values []*float64, weights []int) *float64 {
	var sum, wsum float64
	for i, v := range values {
		if v == nil || i >= len(weights) || weights[i] <= 0 {
			continue
		}
		sum += *v * float64(weights[i])
		wsum += float64(weights[i])
	}
	return Ratio(sum, wsum)
}

// Float returns a pointer to v. Convenience for literals in tests and
// constant metrics.
func Float(v float64) *float64 { return &v }
