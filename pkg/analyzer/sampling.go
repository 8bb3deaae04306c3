package analyzer

import "math"

// SampleSize returns the number of rows to sample from a table of the given
// size, using the standard sample size formula with finite population
// correction. The result is clamped to the configured minimum, to the
// configured maximum, and to a tenth of the table.
func (a *Analyzer) SampleSize(tableSize int64) int64 {
	if tableSize <= 0 {
		return 0
	}

	z := zScore(a.sampling.ConfidenceLevel)
	p := 0.5
	e := a.sampling.MarginError
	n := float64(tableSize)

	size := (z * z * p * (1 - p)) / (e * e / n)
	size = math.Min(size, math.Min(0.1*n, float64(a.sampling.MaxSampleSize)))
	size = math.Max(size, float64(a.sampling.MinSampleSize))
	size = math.Min(size, n)

	return int64(math.Ceil(size))
}

// zScore maps the common confidence levels to their normal quantiles.
// Anything unrecognized falls back to 99%.
func zScore(level float64) float64 {
	switch level {
	case 0.90:
		return 1.645
	case 0.95:
		return 1.960
	case 0.99:
		return 2.576
	default:
		return 2.576
	}
}
