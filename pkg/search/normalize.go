package search

import "fmt"

// Normalizer rescales one channel's scores before they are weighted.
// The returned slice is parallel to the input.
type Normalizer interface {
	Normalize(scores []float64) []float64
}

// Normalization names accepted by NormalizerByName.
const (
	NormalizationNone   = "none"
	NormalizationMinMax = "minmax"
)

// NoopNormalizer leaves scores unchanged.
type NoopNormalizer struct{}

func (NoopNormalizer) Normalize(scores []float64) []float64 {
	return scores
}

// MinMaxNormalizer maps scores linearly onto [0, 1] over the current result
// set. A channel whose scores are all equal maps every score to 1.
type MinMaxNormalizer struct{}

func (MinMaxNormalizer) Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	out := make([]float64, len(scores))
	for i, s := range scores {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// NormalizerByName resolves a configured normalization name.
func NormalizerByName(name string) (Normalizer, error) {
	switch name {
	case "", NormalizationNone:
		return NoopNormalizer{}, nil
	case NormalizationMinMax:
		return MinMaxNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unknown normalization %q", name)
	}
}
