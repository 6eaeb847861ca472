package search

import (
	"math"
	"sort"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultFusionTopK is the fused result count when Fuse is called without a limit.
const DefaultFusionTopK = 10

// Weights maps channel names to their fusion weight.
type Weights map[string]float64

// DefaultWeights returns semantic 0.5, keyword 0.4, related 0.1.
func DefaultWeights() Weights {
	return Weights{
		types.ChannelSemantic: 0.5,
		types.ChannelKeyword:  0.4,
		types.ChannelRelated:  0.1,
	}
}

// ChannelResult is the output of one channel for one query.
type ChannelResult struct {
	Channel string
	Hits    []types.Hit
}

// Fusion merges channel results into a single ranking.
type Fusion struct {
	weights    Weights
	normalizer Normalizer
}

// FusionOption configures a Fusion.
type FusionOption func(*Fusion)

// WithNormalizer applies n to each channel's scores before weighting.
func WithNormalizer(n Normalizer) FusionOption {
	return func(f *Fusion) {
		if n != nil {
			f.normalizer = n
		}
	}
}

// NewFusion creates a fusion engine. Channels missing from weights contribute nothing.
func NewFusion(weights Weights, opts ...FusionOption) *Fusion {
	if weights == nil {
		weights = DefaultWeights()
	}
	f := &Fusion{
		weights:    weights,
		normalizer: NoopNormalizer{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fuse returns one ScoredHit per entry ID, sorted by combined score descending
// with ties broken by ID ascending, truncated to topK (DefaultFusionTopK when
// topK <= 0). Entry fields come from the first channel that surfaced the entry.
// Scores holds the value each channel contributed after normalization, with
// zero for weighted channels that did not surface the entry.
func (f *Fusion) Fuse(results []ChannelResult, topK int) []types.ScoredHit {
	if topK <= 0 {
		topK = DefaultFusionTopK
	}

	merged := make(map[string]*types.ScoredHit)
	contributed := make(map[string]map[string]bool)
	var order []string

	for _, res := range results {
		raw := make([]float64, len(res.Hits))
		for i, h := range res.Hits {
			raw[i] = finiteOrZero(h.Score)
		}
		scores := f.normalizer.Normalize(raw)
		for i := range scores {
			scores[i] = finiteOrZero(scores[i])
		}

		for i, h := range res.Hits {
			sh, ok := merged[h.ID]
			if !ok {
				sh = types.NewScoredHit(h)
				for channel := range f.weights {
					sh.Scores[channel] = 0
				}
				merged[h.ID] = sh
				contributed[h.ID] = make(map[string]bool)
				order = append(order, h.ID)
			}
			// A channel listing an entry twice keeps its best score.
			if !contributed[h.ID][res.Channel] || scores[i] > sh.Scores[res.Channel] {
				sh.Scores[res.Channel] = scores[i]
			}
			contributed[h.ID][res.Channel] = true
		}
	}

	out := make([]types.ScoredHit, 0, len(merged))
	for _, id := range order {
		sh := merged[id]
		sh.Combined = f.combine(sh.Scores)
		out = append(out, *sh)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Combined != out[j].Combined {
			return out[i].Combined > out[j].Combined
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// combine sums weight*score in a fixed channel order so results are reproducible.
func (f *Fusion) combine(scores map[string]float64) float64 {
	var total float64
	for _, channel := range f.channelOrder(scores) {
		// The conversion rounds each product, so the sum is never fused.
		total += float64(f.weights[channel] * scores[channel])
	}
	return total
}

// channelOrder lists the default channels first, then any others by name.
func (f *Fusion) channelOrder(scores map[string]float64) []string {
	order := make([]string, 0, len(scores))
	var extra []string
	for _, c := range []string{types.ChannelSemantic, types.ChannelKeyword, types.ChannelRelated} {
		if _, ok := scores[c]; ok {
			order = append(order, c)
		}
	}
	for c := range scores {
		switch c {
		case types.ChannelSemantic, types.ChannelKeyword, types.ChannelRelated:
		default:
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// Weight returns the weight applied to a channel.
func (f *Fusion) Weight(channel string) float64 {
	return f.weights[channel]
}

// finiteOrZero maps NaN and infinite scores to 0 so they cannot break the ordering.
func finiteOrZero(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}
