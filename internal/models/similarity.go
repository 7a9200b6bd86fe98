package models

import (
	"fmt"
	"math"
)

// Default weight and threshold values, matching the server defaults.
const (
	DefaultKeywordWeight     = 0.6
	DefaultDescriptionWeight = 0.3
	DefaultHeadlineWeight    = 0.1
	DefaultThreshold         = 0.3
)

// weightSumTolerance bounds how far a weight sum may drift from 1.0 before
// rescaling kicks in.
const weightSumTolerance = 1e-6

// Weights is the relative importance of the three similarity signals.
type Weights struct {
	Keyword     float64 `json:"keywords"`
	Description float64 `json:"description"`
	Headline    float64 `json:"headline"`
}

// DefaultWeights returns the standard 0.6/0.3/0.1 configuration.
func DefaultWeights() Weights {
	return Weights{
		Keyword:     DefaultKeywordWeight,
		Description: DefaultDescriptionWeight,
		Headline:    DefaultHeadlineWeight,
	}
}

// Validate checks that every weight is a finite non-negative real and that
// at least one is positive.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Keyword, w.Description, w.Headline} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNegativeWeight
		}
		if v < 0 {
			return ErrNegativeWeight
		}
	}

	if w.Keyword+w.Description+w.Headline == 0 {
		return ErrZeroWeights
	}

	return nil
}

// Normalized rescales the weights by 1/sum when the sum exceeds 1, and
// reports whether rescaling happened. Sums in (0, 1] are kept as-is.
func (w Weights) Normalized() (Weights, bool) {
	sum := w.Keyword + w.Description + w.Headline
	if sum <= 1+weightSumTolerance {
		return w, false
	}

	return Weights{
		Keyword:     w.Keyword / sum,
		Description: w.Description / sum,
		Headline:    w.Headline / sum,
	}, true
}

// Params bundles the weight configuration with the acceptance threshold.
type Params struct {
	Weights   Weights `json:"weights"`
	Threshold float64 `json:"threshold"`
}

// DefaultParams returns the standard weights with a 0.3 threshold.
func DefaultParams() Params {
	return Params{Weights: DefaultWeights(), Threshold: DefaultThreshold}
}

// Validate checks the weights and that the threshold lies in [0, 1].
func (p Params) Validate() error {
	if err := p.Weights.Validate(); err != nil {
		return err
	}

	if math.IsNaN(p.Threshold) || p.Threshold < 0 || p.Threshold > 1 {
		return ErrThresholdRange
	}

	return nil
}

// SimilarityResult is the scored comparison of one unordered profile pair.
// ProfileA always sorts lexicographically before ProfileB.
type SimilarityResult struct {
	ProfileA         string   `json:"profile_a"`
	ProfileB         string   `json:"profile_b"`
	KeywordScore     float64  `json:"keyword_similarity"`
	DescriptionScore float64  `json:"description_similarity"`
	HeadlineScore    float64  `json:"headline_similarity"`
	CombinedScore    float64  `json:"combined_similarity"`
	CommonKeywords   []string `json:"common_keywords"`
	CommonCount      int      `json:"common_count"`
	UniqueToA        []string `json:"unique_to_a"`
	UniqueToB        []string `json:"unique_to_b"`
	PassesThreshold  bool     `json:"passes_threshold"`
}

// Key returns the canonical unordered pair key of the result.
func (r *SimilarityResult) Key() string {
	return PairKey(r.ProfileA, r.ProfileB)
}

// PairKey builds the canonical order-insensitive key for a profile pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}

	return fmt.Sprintf("%s|%s", a, b)
}
