// Package similarity scores dataset profiles against each other by combining
// keyword overlap with embedding distance over headlines and descriptions.
package similarity

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/croissant-tools/dlsim/internal/cache"
	"github.com/croissant-tools/dlsim/internal/croissant"
	"github.com/croissant-tools/dlsim/internal/embed"
	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

const defaultWorkers = 4

// EmbedderSource yields the lazily initialized embedding backends. The fast
// headline model and the higher quality description model are independent;
// neither is touched until a pair actually needs it.
type EmbedderSource interface {
	Headline(ctx context.Context) (embed.Embedder, error)
	Description(ctx context.Context) (embed.Embedder, error)
}

// Engine computes weighted similarity between dataset profiles.
type Engine struct {
	embedders EmbedderSource
	cache     *cache.ResultCache
	log       *logrus.Logger
	workers   int
}

// NewEngine creates an Engine. The cache may be nil, in which case every pair
// is scored from scratch.
func NewEngine(embedders EmbedderSource, cache *cache.ResultCache, log *logrus.Logger, workers int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Engine{embedders: embedders, cache: cache, log: log, workers: workers}
}

// ComputePair scores a single profile pair. The result is returned whether or
// not it clears the threshold; PassesThreshold records the outcome.
func (e *Engine) ComputePair(ctx context.Context, a, b *models.Profile, p models.Params) (models.SimilarityResult, error) {
	if err := p.Validate(); err != nil {
		return models.SimilarityResult{}, err
	}
	p.Weights, _ = p.Weights.Normalized()

	if b.ID < a.ID {
		a, b = b, a
	}

	if e.cache != nil {
		if res, ok := e.cache.Get(a.ID, b.ID, p); ok {
			return res, nil
		}
	}

	head, err := e.embedPairScore(ctx, a.Headline, b.Headline, e.embedders.Headline)
	if err != nil {
		return models.SimilarityResult{}, err
	}

	desc, err := e.embedPairScore(ctx, a.Description, b.Description, e.embedders.Description)
	if err != nil {
		return models.SimilarityResult{}, err
	}

	res := buildResult(a, b, p, head, desc)
	metrics.PairsScoredTotal.Inc()

	if e.cache != nil {
		e.cache.Put(res, p)
	}

	return res, nil
}

// BatchStats reports how a batch run was served.
type BatchStats struct {
	Pairs     int `json:"pairs"`
	CacheHits int `json:"cache_hits"`
}

// ComputeAll scores every unordered pair drawn from profiles and returns the
// qualifying results sorted by descending combined score, ties broken by
// ascending pair key. On cancellation the results scored so far are returned
// alongside the context error.
func (e *Engine) ComputeAll(ctx context.Context, profiles []*models.Profile, p models.Params) ([]models.SimilarityResult, BatchStats, error) {
	return e.computeAll(ctx, profiles, p, nil)
}

// ComputeSubset behaves like ComputeAll restricted to pairs whose profiles
// both appear in ids. Unknown ids are ignored.
func (e *Engine) ComputeSubset(ctx context.Context, profiles []*models.Profile, ids []string, p models.Params) ([]models.SimilarityResult, BatchStats, error) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	return e.computeAll(ctx, profiles, p, keep)
}

type pair struct {
	a, b *models.Profile
}

func (e *Engine) computeAll(ctx context.Context, profiles []*models.Profile, p models.Params, keep map[string]bool) ([]models.SimilarityResult, BatchStats, error) {
	if err := p.Validate(); err != nil {
		return nil, BatchStats{}, err
	}
	p.Weights, _ = p.Weights.Normalized()

	ordered := make([]*models.Profile, 0, len(profiles))
	for _, prof := range profiles {
		if keep == nil || keep[prof.ID] {
			ordered = append(ordered, prof)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	results := make([]models.SimilarityResult, 0, len(ordered)*(len(ordered)-1)/2)

	var misses []pair
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			a, b := ordered[i], ordered[j]
			if e.cache != nil {
				if res, ok := e.cache.Get(a.ID, b.ID, p); ok {
					results = append(results, res)

					continue
				}
			}
			misses = append(misses, pair{a, b})
		}
	}
	stats := BatchStats{Pairs: len(results) + len(misses), CacheHits: len(results)}

	if len(misses) > 0 {
		start := time.Now()

		headVecs, descVecs, err := e.embedForPairs(ctx, misses)
		if err != nil {
			return finish(results, p), stats, err
		}

		var mu sync.Mutex
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)

		for _, pr := range misses {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}

				head := cosine(headVecs[pr.a.ID], headVecs[pr.b.ID])
				desc := cosine(descVecs[pr.a.ID], descVecs[pr.b.ID])

				res := buildResult(pr.a, pr.b, p, head, desc)
				metrics.PairsScoredTotal.Inc()
				if e.cache != nil {
					e.cache.Put(res, p)
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				return nil
			})
		}

		waitErr := g.Wait()

		e.log.WithFields(logrus.Fields{
			"profiles": len(ordered),
			"scored":   len(misses),
			"cached":   stats.CacheHits,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Debug("similarity batch scored")

		if waitErr != nil {
			return finish(results, p), stats, waitErr
		}
	}

	return finish(results, p), stats, nil
}

// embedForPairs generates the headline and description vectors needed to
// score the given pairs. A profile is only embedded when it is on at least
// one pair whose other side also has text for that field; a blank field
// contributes a zero score without ever reaching the backend.
func (e *Engine) embedForPairs(ctx context.Context, pairs []pair) (map[string][]float32, map[string][]float32, error) {
	headNeed := make(map[string]*models.Profile)
	descNeed := make(map[string]*models.Profile)
	for _, pr := range pairs {
		if pr.a.Headline != "" && pr.b.Headline != "" {
			headNeed[pr.a.ID] = pr.a
			headNeed[pr.b.ID] = pr.b
		}
		if pr.a.Description != "" && pr.b.Description != "" {
			descNeed[pr.a.ID] = pr.a
			descNeed[pr.b.ID] = pr.b
		}
	}

	headVecs := make(map[string][]float32, len(headNeed))
	descVecs := make(map[string][]float32, len(descNeed))
	if len(headNeed) == 0 && len(descNeed) == 0 {
		return headVecs, descVecs, nil
	}

	var headEmb, descEmb embed.Embedder
	var err error
	if len(headNeed) > 0 {
		if headEmb, err = e.embedders.Headline(ctx); err != nil {
			return nil, nil, err
		}
	}
	if len(descNeed) > 0 {
		if descEmb, err = e.embedders.Description(ctx); err != nil {
			return nil, nil, err
		}
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for id, prof := range headNeed {
		g.Go(func() error {
			vec, err := headEmb.Embed(gCtx, croissant.NormalizeText(prof.Headline))
			if err != nil {
				return err
			}
			mu.Lock()
			headVecs[id] = vec
			mu.Unlock()

			return nil
		})
	}
	for id, prof := range descNeed {
		g.Go(func() error {
			vec, err := descEmb.Embed(gCtx, croissant.NormalizeText(prof.Description))
			if err != nil {
				return err
			}
			mu.Lock()
			descVecs[id] = vec
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return headVecs, descVecs, nil
}

// embedPairScore scores one text field of a single pair. Either side being
// blank short-circuits to zero without initializing the backend.
func (e *Engine) embedPairScore(ctx context.Context, textA, textB string, source func(context.Context) (embed.Embedder, error)) (float64, error) {
	if textA == "" || textB == "" {
		return 0, nil
	}

	emb, err := source(ctx)
	if err != nil {
		return 0, err
	}

	vecA, err := emb.Embed(ctx, croissant.NormalizeText(textA))
	if err != nil {
		return 0, err
	}
	vecB, err := emb.Embed(ctx, croissant.NormalizeText(textB))
	if err != nil {
		return 0, err
	}

	return cosine(vecA, vecB), nil
}

// buildResult assembles the weighted result for an ordered pair from its
// keyword overlap and the two text scores.
func buildResult(a, b *models.Profile, p models.Params, head, desc float64) models.SimilarityResult {
	kw, common, uniqueA, uniqueB := jaccard(a.Keywords, b.Keywords)

	combined := clamp01(p.Weights.Keyword*kw + p.Weights.Description*desc + p.Weights.Headline*head)

	return models.SimilarityResult{
		ProfileA:         a.ID,
		ProfileB:         b.ID,
		KeywordScore:     kw,
		DescriptionScore: desc,
		HeadlineScore:    head,
		CombinedScore:    combined,
		CommonKeywords:   common,
		CommonCount:      len(common),
		UniqueToA:        uniqueA,
		UniqueToB:        uniqueB,
		PassesThreshold:  combined >= p.Threshold,
	}
}

// finish filters a result set down to qualifying pairs and orders it for
// output.
func finish(results []models.SimilarityResult, p models.Params) []models.SimilarityResult {
	out := make([]models.SimilarityResult, 0, len(results))
	for _, res := range results {
		if res.PassesThreshold {
			out = append(out, res)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}

		return out[i].Key() < out[j].Key()
	})

	return out
}

// jaccard measures keyword overlap as |intersection| / |union| over the
// normalized keyword sets, along with the membership lists the refinement
// and report layers surface.
func jaccard(keywordsA, keywordsB []string) (score float64, common, uniqueA, uniqueB []string) {
	setA := croissant.NormalizeKeywords(keywordsA)
	setB := croissant.NormalizeKeywords(keywordsB)

	inA := make(map[string]bool, len(setA))
	for _, k := range setA {
		inA[k] = true
	}
	inB := make(map[string]bool, len(setB))
	for _, k := range setB {
		inB[k] = true
	}

	common = []string{}
	uniqueA = []string{}
	uniqueB = []string{}
	for _, k := range setA {
		if inB[k] {
			common = append(common, k)
		} else {
			uniqueA = append(uniqueA, k)
		}
	}
	for _, k := range setB {
		if !inA[k] {
			uniqueB = append(uniqueB, k)
		}
	}

	union := len(common) + len(uniqueA) + len(uniqueB)
	if union == 0 {
		return 0, common, uniqueA, uniqueB
	}

	return float64(len(common)) / float64(union), common, uniqueA, uniqueB
}

// cosine computes cosine similarity clamped to [0, 1]. Mismatched lengths and
// zero-norm vectors score zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
