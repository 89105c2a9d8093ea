// Package tactics samples randomized bout contexts from the profile
// catalogs and renders them as prompt text.
package tactics

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// Sampler draws uniform choices from the catalogs. It is safe for
// concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler seeded from the clock.
func NewSampler() *Sampler {
	now := uint64(time.Now().UnixNano())
	return &Sampler{rng: rand.New(rand.NewPCG(now, now>>1|1))}
}

// NewSeededSampler returns a sampler whose draws are reproducible.
func NewSeededSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Sampler) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// SampleProfile draws one option per opponent dimension, independently.
func (s *Sampler) SampleProfile() domain.OpponentProfile {
	return domain.OpponentProfile(s.sampleSelection(domain.OpponentCatalog))
}

// SampleSelfEvaluation draws one option per self-state dimension.
func (s *Sampler) SampleSelfEvaluation() domain.FencerSelfEvaluation {
	return domain.FencerSelfEvaluation(s.sampleSelection(domain.SelfEvaluationCatalog))
}

func (s *Sampler) sampleSelection(catalog []domain.ProfileDimension) domain.Selection {
	sel := make(domain.Selection, len(catalog))
	for _, d := range catalog {
		sel[d.Name] = s.intN(len(d.Options))
	}
	return sel
}

// SampleSituationalFactors picks a context, then a score from that
// context's own list, then an unrelated time phrase.
func (s *Sampler) SampleSituationalFactors() domain.SituationalFactors {
	ctx := domain.SituationalContexts[s.intN(len(domain.SituationalContexts))]
	return domain.SituationalFactors{
		Context:       ctx.Label(),
		Score:         ctx.Scores[s.intN(len(ctx.Scores))],
		TimeRemaining: domain.TimeRemainingPhrases[s.intN(len(domain.TimeRemainingPhrases))],
	}
}

// Sample draws a complete scenario context.
func (s *Sampler) Sample() domain.ScenarioContext {
	return domain.ScenarioContext{
		Opponent:    s.SampleProfile(),
		Self:        s.SampleSelfEvaluation(),
		Situational: s.SampleSituationalFactors(),
	}
}
