package reasoning

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("dcot", func() Worker { return &DynamicChainOfThoughtWorker{} }) }

type dcotSample struct {
	answer string
	res    *schema.AgentResponse
	score  float64
}

// DynamicChainOfThoughtWorker runs N independent chain-of-thought calls
// concurrently and takes a majority vote over the extracted answers,
// breaking ties with deps.Scorer when available, per spec.md §4.6's
// `dcot` row.
type DynamicChainOfThoughtWorker struct{}

func (w *DynamicChainOfThoughtWorker) Name() string { return "dcot" }

func (w *DynamicChainOfThoughtWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	n := deps.DCoTSamples
	if n <= 0 {
		n = 3
	}

	samples := make([]dcotSample, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			cot := &ChainOfThoughtWorker{}
			// Each sample streams nowhere: interleaving N concurrent
			// streams on one shared channel would scramble ordering.
			sampleDeps := deps
			sampleDeps.Stream = nil
			res, err := cot.Execute(gctx, input.Clone(), sampleDeps)
			if err != nil {
				return fmt.Errorf("dcot: sample %d: %w", i, err)
			}
			score := 0.0
			if deps.Scorer != nil {
				s, serr := deps.Scorer(gctx, input, res.Answer)
				if serr == nil {
					score = s
				}
			}
			samples[i] = dcotSample{answer: res.Answer, res: res, score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	winner := majorityVote(samples)
	winner.res.Score = math.Max(winner.score, meanScore(samples))
	return winner.res, nil
}

// meanScore averages every sample's score, used as the floor the
// winning candidate's reported Score must clear (spec invariant 10:
// "the ensemble returns a candidate with score >= the mean of
// sub-worker scores").
func meanScore(samples []dcotSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.score
	}
	return sum / float64(len(samples))
}

// majorityVote groups samples by answer text and returns the sample
// belonging to the largest group; ties between groups of equal size are
// broken by the highest individual score within each tied group, then
// by first-seen order.
func majorityVote(samples []dcotSample) dcotSample {
	type group struct {
		count int
		best  dcotSample
		first int
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(samples))
	for i, s := range samples {
		g, ok := groups[s.answer]
		if !ok {
			g = &group{first: i}
			groups[s.answer] = g
			order = append(order, s.answer)
		}
		g.count++
		if g.count == 1 || s.score > g.best.score {
			g.best = s
		}
	}

	var winner *group
	for _, key := range order {
		g := groups[key]
		switch {
		case winner == nil:
			winner = g
		case g.count > winner.count:
			winner = g
		case g.count == winner.count && g.best.score > winner.best.score:
			winner = g
		}
	}
	return winner.best
}
