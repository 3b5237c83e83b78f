package reasoning

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("ensemble", func() Worker { return &EnsembleWorker{} }) }

type ensembleMember struct {
	name  string
	resp  *schema.AgentResponse
	score float64
}

// EnsembleWorker runs deps.EnsembleWorkers concurrently (a sub-worker
// name may repeat for multiple independent copies) and aggregates their
// answers with deps.EnsembleAggregate ("majority" default, "weighted",
// or "best"), per spec.md §4.6's `ensemble` row.
type EnsembleWorker struct{}

func (w *EnsembleWorker) Name() string { return "ensemble" }

func (w *EnsembleWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	names := deps.EnsembleWorkers
	if len(names) == 0 {
		return nil, fmt.Errorf("ensemble: no sub-workers configured")
	}

	members := make([]ensembleMember, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			worker, err := deps.Registry.New(name)
			if err != nil {
				return fmt.Errorf("ensemble: %w", err)
			}
			subDeps := deps
			subDeps.Stream = nil
			resp, err := worker.Execute(gctx, input.Clone(), subDeps)
			if err != nil {
				return fmt.Errorf("ensemble: sub-worker %q: %w", name, err)
			}
			score := 0.0
			if deps.Scorer != nil {
				if s, serr := deps.Scorer(gctx, input, resp.Answer); serr == nil {
					score = s
				}
			}
			members[i] = ensembleMember{name: name, resp: resp, score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean := meanEnsembleScore(members)

	var winner ensembleMember
	switch deps.EnsembleAggregate {
	case "best":
		winner = bestOf(members)
	case "weighted":
		winner = weightedVote(members)
	default:
		samples := make([]dcotSample, len(members))
		for i, m := range members {
			samples[i] = dcotSample{answer: m.resp.Answer, res: m.resp, score: m.score}
		}
		voted := majorityVote(samples)
		winner = ensembleMember{name: voted.answer, resp: voted.res, score: voted.score}
	}

	// Invariant 10: the returned candidate's score never reads lower
	// than the mean of its sub-workers' scores.
	winner.resp.Score = math.Max(winner.score, mean)
	return winner.resp, nil
}

func meanEnsembleScore(members []ensembleMember) float64 {
	if len(members) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range members {
		sum += m.score
	}
	return sum / float64(len(members))
}

func bestOf(members []ensembleMember) ensembleMember {
	best := members[0]
	for _, m := range members[1:] {
		if m.score > best.score {
			best = m
		}
	}
	return best
}

// weightedVote groups members by answer text and returns the member
// representing the group with the highest summed score.
func weightedVote(members []ensembleMember) ensembleMember {
	type group struct {
		sum  float64
		best ensembleMember
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(members))
	for _, m := range members {
		g, ok := groups[m.resp.Answer]
		if !ok {
			g = &group{}
			groups[m.resp.Answer] = g
			order = append(order, m.resp.Answer)
		}
		g.sum += m.score
		if g.sum == m.score || m.score > g.best.score {
			g.best = m
		}
	}
	var winner *group
	for _, key := range order {
		g := groups[key]
		if winner == nil || g.sum > winner.sum {
			winner = g
		}
	}
	return winner.best
}
