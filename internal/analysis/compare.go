package analysis

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// Compare evaluates one game for the comparative table: launch-state EV from
// total counts and current-state EV from remaining counts, both over a
// mean-ratio pool so the two share a base. Tiers the estimator cannot use
// (no total, no usable odds) carry no weight here.
func Compare(game *types.Game, opts Options) (types.Comparison, error) {
	if game.TicketPrice <= 0 {
		return types.Comparison{}, newFailure(
			FailureMissingPrecondition, "game %q has no ticket price", game.Name)
	}

	est, err := EstimatePool(game.Tiers, enum.MethodMeanRatio)
	if err != nil {
		return types.Comparison{}, err
	}

	for i := range game.Tiers {
		if game.Tiers[i].IsTicket {
			game.Tiers[i].Value = game.TicketPrice
		}
	}

	var claimedSum, currentSum, sumRemaining float64
	for _, t := range game.Tiers {
		if t.Total == 0 || !positiveFinite(t.Odds) {
			continue
		}
		adjusted := opts.adjustedValue(t)
		claimedSum += adjusted * float64(t.Total)
		currentSum += adjusted * float64(t.Remaining)
		sumRemaining += float64(t.Remaining)
	}

	claimedGross := claimedSum / est.Launch
	currentGross := currentSum / est.Current

	cmp := types.Comparison{
		Name:         game.Name,
		Number:       game.Number,
		Price:        game.TicketPrice,
		ClaimedOdds:  game.ClaimedOdds,
		ClaimedGross: claimedGross,
		ClaimedNet:   claimedGross - game.TicketPrice,
		CurrentGross: currentGross,
		CurrentNet:   currentGross - game.TicketPrice,
	}
	if sumRemaining > 0 {
		cmp.CalcOdds = est.Current / sumRemaining
	}
	cmp.DeltaPct = deltaPercent(cmp.ClaimedNet, cmp.CurrentNet)
	return cmp, nil
}

// deltaPercent is the net EV drift between launch and now. A game whose
// claimed net is exactly zero reports zero drift rather than a division
// blowup.
func deltaPercent(claimedNet, currentNet float64) float64 {
	if claimedNet == 0 {
		return 0
	}
	return (currentNet - claimedNet) / math.Abs(claimedNet) * 100
}

// CompareAll analyzes a batch. Games are independent, so the batch fans out
// across goroutines; results keep batch order and games that cannot be
// compared are dropped, never fatal.
func CompareAll(games []types.Game, opts Options) []types.Comparison {
	results := make([]*types.Comparison, len(games))

	var g errgroup.Group
	for i := range games {
		g.Go(func() error {
			cmp, err := Compare(&games[i], opts)
			if err == nil {
				results[i] = &cmp
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]types.Comparison, 0, len(games))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
