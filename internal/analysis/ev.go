package analysis

import (
	"github.com/oddslab/scratch-analyzer/pkg/common/constant"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// Options control the prize adjustment pipeline. The zero value applies no
// adjustments; DefaultOptions carries the standard tax rate so a caller that
// flips ApplyTax on gets a sane percentage.
type Options struct {
	IgnoreUnder500 bool
	ApplyTax       bool
	TaxRate        float64 // percent
}

func DefaultOptions() Options {
	return Options{TaxRate: constant.DefaultTaxRate}
}

// adjustedValue runs the fixed adjustment order for one tier: small-prize
// filter first, then tax. Ticket tiers bypass both.
func (o Options) adjustedValue(t types.Tier) float64 {
	if t.IsTicket {
		return t.Value
	}
	value := t.Value
	if o.IgnoreUnder500 && value > 0 && value < constant.SmallPrizeThreshold {
		value = 0
	}
	if o.ApplyTax && value > 0 {
		value *= 1 - o.TaxRate/100
	}
	return value
}

// Compute prices every tier against an already-estimated pool. Ticket tiers
// in game.Tiers are revalued to the current ticket price in place, so a
// recompute after a price fix stays consistent. Identical inputs produce
// bit-identical reports.
func Compute(game *types.Game, est types.PoolEstimate, opts Options) types.Report {
	for i := range game.Tiers {
		if game.Tiers[i].IsTicket {
			game.Tiers[i].Value = game.TicketPrice
		}
	}

	report := types.Report{
		Name:   game.Name,
		Number: game.Number,
		Price:  game.TicketPrice,
		Pool:   est,
		Tiers:  make([]types.TierResult, 0, len(game.Tiers)),
	}

	var gross float64
	for _, t := range game.Tiers {
		probability := float64(t.Remaining) / est.Current
		adjusted := opts.adjustedValue(t)
		contribution := probability * adjusted
		gross += contribution
		report.Tiers = append(report.Tiers, types.TierResult{
			Tier:          t,
			Probability:   probability,
			AdjustedValue: adjusted,
			Contribution:  contribution,
		})
	}

	report.GrossEV = gross
	report.NetEV = gross - game.TicketPrice
	return report
}

// Analyze runs the single-game pipeline: preconditions, pool estimation,
// then EV computation.
func Analyze(game *types.Game, opts Options) (types.Report, error) {
	if game.TicketPrice <= 0 {
		return types.Report{}, newFailure(
			FailureMissingPrecondition, "game %q has no ticket price", game.Name)
	}
	if len(game.Tiers) == 0 {
		return types.Report{}, newFailure(
			FailureMissingPrecondition, "game %q has no usable tiers", game.Name)
	}

	est, err := EstimatePool(game.Tiers, DefaultMethods...)
	if err != nil {
		return types.Report{}, err
	}
	return Compute(game, est, opts), nil
}
