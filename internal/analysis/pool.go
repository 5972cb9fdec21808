package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// DefaultMethods is the estimation order for single-game analysis.
// Comparative runs use MethodMeanRatio instead, because they need launch and
// current pools derived from the same base.
var DefaultMethods = []enum.EstimateMethod{
	enum.MethodTicketAnchor,
	enum.MethodMedianFallback,
}

// EstimatePool sizes the ticket pool behind a set of tiers. Methods run in
// order and the first applicable one wins; when none applies the game cannot
// be analyzed and an estimation Failure is returned.
func EstimatePool(tiers []types.Tier, methods ...enum.EstimateMethod) (types.PoolEstimate, error) {
	if len(methods) == 0 {
		methods = DefaultMethods
	}
	for _, method := range methods {
		var est types.PoolEstimate
		var ok bool
		switch method {
		case enum.MethodTicketAnchor:
			est, ok = estimateTicketAnchor(tiers)
		case enum.MethodMedianFallback:
			est, ok = estimateMedianFallback(tiers)
		case enum.MethodMeanRatio:
			est, ok = estimateMeanRatio(tiers)
		}
		if ok {
			return est, nil
		}
	}
	return types.PoolEstimate{}, newFailure(
		FailureEstimation, "no estimation method applies over %d tiers", len(tiers))
}

// estimateTicketAnchor anchors on the first ticket tier with a total count
// and usable odds. Launch pool is total*odds; the current pool scales it by
// the fraction of that tier still unclaimed. The formula chain is kept as
// two steps on purpose: downstream probabilities must match it bit for bit.
func estimateTicketAnchor(tiers []types.Tier) (types.PoolEstimate, bool) {
	for _, t := range tiers {
		if !t.IsTicket || t.Total == 0 || !positiveFinite(t.Odds) {
			continue
		}
		total := float64(t.Total)
		launch := total * t.Odds
		current := launch * (float64(t.Remaining) / total)
		if !positiveFinite(current) {
			return types.PoolEstimate{}, false
		}
		return types.PoolEstimate{
			Launch:  launch,
			Current: current,
			Method:  enum.MethodTicketAnchor,
		}, true
	}
	return types.PoolEstimate{}, false
}

// estimateMedianFallback takes the median of remaining*odds across tiers
// that still have prizes left. The median shrugs off one or two wildly
// mis-published odds rows; for even counts the two middle values average.
func estimateMedianFallback(tiers []types.Tier) (types.PoolEstimate, bool) {
	products := make([]float64, 0, len(tiers))
	for _, t := range tiers {
		if t.Remaining == 0 || !positiveFinite(t.Odds) {
			continue
		}
		products = append(products, float64(t.Remaining)*t.Odds)
	}
	if len(products) == 0 {
		return types.PoolEstimate{}, false
	}

	sort.Float64s(products)
	var median float64
	n := len(products)
	if n%2 == 0 {
		median = (products[n/2-1] + products[n/2]) / 2
	} else {
		median = products[n/2]
	}
	if !positiveFinite(median) {
		return types.PoolEstimate{}, false
	}
	return types.PoolEstimate{Current: median, Method: enum.MethodMedianFallback}, true
}

// estimateMeanRatio averages odds*total across usable tiers for the launch
// pool, then scales by the claimed fraction remaining for the current pool.
func estimateMeanRatio(tiers []types.Tier) (types.PoolEstimate, bool) {
	launches := make([]float64, 0, len(tiers))
	var sumRemaining, sumTotal float64
	for _, t := range tiers {
		if t.Total == 0 || !positiveFinite(t.Odds) {
			continue
		}
		launches = append(launches, t.Odds*float64(t.Total))
		sumRemaining += float64(t.Remaining)
		sumTotal += float64(t.Total)
	}
	if len(launches) == 0 || sumTotal == 0 {
		return types.PoolEstimate{}, false
	}

	launch := stat.Mean(launches, nil)
	current := launch * (sumRemaining / sumTotal)
	if !positiveFinite(launch) || !positiveFinite(current) {
		return types.PoolEstimate{}, false
	}
	return types.PoolEstimate{
		Launch:  launch,
		Current: current,
		Method:  enum.MethodMeanRatio,
	}, true
}

func positiveFinite(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
