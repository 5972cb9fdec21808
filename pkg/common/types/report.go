package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
)

// PoolEstimate is the estimated ticket pool behind a game. Current is the
// denominator for per-tier win probabilities; Launch is the estimated pool at
// launch, or 0 when the method has no launch notion.
type PoolEstimate struct {
	Launch  float64             `json:"launch"`
	Current float64             `json:"current"`
	Method  enum.EstimateMethod `json:"method"`
}

type TierResult struct {
	Tier          Tier    `json:"tier"`
	Probability   float64 `json:"probability"`
	AdjustedValue float64 `json:"adjusted_value"`
	Contribution  float64 `json:"contribution"`
}

// Report is the full single-game analysis result.
type Report struct {
	Name    string       `json:"name"`
	Number  string       `json:"number"`
	Price   float64      `json:"price"`
	Pool    PoolEstimate `json:"pool"`
	Tiers   []TierResult `json:"tiers"`
	GrossEV float64      `json:"gross_ev"`
	NetEV   float64      `json:"net_ev"`
}

func (r Report) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Report) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

// Comparison puts a game's launch-state and current-state expected values
// side by side. Delta is the percent change of net EV between the two.
type Comparison struct {
	Name         string  `json:"name"`
	Number       string  `json:"number"`
	Price        float64 `json:"price"`
	ClaimedOdds  string  `json:"claimed_odds"`
	CalcOdds     float64 `json:"calc_odds"`
	ClaimedGross float64 `json:"claimed_gross"`
	ClaimedNet   float64 `json:"claimed_net"`
	CurrentGross float64 `json:"current_gross"`
	CurrentNet   float64 `json:"current_net"`
	DeltaPct     float64 `json:"delta_pct"`
}

func (c Comparison) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Comparison) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, c)
}

func (c Comparison) String() string {
	return fmt.Sprintf(
		"{Name: %s, Number: %s, Price: %.2f, CalcOdds: %.2f, ClaimedNet: %.4f, CurrentNet: %.4f, Delta: %+.2f%%}",
		c.Name,
		c.Number,
		c.Price,
		c.CalcOdds,
		c.ClaimedNet,
		c.CurrentNet,
		c.DeltaPct,
	)
}

// SortComparisons orders rows in place for display. The sort is stable so
// ties keep batch order; an unknown key leaves the input order untouched.
func SortComparisons(rows []Comparison, key enum.SortKey, descending bool) {
	var less func(a, b Comparison) bool
	switch key {
	case enum.SortByPrice:
		less = func(a, b Comparison) bool { return a.Price < b.Price }
	case enum.SortByName:
		less = func(a, b Comparison) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case enum.SortByNumber:
		less = func(a, b Comparison) bool { return a.Number < b.Number }
	case enum.SortByOdds:
		less = func(a, b Comparison) bool { return a.CalcOdds < b.CalcOdds }
	case enum.SortByClaimed:
		less = func(a, b Comparison) bool { return a.ClaimedNet < b.ClaimedNet }
	case enum.SortByCurrent:
		less = func(a, b Comparison) bool { return a.CurrentNet < b.CurrentNet }
	case enum.SortByDelta:
		less = func(a, b Comparison) bool { return a.DeltaPct < b.DeltaPct }
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if descending {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
