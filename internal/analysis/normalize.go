package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

var (
	currencyCleaner = strings.NewReplacer("$", "", "€", "", "£", "", " ", "", " ", "")
	oddsPattern     = regexp.MustCompile(`(?i)^\s*1\s*in\s*([0-9][0-9.,]*)\s*$`)
	countsPattern   = regexp.MustCompile(`(?i)^\s*([0-9][0-9,]*)\s*of\s*([0-9][0-9,]*)\s*$`)
)

// TicketLabel reports whether a prize label means a free replacement ticket
// rather than a cash amount.
func TicketLabel(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	return l == "ticket" || strings.Contains(l, "free ticket")
}

// ParseMoney turns published prize text into a dollar amount. Currency
// symbols, thousands separators and whitespace are stripped; anything that
// still does not parse yields NaN.
func ParseMoney(s string) float64 {
	return parseNumber(currencyCleaner.Replace(s))
}

// ParseOdds extracts the denominator from "1 in N" text. Bare numbers pass
// through; unparseable text yields NaN.
func ParseOdds(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if m := oddsPattern.FindStringSubmatch(s); m != nil {
		return parseNumber(m[1])
	}
	return parseNumber(s)
}

// ParseCounts splits "N of M" text into remaining and total counts. The ok
// result distinguishes absent counts from a genuine zero.
func ParseCounts(s string) (remaining, total uint64, ok bool) {
	m := countsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	remaining, err1 := strconv.ParseUint(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	total, err2 := strconv.ParseUint(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return remaining, total, true
}

func parseNumber(s string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// NormalizeTier converts one published prize row. A row with no resolvable
// counts is dropped, as is a cash row whose amount cannot be parsed; ticket
// rows always take the game's ticket price as their value.
func NormalizeTier(raw types.RawTier, ticketPrice float64) (types.Tier, bool) {
	tier := types.Tier{
		Label: strings.TrimSpace(raw.Prize.String()),
		Odds:  ParseOdds(raw.Odds.String()),
	}

	if rem, tot, ok := ParseCounts(raw.Counts.String()); ok {
		tier.Remaining, tier.Total = rem, tot
	} else if rem, tot, ok := splitCounts(raw); ok {
		tier.Remaining, tier.Total = rem, tot
	} else {
		return types.Tier{}, false
	}

	if TicketLabel(tier.Label) {
		tier.IsTicket = true
		tier.Value = ticketPrice
		return tier, true
	}

	tier.Value = ParseMoney(tier.Label)
	if math.IsNaN(tier.Value) {
		return types.Tier{}, false
	}
	return tier, true
}

func splitCounts(raw types.RawTier) (remaining, total uint64, ok bool) {
	remStr := strings.ReplaceAll(strings.TrimSpace(raw.Remaining.String()), ",", "")
	totStr := strings.ReplaceAll(strings.TrimSpace(raw.Total.String()), ",", "")
	if remStr == "" || totStr == "" {
		return 0, 0, false
	}
	rem, err1 := strconv.ParseUint(remStr, 10, 64)
	tot, err2 := strconv.ParseUint(totStr, 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return rem, tot, true
}

// NormalizeGame converts a raw record into the typed form the numeric code
// works on. The second result counts tiers dropped as unparseable.
func NormalizeGame(raw types.RawGame) (types.Game, int) {
	game := types.Game{
		Name:            strings.TrimSpace(raw.Name.String()),
		Number:          strings.TrimSpace(raw.Number.String()),
		TicketPrice:     ParseMoney(raw.Price.String()),
		ClaimedOdds:     strings.TrimSpace(raw.ClaimedOdds.String()),
		ClaimedCashOdds: strings.TrimSpace(raw.ClaimedCashOdds.String()),
	}
	if math.IsNaN(game.TicketPrice) {
		game.TicketPrice = 0
	}

	dropped := 0
	game.Tiers = make([]types.Tier, 0, len(raw.Tiers))
	for _, rt := range raw.Tiers {
		tier, ok := NormalizeTier(rt, game.TicketPrice)
		if !ok {
			dropped++
			continue
		}
		game.Tiers = append(game.Tiers, tier)
	}
	return game, dropped
}
