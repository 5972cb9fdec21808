package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	var doc struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"$1,000","b":30,"c":5.5,"d":null}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, "$1,000", doc.A.String())
	assert.Equal(t, "30", doc.B.String())
	assert.Equal(t, "5.5", doc.C.String())
	assert.Equal(t, "", doc.D.String())
}

func TestFlexString_RejectsNonScalar(t *testing.T) {
	var f FlexString
	err := json.Unmarshal([]byte(`{"nested":true}`), &f)
	assert.Error(t, err)
}

func TestRawGame_MixedQuoting(t *testing.T) {
	payload := `{
		"name": "Gold Rush",
		"number": "0024",
		"price": 10,
		"claimed_odds": "1 in 3.45",
		"tiers": [
			{"prize": "$1,000,000", "odds": "1 in 732,144", "counts": "3 of 12"},
			{"prize": 500, "odds": 120.5, "remaining": "200", "total": 1000}
		]
	}`
	var g RawGame
	require.NoError(t, json.Unmarshal([]byte(payload), &g))

	assert.Equal(t, "0024", g.Number.String())
	assert.Equal(t, "10", g.Price.String())
	require.Len(t, g.Tiers, 2)
	assert.Equal(t, "3 of 12", g.Tiers[0].Counts.String())
	assert.Equal(t, "500", g.Tiers[1].Prize.String())
	assert.Equal(t, "120.5", g.Tiers[1].Odds.String())
	assert.Equal(t, "200", g.Tiers[1].Remaining.String())
	assert.Equal(t, "1000", g.Tiers[1].Total.String())
}

func TestDecodeRawGames(t *testing.T) {
	list, err := DecodeRawGames([]byte(`[{"name":"A"},{"name":"B"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[1].Name.String())

	single, err := DecodeRawGames([]byte(`{"name":"Solo","price":5}`))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "5", single[0].Price.String())

	_, err = DecodeRawGames([]byte(`"just a string"`))
	assert.Error(t, err)
}

func TestTier_JSONSurvivesNaN(t *testing.T) {
	tier := Tier{
		Label:     "TICKET",
		Value:     5,
		IsTicket:  true,
		Odds:      math.NaN(),
		Remaining: 100,
		Total:     200,
	}

	data, err := json.Marshal(tier)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"odds":null`)

	var back Tier
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsNaN(back.Odds))
	assert.Equal(t, 5.0, back.Value)
	assert.Equal(t, uint64(100), back.Remaining)
	assert.Equal(t, uint64(200), back.Total)
}

func TestTier_JSONOmittedValueIsNaN(t *testing.T) {
	var tier Tier
	require.NoError(t, json.Unmarshal([]byte(`{"label":"$50","remaining":10,"total":20}`), &tier))
	assert.True(t, math.IsNaN(tier.Value))
	assert.True(t, math.IsNaN(tier.Odds))
}

func TestReport_BinaryRoundTrip(t *testing.T) {
	r := Report{
		Name:   "Gold Rush",
		Number: "0024",
		Price:  10,
		Pool:   PoolEstimate{Launch: 8785728, Current: 7756596, Method: enum.MethodTicketAnchor},
		NetEV:  -3.25,
	}
	data, err := r.MarshalBinary()
	require.NoError(t, err)

	var back Report
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, r, back)
}

func comparisonFixture() []Comparison {
	return []Comparison{
		{Name: "Bravo", Number: "0300", Price: 20, CalcOdds: 3.1, ClaimedNet: -4, CurrentNet: -2, DeltaPct: 50},
		{Name: "alpha", Number: "0100", Price: 5, CalcOdds: 4.8, ClaimedNet: -1, CurrentNet: -3, DeltaPct: -200},
		{Name: "Charlie", Number: "0200", Price: 10, CalcOdds: 4.8, ClaimedNet: -2, CurrentNet: -1, DeltaPct: 50},
	}
}

func TestSortComparisons(t *testing.T) {
	rows := comparisonFixture()
	SortComparisons(rows, enum.SortByPrice, false)
	assert.Equal(t, []string{"alpha", "Charlie", "Bravo"}, names(rows))

	rows = comparisonFixture()
	SortComparisons(rows, enum.SortByName, false)
	assert.Equal(t, []string{"alpha", "Bravo", "Charlie"}, names(rows))

	rows = comparisonFixture()
	SortComparisons(rows, enum.SortByDelta, true)
	assert.Equal(t, []string{"Bravo", "Charlie", "alpha"}, names(rows))
}

func TestSortComparisons_StableOnTies(t *testing.T) {
	rows := comparisonFixture()
	SortComparisons(rows, enum.SortByOdds, false)
	// Bravo first, then the two 4.8 rows in their original relative order
	assert.Equal(t, []string{"Bravo", "alpha", "Charlie"}, names(rows))
}

func TestSortComparisons_UnknownKeyKeepsOrder(t *testing.T) {
	rows := comparisonFixture()
	SortComparisons(rows, enum.SortKey("bogus"), false)
	assert.Equal(t, []string{"Bravo", "alpha", "Charlie"}, names(rows))
}

func names(rows []Comparison) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}
