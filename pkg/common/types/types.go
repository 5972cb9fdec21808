package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// FlexString holds a field that sources publish as either a JSON string or a
// bare number. Both decode to their textual form; null decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// RawTier is one prize row as published, before normalization. Counts carries
// the combined "N of M" text; Remaining/Total carry split counts. A row may
// have either form, or neither.
type RawTier struct {
	Prize     FlexString `json:"prize"`
	Odds      FlexString `json:"odds"`
	Counts    FlexString `json:"counts"`
	Remaining FlexString `json:"remaining"`
	Total     FlexString `json:"total"`
}

type RawGame struct {
	Name            FlexString `json:"name"`
	Number          FlexString `json:"number"`
	Price           FlexString `json:"price"`
	ClaimedOdds     FlexString `json:"claimed_odds"`
	ClaimedCashOdds FlexString `json:"claimed_cash_odds"`
	Tiers           []RawTier  `json:"tiers"`
}

// DecodeRawGames reads a source payload holding either a JSON array of game
// documents or one bare document.
func DecodeRawGames(data []byte) ([]RawGame, error) {
	var games []RawGame
	if err := json.Unmarshal(data, &games); err == nil {
		return games, nil
	}
	var one RawGame
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("payload is neither a game list nor a game: %w", err)
	}
	return []RawGame{one}, nil
}

// Tier is a normalized prize tier. Value and Odds are NaN when the published
// text could not be parsed; NaN marshals as null so reports stay valid JSON.
type Tier struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	IsTicket  bool    `json:"is_ticket"`
	Odds      float64 `json:"odds"`
	Remaining uint64  `json:"remaining"`
	Total     uint64  `json:"total"`
}

func (t Tier) MarshalJSON() ([]byte, error) {
	type Alias Tier
	aux := struct {
		Alias
		Value *float64 `json:"value"`
		Odds  *float64 `json:"odds"`
	}{Alias: Alias(t)}
	if !math.IsNaN(t.Value) {
		v := t.Value
		aux.Value = &v
	}
	if !math.IsNaN(t.Odds) {
		o := t.Odds
		aux.Odds = &o
	}
	return json.Marshal(aux)
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	type Alias Tier
	aux := struct {
		*Alias
		Value *float64 `json:"value"`
		Odds  *float64 `json:"odds"`
	}{Alias: (*Alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Value = math.NaN()
	if aux.Value != nil {
		t.Value = *aux.Value
	}
	t.Odds = math.NaN()
	if aux.Odds != nil {
		t.Odds = *aux.Odds
	}
	return nil
}

// Game is a normalized scratch-off game. Number stays a string so game
// numbers keep their leading zeros.
type Game struct {
	Name            string  `json:"name"`
	Number          string  `json:"number"`
	TicketPrice     float64 `json:"ticket_price"`
	ClaimedOdds     string  `json:"claimed_odds"`
	ClaimedCashOdds string  `json:"claimed_cash_odds"`
	Tiers           []Tier  `json:"tiers"`
}

func (g Game) String() string {
	return fmt.Sprintf("{Name: %s, Number: %s, Price: %.2f, Tiers: %d}",
		g.Name, g.Number, g.TicketPrice, len(g.Tiers))
}
