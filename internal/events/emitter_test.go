package events

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

var _ Emitter = NoopEmitter{}
var _ Emitter = (*NATSEmitter)(nil)

// Reports ride inside the envelope, so tiers with unparsed odds must still
// produce valid JSON.
func TestAnalyzerEvent_ReportPayload(t *testing.T) {
	report := &types.Report{
		Name: "Gold Rush",
		Tiers: []types.TierResult{
			{Tier: types.Tier{Label: "Mystery", Value: 100, Odds: math.NaN()}},
		},
	}
	event := AnalyzerEvent{Type: TypeReport, Source: "tx-lottery", Data: report, Timestamp: 1700000000}

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"report"`)
	assert.Contains(t, string(data), `"odds":null`)

	var back AnalyzerEvent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "tx-lottery", back.Source)
	assert.Equal(t, int64(1700000000), back.Timestamp)
}
