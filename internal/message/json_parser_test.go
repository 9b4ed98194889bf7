package message

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
  "timestamp": 1700000000123,
  "byBroker": {"Bitflyer": {"ask": {"broker": "Bitflyer", "side": "Ask", "price": 600100, "volume": 0.5}}},
  "bestCase": {
    "invertedSpread": 250,
    "availableVolume": 0.5,
    "targetVolume": 0.01,
    "targetProfit": 2,
    "profitPercentAgainstNotional": 0.034
  },
  "worstCase": {"profitPercentAgainstNotional": -0.12}
}`

func TestParseSpreadStat(t *testing.T) {
	stat, err := ParseSpreadStat([]byte(sampleRecord))
	require.NoError(t, err)

	assert.Equal(t, time.UnixMilli(1700000000123), stat.Timestamp)
	assert.Equal(t, 0.034, stat.ProfitPercent())
	assert.Equal(t, 250.0, stat.BestCase.InvertedSpread)
	assert.Equal(t, -0.12, stat.WorstCase.ProfitPercentAgainstNotional)
	require.Contains(t, stat.ByBroker, "Bitflyer")
	assert.Equal(t, 600100.0, stat.ByBroker["Bitflyer"].Ask.Price)
}

func TestParseSpreadStatMissingFields(t *testing.T) {
	tests := map[string]string{
		"no timestamp":      `{"bestCase": {"profitPercentAgainstNotional": 1}}`,
		"no best case":      `{"timestamp": 1}`,
		"no profit percent": `{"timestamp": 1, "bestCase": {"targetProfit": 3}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpreadStat([]byte(body))
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestParseSpreadStatInvalidJSON(t *testing.T) {
	_, err := ParseSpreadStat([]byte(`{"timestamp": "yesterday"`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)
}

func TestSpreadStatMarshalKeepsMilliseconds(t *testing.T) {
	in := SpreadStat{
		Timestamp: time.UnixMilli(1700000000456),
		BestCase:  SpreadAnalysisResult{ProfitPercentAgainstNotional: 1.25},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":1700000000456`)

	out, err := ParseSpreadStat(data)
	require.NoError(t, err)
	assert.True(t, in.Timestamp.Equal(out.Timestamp))
	assert.Equal(t, 1.25, out.ProfitPercent())
}

func TestParseHistoryJSONLines(t *testing.T) {
	input := `
{"timestamp": 1000, "bestCase": {"profitPercentAgainstNotional": 1.0}}

{"timestamp": 2000, "bestCase": {"profitPercentAgainstNotional": 2.0}}
`
	history, err := ParseHistory(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1.0, history[0].ProfitPercent())
	assert.Equal(t, time.UnixMilli(2000), history[1].Timestamp)
}

func TestParseHistoryArray(t *testing.T) {
	input := `[{"timestamp": 1000, "bestCase": {"profitPercentAgainstNotional": 3.5}}]`
	history, err := ParseHistory(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3.5, history[0].ProfitPercent())
}

func TestParseHistoryEmpty(t *testing.T) {
	history, err := ParseHistory(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestParseHistoryRejectsBadRecord(t *testing.T) {
	input := `{"timestamp": 1000, "bestCase": {"profitPercentAgainstNotional": 1.0}}
{"timestamp": 2000}`
	_, err := ParseHistory(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "record 2")
}
