package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
)

func TestLoadHistoryEmptyPath(t *testing.T) {
	history, err := LoadHistory("")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLoadHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	body := `{"timestamp": 1700000000000, "bestCase": {"profitPercentAgainstNotional": 0.5}}
{"timestamp": 1700000003000, "bestCase": {"profitPercentAgainstNotional": 0.7}}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	history, err := LoadHistory(path)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0.7, history[1].ProfitPercent())
}

func TestLoadHistoryErrors(t *testing.T) {
	_, err := LoadHistory(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, ErrHistoryLoadFailed)

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"timestamp": 1}`), 0o600))
	_, err = LoadHistory(path)
	assert.ErrorIs(t, err, ErrHistoryLoadFailed)
	assert.ErrorIs(t, err, message.ErrMissingField)
}
