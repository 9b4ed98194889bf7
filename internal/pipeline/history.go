package pipeline

import (
	"fmt"
	"os"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
)

// LoadHistory reads the startup snapshot for the handler. An empty path
// means no snapshot and yields an empty history.
func LoadHistory(path string) ([]message.SpreadStat, error) {
	if path == "" {
		return []message.SpreadStat{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryLoadFailed, err)
	}
	defer f.Close()

	history, err := message.ParseHistory(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHistoryLoadFailed, path, err)
	}
	return history, nil
}
