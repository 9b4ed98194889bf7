package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Quote is one side of a broker's order book top.
type Quote struct {
	Broker string  `json:"broker"`
	Side   string  `json:"side"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// SpreadAnalysisResult is the arbitrage outcome for one bid/ask pairing.
// ProfitPercentAgainstNotional is computed upstream and is the only field
// the threshold handler reads.
type SpreadAnalysisResult struct {
	Bid                          *Quote  `json:"bid,omitempty"`
	Ask                          *Quote  `json:"ask,omitempty"`
	InvertedSpread               float64 `json:"invertedSpread"`
	AvailableVolume              float64 `json:"availableVolume"`
	TargetVolume                 float64 `json:"targetVolume"`
	TargetProfit                 float64 `json:"targetProfit"`
	ProfitPercentAgainstNotional float64 `json:"profitPercentAgainstNotional"`
}

// BrokerStat holds a broker's best quotes at sampling time.
type BrokerStat struct {
	Ask *Quote `json:"ask,omitempty"`
	Bid *Quote `json:"bid,omitempty"`
}

// SpreadStat is a single sample published by the market-data pipeline.
// On the wire the timestamp is epoch milliseconds.
type SpreadStat struct {
	Timestamp time.Time
	ByBroker  map[string]BrokerStat
	BestCase  SpreadAnalysisResult
	WorstCase SpreadAnalysisResult
}

// ProfitPercent is shorthand for BestCase.ProfitPercentAgainstNotional.
func (s SpreadStat) ProfitPercent() float64 {
	return s.BestCase.ProfitPercentAgainstNotional
}

type wireResult struct {
	Bid                          *Quote   `json:"bid,omitempty"`
	Ask                          *Quote   `json:"ask,omitempty"`
	InvertedSpread               float64  `json:"invertedSpread"`
	AvailableVolume              float64  `json:"availableVolume"`
	TargetVolume                 float64  `json:"targetVolume"`
	TargetProfit                 float64  `json:"targetProfit"`
	ProfitPercentAgainstNotional *float64 `json:"profitPercentAgainstNotional"`
}

type wireSpreadStat struct {
	Timestamp *int64                `json:"timestamp"`
	ByBroker  map[string]BrokerStat `json:"byBroker,omitempty"`
	BestCase  *wireResult           `json:"bestCase"`
	WorstCase *wireResult           `json:"worstCase,omitempty"`
}

func (w *wireResult) toResult() SpreadAnalysisResult {
	r := SpreadAnalysisResult{
		Bid:             w.Bid,
		Ask:             w.Ask,
		InvertedSpread:  w.InvertedSpread,
		AvailableVolume: w.AvailableVolume,
		TargetVolume:    w.TargetVolume,
		TargetProfit:    w.TargetProfit,
	}
	if w.ProfitPercentAgainstNotional != nil {
		r.ProfitPercentAgainstNotional = *w.ProfitPercentAgainstNotional
	}
	return r
}

func toWire(r SpreadAnalysisResult) *wireResult {
	p := r.ProfitPercentAgainstNotional
	return &wireResult{
		Bid:                          r.Bid,
		Ask:                          r.Ask,
		InvertedSpread:               r.InvertedSpread,
		AvailableVolume:              r.AvailableVolume,
		TargetVolume:                 r.TargetVolume,
		TargetProfit:                 r.TargetProfit,
		ProfitPercentAgainstNotional: &p,
	}
}

// MarshalJSON implements json.Marshaler.
func (s SpreadStat) MarshalJSON() ([]byte, error) {
	ts := s.Timestamp.UnixMilli()
	return json.Marshal(wireSpreadStat{
		Timestamp: &ts,
		ByBroker:  s.ByBroker,
		BestCase:  toWire(s.BestCase),
		WorstCase: toWire(s.WorstCase),
	})
}

// UnmarshalJSON implements json.Unmarshaler. A record without a timestamp
// or without bestCase.profitPercentAgainstNotional is rejected with
// ErrMissingField instead of being zero-filled.
func (s *SpreadStat) UnmarshalJSON(data []byte) error {
	var w wireSpreadStat
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Timestamp == nil {
		return fmt.Errorf("%w: timestamp", ErrMissingField)
	}
	if w.BestCase == nil || w.BestCase.ProfitPercentAgainstNotional == nil {
		return fmt.Errorf("%w: bestCase.profitPercentAgainstNotional", ErrMissingField)
	}

	*s = SpreadStat{
		Timestamp: time.UnixMilli(*w.Timestamp),
		ByBroker:  w.ByBroker,
		BestCase:  w.BestCase.toResult(),
	}
	if w.WorstCase != nil {
		s.WorstCase = w.WorstCase.toResult()
	}
	return nil
}
