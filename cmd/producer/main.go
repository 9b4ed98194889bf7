package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
)

var (
	brokers  = flag.String("brokers", "localhost:9092", "Comma separated Kafka brokers")
	topic    = flag.String("topic", "spread-stats", "Spread stat topic")
	interval = flag.Duration("interval", 3*time.Second, "Publish interval")
)

// Publishes synthetic spread stats for local runs of the handler.
func main() {
	flag.Parse()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting spread stat producer for topic %s on %s every %s", *topic, *brokers, *interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case now := <-ticker.C:
			payload, err := json.Marshal(generateSpreadStat(rng, now))
			if err != nil {
				log.Printf("Error marshalling spread stat: %v", err)
				continue
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error writing spread stat: %v", err)
				continue
			}
			log.Printf("Produced %s", payload)

		case <-ctx.Done():
			log.Println("Producer stopped.")
			return
		}
	}
}

// generateSpreadStat draws a Bitflyer/Coincheck quote pair around a mid
// price; profit percent follows from the inverted spread.
func generateSpreadStat(rng *rand.Rand, now time.Time) message.SpreadStat {
	mid := 6_000_000 + rng.NormFloat64()*5_000
	bidPrice := mid + rng.NormFloat64()*800
	askPrice := mid + rng.NormFloat64()*800
	volume := 0.01

	bid := &message.Quote{Broker: "Coincheck", Side: "Bid", Price: bidPrice, Volume: 0.5 + rng.Float64()}
	ask := &message.Quote{Broker: "Bitflyer", Side: "Ask", Price: askPrice, Volume: 0.5 + rng.Float64()}

	inverted := bidPrice - askPrice
	profit := inverted * volume
	notional := askPrice * volume

	best := message.SpreadAnalysisResult{
		Bid:                          bid,
		Ask:                          ask,
		InvertedSpread:               inverted,
		AvailableVolume:              min(bid.Volume, ask.Volume),
		TargetVolume:                 volume,
		TargetProfit:                 profit,
		ProfitPercentAgainstNotional: profit / notional * 100,
	}
	worst := best
	worst.ProfitPercentAgainstNotional = best.ProfitPercentAgainstNotional - rng.Float64()*0.05

	return message.SpreadStat{
		Timestamp: now,
		ByBroker: map[string]message.BrokerStat{
			"Bitflyer":  {Ask: ask},
			"Coincheck": {Bid: bid},
		},
		BestCase:  best,
		WorstCase: worst,
	}
}
