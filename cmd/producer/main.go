package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
)

var (
	kafkaBroker = flag.String("broker", "localhost:9092", "Kafka broker address")
	topic       = flag.String("topic", "api-indicators", "Kafka topic to publish records to")
	interval    = flag.Duration("interval", 200*time.Millisecond, "Delay between published batches")
)

var apis = []string{"/orders", "/users", "/payments"}

func main() {
	flag.Parse()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*kafkaBroker),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting sample producer for topic: %s on broker: %s", *topic, *kafkaBroker)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ticker.C:
			msgs := make([]kafka.Message, 0, 3)
			for _, rec := range generateSampleRecords(rng) {
				payload, err := json.Marshal(rec)
				if err != nil {
					log.Printf("Error marshalling record: %v", err)
					continue
				}
				msgs = append(msgs, kafka.Message{Key: []byte(rec.API), Value: payload})
			}

			if err := writer.WriteMessages(ctx, msgs...); err != nil {
				if ctx.Err() != nil {
					log.Println("Context cancelled, exiting message loop.")
					return
				}
				log.Printf("Error writing messages: %v", err)
			}

		case <-ctx.Done():
			log.Println("Producer loop stopped.")
			return
		}
	}
}

// generateSampleRecords emits one latency, one payload size and one call count record for a random API.
func generateSampleRecords(rng *rand.Rand) []indicator.Record {
	api := apis[rng.Intn(len(apis))]

	latency := 10 + rng.Intn(40) // 10-49 ms
	if rng.Float64() < 0.02 {
		latency += 200 + rng.Intn(800) // occasional slow call
	}
	size := 256 + rng.Intn(4096)

	return []indicator.Record{
		{API: api, Name: "latency", Value: indicator.NewDecimalFromInt64(int64(latency)), Unit: "ms", Operation: indicator.Average},
		{API: api, Name: "response_size", Value: indicator.MustDecimal(strconv.Itoa(size)), Unit: "B", Operation: indicator.Sum},
		{API: api, Name: "calls", Unit: "times", Operation: indicator.Count},
	}
}
