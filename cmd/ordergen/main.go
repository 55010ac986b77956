// Bulk order generator: pushes synthetic order messages into the queue for
// load and idempotency testing.
//
//	go run ./cmd/ordergen -count 1000 -dup-rate 0.1 -corrupt-rate 0.05
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"orderstats/config"
	"orderstats/internal/sqs"
	"orderstats/models"

	"github.com/google/uuid"
)

func main() {
	count := flag.Int("count", 100, "number of orders to send")
	users := flag.Int("users", 50, "number of distinct users")
	dupRate := flag.Float64("dup-rate", 0, "fraction of orders re-sent verbatim")
	corruptRate := flag.Float64("corrupt-rate", 0, "fraction of orders with a wrong order_value")
	delay := flag.Duration("delay", 10*time.Millisecond, "pause between sends")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	queue, err := sqs.NewClient(ctx, cfg.SQS)
	if err != nil {
		log.Fatalf("Failed to connect to SQS: %v", err)
	}

	log.Printf("Generating %d orders for %d users...", *count, *users)

	sent := 0
	for i := 0; i < *count; i++ {
		order := randomOrder(*users)
		if rand.Float64() < *corruptRate {
			order.OrderValue = order.OrderValue * 3.5
		}

		body, _ := json.Marshal(order)
		if err := queue.SendMessage(ctx, string(body)); err != nil {
			log.Fatalf("Failed to send order %s: %v", order.OrderID, err)
		}
		sent++

		if rand.Float64() < *dupRate {
			if err := queue.SendMessage(ctx, string(body)); err != nil {
				log.Fatalf("Failed to resend order %s: %v", order.OrderID, err)
			}
			sent++
		}

		time.Sleep(*delay)
	}

	log.Printf("Finished: %d messages sent.", sent)
}

func randomOrder(users int) *models.Order {
	items := make([]models.Item, rand.Intn(3)+1)
	for i := range items {
		items[i] = models.Item{
			ProductID:    fmt.Sprintf("P%03d", rand.Intn(99)+1),
			Quantity:     int64(rand.Intn(5) + 1),
			PricePerUnit: float64(rand.Intn(9500)+500) / 100,
		}
	}

	order := &models.Order{
		OrderID:        "ORD-" + uuid.NewString(),
		UserID:         fmt.Sprintf("U%04d", rand.Intn(users)+1),
		OrderTimestamp: fmt.Sprintf("2024-%02d-%02dT10:00:00Z", rand.Intn(12)+1, rand.Intn(28)+1),
		Items:          items,
	}
	order.OrderValue = order.ComputedTotal()
	return order
}
