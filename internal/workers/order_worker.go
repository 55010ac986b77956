package workers

import (
	"context"
	"time"

	"orderstats/internal/sqs"
	"orderstats/models"
	"orderstats/pkg/logger"
)

// Queue is the slice of the SQS client the worker needs.
type Queue interface {
	ReceiveBatch(ctx context.Context) ([]sqs.Message, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
}

// Store is the slice of the Redis client the worker needs: the idempotency
// markers and the atomic aggregate batch.
type Store interface {
	IsDuplicate(ctx context.Context, orderID string) (bool, error)
	MarkProcessed(ctx context.Context, orderID string) error
	ApplyOrder(ctx context.Context, order *models.Order) error
}

// OrderWorker is the sequential consumer loop. Per message it decides one
// of three terminal outcomes: delete after success, delete-and-drop
// (malformed or duplicate), or leave in the queue for redelivery
// (transient store failure).
type OrderWorker struct {
	queue     Queue
	store     Store
	log       *logger.Logger
	idleDelay time.Duration
}

func NewOrderWorker(queue Queue, store Store, log *logger.Logger, idleDelay time.Duration) *OrderWorker {
	return &OrderWorker{
		queue:     queue,
		store:     store,
		log:       log.With("worker", "orders"),
		idleDelay: idleDelay,
	}
}

// Start polls until the context is cancelled. Messages within a batch are
// processed one at a time; after an empty batch the loop sleeps idleDelay
// before polling again. No per-message error ever escapes the loop.
func (w *OrderWorker) Start(ctx context.Context) error {
	w.log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping")
			return ctx.Err()
		default:
		}

		msgs, err := w.queue.ReceiveBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("receive failed", "error", err)
			w.sleep(ctx)
			continue
		}

		for _, msg := range msgs {
			w.handleMessage(ctx, msg)
		}

		if len(msgs) == 0 {
			w.sleep(ctx)
		}
	}
}

func (w *OrderWorker) handleMessage(ctx context.Context, msg sqs.Message) {
	orderID, err := models.PeekOrderID([]byte(msg.Body))
	if err != nil {
		// Malformed bodies cannot be fixed by redelivery: log and drop.
		w.log.Warn("dropping malformed message",
			"message_id", msg.MessageID,
			"error", err,
		)
		w.deleteMessage(ctx, msg)
		return
	}

	log := w.log.With("order_id", orderID, "message_id", msg.MessageID)
	log.Info("message received")

	dup, err := w.store.IsDuplicate(ctx, orderID)
	if err != nil {
		// Marker state unknown: leave the message for redelivery rather
		// than risk a double count.
		log.Error("duplicate check failed, leaving for redelivery", "error", err)
		return
	}
	if dup {
		log.Warn("duplicate order detected, skipping")
		w.deleteMessage(ctx, msg)
		return
	}

	order, err := models.ParseOrder([]byte(msg.Body))
	if err != nil {
		log.Warn("dropping malformed message", "error", err)
		w.deleteMessage(ctx, msg)
		return
	}

	if order.Corrected {
		log.Warn("order value mismatch, using computed total",
			"claimed", order.ClaimedValue,
			"computed", order.OrderValue,
		)
	}

	if err := w.store.ApplyOrder(ctx, order); err != nil {
		// Transient store failure: the message stays in the queue and will
		// be redelivered.
		log.Error("aggregation failed, leaving for redelivery", "error", err)
		return
	}

	if err := w.store.MarkProcessed(ctx, order.OrderID); err != nil {
		// Effects are already applied; still delete so the certain
		// double-count on redelivery is avoided.
		log.Error("failed to write idempotency marker", "error", err)
	}

	w.deleteMessage(ctx, msg)
	log.Info("order processed",
		"user_id", order.UserID,
		"month", order.Month(),
		"order_value", order.OrderValue,
	)
}

func (w *OrderWorker) deleteMessage(ctx context.Context, msg sqs.Message) {
	if err := w.queue.DeleteMessage(ctx, msg.ReceiptHandle); err != nil {
		w.log.Error("delete failed", "message_id", msg.MessageID, "error", err)
	}
}

func (w *OrderWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.idleDelay):
	}
}
