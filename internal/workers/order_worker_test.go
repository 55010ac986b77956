package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"orderstats/internal/sqs"
	"orderstats/models"
	"orderstats/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	batches    [][]sqs.Message
	deleted    []string
	receiveErr error
}

func (q *fakeQueue) ReceiveBatch(ctx context.Context) ([]sqs.Message, error) {
	if q.receiveErr != nil {
		return nil, q.receiveErr
	}
	if len(q.batches) == 0 {
		return nil, nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	return batch, nil
}

func (q *fakeQueue) DeleteMessage(ctx context.Context, receiptHandle string) error {
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

type fakeStore struct {
	markers  map[string]bool
	applied  []*models.Order
	dupErr   error
	applyErr error
	markErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{markers: make(map[string]bool)}
}

func (s *fakeStore) IsDuplicate(ctx context.Context, orderID string) (bool, error) {
	if s.dupErr != nil {
		return false, s.dupErr
	}
	return s.markers[orderID], nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, orderID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.markers[orderID] = true
	return nil
}

func (s *fakeStore) ApplyOrder(ctx context.Context, order *models.Order) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, order)
	return nil
}

func newTestWorker(q *fakeQueue, s *fakeStore) *OrderWorker {
	return NewOrderWorker(q, s, logger.NewNop(), time.Millisecond)
}

func orderMessage(orderID, receipt string) sqs.Message {
	return sqs.Message{
		MessageID:     "mid-" + orderID,
		Body:          `{"order_id":"` + orderID + `","user_id":"U1","order_timestamp":"2024-03-05T10:00:00Z","order_value":20.0,"items":[{"product_id":"P1","quantity":2,"price_per_unit":10.0}]}`,
		ReceiptHandle: receipt,
	}
}

func TestHandleMessageSuccess(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))

	require.Len(t, s.applied, 1)
	assert.Equal(t, "O1", s.applied[0].OrderID)
	assert.Equal(t, 20.0, s.applied[0].OrderValue)
	assert.True(t, s.markers["O1"])
	assert.Equal(t, []string{"r1"}, q.deleted)
}

func TestHandleMessageDuplicateDeletedWithoutReprocessing(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	s.markers["O1"] = true
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))

	assert.Empty(t, s.applied)
	assert.Equal(t, []string{"r1"}, q.deleted)
}

func TestHandleMessageRedeliveryIsIdempotent(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))
	w.handleMessage(context.Background(), orderMessage("O1", "r2"))

	assert.Len(t, s.applied, 1)
	assert.Equal(t, []string{"r1", "r2"}, q.deleted)
}

func TestHandleMessageMalformedDroppedWithoutAggregation(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	w := newTestWorker(q, s)

	msg := sqs.Message{
		MessageID:     "mid-bad",
		Body:          `{"order_id":"O9","user_id":"U1","order_timestamp":"2024-03-05T10:00:00Z","order_value":1}`,
		ReceiptHandle: "r-bad",
	}
	w.handleMessage(context.Background(), msg)

	assert.Empty(t, s.applied)
	assert.Empty(t, s.markers)
	assert.Equal(t, []string{"r-bad"}, q.deleted)
}

func TestHandleMessageAggregationFailureLeavesMessage(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	s.applyErr = errors.New("store unavailable")
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))

	assert.Empty(t, q.deleted)
	assert.Empty(t, s.markers)
}

func TestHandleMessageDuplicateCheckFailureLeavesMessage(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	s.dupErr = errors.New("store unavailable")
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))

	assert.Empty(t, s.applied)
	assert.Empty(t, q.deleted)
}

func TestHandleMessageMarkFailureStillDeletes(t *testing.T) {
	// Effects are applied at this point; the message is deleted anyway to
	// avoid a certain double count on redelivery.
	q := &fakeQueue{}
	s := newFakeStore()
	s.markErr = errors.New("store unavailable")
	w := newTestWorker(q, s)

	w.handleMessage(context.Background(), orderMessage("O1", "r1"))

	assert.Len(t, s.applied, 1)
	assert.Equal(t, []string{"r1"}, q.deleted)
}

func TestHandleMessageCorrectsValueBeforeAggregation(t *testing.T) {
	q := &fakeQueue{}
	s := newFakeStore()
	w := newTestWorker(q, s)

	msg := sqs.Message{
		MessageID:     "mid-O1",
		Body:          `{"order_id":"O1","user_id":"U1","order_timestamp":"2024-03-05T10:00:00Z","order_value":999,"items":[{"product_id":"P1","quantity":2,"price_per_unit":10.0}]}`,
		ReceiptHandle: "r1",
	}
	w.handleMessage(context.Background(), msg)

	require.Len(t, s.applied, 1)
	assert.Equal(t, 20.0, s.applied[0].OrderValue)
	assert.Equal(t, "2024-03", s.applied[0].Month())
}

func TestStartProcessesBatchesUntilCancelled(t *testing.T) {
	q := &fakeQueue{
		batches: [][]sqs.Message{
			{orderMessage("O1", "r1"), orderMessage("O2", "r2")},
		},
	}
	s := newFakeStore()
	w := newTestWorker(q, s)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Len(t, s.applied, 2)
	assert.Equal(t, []string{"r1", "r2"}, q.deleted)
}

func TestStartSurvivesReceiveErrors(t *testing.T) {
	q := &fakeQueue{receiveErr: errors.New("network down")}
	s := newFakeStore()
	w := newTestWorker(q, s)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, s.applied)
}
