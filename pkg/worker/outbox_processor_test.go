package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okatech-org/consulat-scheduling/internal/model"
	"github.com/okatech-org/consulat-scheduling/internal/repository"
	"github.com/okatech-org/consulat-scheduling/pkg/logger"
	"github.com/okatech-org/consulat-scheduling/pkg/metrics"
)

type stubOutboxRepo struct {
	pending  []*model.OutboxEvent
	statuses map[uuid.UUID]model.OutboxStatus
}

func (r *stubOutboxRepo) Create(context.Context, *model.OutboxEvent) error { return nil }

func (r *stubOutboxRepo) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return r.pending, nil
}

func (r *stubOutboxRepo) ProcessPending(_ context.Context, _ int, fn func([]*model.OutboxEvent, repository.OutboxRepository) error) error {
	return fn(r.pending, r)
}

func (r *stubOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, _ *string) error {
	if r.statuses == nil {
		r.statuses = make(map[uuid.UUID]model.OutboxStatus)
	}
	r.statuses[id] = status
	return nil
}

func (r *stubOutboxRepo) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubBroker struct {
	published map[string]int
	failures  int
}

func (b *stubBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	if b.published == nil {
		b.published = make(map[string]int)
	}
	b.published[channel]++
	return nil
}

func (b *stubBroker) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *stubBroker) Close() error                                             { return nil }

func newProcessor(repo *stubOutboxRepo, broker *stubBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
		metrics.NewMetrics(prometheus.NewRegistry(), "test"))
}

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{}`),
		Status:    model.OutboxStatusPending,
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	booked := pendingEvent(model.EventAppointmentBooked)
	cancelled := pendingEvent(model.EventAppointmentCancelled)
	repo := &stubOutboxRepo{pending: []*model.OutboxEvent{booked, cancelled}}
	broker := &stubBroker{}

	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 1, broker.published[model.EventAppointmentBooked])
	assert.Equal(t, 1, broker.published[model.EventAppointmentCancelled])
	assert.Equal(t, model.OutboxStatusProcessed, repo.statuses[booked.ID])
	assert.Equal(t, model.OutboxStatusProcessed, repo.statuses[cancelled.ID])
}

func TestProcessEventsRetriesTransientFailure(t *testing.T) {
	event := pendingEvent(model.EventAppointmentBooked)
	repo := &stubOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &stubBroker{failures: 2}

	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 1, broker.published[model.EventAppointmentBooked])
	assert.Equal(t, model.OutboxStatusProcessed, repo.statuses[event.ID])
}

func TestProcessEventsMarksFailedAfterRetries(t *testing.T) {
	event := pendingEvent(model.EventAppointmentBooked)
	repo := &stubOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &stubBroker{failures: 5}

	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, model.OutboxStatusFailed, repo.statuses[event.ID])
	assert.Empty(t, broker.published)
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewOutboxProcessor(&stubOutboxRepo{}, &stubBroker{}, OutboxProcessorConfig{}, nil, nil)
	})
}
