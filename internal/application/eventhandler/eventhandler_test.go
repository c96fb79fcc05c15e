package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/persistence/memory"
)

var at = time.Date(2024, 8, 5, 15, 0, 0, 0, time.UTC)

func TestRefusalPenalty_CountsEachRefusalOnce(t *testing.T) {
	counter := memory.NewPenaltyCounter()
	h := NewRefusalPenaltyHandler(counter, nil)

	// Отказ движка: два события, один штраф.
	require.NoError(t, h.Handle(shared.NewApprovalEvaluatedEvent("s-1", "m-1", "e-1", "refused", "refused", time.Hour, at)))
	require.NoError(t, h.Handle(shared.NewSessionStatusChangedEvent("s-1", "m-1", "e-1", "pending", "refused", "", "approval", at)))

	// Ручной отказ.
	require.NoError(t, h.Handle(shared.NewSessionStatusChangedEvent("s-2", "m-1", "e-2", "pending", "refused", "busy", "set_status", at)))

	// Не отказы.
	require.NoError(t, h.Handle(shared.NewApprovalEvaluatedEvent("s-3", "m-1", "e-3", "approved", "approved", 10*time.Hour, at)))
	require.NoError(t, h.Handle(shared.NewSessionStatusChangedEvent("s-3", "m-1", "e-3", "pending", "approved", "", "approval", at)))
	require.NoError(t, h.Handle(shared.NewFeedbackSubmittedEvent("s-3", "f-1", "e-3", 4, false, at)))

	n, err := counter.Get(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

type failingCounter struct{}

func (failingCounter) Increment(context.Context, string) (int64, error) {
	return 0, errors.New("redis down")
}
func (failingCounter) Get(context.Context, string) (int64, error) { return 0, nil }

func TestRefusalPenalty_CounterError(t *testing.T) {
	h := NewRefusalPenaltyHandler(failingCounter{}, nil)
	err := h.Handle(shared.NewApprovalEvaluatedEvent("s-1", "m-1", "e-1", "refused", "refused", time.Hour, at))
	assert.Error(t, err)
}

func TestSessionAudit_LogsLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewSessionAuditHandler(zap.New(core))

	events := []shared.Event{
		shared.NewSessionRequestedEvent("s-1", "m-1", "e-1", at.Add(time.Hour), at),
		shared.NewApprovalEvaluatedEvent("s-1", "m-1", "e-1", "refused", "refused", time.Hour, at),
		shared.NewSessionStatusChangedEvent("s-1", "m-1", "e-1", "pending", "refused", "", "approval", at),
		shared.NewTransitionRejectedEvent("s-1", "refused", "started", "only approved sessions can be started", "start", at),
		shared.NewFeedbackSubmittedEvent("s-1", "f-1", "e-1", 5, false, at),
	}
	for _, e := range events {
		require.NoError(t, h.Handle(e))
	}

	entries := logs.All()
	require.Len(t, entries, 5)
	assert.Equal(t, "session requested", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "session status changed", entries[2].Message)
	assert.Equal(t, "session transition rejected", entries[3].Message)
	assert.Equal(t, "s-1", entries[4].ContextMap()["session_id"])
	assert.Len(t, h.EventTypes(), 5)
}

type recordingSubscriber struct {
	types []shared.EventType
}

func (r *recordingSubscriber) Subscribe(t shared.EventType, _ shared.EventHandler) error {
	r.types = append(r.types, t)
	return nil
}

func (r *recordingSubscriber) SubscribeAll(shared.EventHandler) error { return nil }

func TestRegister(t *testing.T) {
	sub := &recordingSubscriber{}
	err := Register(sub,
		NewSessionAuditHandler(nil),
		NewRefusalPenaltyHandler(memory.NewPenaltyCounter(), nil),
	)
	require.NoError(t, err)
	assert.Len(t, sub.types, 7)
	assert.Contains(t, sub.types, shared.EventTransitionRejected)
}
