package eventhandler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// REFUSAL PENALTY HANDLER
// Каждый отказ по сессии увеличивает штрафной счётчик ментора.
//
// Отказ движка приходит двумя событиями (approval_evaluated и status_changed
// с trigger=approval), поэтому движковый отказ считается только по первому.
// Ручной отказ через SetStatus считается по status_changed.
// ═══════════════════════════════════════════════════════════════════════════

// RefusalPenaltyHandler начисляет штрафы ментору.
type RefusalPenaltyHandler struct {
	counter session.PenaltyCounter
	logger  *zap.Logger
	timeout time.Duration
}

// NewRefusalPenaltyHandler создаёт обработчик.
func NewRefusalPenaltyHandler(counter session.PenaltyCounter, l *zap.Logger) *RefusalPenaltyHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &RefusalPenaltyHandler{
		counter: counter,
		logger:  l.With(logger.Component("refusal_penalty")),
		timeout: 5 * time.Second,
	}
}

// EventTypes возвращает типы событий, на которые нужно подписать обработчик.
func (h *RefusalPenaltyHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventApprovalEvaluated, shared.EventSessionStatusChanged}
}

// Handle обрабатывает событие.
func (h *RefusalPenaltyHandler) Handle(event shared.Event) error {
	var mentorID string

	switch e := event.(type) {
	case shared.ApprovalEvaluatedEvent:
		if !e.IsRefusal() {
			return nil
		}
		mentorID = e.MentorID
	case shared.SessionStatusChangedEvent:
		if e.To != string(session.StatusRefused) || e.Trigger == string(session.TriggerApproval) {
			return nil
		}
		mentorID = e.MentorID
	default:
		return nil
	}

	if mentorID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	total, err := h.counter.Increment(ctx, mentorID)
	if err != nil {
		h.logger.Error("failed to apply refusal penalty",
			logger.MentorID(mentorID),
			logger.SessionID(event.AggregateID()),
			zap.Error(err),
		)
		return fmt.Errorf("refusal_penalty: %w", err)
	}

	h.logger.Info("refusal penalty applied",
		logger.MentorID(mentorID),
		logger.SessionID(event.AggregateID()),
		zap.Int64("penalties", total),
	)
	return nil
}
