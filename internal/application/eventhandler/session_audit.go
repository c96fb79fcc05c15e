// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// SESSION AUDIT HANDLER
// Пишет в лог каждое событие жизненного цикла: запрос, решение движка,
// смену статуса, отклонённый переход и отзыв.
// ═══════════════════════════════════════════════════════════════════════════

// remoteEvent - событие, опубликованное другим экземпляром сервиса.
type remoteEvent interface {
	Origin() string
}

// SessionAuditHandler логирует события сессий.
type SessionAuditHandler struct {
	logger *zap.Logger
}

// NewSessionAuditHandler создаёт обработчик.
func NewSessionAuditHandler(l *zap.Logger) *SessionAuditHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &SessionAuditHandler{logger: l.With(logger.Component("session_audit"))}
}

// EventTypes возвращает типы событий, на которые нужно подписать обработчик.
func (h *SessionAuditHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventSessionRequested,
		shared.EventApprovalEvaluated,
		shared.EventSessionStatusChanged,
		shared.EventTransitionRejected,
		shared.EventFeedbackSubmitted,
	}
}

// Handle пишет событие в лог. Никогда не возвращает ошибку.
func (h *SessionAuditHandler) Handle(event shared.Event) error {
	base := []zap.Field{
		logger.SessionID(event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case shared.SessionRequestedEvent:
		h.logger.Info("session requested", append(base,
			logger.MentorID(e.MentorID),
			logger.MenteeID(e.MenteeID),
			zap.Time("scheduled_at", e.ScheduledAt),
		)...)

	case shared.ApprovalEvaluatedEvent:
		level := h.logger.Info
		if e.IsRefusal() {
			level = h.logger.Warn
		}
		level("approval evaluated", append(base,
			logger.MentorID(e.MentorID),
			zap.String("outcome", e.Outcome),
			logger.Status(e.Status),
			zap.Duration("lead_time", e.LeadTime),
		)...)

	case shared.SessionStatusChangedEvent:
		h.logger.Info("session status changed", append(base,
			zap.String("from", e.From),
			zap.String("to", e.To),
			zap.String("trigger", e.Trigger),
			zap.String("reason", e.Reason),
		)...)

	case shared.TransitionRejectedEvent:
		h.logger.Warn("session transition rejected", append(base,
			zap.String("current", e.Current),
			zap.String("requested", e.Requested),
			zap.String("cause", e.Cause),
			zap.String("trigger", e.Trigger),
		)...)

	case shared.FeedbackSubmittedEvent:
		h.logger.Info("feedback submitted", append(base,
			zap.String("feedback_id", e.FeedbackID),
			logger.UserID(e.AuthorID),
			zap.Int("rating", e.Rating),
			zap.Bool("fully_reviewed", e.FullyReviewed),
		)...)

	case remoteEvent:
		h.logger.Debug("remote session event", append(base,
			zap.String("type", string(event.EventType())),
			zap.String("origin", e.Origin()),
		)...)

	default:
		h.logger.Debug("session event", append(base, zap.String("type", string(event.EventType())))...)
	}
	return nil
}
