package session

import (
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIME WINDOWS
// ══════════════════════════════════════════════════════════════════════════════

// Windows задаёт временные окна переходов относительно ScheduledAt.
type Windows struct {
	// StartLead - начать можно не раньше чем за StartLead до начала.
	StartLead time.Duration

	// StartGrace - через Start нельзя начать позже ScheduledAt+StartGrace.
	StartGrace time.Duration

	// FinishAfter - завершить можно не раньше ScheduledAt+FinishAfter.
	FinishAfter time.Duration
}

// DefaultWindows возвращает окна по умолчанию: 15м до, 60м после, 30м минимум.
func DefaultWindows() Windows {
	return Windows{
		StartLead:   15 * time.Minute,
		StartGrace:  60 * time.Minute,
		FinishAfter: 30 * time.Minute,
	}
}

// Trigger - точка входа, через которую пришёл запрос перехода.
type Trigger string

const (
	TriggerApproval  Trigger = "approval"
	TriggerSetStatus Trigger = "set_status"
	TriggerStart     Trigger = "start"
	TriggerFinish    Trigger = "finish"
	TriggerExpiry    Trigger = "expiry"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITION RESULT
// ══════════════════════════════════════════════════════════════════════════════

// TransitionResult - итог попытки перехода. Отказ не является ошибкой вызова:
// Applied=false, а Err оборачивает shared.ErrStateTransition.
type TransitionResult struct {
	Applied bool
	From    Status
	To      Status
	Reason  string
	Err     error
}

// OK возвращает true, если переход применён.
func (r TransitionResult) OK() bool {
	return r.Applied
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITION RULES
// Чистые функции: текущее время передаётся явно.
// ══════════════════════════════════════════════════════════════════════════════

// CheckTransition проверяет переход from -> to через общий SetStatus.
// Уровни движка (approved_priority и др.) не стартуют и не отменяются:
// это допускается только для Approved.
// Возвращает пустую строку, если переход разрешён, иначе причину отказа.
func CheckTransition(from, to Status, scheduledAt, now time.Time, w Windows) string {
	switch to {
	case StatusApproved, StatusRefused:
		if from != StatusPending {
			return "only pending sessions can be " + string(to)
		}
	case StatusStarted:
		if from != StatusApproved {
			return "only approved sessions can be started"
		}
		if !timeutil.AtOrAfter(now, scheduledAt.Add(-w.StartLead)) {
			return "too early to start"
		}
	case StatusFinished:
		if from != StatusStarted {
			return "only started sessions can be finished"
		}
		if !timeutil.AtOrAfter(now, scheduledAt.Add(w.FinishAfter)) {
			return "too early to finish"
		}
	case StatusCancelled:
		if from != StatusPending && from != StatusApproved {
			return "only pending or approved sessions can be cancelled"
		}
	default:
		return "transition to " + string(to) + " is not allowed"
	}
	return ""
}

// CheckStart - правило Start: общее правило плюс верхняя граница окна.
func CheckStart(from Status, scheduledAt, now time.Time, w Windows) string {
	if cause := CheckTransition(from, StatusStarted, scheduledAt, now, w); cause != "" {
		return cause
	}
	if !now.Before(scheduledAt.Add(w.StartGrace)) {
		return "start window exceeded"
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Lifecycle проводит сессии через машину состояний.
// Каждая попытка, успешная или нет, публикуется как доменное событие.
type Lifecycle struct {
	clock   timeutil.Clock
	events  shared.EventPublisher
	windows Windows
}

// LifecycleOption настраивает Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithWindows переопределяет временные окна.
func WithWindows(w Windows) LifecycleOption {
	return func(l *Lifecycle) {
		l.windows = w
	}
}

// NewLifecycle создаёт Lifecycle. events может быть nil.
func NewLifecycle(clock timeutil.Clock, events shared.EventPublisher, opts ...LifecycleOption) *Lifecycle {
	if clock == nil {
		clock = timeutil.System()
	}
	if events == nil {
		events = shared.NopPublisher{}
	}
	l := &Lifecycle{
		clock:   clock,
		events:  events,
		windows: DefaultWindows(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithPublisher возвращает копию, публикующую события в events.
func (l *Lifecycle) WithPublisher(events shared.EventPublisher) *Lifecycle {
	c := *l
	if events != nil {
		c.events = events
	}
	return &c
}

// Publisher возвращает получателя событий.
func (l *Lifecycle) Publisher() shared.EventPublisher {
	return l.events
}

// Windows возвращает действующие окна.
func (l *Lifecycle) Windows() Windows {
	return l.windows
}

// SetStatus - общая точка входа для смены статуса по имени.
// Уровни одобрения движка через неё выставить нельзя.
func (l *Lifecycle) SetStatus(s *Session, name, reason string) TransitionResult {
	if s == nil {
		return TransitionResult{Reason: reason, Err: shared.ErrSessionNilSession}
	}

	to, ok := ParseStatus(name)
	if !ok {
		return l.reject(s, Status(name), reason, "unknown status", TriggerSetStatus)
	}
	if to.IsEngineTier() {
		return l.reject(s, to, reason, "status is assigned by the approval engine only", TriggerSetStatus)
	}

	now := l.clock.Now()
	if cause := CheckTransition(s.Status, to, s.ScheduledAt, now, l.windows); cause != "" {
		return l.reject(s, to, reason, cause, TriggerSetStatus)
	}
	return l.apply(s, to, reason, TriggerSetStatus, now)
}

// Start начинает сессию: окно [ScheduledAt-15м, ScheduledAt+60м).
func (l *Lifecycle) Start(s *Session) TransitionResult {
	if s == nil {
		return TransitionResult{To: StatusStarted, Err: shared.ErrSessionNilSession}
	}
	now := l.clock.Now()
	if cause := CheckStart(s.Status, s.ScheduledAt, now, l.windows); cause != "" {
		return l.reject(s, StatusStarted, "", cause, TriggerStart)
	}
	return l.apply(s, StatusStarted, "", TriggerStart, now)
}

// Finish завершает сессию не раньше ScheduledAt+30м.
func (l *Lifecycle) Finish(s *Session) TransitionResult {
	if s == nil {
		return TransitionResult{To: StatusFinished, Err: shared.ErrSessionNilSession}
	}
	now := l.clock.Now()
	if cause := CheckTransition(s.Status, StatusFinished, s.ScheduledAt, now, l.windows); cause != "" {
		return l.reject(s, StatusFinished, "", cause, TriggerFinish)
	}
	return l.apply(s, StatusFinished, "", TriggerFinish, now)
}

// Expire отменяет Pending-сессию, время которой уже прошло.
func (l *Lifecycle) Expire(s *Session) TransitionResult {
	const reason = "expired"
	if s == nil {
		return TransitionResult{To: StatusCancelled, Reason: reason, Err: shared.ErrSessionNilSession}
	}
	now := l.clock.Now()
	switch {
	case !s.IsPending():
		return l.reject(s, StatusCancelled, reason, "only pending sessions expire", TriggerExpiry)
	case now.Before(s.ScheduledAt):
		return l.reject(s, StatusCancelled, reason, "scheduled time has not passed", TriggerExpiry)
	}
	return l.apply(s, StatusCancelled, reason, TriggerExpiry, now)
}

func (l *Lifecycle) apply(s *Session, to Status, reason string, trigger Trigger, now time.Time) TransitionResult {
	from := s.changeStatus(to, reason, now)
	_ = l.events.Publish(shared.NewSessionStatusChangedEvent(
		s.ID, s.Mentor.ID, s.Mentee.ID, string(from), string(to), reason, string(trigger), now,
	))
	return TransitionResult{Applied: true, From: from, To: to, Reason: reason}
}

func (l *Lifecycle) reject(s *Session, to Status, reason, cause string, trigger Trigger) TransitionResult {
	_ = l.events.Publish(shared.NewTransitionRejectedEvent(
		s.ID, string(s.Status), string(to), cause, string(trigger), l.clock.Now(),
	))
	return TransitionResult{
		From:   s.Status,
		To:     to,
		Reason: reason,
		Err:    shared.NewDomainError("session", string(trigger), shared.ErrStateTransition, cause),
	}
}
