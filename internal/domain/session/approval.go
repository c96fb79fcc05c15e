package session

import (
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR DESK
// ══════════════════════════════════════════════════════════════════════════════

// MentorDesk - взгляд ментора: его календарь и сессии, которые он ведёт.
type MentorDesk struct {
	MentorID string
	Calendar *calendar.Calendar

	sessions []*Session
}

// NewMentorDesk создаёт стол ментора. cal может быть nil: тогда ни один слот не совпадёт.
func NewMentorDesk(mentorID string, cal *calendar.Calendar) *MentorDesk {
	return &MentorDesk{MentorID: mentorID, Calendar: cal}
}

// Track добавляет сессию ментора в список. Повтор и чужие сессии игнорируются.
func (d *MentorDesk) Track(s *Session) bool {
	if s == nil || s.Mentor.ID != d.MentorID || d.Tracks(s) {
		return false
	}
	d.sessions = append(d.sessions, s)
	return true
}

// Tracks проверяет, ведёт ли ментор эту сессию.
func (d *MentorDesk) Tracks(s *Session) bool {
	if s == nil {
		return false
	}
	for _, own := range d.sessions {
		if own == s || own.ID == s.ID {
			return true
		}
	}
	return false
}

// Sessions возвращает копию списка сессий.
func (d *MentorDesk) Sessions() []*Session {
	out := make([]*Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// POLICIES
// ══════════════════════════════════════════════════════════════════════════════

// LeadTimePolicy - пороги времени упреждения.
type LeadTimePolicy struct {
	// Priority - дальше этого порога включается TierPolicy.
	Priority time.Duration

	// Minimum - ближе этого порога сессия отклоняется.
	Minimum time.Duration
}

// DefaultLeadTimePolicy возвращает пороги 24ч и 6ч.
func DefaultLeadTimePolicy() LeadTimePolicy {
	return LeadTimePolicy{
		Priority: 24 * time.Hour,
		Minimum:  6 * time.Hour,
	}
}

// Validate проверяет согласованность порогов.
func (p LeadTimePolicy) Validate() error {
	if p.Minimum <= 0 || p.Priority < p.Minimum {
		return shared.NewDomainError("session", "LeadTimePolicy", shared.ErrValueOutOfRange,
			"minimum lead time must be positive and not exceed the priority lead time")
	}
	return nil
}

// TierPolicy выбирает уровень одобрения для сессии, запрошенной заблаговременно.
// Должна вернуть один из StatusApprovedPriority, StatusApprovedNormal, StatusApprovedConditional.
type TierPolicy interface {
	Tier(s *Session) Status
}

// TierPolicyFunc - адаптер функции к TierPolicy.
type TierPolicyFunc func(s *Session) Status

// Tier implements TierPolicy.
func (f TierPolicyFunc) Tier(s *Session) Status {
	return f(s)
}

// NamePrefixPolicy - временное правило: имя менти на "A" даёт приоритет,
// на "B" обычный уровень, остальное условное. Регистр учитывается.
type NamePrefixPolicy struct{}

// Tier implements TierPolicy.
func (NamePrefixPolicy) Tier(s *Session) Status {
	switch {
	case strings.HasPrefix(s.Mentee.Name, "A"):
		return StatusApprovedPriority
	case strings.HasPrefix(s.Mentee.Name, "B"):
		return StatusApprovedNormal
	default:
		return StatusApprovedConditional
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DECISION
// ══════════════════════════════════════════════════════════════════════════════

// Outcome - результат оценки.
type Outcome string

const (
	OutcomeInvalidInput    Outcome = "invalid_input"
	OutcomeSlotUnavailable Outcome = "slot_unavailable"
	OutcomeNotPending      Outcome = "not_pending"
	OutcomeApproved        Outcome = "approved"
	OutcomeRefused         Outcome = "refused"
)

var outcomeMessages = map[Outcome]string{
	OutcomeInvalidInput:    "invalid input",
	OutcomeSlotUnavailable: "slot unavailable",
	OutcomeNotPending:      "session not found or not pending",
}

// Decision - решение движка одобрения.
type Decision struct {
	Outcome  Outcome
	Status   Status
	LeadTime time.Duration
}

// Applied возвращает true, если статус сессии изменён.
func (d Decision) Applied() bool {
	return d.Outcome == OutcomeApproved || d.Outcome == OutcomeRefused
}

// Message возвращает человекочитаемый итог: "Status: <label>" или текст отказа.
func (d Decision) Message() string {
	if d.Applied() {
		return "Status: " + d.Status.Label()
	}
	return outcomeMessages[d.Outcome]
}

// ══════════════════════════════════════════════════════════════════════════════
// APPROVAL ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// ApprovalEngine классифицирует запрос сессии по времени упреждения.
type ApprovalEngine struct {
	clock    timeutil.Clock
	events   shared.EventPublisher
	tiers    TierPolicy
	leadTime LeadTimePolicy
}

// EngineOption настраивает ApprovalEngine.
type EngineOption func(*ApprovalEngine)

// WithTierPolicy заменяет правило выбора уровня.
func WithTierPolicy(p TierPolicy) EngineOption {
	return func(e *ApprovalEngine) {
		if p != nil {
			e.tiers = p
		}
	}
}

// WithLeadTimePolicy заменяет пороги.
func WithLeadTimePolicy(p LeadTimePolicy) EngineOption {
	return func(e *ApprovalEngine) {
		e.leadTime = p
	}
}

// NewApprovalEngine создаёт движок. events может быть nil.
func NewApprovalEngine(clock timeutil.Clock, events shared.EventPublisher, opts ...EngineOption) *ApprovalEngine {
	if clock == nil {
		clock = timeutil.System()
	}
	if events == nil {
		events = shared.NopPublisher{}
	}
	e := &ApprovalEngine{
		clock:    clock,
		events:   events,
		tiers:    NamePrefixPolicy{},
		leadTime: DefaultLeadTimePolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithPublisher возвращает копию движка, публикующую события в events.
func (e *ApprovalEngine) WithPublisher(events shared.EventPublisher) *ApprovalEngine {
	c := *e
	if events != nil {
		c.events = events
	}
	return &c
}

// Publisher возвращает получателя событий.
func (e *ApprovalEngine) Publisher() shared.EventPublisher {
	return e.events
}

// Classify применяет пороги к времени упреждения. Чистая функция.
func (e *ApprovalEngine) Classify(s *Session, lead time.Duration) Status {
	switch {
	case lead > e.leadTime.Priority:
		tier := e.tiers.Tier(s)
		if !tier.IsEngineTier() {
			return StatusApprovedConditional
		}
		return tier
	case lead < e.leadTime.Minimum:
		return StatusRefused
	default:
		return StatusApproved
	}
}

// EvaluateAndApprove проверяет слот и статус сессии и выставляет уровень одобрения.
// При любом отказе сессия не меняется. Время упреждения считается от момента решения.
func (e *ApprovalEngine) EvaluateAndApprove(desk *MentorDesk, proposed *time.Time, s *Session) Decision {
	if desk == nil || proposed == nil || s == nil {
		return Decision{Outcome: OutcomeInvalidInput}
	}

	now := e.clock.Now()

	if !desk.Calendar.Has(*proposed) {
		return e.publish(s, Decision{Outcome: OutcomeSlotUnavailable, Status: s.Status}, now)
	}

	if !desk.Tracks(s) || !s.IsPending() {
		return e.publish(s, Decision{Outcome: OutcomeNotPending, Status: s.Status}, now)
	}

	lead := timeutil.LeadTime(now, *proposed)
	to := e.Classify(s, lead)

	outcome := OutcomeApproved
	if to == StatusRefused {
		outcome = OutcomeRefused
	}

	reason := "lead time " + timeutil.FormatLeadTime(lead)
	from := s.changeStatus(to, reason, now)

	d := e.publish(s, Decision{Outcome: outcome, Status: to, LeadTime: lead}, now)
	_ = e.events.Publish(shared.NewSessionStatusChangedEvent(
		s.ID, s.Mentor.ID, s.Mentee.ID, string(from), string(to), reason, string(TriggerApproval), now,
	))
	return d
}

func (e *ApprovalEngine) publish(s *Session, d Decision, now time.Time) Decision {
	_ = e.events.Publish(shared.NewApprovalEvaluatedEvent(
		s.ID, s.Mentor.ID, s.Mentee.ID, string(d.Outcome), string(d.Status), d.LeadTime, now,
	))
	return d
}
