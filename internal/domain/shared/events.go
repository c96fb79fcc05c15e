// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. The session lifecycle narrates itself through these
// instead of writing to a console.
const (
	// User events
	EventUserRegistered EventType = "user.registered"

	// Calendar events
	EventSlotAdded   EventType = "calendar.slot_added"
	EventSlotRemoved EventType = "calendar.slot_removed"

	// Session events
	EventSessionRequested     EventType = "session.requested"
	EventApprovalEvaluated    EventType = "session.approval_evaluated"
	EventSessionStatusChanged EventType = "session.status_changed"
	EventTransitionRejected   EventType = "session.transition_rejected"

	// Feedback events
	EventFeedbackSubmitted EventType = "feedback.submitted"

	// Study plan events
	EventGoalStatusChanged EventType = "studyplan.goal_status_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped at the given instant.
// The instant comes from the caller's clock so that tests stay deterministic.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a mentor or mentee signs up.
type UserRegisteredEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email": e.Email,
		"name":  e.Name,
		"role":  e.Role,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, email, name, role string, at time.Time) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent: NewBaseEvent(EventUserRegistered, userID, at),
		Email:     email,
		Name:      name,
		Role:      role,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Events
// ═══════════════════════════════════════════════════════════════════════════

// SlotChangedEvent is emitted when a mentor opens or withdraws a slot.
type SlotChangedEvent struct {
	BaseEvent
	MentorID string    `json:"mentor_id"`
	Slot     time.Time `json:"slot"`
}

// Payload implements Event interface.
func (e SlotChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mentor_id": e.MentorID,
		"slot":      e.Slot.Format(time.RFC3339),
	}
}

// NewSlotAddedEvent creates a SlotChangedEvent of type calendar.slot_added.
func NewSlotAddedEvent(calendarID, mentorID string, slot, at time.Time) SlotChangedEvent {
	return SlotChangedEvent{
		BaseEvent: NewBaseEvent(EventSlotAdded, calendarID, at),
		MentorID:  mentorID,
		Slot:      slot,
	}
}

// NewSlotRemovedEvent creates a SlotChangedEvent of type calendar.slot_removed.
func NewSlotRemovedEvent(calendarID, mentorID string, slot, at time.Time) SlotChangedEvent {
	return SlotChangedEvent{
		BaseEvent: NewBaseEvent(EventSlotRemoved, calendarID, at),
		MentorID:  mentorID,
		Slot:      slot,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionRequestedEvent is emitted when a mentee asks a mentor for a session.
type SessionRequestedEvent struct {
	BaseEvent
	MentorID    string    `json:"mentor_id"`
	MenteeID    string    `json:"mentee_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Payload implements Event interface.
func (e SessionRequestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mentor_id":    e.MentorID,
		"mentee_id":    e.MenteeID,
		"scheduled_at": e.ScheduledAt.Format(time.RFC3339),
	}
}

// NewSessionRequestedEvent creates a new SessionRequestedEvent.
func NewSessionRequestedEvent(sessionID, mentorID, menteeID string, scheduledAt, at time.Time) SessionRequestedEvent {
	return SessionRequestedEvent{
		BaseEvent:   NewBaseEvent(EventSessionRequested, sessionID, at),
		MentorID:    mentorID,
		MenteeID:    menteeID,
		ScheduledAt: scheduledAt,
	}
}

// ApprovalEvaluatedEvent records every decision of the approval engine,
// including the ones that did not change the session.
type ApprovalEvaluatedEvent struct {
	BaseEvent
	MentorID string        `json:"mentor_id"`
	MenteeID string        `json:"mentee_id"`
	Outcome  string        `json:"outcome"`
	Status   string        `json:"status"`
	LeadTime time.Duration `json:"lead_time"`
}

// Payload implements Event interface.
func (e ApprovalEvaluatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mentor_id": e.MentorID,
		"mentee_id": e.MenteeID,
		"outcome":   e.Outcome,
		"status":    e.Status,
		"lead_time": e.LeadTime.String(),
	}
}

// NewApprovalEvaluatedEvent creates a new ApprovalEvaluatedEvent.
func NewApprovalEvaluatedEvent(sessionID, mentorID, menteeID, outcome, status string, leadTime time.Duration, at time.Time) ApprovalEvaluatedEvent {
	return ApprovalEvaluatedEvent{
		BaseEvent: NewBaseEvent(EventApprovalEvaluated, sessionID, at),
		MentorID:  mentorID,
		MenteeID:  menteeID,
		Outcome:   outcome,
		Status:    status,
		LeadTime:  leadTime,
	}
}

// IsRefusal reports whether the engine refused the session.
func (e ApprovalEvaluatedEvent) IsRefusal() bool {
	return e.Status == "refused"
}

// SessionStatusChangedEvent is emitted for every applied transition.
type SessionStatusChangedEvent struct {
	BaseEvent
	MentorID string `json:"mentor_id"`
	MenteeID string `json:"mentee_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Reason   string `json:"reason,omitempty"`
	Trigger  string `json:"trigger"` // approval, set_status, start, finish, expiry
}

// Payload implements Event interface.
func (e SessionStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mentor_id": e.MentorID,
		"mentee_id": e.MenteeID,
		"from":      e.From,
		"to":        e.To,
		"reason":    e.Reason,
		"trigger":   e.Trigger,
	}
}

// NewSessionStatusChangedEvent creates a new SessionStatusChangedEvent.
func NewSessionStatusChangedEvent(sessionID, mentorID, menteeID, from, to, reason, trigger string, at time.Time) SessionStatusChangedEvent {
	return SessionStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventSessionStatusChanged, sessionID, at),
		MentorID:  mentorID,
		MenteeID:  menteeID,
		From:      from,
		To:        to,
		Reason:    reason,
		Trigger:   trigger,
	}
}

// TransitionRejectedEvent is emitted when the state machine refuses a request.
type TransitionRejectedEvent struct {
	BaseEvent
	Current   string `json:"current"`
	Requested string `json:"requested"`
	Cause     string `json:"cause"`
	Trigger   string `json:"trigger"`
}

// Payload implements Event interface.
func (e TransitionRejectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"current":   e.Current,
		"requested": e.Requested,
		"cause":     e.Cause,
		"trigger":   e.Trigger,
	}
}

// NewTransitionRejectedEvent creates a new TransitionRejectedEvent.
func NewTransitionRejectedEvent(sessionID, current, requested, cause, trigger string, at time.Time) TransitionRejectedEvent {
	return TransitionRejectedEvent{
		BaseEvent: NewBaseEvent(EventTransitionRejected, sessionID, at),
		Current:   current,
		Requested: requested,
		Cause:     cause,
		Trigger:   trigger,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Feedback Events
// ═══════════════════════════════════════════════════════════════════════════

// FeedbackSubmittedEvent is emitted when a participant reviews a finished session.
type FeedbackSubmittedEvent struct {
	BaseEvent
	FeedbackID    string `json:"feedback_id"`
	AuthorID      string `json:"author_id"`
	Rating        int    `json:"rating"`
	FullyReviewed bool   `json:"fully_reviewed"`
}

// Payload implements Event interface.
func (e FeedbackSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"feedback_id":    e.FeedbackID,
		"author_id":      e.AuthorID,
		"rating":         e.Rating,
		"fully_reviewed": e.FullyReviewed,
	}
}

// NewFeedbackSubmittedEvent creates a new FeedbackSubmittedEvent.
func NewFeedbackSubmittedEvent(sessionID, feedbackID, authorID string, rating int, fullyReviewed bool, at time.Time) FeedbackSubmittedEvent {
	return FeedbackSubmittedEvent{
		BaseEvent:     NewBaseEvent(EventFeedbackSubmitted, sessionID, at),
		FeedbackID:    feedbackID,
		AuthorID:      authorID,
		Rating:        rating,
		FullyReviewed: fullyReviewed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Study Plan Events
// ═══════════════════════════════════════════════════════════════════════════

// GoalStatusChangedEvent is emitted when a mentee updates a goal.
type GoalStatusChangedEvent struct {
	BaseEvent
	GoalID   string  `json:"goal_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

// Payload implements Event interface.
func (e GoalStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"goal_id":  e.GoalID,
		"status":   e.Status,
		"progress": e.Progress,
	}
}

// NewGoalStatusChangedEvent creates a new GoalStatusChangedEvent.
func NewGoalStatusChangedEvent(planID, goalID, status string, progress float64, at time.Time) GoalStatusChangedEvent {
	return GoalStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventGoalStatusChanged, planID, at),
		GoalID:    goalID,
		Status:    status,
		Progress:  progress,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publishing
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }

// RecordingPublisher keeps published events in memory, in order.
// Used by tests and by callers that batch events for later dispatch.
type RecordingPublisher struct {
	Events []Event
}

// Publish implements EventPublisher.
func (p *RecordingPublisher) Publish(event Event) error {
	p.Events = append(p.Events, event)
	return nil
}

// Flush publishes the recorded events to to, in order, and forgets them.
// Delivery continues past a failing event; the errors are joined.
func (p *RecordingPublisher) Flush(to EventPublisher) error {
	events := p.Events
	p.Events = nil
	var errs []error
	for _, e := range events {
		if err := to.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OfType returns the recorded events of the given type.
func (p *RecordingPublisher) OfType(t EventType) []Event {
	var out []Event
	for _, e := range p.Events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
