package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

func TestEvaluateAndApprove_Tiers(t *testing.T) {
	tests := []struct {
		name   string
		mentee string
		lead   time.Duration
		want   Status
	}{
		{"priority by name A", "Ana", 48 * time.Hour, StatusApprovedPriority},
		{"normal by name B", "Bruno", 25 * time.Hour, StatusApprovedNormal},
		{"conditional otherwise", "Carla", 72 * time.Hour, StatusApprovedConditional},
		{"lowercase a is conditional", "ana", 30 * time.Hour, StatusApprovedConditional},
		{"manual review between thresholds", "Ana", 12 * time.Hour, StatusApproved},
		{"exactly 24h is manual review", "Ana", 24 * time.Hour, StatusApproved},
		{"exactly 6h is manual review", "Ana", 6 * time.Hour, StatusApproved},
		{"refused under 6h", "Ana", 5*time.Hour + 59*time.Minute, StatusRefused},
		{"refused in the past", "Bruno", -time.Hour, StatusRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			slot := now.Add(tt.lead)
			f.cal.AddSlot(slot)
			s := f.session(t, "s-1", tt.mentee, slot)

			engine := NewApprovalEngine(f.clock, f.events)
			d := engine.EvaluateAndApprove(f.desk, &slot, s)

			assert.True(t, d.Applied())
			assert.Equal(t, tt.want, d.Status)
			assert.Equal(t, tt.want, s.Status)
			assert.Equal(t, "Status: "+tt.want.Label(), d.Message())
			assert.Equal(t, tt.lead, d.LeadTime)
		})
	}
}

func TestEvaluateAndApprove_FarAheadNeverStaysPending(t *testing.T) {
	names := []string{"Ana", "Bruno", "Carla", "", "Zoe", "alice", "Ávila"}
	for i, name := range names {
		f := newFixture(t)
		slot := now.Add(time.Duration(25+i*7) * time.Hour)
		f.cal.AddSlot(slot)
		s := f.session(t, "s", name, slot)

		d := NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)

		assert.True(t, s.Status.IsEngineTier(), "mentee %q got %s", name, s.Status)
		assert.Equal(t, OutcomeApproved, d.Outcome)
	}
}

func TestEvaluateAndApprove_InvalidInput(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(48 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Ana", slot)
	engine := NewApprovalEngine(f.clock, f.events)

	d := engine.EvaluateAndApprove(f.desk, nil, s)
	assert.Equal(t, OutcomeInvalidInput, d.Outcome)
	assert.Equal(t, "invalid input", d.Message())

	d = engine.EvaluateAndApprove(f.desk, &slot, nil)
	assert.Equal(t, OutcomeInvalidInput, d.Outcome)

	assert.Equal(t, StatusPending, s.Status)
	assert.Empty(t, f.events.Events)
}

func TestEvaluateAndApprove_SlotUnavailable(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(48 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Ana", slot)
	engine := NewApprovalEngine(f.clock, f.events)

	off := slot.Add(time.Second)
	d := engine.EvaluateAndApprove(f.desk, &off, s)
	assert.Equal(t, OutcomeSlotUnavailable, d.Outcome)
	assert.Equal(t, "slot unavailable", d.Message())
	assert.Equal(t, StatusPending, s.Status)

	noCalendar := NewMentorDesk("mentor-1", nil)
	noCalendar.Track(s)
	d = engine.EvaluateAndApprove(noCalendar, &slot, s)
	assert.Equal(t, OutcomeSlotUnavailable, d.Outcome)
	assert.Equal(t, StatusPending, s.Status)
}

func TestEvaluateAndApprove_SlotCheckedBeforeRefusal(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(2 * time.Hour)
	s := f.session(t, "s-1", "Ana", slot)

	d := NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)
	assert.Equal(t, OutcomeSlotUnavailable, d.Outcome)
	assert.Equal(t, StatusPending, s.Status)

	f.cal.AddSlot(slot)
	d = NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)
	assert.Equal(t, OutcomeRefused, d.Outcome)
	assert.Equal(t, StatusRefused, s.Status)
}

func TestEvaluateAndApprove_UntrackedSession(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(48 * time.Hour)
	f.cal.AddSlot(slot)

	s, err := NewSession(NewSessionParams{
		ID: "s-9", Mentor: Participant{ID: "mentor-1"}, Mentee: Participant{ID: "e", Name: "Ana"}, ScheduledAt: slot, Now: now,
	})
	require.NoError(t, err)

	d := NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)
	assert.Equal(t, OutcomeNotPending, d.Outcome)
	assert.Equal(t, StatusPending, s.Status)
}

func TestEvaluateAndApprove_Idempotent(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(48 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Bruno", slot)
	engine := NewApprovalEngine(f.clock, f.events)

	first := engine.EvaluateAndApprove(f.desk, &slot, s)
	require.Equal(t, StatusApprovedNormal, first.Status)

	for i := 0; i < 2; i++ {
		d := engine.EvaluateAndApprove(f.desk, &slot, s)
		assert.Equal(t, OutcomeNotPending, d.Outcome)
		assert.Equal(t, "session not found or not pending", d.Message())
		assert.Equal(t, StatusApprovedNormal, s.Status)
	}

	assert.Len(t, f.events.OfType(shared.EventApprovalEvaluated), 3)
	assert.Len(t, f.events.OfType(shared.EventSessionStatusChanged), 1)
}

func TestEvaluateAndApprove_UsesClockAtDecisionTime(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(30 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Ana", slot)

	f.clock.Advance(20 * time.Hour)
	d := NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)

	assert.Equal(t, StatusApproved, d.Status, "10h ahead at decision time")
}

func TestEvaluateAndApprove_CaseInsensitivePending(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(48 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Ana", slot)
	s.Status = "PENDING"

	d := NewApprovalEngine(f.clock, nil).EvaluateAndApprove(f.desk, &slot, s)
	assert.Equal(t, StatusApprovedPriority, d.Status)
}

func TestApprovalEngine_CustomPolicies(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(3 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Carla", slot)

	engine := NewApprovalEngine(f.clock, nil,
		WithLeadTimePolicy(LeadTimePolicy{Priority: 2 * time.Hour, Minimum: time.Hour}),
		WithTierPolicy(TierPolicyFunc(func(*Session) Status { return StatusApprovedPriority })),
	)
	d := engine.EvaluateAndApprove(f.desk, &slot, s)
	assert.Equal(t, StatusApprovedPriority, d.Status)
}

func TestApprovalEngine_TierPolicyCannotEscapeTiers(t *testing.T) {
	engine := NewApprovalEngine(nil, nil, WithTierPolicy(TierPolicyFunc(func(*Session) Status { return StatusFinished })))
	assert.Equal(t, StatusApprovedConditional, engine.Classify(&Session{}, 48*time.Hour))
}

func TestEvaluateAndApprove_Events(t *testing.T) {
	f := newFixture(t)
	slot := now.Add(2 * time.Hour)
	f.cal.AddSlot(slot)
	s := f.session(t, "s-1", "Ana", slot)

	NewApprovalEngine(f.clock, f.events).EvaluateAndApprove(f.desk, &slot, s)

	require.Len(t, f.events.Events, 2)
	evaluated := f.events.Events[0].(shared.ApprovalEvaluatedEvent)
	assert.True(t, evaluated.IsRefusal())
	assert.Equal(t, "mentor-1", evaluated.MentorID)

	changed := f.events.Events[1].(shared.SessionStatusChangedEvent)
	assert.Equal(t, "pending", changed.From)
	assert.Equal(t, "refused", changed.To)
	assert.Equal(t, "approval", changed.Trigger)
	assert.Equal(t, now, changed.OccurredAt())
}

func TestLeadTimePolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultLeadTimePolicy().Validate())
	assert.Error(t, LeadTimePolicy{Priority: time.Hour, Minimum: 2 * time.Hour}.Validate())
	assert.Error(t, LeadTimePolicy{Priority: time.Hour}.Validate())
}
