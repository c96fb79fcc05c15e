package studyplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

var due = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

func goal(t *testing.T, id string) *Goal {
	t.Helper()
	g, err := NewGoal(id, "learn "+id, due)
	require.NoError(t, err)
	return g
}

func TestPlan_Progress(t *testing.T) {
	p, err := New("plan-1", "mentee-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Progress())

	g1, g2 := goal(t, "g1"), goal(t, "g2")
	p.AddGoal(g1)
	p.AddGoal(g2)

	g1.UpdateStatus("Completed")
	assert.Equal(t, 50.0, p.Progress())

	g2.UpdateStatus("completed")
	assert.Equal(t, 100.0, p.Progress())
}

func TestPlan_ProgressFraction(t *testing.T) {
	p, _ := New("plan-1", "mentee-1")
	for _, id := range []string{"a", "b", "c"} {
		p.AddGoal(goal(t, id))
	}
	p.Goal("a").UpdateStatus("COMPLETED")
	assert.InDelta(t, 33.333, p.Progress(), 0.001)
}

func TestPlan_AddGoal(t *testing.T) {
	p, _ := New("plan-1", "mentee-1")
	g := goal(t, "g1")

	assert.True(t, p.AddGoal(g))
	assert.False(t, p.AddGoal(g))
	assert.False(t, p.AddGoal(goal(t, "g1")), "same id")
	assert.False(t, p.AddGoal(nil))
	assert.Len(t, p.Goals(), 1)
	assert.Same(t, g, p.Goal("g1"))
	assert.Nil(t, p.Goal("missing"))
}

func TestGoal_UpdateStatus(t *testing.T) {
	g := goal(t, "g1")
	assert.Equal(t, "Open", g.Status)

	assert.False(t, g.UpdateStatus("   "))
	assert.Equal(t, "Open", g.Status)

	assert.True(t, g.UpdateStatus("In progress"))
	assert.Equal(t, "In progress", g.Status)
}

func TestGoal_IsOverdue(t *testing.T) {
	g := goal(t, "g1")
	assert.False(t, g.IsOverdue(due.Add(-time.Hour)))
	assert.True(t, g.IsOverdue(due.Add(time.Hour)))

	g.UpdateStatus("Completed")
	assert.False(t, g.IsOverdue(due.Add(time.Hour)))
}

func TestNewGoal_Validation(t *testing.T) {
	_, err := NewGoal("", "x", due)
	assert.True(t, shared.IsValidation(err))

	_, err = NewGoal("g", "  ", due)
	assert.True(t, shared.IsValidation(err))

	_, err = New("plan", "")
	assert.True(t, shared.IsValidation(err))
}
