package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY PLAN GOAL COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// AddGoalCommand adds a goal to a mentee's study plan.
type AddGoalCommand struct {
	MenteeID    string
	Description string
	DueAt       time.Time
}

// Validate validates the command.
func (c AddGoalCommand) Validate() error {
	if c.MenteeID == "" {
		return errors.New("add_goal: mentee_id is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("add_goal: description is required")
	}
	return nil
}

// UpdateGoalStatusCommand changes a goal's status. Blank status is ignored.
type UpdateGoalStatusCommand struct {
	MenteeID string
	GoalID   string
	Status   string
}

// Validate validates the command.
func (c UpdateGoalStatusCommand) Validate() error {
	if c.MenteeID == "" || c.GoalID == "" {
		return errors.New("update_goal_status: mentee_id and goal_id are required")
	}
	return nil
}

// GoalResult contains the goal and the plan progress after the change.
type GoalResult struct {
	PlanID   string
	GoalID   string
	Status   string
	Changed  bool
	Progress float64
}

// GoalHandler handles the study plan goal commands.
type GoalHandler struct {
	plans  studyplan.Repository
	ids    shared.IDGenerator
	clock  timeutil.Clock
	events shared.EventPublisher
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(plans studyplan.Repository, ids shared.IDGenerator, clock timeutil.Clock, events shared.EventPublisher) *GoalHandler {
	return &GoalHandler{plans: plans, ids: ids, clock: clock, events: orNop(events)}
}

// AddGoal executes the add goal command.
func (h *GoalHandler) AddGoal(ctx context.Context, cmd AddGoalCommand) (*GoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("studyplan", "AddGoal", shared.ErrInvalidInput, "validation failed", err)
	}

	plan, err := h.plans.GetByMentee(ctx, cmd.MenteeID)
	if err != nil {
		return nil, fmt.Errorf("add_goal: %w", err)
	}

	g, err := studyplan.NewGoal(h.ids.NewID(), cmd.Description, cmd.DueAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("add_goal: %w", err)
	}
	plan.AddGoal(g)

	if err := h.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("add_goal: failed to save: %w", err)
	}

	return &GoalResult{PlanID: plan.ID, GoalID: g.ID, Status: g.Status, Changed: true, Progress: plan.Progress()}, nil
}

// UpdateGoalStatus executes the update goal status command.
func (h *GoalHandler) UpdateGoalStatus(ctx context.Context, cmd UpdateGoalStatusCommand) (*GoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("studyplan", "UpdateGoalStatus", shared.ErrInvalidInput, "validation failed", err)
	}

	plan, err := h.plans.GetByMentee(ctx, cmd.MenteeID)
	if err != nil {
		return nil, fmt.Errorf("update_goal_status: %w", err)
	}

	g := plan.Goal(cmd.GoalID)
	if g == nil {
		return nil, fmt.Errorf("update_goal_status: %w", shared.ErrGoalNotFound)
	}

	result := &GoalResult{PlanID: plan.ID, GoalID: g.ID}
	if g.UpdateStatus(cmd.Status) {
		if err := h.plans.Save(ctx, plan); err != nil {
			return nil, fmt.Errorf("update_goal_status: failed to save: %w", err)
		}
		result.Changed = true
		_ = h.events.Publish(shared.NewGoalStatusChangedEvent(plan.ID, g.ID, g.Status, plan.Progress(), h.clock.Now()))
	}

	result.Status = g.Status
	result.Progress = plan.Progress()
	return result, nil
}
