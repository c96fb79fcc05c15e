package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/studyplan"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDY PROGRESS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetStudyProgressQuery содержит параметры запроса.
type GetStudyProgressQuery struct {
	MenteeID string
}

// GoalDTO - цель плана.
type GoalDTO struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueAt       time.Time `json:"due_at,omitempty"`
	Overdue     bool      `json:"overdue"`
}

// StudyProgressDTO - план менти с процентом выполнения.
type StudyProgressDTO struct {
	PlanID    string    `json:"plan_id"`
	MenteeID  string    `json:"mentee_id"`
	Progress  float64   `json:"progress"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Goals     []GoalDTO `json:"goals"`
}

// GetStudyProgressHandler обрабатывает GetStudyProgressQuery.
type GetStudyProgressHandler struct {
	plans studyplan.Repository
	clock timeutil.Clock
}

// NewGetStudyProgressHandler создаёт обработчик.
func NewGetStudyProgressHandler(plans studyplan.Repository, clock timeutil.Clock) *GetStudyProgressHandler {
	return &GetStudyProgressHandler{plans: plans, clock: clock}
}

// Handle выполняет запрос.
func (h *GetStudyProgressHandler) Handle(ctx context.Context, q GetStudyProgressQuery) (*StudyProgressDTO, error) {
	if q.MenteeID == "" {
		return nil, shared.NewDomainError("studyplan", "GetProgress", shared.ErrInvalidInput, "mentee_id is required")
	}

	plan, err := h.plans.GetByMentee(ctx, q.MenteeID)
	if err != nil {
		return nil, fmt.Errorf("get_study_progress: %w", err)
	}

	now := h.clock.Now()
	dto := &StudyProgressDTO{
		PlanID:   plan.ID,
		MenteeID: plan.MenteeID,
		Progress: plan.Progress(),
		Goals:    make([]GoalDTO, 0),
	}
	for _, g := range plan.Goals() {
		if g.IsCompleted() {
			dto.Completed++
		}
		dto.Goals = append(dto.Goals, GoalDTO{
			ID:          g.ID,
			Description: g.Description,
			Status:      g.Status,
			DueAt:       g.DueAt,
			Overdue:     g.IsOverdue(now),
		})
	}
	dto.Total = len(dto.Goals)
	return dto, nil
}
