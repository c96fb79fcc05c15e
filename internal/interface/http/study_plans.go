package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY PLAN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type addGoalRequest struct {
	Description string `json:"description"`
	DueAt       string `json:"due_at,omitempty"`
}

type updateGoalRequest struct {
	Status string `json:"status"`
}

type goalResponse struct {
	PlanID   string  `json:"plan_id"`
	GoalID   string  `json:"goal_id"`
	Status   string  `json:"status"`
	Changed  bool    `json:"changed"`
	Progress float64 `json:"progress"`
}

func toGoalResponse(res *command.GoalResult) goalResponse {
	return goalResponse{
		PlanID:   res.PlanID,
		GoalID:   res.GoalID,
		Status:   res.Status,
		Changed:  res.Changed,
		Progress: res.Progress,
	}
}

// handleGetStudyProgress handles GET /api/v1/mentees/{menteeID}/plan
func (s *Server) handleGetStudyProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStudyProgress == nil {
		notConfigured(w, r, "study progress")
		return
	}

	dto, err := s.deps.GetStudyProgress.Handle(r.Context(), query.GetStudyProgressQuery{MenteeID: chi.URLParam(r, "menteeID")})
	if err != nil {
		s.writeDomainError(w, r, "get_study_progress", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleAddGoal handles POST /api/v1/mentees/{menteeID}/plan/goals
func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	if s.deps.Goals == nil {
		notConfigured(w, r, "goal management")
		return
	}

	var req addGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "add_goal", err)
		return
	}

	var due time.Time
	if req.DueAt != "" {
		t, err := parseTime("due_at", req.DueAt)
		if err != nil {
			s.writeDomainError(w, r, "add_goal", err)
			return
		}
		due = t
	}

	res, err := s.deps.Goals.AddGoal(r.Context(), command.AddGoalCommand{
		MenteeID:    chi.URLParam(r, "menteeID"),
		Description: req.Description,
		DueAt:       due,
	})
	if err != nil {
		s.writeDomainError(w, r, "add_goal", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toGoalResponse(res))
}

// handleUpdateGoalStatus handles PATCH /api/v1/mentees/{menteeID}/plan/goals/{goalID}
func (s *Server) handleUpdateGoalStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Goals == nil {
		notConfigured(w, r, "goal management")
		return
	}

	var req updateGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "update_goal_status", err)
		return
	}

	res, err := s.deps.Goals.UpdateGoalStatus(r.Context(), command.UpdateGoalStatusCommand{
		MenteeID: chi.URLParam(r, "menteeID"),
		GoalID:   chi.URLParam(r, "goalID"),
		Status:   req.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, "update_goal_status", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toGoalResponse(res))
}
