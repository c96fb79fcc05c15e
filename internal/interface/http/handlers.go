package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":    "Mentoria Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":   "/health",
			"users":    "/api/v1/users",
			"slots":    "/api/v1/mentors/{mentorID}/slots",
			"calendar": "/api/v1/mentors/{mentorID}/calendar.ics",
			"sessions": "/api/v1/sessions",
			"plans":    "/api/v1/mentees/{menteeID}/plan",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerUserRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	Bio           string   `json:"bio,omitempty"`
	KnowledgeArea string   `json:"knowledge_area,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
}

type registerUserResponse struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	CalendarID  string    `json:"calendar_id,omitempty"`
	StudyPlanID string    `json:"study_plan_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleRegisterUser handles POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterUser == nil {
		notConfigured(w, r, "registration")
		return
	}

	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "register_user", err)
		return
	}

	res, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		Bio:           req.Bio,
		KnowledgeArea: req.KnowledgeArea,
		Technologies:  req.Technologies,
	})
	if err != nil {
		s.writeDomainError(w, r, "register_user", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, registerUserResponse{
		UserID:      res.UserID,
		Role:        string(res.Role),
		CalendarID:  res.CalendarID,
		StudyPlanID: res.StudyPlanID,
		CreatedAt:   res.CreatedAt,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/v1/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Login == nil {
		notConfigured(w, r, "login")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "login", err)
		return
	}

	res, err := s.deps.Login.Handle(r.Context(), command.LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		s.writeDomainError(w, r, "login", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"user_id": res.UserID,
		"name":    res.Name,
		"role":    string(res.Role),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type slotRequest struct {
	Slot string `json:"slot"`
}

type slotResponse struct {
	CalendarID string      `json:"calendar_id"`
	Changed    bool        `json:"changed"`
	Slots      []time.Time `json:"slots"`
}

// handleListSlots handles GET /api/v1/mentors/{mentorID}/slots
func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListSlots == nil {
		notConfigured(w, r, "slot listing")
		return
	}

	dto, err := s.deps.ListSlots.Handle(r.Context(), query.ListSlotsQuery{
		MentorID:     chi.URLParam(r, "mentorID"),
		UpcomingOnly: queryBool(r, "upcoming"),
	})
	if err != nil {
		s.writeDomainError(w, r, "list_slots", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleAddSlot handles POST /api/v1/mentors/{mentorID}/slots
func (s *Server) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Slots == nil {
		notConfigured(w, r, "slot management")
		return
	}

	var req slotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "add_slot", err)
		return
	}
	slot, err := parseTime("slot", req.Slot)
	if err != nil {
		s.writeDomainError(w, r, "add_slot", err)
		return
	}

	res, err := s.deps.Slots.AddSlot(r.Context(), command.SlotCommand{MentorID: chi.URLParam(r, "mentorID"), Slot: slot})
	if err != nil {
		s.writeDomainError(w, r, "add_slot", err)
		return
	}

	status := http.StatusOK
	if res.Changed {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, slotResponse{CalendarID: res.CalendarID, Changed: res.Changed, Slots: res.Slots})
}

// handleRemoveSlot handles DELETE /api/v1/mentors/{mentorID}/slots/{slot}
func (s *Server) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Slots == nil {
		notConfigured(w, r, "slot management")
		return
	}

	slot, err := parseTime("slot", chi.URLParam(r, "slot"))
	if err != nil {
		s.writeDomainError(w, r, "remove_slot", err)
		return
	}

	res, err := s.deps.Slots.RemoveSlot(r.Context(), command.SlotCommand{MentorID: chi.URLParam(r, "mentorID"), Slot: slot})
	if err != nil {
		s.writeDomainError(w, r, "remove_slot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, slotResponse{CalendarID: res.CalendarID, Changed: res.Changed, Slots: res.Slots})
}
