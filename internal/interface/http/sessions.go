package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// Rejected transitions and non-applied approvals are answered with 409 and
// still carry the result, so clients see the unchanged status. An approval
// without a proposed slot is a 400.
// ══════════════════════════════════════════════════════════════════════════════

type requestSessionRequest struct {
	MentorID    string `json:"mentor_id"`
	MenteeID    string `json:"mentee_id"`
	ScheduledAt string `json:"scheduled_at"`
}

// handleRequestSession handles POST /api/v1/sessions
func (s *Server) handleRequestSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.RequestSession == nil {
		notConfigured(w, r, "session requests")
		return
	}

	var req requestSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "request_session", err)
		return
	}
	at, err := parseTime("scheduled_at", req.ScheduledAt)
	if err != nil {
		s.writeDomainError(w, r, "request_session", err)
		return
	}

	res, err := s.deps.RequestSession.Handle(r.Context(), command.RequestSessionCommand{
		MentorID:    req.MentorID,
		MenteeID:    req.MenteeID,
		ScheduledAt: at,
	})
	if err != nil {
		s.writeDomainError(w, r, "request_session", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]interface{}{
		"session_id":   res.SessionID,
		"status":       string(res.Status),
		"scheduled_at": res.ScheduledAt,
	})
}

// handleGetSession handles GET /api/v1/sessions/{sessionID}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetSession == nil {
		notConfigured(w, r, "session lookup")
		return
	}

	dto, err := s.deps.GetSession.Handle(r.Context(), query.GetSessionQuery{SessionID: chi.URLParam(r, "sessionID")})
	if err != nil {
		s.writeDomainError(w, r, "get_session", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleListSessions handles GET /api/v1/sessions?mentor_id=...|mentee_id=...
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.deps.ListSessions == nil {
		notConfigured(w, r, "session listing")
		return
	}

	list, err := s.deps.ListSessions.Handle(r.Context(), query.ListSessionsQuery{
		MentorID: r.URL.Query().Get("mentor_id"),
		MenteeID: r.URL.Query().Get("mentee_id"),
	})
	if err != nil {
		s.writeDomainError(w, r, "list_sessions", err)
		return
	}
	writeEnvelope(w, r, http.StatusOK, list, nil, &ResponseMeta{TotalCount: len(list)})
}

type approveSessionRequest struct {
	MentorID   string `json:"mentor_id"`
	ProposedAt string `json:"proposed_at"`
}

type approveSessionResponse struct {
	SessionID string `json:"session_id"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
	Message   string `json:"message"`
	LeadTime  string `json:"lead_time,omitempty"`
}

// handleApproveSession handles POST /api/v1/sessions/{sessionID}/approve
func (s *Server) handleApproveSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.ApproveSession == nil {
		notConfigured(w, r, "session approval")
		return
	}

	var req approveSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "approve_session", err)
		return
	}

	cmd := command.ApproveSessionCommand{MentorID: req.MentorID, SessionID: chi.URLParam(r, "sessionID")}
	if req.ProposedAt != "" {
		at, err := parseTime("proposed_at", req.ProposedAt)
		if err != nil {
			s.writeDomainError(w, r, "approve_session", err)
			return
		}
		cmd.ProposedAt = &at
	}

	res, err := s.deps.ApproveSession.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, "approve_session", err)
		return
	}

	body := approveSessionResponse{
		SessionID: res.SessionID,
		Outcome:   string(res.Outcome),
		Status:    string(res.Status),
		Applied:   res.Applied,
		Message:   res.Message,
	}
	if res.Applied {
		body.LeadTime = timeutil.FormatLeadTime(res.LeadTime)
		writeJSON(w, r, http.StatusOK, body)
		return
	}
	if res.Outcome == session.OutcomeInvalidInput {
		writeEnvelope(w, r, http.StatusBadRequest, body, &APIError{Code: string(res.Outcome), Message: "proposed_at is required"}, nil)
		return
	}
	writeEnvelope(w, r, http.StatusConflict, body, &APIError{Code: string(res.Outcome), Message: res.Message}, nil)
}

type statusRequest struct {
	ActorID string `json:"actor_id"`
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type statusResponse struct {
	SessionID string `json:"session_id"`
	Applied   bool   `json:"applied"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Rejection string `json:"rejection,omitempty"`
}

// handleSetStatus handles POST /api/v1/sessions/{sessionID}/status
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, command.ActionSetStatus)
}

// handleStartSession handles POST /api/v1/sessions/{sessionID}/start
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, command.ActionStart)
}

// handleFinishSession handles POST /api/v1/sessions/{sessionID}/finish
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, command.ActionFinish)
}

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request, action command.StatusAction) {
	if s.deps.ChangeStatus == nil {
		notConfigured(w, r, "status changes")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, string(action), err)
		return
	}

	res, err := s.deps.ChangeStatus.Handle(r.Context(), command.ChangeSessionStatusCommand{
		SessionID: chi.URLParam(r, "sessionID"),
		ActorID:   req.ActorID,
		Action:    action,
		Status:    req.Status,
		Reason:    req.Reason,
	})
	if err != nil {
		s.writeDomainError(w, r, string(action), err)
		return
	}

	body := statusResponse{
		SessionID: res.SessionID,
		Applied:   res.Applied,
		From:      string(res.From),
		To:        string(res.To),
		Status:    string(res.Status),
		Rejection: res.Rejection,
	}
	if res.Applied {
		writeJSON(w, r, http.StatusOK, body)
		return
	}
	writeEnvelope(w, r, http.StatusConflict, body, &APIError{Code: "transition_rejected", Message: res.Rejection}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type feedbackRequest struct {
	AuthorID string `json:"author_id"`
	Rating   *int   `json:"rating"`
	Comment  string `json:"comment"`
}

type feedbackResponse struct {
	FeedbackID    string `json:"feedback_id"`
	SessionID     string `json:"session_id"`
	Rating        int    `json:"rating"`
	FullyReviewed bool   `json:"fully_reviewed"`
}

// handleSubmitFeedback handles POST /api/v1/sessions/{sessionID}/feedback
func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitFeedback == nil {
		notConfigured(w, r, "feedback")
		return
	}

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(w, r, "submit_feedback", err)
		return
	}

	// A missing rating must not silently become 0, which is a valid score.
	rating := -1
	if req.Rating != nil {
		rating = *req.Rating
	}

	res, err := s.deps.SubmitFeedback.Handle(r.Context(), command.SubmitFeedbackCommand{
		SessionID: chi.URLParam(r, "sessionID"),
		AuthorID:  req.AuthorID,
		Rating:    rating,
		Comment:   req.Comment,
	})
	if err != nil {
		s.writeDomainError(w, r, "submit_feedback", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, feedbackResponse{
		FeedbackID:    res.FeedbackID,
		SessionID:     res.SessionID,
		Rating:        res.Rating,
		FullyReviewed: res.FullyReviewed,
	})
}
