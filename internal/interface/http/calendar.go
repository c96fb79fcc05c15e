package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/ical"
)

// ══════════════════════════════════════════════════════════════════════════════
// ICALENDAR IMPORT / EXPORT
// ══════════════════════════════════════════════════════════════════════════════

const contentTypeCalendar = "text/calendar; charset=utf-8"

type importSlotsResponse struct {
	slotResponse
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// handleImportSlots handles POST /api/v1/mentors/{mentorID}/slots/import.
// The body is an iCalendar document; every timed VEVENT start becomes a slot.
// ?tz= names the zone for floating times, ?upcoming=true drops past events.
func (s *Server) handleImportSlots(w http.ResponseWriter, r *http.Request) {
	if s.deps.Slots == nil {
		notConfigured(w, r, "slot management")
		return
	}

	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			s.writeDomainError(w, r, "import_slots", shared.NewDomainError("http", "ImportSlots",
				shared.ErrInvalidInput, fmt.Sprintf("unknown time zone %q", tz)))
			return
		}
		loc = l
	}

	slots, err := ical.ParseSlots(r.Body, loc)
	if err != nil {
		msg := "malformed iCalendar body"
		if errors.Is(err, ical.ErrNoSlots) {
			msg = "calendar contains no timed events"
		}
		s.writeDomainError(w, r, "import_slots", shared.WrapError("http", "ImportSlots", shared.ErrInvalidInput, msg, err))
		return
	}

	res, err := s.deps.Slots.ImportSlots(r.Context(), command.ImportSlotsCommand{
		MentorID:     chi.URLParam(r, "mentorID"),
		Slots:        slots,
		UpcomingOnly: queryBool(r, "upcoming"),
	})
	if err != nil {
		s.writeDomainError(w, r, "import_slots", err)
		return
	}

	status := http.StatusOK
	if res.Changed {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, importSlotsResponse{
		slotResponse: slotResponse{CalendarID: res.CalendarID, Changed: res.Changed, Slots: res.Slots},
		Added:        res.Added,
		Skipped:      res.Skipped,
	})
}

// handleCalendarFeed handles GET /api/v1/mentors/{mentorID}/calendar.ics.
func (s *Server) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.CalendarFeed == nil {
		notConfigured(w, r, "calendar feed")
		return
	}

	dto, err := s.deps.CalendarFeed.Handle(r.Context(), query.CalendarFeedQuery{MentorID: chi.URLParam(r, "mentorID")})
	if err != nil {
		s.writeDomainError(w, r, "calendar_feed", err)
		return
	}

	w.Header().Set("Content-Type", contentTypeCalendar)
	w.Header().Set("Content-Disposition", `inline; filename="mentoria.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(buildFeed(dto).Serialize()))
}

func buildFeed(dto *query.CalendarFeedDTO) *ical.Feed {
	feed := ical.NewFeed(dto.MentorName+": mentoring", dto.GeneratedAt, ical.DefaultEventLength)
	for _, slot := range dto.Slots {
		feed.Add(ical.Entry{
			UID:     ical.SlotUID(dto.MentorID, slot),
			Start:   slot,
			Summary: "Open mentoring slot",
			Status:  ical.StatusTentative,
		})
	}
	for _, sess := range dto.Sessions {
		feed.Add(ical.Entry{
			UID:         ical.SessionUID(sess.ID),
			Start:       sess.ScheduledAt,
			Summary:     "Mentoring with " + sess.MenteeName,
			Description: sess.StatusLabel,
			Status:      feedStatus(session.Status(sess.Status)),
		})
	}
	return feed
}

func feedStatus(st session.Status) ical.EntryStatus {
	switch {
	case st == session.StatusRefused || st == session.StatusCancelled:
		return ical.StatusCancelled
	case st == session.StatusPending:
		return ical.StatusTentative
	default:
		return ical.StatusConfirmed
	}
}
