package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SLOTS QUERY
// Слоты ментора читаются через кеш; промах идёт в репозиторий и прогревает кеш.
// ══════════════════════════════════════════════════════════════════════════════

// ListSlotsQuery содержит параметры запроса.
type ListSlotsQuery struct {
	MentorID string

	// UpcomingOnly - только слоты не раньше текущего момента.
	UpcomingOnly bool
}

// SlotsDTO - слоты ментора.
type SlotsDTO struct {
	MentorID  string      `json:"mentor_id"`
	Slots     []time.Time `json:"slots"`
	FromCache bool        `json:"from_cache"`
}

// ListSlotsHandler обрабатывает ListSlotsQuery.
type ListSlotsHandler struct {
	calendars calendar.Repository
	cache     calendar.SlotCache // может быть nil
	cacheTTL  time.Duration
	clock     timeutil.Clock
}

// NewListSlotsHandler создаёт обработчик. cache может быть nil.
func NewListSlotsHandler(calendars calendar.Repository, cache calendar.SlotCache, cacheTTL time.Duration, clock timeutil.Clock) *ListSlotsHandler {
	return &ListSlotsHandler{calendars: calendars, cache: cache, cacheTTL: cacheTTL, clock: clock}
}

// Handle выполняет запрос.
func (h *ListSlotsHandler) Handle(ctx context.Context, q ListSlotsQuery) (*SlotsDTO, error) {
	if q.MentorID == "" {
		return nil, shared.NewDomainError("calendar", "ListSlots", shared.ErrInvalidInput, "mentor_id is required")
	}

	dto := &SlotsDTO{MentorID: q.MentorID}

	if h.cache != nil {
		// Ошибка кеша не фатальна: читаем из репозитория.
		if slots, found, err := h.cache.Get(ctx, q.MentorID); err == nil && found {
			dto.Slots = slots
			dto.FromCache = true
		}
	}

	if !dto.FromCache {
		cal, err := h.calendars.GetByMentor(ctx, q.MentorID)
		if err != nil {
			return nil, fmt.Errorf("list_slots: %w", err)
		}
		dto.Slots = cal.Slots()
		if h.cache != nil {
			_ = h.cache.Set(ctx, q.MentorID, dto.Slots, h.cacheTTL)
		}
	}

	sort.Slice(dto.Slots, func(i, j int) bool { return dto.Slots[i].Before(dto.Slots[j]) })

	if q.UpcomingOnly {
		now := h.clock.Now()
		upcoming := make([]time.Time, 0, len(dto.Slots))
		for _, s := range dto.Slots {
			if !s.Before(now) {
				upcoming = append(upcoming, s)
			}
		}
		dto.Slots = upcoming
	}

	if dto.Slots == nil {
		dto.Slots = []time.Time{}
	}
	return dto, nil
}
