package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/mentoria-hub/internal/domain/calendar"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/domain/user"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD / REMOVE SLOT COMMANDS
// A mentor opens or withdraws a bookable instant. Duplicates and absent
// slots are silent no-ops reported through Changed.
// ══════════════════════════════════════════════════════════════════════════════

// SlotCommand identifies a mentor's slot.
type SlotCommand struct {
	MentorID string
	Slot     time.Time
}

// Validate validates the command.
func (c SlotCommand) Validate() error {
	if c.MentorID == "" {
		return errors.New("mentor_id is required")
	}
	if c.Slot.IsZero() {
		return errors.New("slot is required")
	}
	return nil
}

// SlotResult contains the calendar after the change.
type SlotResult struct {
	CalendarID string
	Changed    bool
	Slots      []time.Time
}

// SlotHandler handles AddSlot and RemoveSlot.
type SlotHandler struct {
	users     user.Repository
	calendars calendar.Repository
	cache     calendar.SlotCache // optional
	ids       shared.IDGenerator
	clock     timeutil.Clock
	events    shared.EventPublisher
}

// NewSlotHandler creates a new SlotHandler. cache may be nil.
func NewSlotHandler(
	users user.Repository,
	calendars calendar.Repository,
	cache calendar.SlotCache,
	ids shared.IDGenerator,
	clock timeutil.Clock,
	events shared.EventPublisher,
) *SlotHandler {
	return &SlotHandler{
		users:     users,
		calendars: calendars,
		cache:     cache,
		ids:       ids,
		clock:     clock,
		events:    orNop(events),
	}
}

// AddSlot adds an instant to the mentor's calendar.
func (h *SlotHandler) AddSlot(ctx context.Context, cmd SlotCommand) (*SlotResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("calendar", "add_slot", shared.ErrInvalidInput, "validation failed", err)
	}
	return h.apply(ctx, "add_slot", cmd.MentorID, func(c *calendar.Calendar, now time.Time) []shared.Event {
		if !c.AddSlot(cmd.Slot) {
			return nil
		}
		return []shared.Event{shared.NewSlotAddedEvent(c.ID, c.MentorID, cmd.Slot, now)}
	})
}

// RemoveSlot removes an instant from the mentor's calendar.
func (h *SlotHandler) RemoveSlot(ctx context.Context, cmd SlotCommand) (*SlotResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("calendar", "remove_slot", shared.ErrInvalidInput, "validation failed", err)
	}
	return h.apply(ctx, "remove_slot", cmd.MentorID, func(c *calendar.Calendar, now time.Time) []shared.Event {
		if !c.RemoveSlot(cmd.Slot) {
			return nil
		}
		return []shared.Event{shared.NewSlotRemovedEvent(c.ID, c.MentorID, cmd.Slot, now)}
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT SLOTS COMMAND
// Bulk add, e.g. from an iCalendar file. One save, one cache invalidation,
// one SlotAdded event per slot that was new.
// ══════════════════════════════════════════════════════════════════════════════

// ImportSlotsCommand adds many slots at once.
type ImportSlotsCommand struct {
	MentorID string
	Slots    []time.Time

	// UpcomingOnly drops slots earlier than now.
	UpcomingOnly bool
}

// Validate validates the command.
func (c ImportSlotsCommand) Validate() error {
	if c.MentorID == "" {
		return errors.New("mentor_id is required")
	}
	if len(c.Slots) == 0 {
		return errors.New("at least one slot is required")
	}
	for _, s := range c.Slots {
		if s.IsZero() {
			return errors.New("slot is required")
		}
	}
	return nil
}

// ImportResult reports how many of the submitted slots were new.
type ImportResult struct {
	SlotResult
	Added   int
	Skipped int
}

// ImportSlots adds every slot not yet on the calendar.
func (h *SlotHandler) ImportSlots(ctx context.Context, cmd ImportSlotsCommand) (*ImportResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("calendar", "import_slots", shared.ErrInvalidInput, "validation failed", err)
	}

	added := 0
	res, err := h.apply(ctx, "import_slots", cmd.MentorID, func(c *calendar.Calendar, now time.Time) []shared.Event {
		var events []shared.Event
		for _, slot := range cmd.Slots {
			if cmd.UpcomingOnly && slot.Before(now) {
				continue
			}
			if c.AddSlot(slot) {
				events = append(events, shared.NewSlotAddedEvent(c.ID, c.MentorID, slot, now))
			}
		}
		added = len(events)
		return events
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{SlotResult: *res, Added: added, Skipped: len(cmd.Slots) - added}, nil
}

// apply loads (or creates) the mentor's calendar, runs mutate and persists
// the calendar when mutate reports at least one change.
func (h *SlotHandler) apply(ctx context.Context, name, mentorID string, mutate func(*calendar.Calendar, time.Time) []shared.Event) (*SlotResult, error) {
	mentor, err := h.users.GetByID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("%s: mentor not found: %w", name, err)
	}
	if !mentor.IsMentor() {
		return nil, fmt.Errorf("%s: %w", name, shared.ErrNotAMentor)
	}

	cal, err := h.calendars.GetByMentor(ctx, mentor.ID)
	switch {
	case shared.IsNotFound(err):
		if cal, err = calendar.New(h.ids.NewID(), mentor.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%s: failed to load calendar: %w", name, err)
	}

	now := h.clock.Now()
	events := mutate(cal, now)
	if len(events) > 0 {
		cal.UpdatedAt = now
		if err := h.calendars.Save(ctx, cal); err != nil {
			return nil, fmt.Errorf("%s: failed to save calendar: %w", name, err)
		}
		if h.cache != nil {
			_ = h.cache.Invalidate(ctx, mentor.ID)
		}
		for _, e := range events {
			_ = h.events.Publish(e)
		}
	}

	return &SlotResult{CalendarID: cal.ID, Changed: len(events) > 0, Slots: cal.Slots()}, nil
}
