// Package ical converts mentor availability and sessions to and from
// iCalendar (RFC 5545) so mentors can sync slots with their own calendars.
package ical

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // TZID lookups in slim containers

	ics "github.com/arran4/golang-ical"
)

// ProductID identifies feeds produced by this service.
const ProductID = "-//Mentoria Hub//Mentor Calendar//EN"

// DefaultEventLength is the length given to slots and sessions in a feed.
// Sessions are booked as instants, calendars need an end.
const DefaultEventLength = time.Hour

// ErrNoSlots is returned by ParseSlots when the calendar holds no timed,
// non-cancelled event.
var ErrNoSlots = errors.New("ical: calendar contains no slots")

var dateTimeLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
}

// ParseSlots reads an iCalendar document and returns the DTSTART of every
// VEVENT, sorted and without duplicates. Floating times are read in loc;
// all-day and cancelled events are skipped.
func ParseSlots(r io.Reader, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ical: parse calendar: %w", err)
	}

	seen := make(map[int64]struct{})
	var slots []time.Time
	for _, evt := range cal.Events() {
		if cancelled(evt) {
			continue
		}
		at, ok := startOf(evt, loc)
		if !ok {
			continue
		}
		at = at.UTC()
		if _, dup := seen[at.UnixNano()]; dup {
			continue
		}
		seen[at.UnixNano()] = struct{}{}
		slots = append(slots, at)
	}
	if len(slots) == 0 {
		return nil, ErrNoSlots
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

func cancelled(evt *ics.VEvent) bool {
	p := evt.GetProperty(ics.ComponentPropertyStatus)
	return p != nil && strings.EqualFold(strings.TrimSpace(p.Value), string(StatusCancelled))
}

func startOf(evt *ics.VEvent, loc *time.Location) (time.Time, bool) {
	p := evt.GetProperty(ics.ComponentPropertyDtStart)
	if p == nil {
		return time.Time{}, false
	}
	val := strings.TrimSpace(p.Value)

	for k, v := range p.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if tz, err := time.LoadLocation(v[0]); err == nil {
				loc = tz
			}
		}
	}

	for _, layout := range dateTimeLayouts {
		if strings.HasSuffix(layout, "Z") {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, val, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EntryStatus is the iCalendar STATUS of an entry.
type EntryStatus string

const (
	StatusTentative EntryStatus = "TENTATIVE"
	StatusConfirmed EntryStatus = "CONFIRMED"
	StatusCancelled EntryStatus = "CANCELLED"
)

// Entry is one VEVENT of a feed.
type Entry struct {
	UID         string
	Start       time.Time
	Summary     string
	Description string
	Status      EntryStatus
}

// Feed builds a publishable calendar.
type Feed struct {
	cal    *ics.Calendar
	stamp  time.Time
	length time.Duration
}

// NewFeed starts a feed named name. stamp becomes the DTSTAMP of every
// entry; length <= 0 means DefaultEventLength.
func NewFeed(name string, stamp time.Time, length time.Duration) *Feed {
	if length <= 0 {
		length = DefaultEventLength
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(name)
	return &Feed{cal: cal, stamp: stamp.UTC(), length: length}
}

// Add appends an entry.
func (f *Feed) Add(e Entry) {
	evt := f.cal.AddEvent(e.UID)
	evt.SetDtStampTime(f.stamp)
	evt.SetStartAt(e.Start.UTC())
	evt.SetEndAt(e.Start.UTC().Add(f.length))
	evt.SetSummary(e.Summary)
	if e.Description != "" {
		evt.SetDescription(e.Description)
	}
	if e.Status != "" {
		evt.SetStatus(ics.ObjectStatus(e.Status))
	}
}

// Serialize renders the feed.
func (f *Feed) Serialize() string {
	return f.cal.Serialize()
}

// SlotUID is the stable UID of an open slot.
func SlotUID(mentorID string, at time.Time) string {
	return fmt.Sprintf("slot-%s-%d@mentoria-hub", mentorID, at.UTC().Unix())
}

// SessionUID is the stable UID of a session.
func SessionUID(sessionID string) string {
	return "session-" + sessionID + "@mentoria-hub"
}
