package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example//Test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:utc@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART:20300102T100000Z\r\n" +
	"SUMMARY:Office hours\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:tz@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART;TZID=Europe/Berlin:20300103T120000\r\n" +
	"SUMMARY:Berlin slot\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:floating@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART:20300104T090000\r\n" +
	"SUMMARY:Floating slot\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:dup@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART:20300102T100000Z\r\n" +
	"SUMMARY:Same instant\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:allday@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20300105\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled@example.com\r\n" +
	"DTSTAMP:20300101T000000Z\r\n" +
	"DTSTART:20300106T100000Z\r\n" +
	"STATUS:CANCELLED\r\n" +
	"SUMMARY:Called off\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseSlots(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	slots, err := ParseSlots(strings.NewReader(sample), time.UTC)
	require.NoError(t, err)

	want := []time.Time{
		time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 3, 12, 0, 0, 0, berlin).UTC(),
		time.Date(2030, 1, 4, 9, 0, 0, 0, time.UTC),
	}
	require.Len(t, slots, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(slots[i]), "slot %d: want %s, got %s", i, want[i], slots[i])
	}
}

func TestParseSlots_FloatingTimesUseLocation(t *testing.T) {
	almaty := time.FixedZone("ALMT", 5*3600)
	doc := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//x//y//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:a\r\nDTSTAMP:20300101T000000Z\r\nDTSTART:20300104T090000\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	slots, err := ParseSlots(strings.NewReader(doc), almaty)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2030, 1, 4, 4, 0, 0, 0, time.UTC), slots[0])
}

func TestParseSlots_Empty(t *testing.T) {
	doc := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//x//y//EN\r\nEND:VCALENDAR\r\n"
	_, err := ParseSlots(strings.NewReader(doc), nil)
	assert.ErrorIs(t, err, ErrNoSlots)
}

func TestFeed_SerializeAndReadBack(t *testing.T) {
	stamp := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	slot := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	booked := time.Date(2030, 1, 3, 15, 30, 0, 0, time.UTC)

	feed := NewFeed("Marta: mentoring", stamp, 0)
	feed.Add(Entry{UID: SlotUID("m-1", slot), Start: slot, Summary: "Open slot", Status: StatusTentative})
	feed.Add(Entry{UID: SessionUID("s-1"), Start: booked, Summary: "Session with Ana", Description: "Approved (normal)", Status: StatusConfirmed})

	out := feed.Serialize()
	assert.Contains(t, out, "PRODID:"+ProductID)
	assert.Contains(t, out, "X-WR-CALNAME:Marta: mentoring")
	assert.Contains(t, out, "UID:"+SessionUID("s-1"))
	assert.Contains(t, out, "DTSTART:20300103T153000Z")
	assert.Contains(t, out, "DTEND:20300103T163000Z")
	assert.Contains(t, out, "STATUS:CONFIRMED")

	slots, err := ParseSlots(strings.NewReader(out), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{slot, booked}, slots)
}

func TestUIDsAreStable(t *testing.T) {
	at := time.Date(2030, 1, 2, 10, 0, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, SlotUID("m-1", at), SlotUID("m-1", at.UTC()))
	assert.Equal(t, "session-s-1@mentoria-hub", SessionUID("s-1"))
}
