package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyPublisher struct {
	got []Event
}

func (p *flakyPublisher) Publish(e Event) error {
	p.got = append(p.got, e)
	if len(p.got) == 1 {
		return errors.New("broker down")
	}
	return nil
}

func TestRecordingPublisher_Flush(t *testing.T) {
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	buf := &RecordingPublisher{}
	_ = buf.Publish(NewSessionStatusChangedEvent("s-1", "m-1", "e-1", "pending", "refused", "", "approval", at))
	_ = buf.Publish(NewUserRegisteredEvent("u-1", "ana@example.com", "Ana", "mentee", at))

	to := &flakyPublisher{}
	err := buf.Flush(to)

	assert.EqualError(t, err, "broker down")
	assert.Len(t, to.got, 2, "a failing event does not stop delivery")
	assert.Equal(t, EventSessionStatusChanged, to.got[0].EventType())
	assert.Empty(t, buf.Events)
	assert.NoError(t, buf.Flush(to))
}
