package gesture

import (
	"time"

	"github.com/google/uuid"
)

// Event is one debounced gesture detection. At most one Event is
// emitted per physical gesture occurrence.
type Event struct {
	// ID uniquely identifies the event for logging and clip naming.
	ID string `json:"id" msgpack:"id"`

	// Class is the configured gesture class, e.g. "snap" or "click".
	Class string `json:"class" msgpack:"class"`

	// Score is the smoothed score at the moment of detection.
	Score float64 `json:"score" msgpack:"score"`

	// Time is the detection timestamp.
	Time time.Time `json:"time" msgpack:"time"`
}

func newEvent(class string, score float64, at time.Time) Event {
	return Event{
		ID:    uuid.NewString(),
		Class: class,
		Score: score,
		Time:  at,
	}
}
