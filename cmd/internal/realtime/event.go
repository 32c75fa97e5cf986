package realtime

import "time"

// Event is one feed item pushed to subscribers.
type Event struct {
	Kind string    `json:"kind"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}
