// Package silence tracks how long the candidate has left a question unanswered.
//
// Nothing here owns a goroutine: the hosting UI polls with the elapsed time and
// the flow controller acts on the returned Status.
package silence

import (
	"math/rand/v2"
	"time"
)

// Status is the outcome of one poll
type Status struct {
	ShowCheckIn bool
	Message     string
	ShouldSkip  bool
}

// Timer is the wait clock of the question currently on screen.
// A zero StartedAt means untimed.
type Timer struct {
	StartedAt time.Time `json:"startedAt"`
	CheckIn   string    `json:"checkIn,omitempty"`
}

// Start restarts the clock and forgets any cached check-in
func (t *Timer) Start(now time.Time) {
	t.StartedAt = now
	t.CheckIn = ""
}

// Stop makes the timer untimed
func (t *Timer) Stop() {
	*t = Timer{}
}

// Running reports whether a question is being timed
func (t *Timer) Running() bool {
	return !t.StartedAt.IsZero()
}

// Elapsed returns the wait so far, zero when untimed
func (t *Timer) Elapsed(now time.Time) time.Duration {
	if !t.Running() {
		return 0
	}
	return now.Sub(t.StartedAt)
}

// Poll checks elapsed against the check-in threshold and twice the threshold.
// The check-in message is chosen once and reused by later polls.
func (t *Timer) Poll(elapsed, threshold time.Duration, pick func() string) Status {
	if !t.Running() || threshold <= 0 {
		return Status{}
	}
	if elapsed >= 2*threshold {
		return Status{ShouldSkip: true, Message: t.CheckIn}
	}
	if elapsed < threshold {
		return Status{}
	}
	if t.CheckIn == "" && pick != nil {
		t.CheckIn = pick()
	}
	return Status{ShowCheckIn: true, Message: t.CheckIn}
}

// Picker returns a function choosing a random message from messages
func Picker(messages []string, rng *rand.Rand) func() string {
	return func() string {
		if len(messages) == 0 {
			return ""
		}
		if rng == nil {
			return messages[rand.IntN(len(messages))]
		}
		return messages[rng.IntN(len(messages))]
	}
}

// Deadline is the voice-mode recording limit: a single expiry check with a
// grace buffer past the limit shown to the candidate.
type Deadline struct {
	StartedAt time.Time     `json:"startedAt"`
	Display   time.Duration `json:"display"`
	Limit     time.Duration `json:"limit"`
}

// NewDeadline starts a deadline at now
func NewDeadline(now time.Time, display, buffer time.Duration) Deadline {
	return Deadline{StartedAt: now, Display: display, Limit: display + buffer}
}

// Active reports whether the deadline has been started
func (d Deadline) Active() bool {
	return !d.StartedAt.IsZero()
}

// Expired reports whether the hard limit has passed
func (d Deadline) Expired(now time.Time) bool {
	return d.Active() && now.Sub(d.StartedAt) >= d.Limit
}

// Remaining returns the time left on the displayed limit, never negative
func (d Deadline) Remaining(now time.Time) time.Duration {
	if !d.Active() {
		return d.Display
	}
	left := d.Display - now.Sub(d.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}
