package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAnswer is returned for blank submissions
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrInvalidAction is returned when an event does not apply to the current state
	ErrInvalidAction = errors.New("action not allowed in the current state")
)

// WordLimitError rejects an answer over the part's word ceiling.
// The session is left untouched and the candidate must resubmit.
type WordLimitError struct {
	Count int
	Limit int
}

func (e *WordLimitError) Error() string {
	return fmt.Sprintf("your response is %d words, please reduce it to %d words or less", e.Count, e.Limit)
}
