package model

import "strings"

// Speaker identifies who produced an utterance
type Speaker string

const (
	SpeakerExaminer  Speaker = "examiner"
	SpeakerCandidate Speaker = "candidate"
)

// Phase is one of the three sequential parts of the test
type Phase string

const (
	PhaseInterview  Phase = "interview"
	PhaseMonologue  Phase = "monologue"
	PhaseDiscussion Phase = "discussion"
)

// Phases lists the parts in the order they are taken
var Phases = []Phase{PhaseInterview, PhaseMonologue, PhaseDiscussion}

// Number returns the 1-based part number of the phase
func (p Phase) Number() int {
	switch p {
	case PhaseInterview:
		return 1
	case PhaseMonologue:
		return 2
	case PhaseDiscussion:
		return 3
	}
	return 0
}

// Label is the human name used in transcripts ("Part 2")
func (p Phase) Label() string {
	switch p {
	case PhaseInterview:
		return "Part 1"
	case PhaseMonologue:
		return "Part 2"
	case PhaseDiscussion:
		return "Part 3"
	}
	return "Unknown"
}

// PhaseFromNumber maps 1..3 to a phase
func PhaseFromNumber(n int) (Phase, bool) {
	if n < 1 || n > len(Phases) {
		return "", false
	}
	return Phases[n-1], true
}

// UtteranceKind tags what an utterance is within the flow
type UtteranceKind string

const (
	KindQuestion       UtteranceKind = "question"
	KindFollowUp       UtteranceKind = "follow_up"
	KindPromptCard     UtteranceKind = "prompt_card"
	KindRounding       UtteranceKind = "rounding"
	KindAcknowledgment UtteranceKind = "acknowledgment"
	KindRedirect       UtteranceKind = "redirect"
	KindMoveOn         UtteranceKind = "move_on"
	KindCompletion     UtteranceKind = "completion"
	KindAnswer         UtteranceKind = "answer"
	KindLongTurn       UtteranceKind = "long_turn"
	KindTimeout        UtteranceKind = "timeout"
)

// Placeholder texts recorded in place of a real answer
const (
	NoResponseTimedOut = "[No response - timed out]"
	NoResponseProvided = "[No response provided]"
	NoSpeechDetected   = "[No speech detected]"
	NoResponsePrefix   = "[No response"
)

// WordTiming is one transcribed word with its offsets in seconds
type WordTiming struct {
	Word  string  `json:"word" bson:"word"`
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
}

// Utterance is one entry of a conversation log. Never mutated after append.
type Utterance struct {
	Speaker Speaker       `json:"speaker" bson:"speaker"`
	Text    string        `json:"text" bson:"text"`
	Phase   Phase         `json:"phase" bson:"phase"`
	Kind    UtteranceKind `json:"kind,omitempty" bson:"kind,omitempty"`
	Words   []WordTiming  `json:"words,omitempty" bson:"words,omitempty"`
}

// IsCandidate reports whether the candidate produced the utterance
func (u Utterance) IsCandidate() bool {
	return u.Speaker == SpeakerCandidate
}

// IsNoResponse reports whether the utterance is a timeout placeholder
func (u Utterance) IsNoResponse() bool {
	return u.IsCandidate() && strings.HasPrefix(u.Text, NoResponsePrefix)
}
