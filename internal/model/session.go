package model

// Mode is how the candidate answers
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// Step is the session-level position in the test
type Step string

const (
	StepWelcome    Step = "welcome"
	StepModeSelect Step = "mode_select"
	StepInterview  Step = "part1"
	StepMonologue  Step = "part2"
	StepDiscussion Step = "part3"
	StepResults    Step = "results"
)

// StepForPhase maps a phase to the step that runs it
func StepForPhase(p Phase) Step {
	switch p {
	case PhaseInterview:
		return StepInterview
	case PhaseMonologue:
		return StepMonologue
	case PhaseDiscussion:
		return StepDiscussion
	}
	return StepResults
}

// Preparation is the Part 2 countdown shown before the long turn
type Preparation struct {
	TotalSeconds     int     `json:"totalSeconds"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// View is what the presentation layer renders after every action
type View struct {
	SessionID        string       `json:"sessionId"`
	Run              int          `json:"run"`
	Mode             Mode         `json:"mode,omitempty"`
	Step             Step         `json:"step"`
	Phase            Phase        `json:"phase,omitempty"`
	Stage            string       `json:"stage,omitempty"`
	Topic            string       `json:"topic,omitempty"`
	Acknowledgment   string       `json:"acknowledgment,omitempty"`
	Question         string       `json:"question,omitempty"`
	Prompt           string       `json:"prompt,omitempty"`
	CheckIn          string       `json:"checkIn,omitempty"`
	WordLimit        int          `json:"wordLimit,omitempty"`
	TimeLimitSeconds int          `json:"timeLimitSeconds,omitempty"`
	Card             *PromptCard  `json:"card,omitempty"`
	Preparation      *Preparation `json:"preparation,omitempty"`
	ShowIntro        bool         `json:"showIntro,omitempty"`
	Completion       string       `json:"completion,omitempty"`
	ReportReady      bool         `json:"reportReady,omitempty"`
}

// CreateSessionResponse is returned when a new session is opened
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	View      *View  `json:"view"`
}

// SelectModeRequest is the body of POST /v1/sessions/{id}/mode
type SelectModeRequest struct {
	Mode Mode `json:"mode" validate:"required,oneof=text voice"`
}

// SubmitAnswerRequest is the body of POST /v1/sessions/{id}/answers
type SubmitAnswerRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// WordLimitResponse is returned when an answer exceeds the part's ceiling
type WordLimitResponse struct {
	Error     string `json:"error"`
	WordCount int    `json:"wordCount"`
	Limit     int    `json:"limit"`
}
