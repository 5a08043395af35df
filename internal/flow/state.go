package flow

import (
	"speakexam/internal/model"
	"speakexam/internal/silence"
	"speakexam/internal/transcript"
	"time"
)

// Render stages of the active part. Exactly one holds at a time.
const (
	StageNoQuestion             = "no_question"
	StageAwaitingAnswer         = "awaiting_answer"
	StageShowingRedirect        = "showing_redirect"
	StageAwaitingRedirectAnswer = "awaiting_redirect_answer"
	StageShowingCompletion      = "showing_completion"
)

// Turn is the per-question state shared by every part
type Turn struct {
	// Question is what the candidate sees: the question, or the redirect after one
	Question string `json:"question,omitempty"`
	// Original is the question answers are judged against, kept across a redirect
	Original string              `json:"original,omitempty"`
	Kind     model.UtteranceKind `json:"kind,omitempty"`

	// Acknowledgment is shown before the next question
	Acknowledgment string `json:"acknowledgment,omitempty"`

	Awaiting      bool `json:"awaiting"`
	RedirectCount int  `json:"redirectCount"`
	RedirectShown bool `json:"redirectShown"`

	Completion string `json:"completion,omitempty"`

	Timer    silence.Timer    `json:"timer"`
	Deadline silence.Deadline `json:"deadline"`
}

// Stage derives the render stage
func (t *Turn) Stage() string {
	switch {
	case t.Completion != "":
		return StageShowingCompletion
	case !t.Awaiting:
		return StageNoQuestion
	case t.RedirectCount > 0 && !t.RedirectShown:
		return StageShowingRedirect
	case t.RedirectCount > 0:
		return StageAwaitingRedirectAnswer
	}
	return StageAwaitingAnswer
}

// clear drops the pending question and its clocks
func (t *Turn) clear() {
	t.Question = ""
	t.Original = ""
	t.Kind = ""
	t.Awaiting = false
	t.RedirectCount = 0
	t.RedirectShown = false
	t.Timer.Stop()
	t.Deadline = silence.Deadline{}
}

// PhaseState is what every part owns: its log and the current turn
type PhaseState struct {
	Log  *transcript.Log `json:"log"`
	Turn Turn            `json:"turn"`
}

// InterviewState is Part 1
type InterviewState struct {
	PhaseState
	Topics  []string `json:"topics"`
	Budgets []int    `json:"budgets"`

	TopicIndex int `json:"topicIndex"`
	// Asked counts questions in the current topic, Total across the part
	Asked int `json:"asked"`
	Total int `json:"total"`

	BuildOff   bool   `json:"buildOff"`
	LastAnswer string `json:"lastAnswer,omitempty"`
}

// Topic returns the topic being discussed, empty once all are done
func (s *InterviewState) Topic() string {
	if s.TopicIndex < len(s.Topics) {
		return s.Topics[s.TopicIndex]
	}
	return ""
}

// MonologueState is Part 2
type MonologueState struct {
	PhaseState
	Category string            `json:"category"`
	Card     *model.PromptCard `json:"card,omitempty"`

	// IntroPending holds voice sessions on the instructions page until started
	IntroPending  bool      `json:"introPending"`
	PrepStartedAt time.Time `json:"prepStartedAt"`
	PrepDone      bool      `json:"prepDone"`

	LongResponse string `json:"longResponse,omitempty"`
	LongDone     bool   `json:"longDone"`

	Rounding      []string `json:"rounding,omitempty"`
	RoundingIndex int      `json:"roundingIndex"`
}

// DiscussionState is Part 3
type DiscussionState struct {
	PhaseState
	Theme string `json:"theme"`

	MainAsked int `json:"mainAsked"`
	// FollowUps counts follow-ups asked for the current main question
	FollowUps     int `json:"followUps"`
	MainWords     int `json:"mainWords"`
	FollowUpWords int `json:"followUpWords"`
	// MainMovedOn is set when the main question closed after a redirect
	MainMovedOn bool `json:"mainMovedOn"`
}

// SessionState is everything one candidate's test needs between actions
type SessionState struct {
	ID   string     `json:"id"`
	Run  int        `json:"run"`
	Mode model.Mode `json:"mode,omitempty"`
	Step model.Step `json:"step"`

	Interview  *InterviewState  `json:"interview,omitempty"`
	Monologue  *MonologueState  `json:"monologue,omitempty"`
	Discussion *DiscussionState `json:"discussion,omitempty"`

	Timings []model.TimingSummary `json:"timings,omitempty"`
	Report  *model.ScoreReport    `json:"report,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSessionState returns a session on the welcome step
func NewSessionState(id string, now time.Time) *SessionState {
	return &SessionState{
		ID:        id,
		Run:       1,
		Step:      model.StepWelcome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Logs returns the three part logs in order. Parts not yet reached get empty logs.
func (s *SessionState) Logs() (interview, monologue, discussion *transcript.Log) {
	interview = transcript.New(model.PhaseInterview)
	monologue = transcript.New(model.PhaseMonologue)
	discussion = transcript.New(model.PhaseDiscussion)
	if s.Interview != nil && s.Interview.Log != nil {
		interview = s.Interview.Log
	}
	if s.Monologue != nil && s.Monologue.Log != nil {
		monologue = s.Monologue.Log
	}
	if s.Discussion != nil && s.Discussion.Log != nil {
		discussion = s.Discussion.Log
	}
	return interview, monologue, discussion
}

// ActivePhase returns the part being taken, if any
func (s *SessionState) ActivePhase() (model.Phase, bool) {
	switch s.Step {
	case model.StepInterview:
		return model.PhaseInterview, s.Interview != nil
	case model.StepMonologue:
		return model.PhaseMonologue, s.Monologue != nil
	case model.StepDiscussion:
		return model.PhaseDiscussion, s.Discussion != nil
	}
	return "", false
}

func (s *SessionState) dropTimings(phase model.Phase) {
	kept := s.Timings[:0]
	for _, t := range s.Timings {
		if t.Phase != phase {
			kept = append(kept, t)
		}
	}
	s.Timings = kept
}

// CurrentTurn returns the turn of the active part, nil outside the parts
func (s *SessionState) CurrentTurn() *Turn {
	phase, ok := s.ActivePhase()
	if !ok {
		return nil
	}
	switch phase {
	case model.PhaseInterview:
		return &s.Interview.Turn
	case model.PhaseMonologue:
		return &s.Monologue.Turn
	case model.PhaseDiscussion:
		return &s.Discussion.Turn
	}
	return nil
}

// Prompt is what the examiner is saying right now, without rendering
func (s *SessionState) Prompt() string {
	t := s.CurrentTurn()
	if t == nil {
		return ""
	}
	return spoken(t)
}
