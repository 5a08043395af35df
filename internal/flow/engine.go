// Package flow runs the three parts of the speaking test as explicit state
// machines over a SessionState.
//
// Every exported Engine method is one user event. It mutates the session it is
// given and returns the view to render. Callers must serialize events per session.
package flow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/logger"
	"speakexam/internal/model"
	"speakexam/internal/relevance"
	"speakexam/internal/scoring"
	"speakexam/internal/silence"
	"speakexam/internal/timing"
	"sync"
	"time"
)

// Scorer turns a finished test into a report. It never fails.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) *model.ScoreReport
}

// Engine applies user events to sessions
type Engine struct {
	profile *config.ExamProfile
	gen     adapter.Generator
	gate    *relevance.Gate
	scorer  Scorer
	now     func() time.Time
	rng     *rand.Rand
	checkIn func() string
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand seeds every random choice (topics, budgets, category, check-ins)
func WithRand(src rand.Source) Option {
	return func(e *Engine) { e.rng = rand.New(&lockedSource{src: src}) }
}

// NewEngine creates an engine. gen serves every examiner call including relevance.
func NewEngine(profile *config.ExamProfile, gen adapter.Generator, scorer Scorer, opts ...Option) *Engine {
	e := &Engine{
		profile: profile,
		gen:     gen,
		gate:    relevance.NewGate(gen),
		scorer:  scorer,
		now:     time.Now,
		rng:     rand.New(&lockedSource{src: rand.NewPCG(rand.Uint64(), rand.Uint64())}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.checkIn = silence.Picker(profile.CheckInMessages, e.rng)
	return e
}

// Profile returns the exam configuration in use
func (e *Engine) Profile() *config.ExamProfile {
	return e.profile
}

// NewSession opens a session on the welcome step
func (e *Engine) NewSession(id string) *SessionState {
	return NewSessionState(id, e.now())
}

// Begin leaves the welcome page for mode selection
func (e *Engine) Begin(s *SessionState) (*model.View, error) {
	if s.Step != model.StepWelcome {
		return nil, ErrInvalidAction
	}
	s.Step = model.StepModeSelect
	return e.render(s, e.now()), nil
}

// SelectMode fixes text or voice answering and starts Part 1
func (e *Engine) SelectMode(ctx context.Context, s *SessionState, mode model.Mode) (*model.View, error) {
	if s.Step != model.StepWelcome && s.Step != model.StepModeSelect {
		return nil, ErrInvalidAction
	}
	if mode != model.ModeText && mode != model.ModeVoice {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidAction, mode)
	}
	s.Mode = mode
	e.enter(ctx, s, model.PhaseInterview)
	return e.Poll(ctx, s), nil
}

// Poll is the periodic refresh: it runs timeouts, the preparation countdown
// and question generation, then returns the view.
func (e *Engine) Poll(ctx context.Context, s *SessionState) *model.View {
	now := e.now()
	if c := e.controller(s); c != nil {
		e.advance(ctx, s, c, now)
	}
	return e.render(s, now)
}

// Submit applies a typed or transcribed answer to the pending question.
// Over-long and empty answers are rejected without touching the session.
// An answer arriving after the question expired is dropped and the question
// is closed as a timeout, exactly as a poll at that moment would have done.
func (e *Engine) Submit(ctx context.Context, s *SessionState, ans Answer) (*model.View, error) {
	c := e.controller(s)
	if c == nil {
		return nil, ErrInvalidAction
	}
	now := e.now()
	if t := &c.state().Turn; t.Awaiting && t.Completion == "" && e.expired(s.Mode, c, now) {
		logger.Session(s.ID).WithField("phase", c.phase()).Info("late answer dropped")
		e.advance(ctx, s, c, now)
		return e.render(s, now), nil
	}
	if err := e.answer(ctx, s, c, ans, now); err != nil {
		return nil, err
	}
	return e.Poll(ctx, s), nil
}

// StartMonologue leaves the voice-mode Part 2 intro and starts preparation
func (e *Engine) StartMonologue(ctx context.Context, s *SessionState) (*model.View, error) {
	if s.Step != model.StepMonologue || s.Monologue == nil || !s.Monologue.IntroPending {
		return nil, ErrInvalidAction
	}
	s.Monologue.IntroPending = false
	s.Monologue.PrepStartedAt = e.now()
	return e.Poll(ctx, s), nil
}

// SkipPreparation ends the Part 2 countdown early
func (e *Engine) SkipPreparation(ctx context.Context, s *SessionState) (*model.View, error) {
	m := s.Monologue
	if s.Step != model.StepMonologue || m == nil || m.IntroPending || m.PrepDone {
		return nil, ErrInvalidAction
	}
	m.PrepDone = true
	return e.Poll(ctx, s), nil
}

// Continue acknowledges a completion message and moves to the next part.
// After Part 3 the session moves to results and is scored.
func (e *Engine) Continue(ctx context.Context, s *SessionState) (*model.View, error) {
	c := e.controller(s)
	if c == nil || c.state().Turn.Completion == "" {
		return nil, ErrInvalidAction
	}
	switch c.phase() {
	case model.PhaseInterview:
		e.enter(ctx, s, model.PhaseMonologue)
	case model.PhaseMonologue:
		e.enter(ctx, s, model.PhaseDiscussion)
	default:
		s.Step = model.StepResults
		e.score(ctx, s)
		return e.render(s, e.now()), nil
	}
	return e.Poll(ctx, s), nil
}

// SkipToPhase re-initializes part n (1..3) from scratch, or jumps to results
// for n == 4. Running it twice gives the same fresh part.
func (e *Engine) SkipToPhase(ctx context.Context, s *SessionState, n int) (*model.View, error) {
	if s.Mode == "" {
		s.Mode = model.ModeText
	}
	if n == len(model.Phases)+1 {
		s.Step = model.StepResults
		e.score(ctx, s)
		return e.render(s, e.now()), nil
	}
	phase, ok := model.PhaseFromNumber(n)
	if !ok {
		return nil, fmt.Errorf("%w: no part %d", ErrInvalidAction, n)
	}
	e.enter(ctx, s, phase)
	return e.Poll(ctx, s), nil
}

// Restart clears every part and the cached report and begins a new run
func (e *Engine) Restart(s *SessionState) *model.View {
	run := s.Run + 1
	*s = *NewSessionState(s.ID, e.now())
	s.Run = run

	logger.Session(s.ID).WithField("run", run).Info("session restarted")
	return e.render(s, e.now())
}

// Score returns the run's report, scoring it on first request
func (e *Engine) Score(ctx context.Context, s *SessionState) (*model.ScoreReport, error) {
	if s.Step != model.StepResults {
		return nil, ErrInvalidAction
	}
	return e.score(ctx, s), nil
}

func (e *Engine) score(ctx context.Context, s *SessionState) *model.ScoreReport {
	if s.Report != nil && s.Report.Run == s.Run {
		return s.Report
	}
	interview, monologue, discussion := s.Logs()
	in := scoring.Input{
		Mode:       s.Mode,
		Interview:  interview,
		Monologue:  monologue,
		Discussion: discussion,
	}
	if s.Mode == model.ModeVoice {
		vm := timing.Aggregate(s.Timings)
		in.Voice = &vm
	}

	report := e.scorer.Score(ctx, in)
	report.SessionID = s.ID
	report.Run = s.Run
	s.Report = report
	return report
}

// enter starts phase with fresh state, discarding anything it held before
func (e *Engine) enter(ctx context.Context, s *SessionState, phase model.Phase) {
	now := e.now()
	s.Step = model.StepForPhase(phase)
	s.Report = nil
	s.dropTimings(phase)

	switch phase {
	case model.PhaseInterview:
		s.Interview = e.newInterview()
	case model.PhaseMonologue:
		s.Monologue = e.newMonologue(ctx, s.Mode, now)
	case model.PhaseDiscussion:
		var card *model.PromptCard
		if s.Monologue != nil {
			card = s.Monologue.Card
		}
		s.Discussion = e.newDiscussion(ctx, card)
	}

	logger.Session(s.ID).WithField("phase", phase).Info("part started")
}

func (e *Engine) controller(s *SessionState) controller {
	phase, ok := s.ActivePhase()
	if !ok {
		return nil
	}
	switch phase {
	case model.PhaseInterview:
		return &interviewController{e: e, st: s.Interview}
	case model.PhaseMonologue:
		return &monologueController{e: e, st: s.Monologue}
	case model.PhaseDiscussion:
		return &discussionController{e: e, st: s.Discussion}
	}
	return nil
}

// lockedSource lets one Rand be shared by concurrent sessions
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}
