package flow

import (
	"context"
	"fmt"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/logger"
	"speakexam/internal/model"
	"speakexam/internal/relevance"
	"speakexam/internal/silence"
	"speakexam/internal/timing"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// outcome is how a question was closed
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeMovedOn
	outcomeTimedOut
)

// controller is the per-part policy plugged into the shared turn skeleton
type controller interface {
	phase() model.Phase
	state() *PhaseState
	// limits applies to the question currently asked, or about to be
	limits() config.AnswerLimits
	// ready reports whether questions may be asked yet
	ready(now time.Time) bool
	// next produces the next question; ok is false once the part is done
	next(ctx context.Context) (text string, kind model.UtteranceKind, ok bool)
	answerKind() model.UtteranceKind
	acknowledge(ctx context.Context) string
	// settle applies the part's advancement policy after a question closes
	settle(ctx context.Context, o outcome, answer string)
}

// Answer is one candidate submission. Words are present for voice answers.
type Answer struct {
	Text  string
	Words []model.WordTiming
}

func (e *Engine) history(c controller) []model.Utterance {
	return c.state().Log.Recent(e.profile.HistoryWindow)
}

// advance runs timeouts and asks the next question when none is pending
func (e *Engine) advance(ctx context.Context, s *SessionState, c controller, now time.Time) {
	t := &c.state().Turn
	if t.Completion != "" || !c.ready(now) {
		return
	}
	if t.Awaiting {
		if !e.expired(s.Mode, c, now) {
			return
		}
		e.timeout(ctx, s, c)
	}

	text, kind, ok := c.next(ctx)
	if !ok {
		e.complete(s, c)
		return
	}
	e.ask(s, c, text, kind, now)
}

func (e *Engine) expired(mode model.Mode, c controller, now time.Time) bool {
	t := &c.state().Turn
	if mode == model.ModeVoice {
		return t.Deadline.Expired(now)
	}
	st := t.Timer.Poll(t.Timer.Elapsed(now), c.limits().SilenceThreshold(), e.checkIn)
	return st.ShouldSkip
}

func (e *Engine) ask(s *SessionState, c controller, text string, kind model.UtteranceKind, now time.Time) {
	ps := c.state()
	ps.Log.Examiner(text, kind)

	t := &ps.Turn
	t.Question = text
	t.Original = text
	t.Kind = kind
	t.Awaiting = true
	t.RedirectCount = 0
	t.RedirectShown = false
	e.startClock(s.Mode, c, now)
}

func (e *Engine) startClock(mode model.Mode, c controller, now time.Time) {
	t := &c.state().Turn
	if mode == model.ModeVoice {
		t.Timer.Stop()
		t.Deadline = silence.NewDeadline(now, c.limits().VoiceLimit(), e.profile.VoiceBuffer())
		return
	}
	t.Deadline = silence.Deadline{}
	t.Timer.Start(now)
}

func (e *Engine) timeout(ctx context.Context, s *SessionState, c controller) {
	ps := c.state()
	ps.Log.Candidate(model.NoResponseTimedOut, model.KindTimeout, nil)
	ps.Turn.Acknowledgment = ""
	c.settle(ctx, outcomeTimedOut, "")
	ps.Turn.clear()

	logger.Session(s.ID).WithField("phase", c.phase()).Info("question timed out")
}

func (e *Engine) complete(s *SessionState, c controller) {
	ps := c.state()
	msg := CompletionMessage(c.phase().Number())
	ps.Log.Examiner(msg, model.KindCompletion)
	ps.Turn.clear()
	ps.Turn.Completion = msg

	logger.Session(s.ID).WithField("phase", c.phase()).Info("part completed")
}

// answer applies a submission to the pending question: accept, redirect once,
// or move on after a second off-topic answer.
func (e *Engine) answer(ctx context.Context, s *SessionState, c controller, ans Answer, now time.Time) error {
	ps := c.state()
	t := &ps.Turn
	if !t.Awaiting {
		return ErrInvalidAction
	}

	text := strings.TrimSpace(ans.Text)
	if text == "" {
		return ErrEmptyAnswer
	}
	limit := c.limits().WordLimit
	if n := timing.WordCount(text); n > limit {
		return &WordLimitError{Count: n, Limit: limit}
	}

	verdict := e.gate.Check(ctx, text, t.Original, ps.Log.Recent(relevance.ContextEntries))

	kind := c.answerKind()
	ps.Log.Candidate(text, kind, ans.Words)
	if s.Mode == model.ModeVoice {
		segment := fmt.Sprintf("%s_%d", kind, len(ps.Log.Answers()))
		s.Timings = append(s.Timings, timing.Analyze(c.phase(), segment, text, ans.Words))
	}

	log := logger.Session(s.ID).WithFields(logrus.Fields{
		"phase":    c.phase(),
		"relevant": verdict.Relevant,
		"score":    verdict.Score,
	})

	switch {
	case verdict.Accepted():
		t.RedirectCount = 0
		ack := c.acknowledge(ctx)
		ps.Log.Examiner(ack, model.KindAcknowledgment)
		c.settle(ctx, outcomeAccepted, text)
		t.clear()
		t.Acknowledgment = ack
		log.Debug("answer accepted")

	case t.RedirectCount == 0:
		redirect := adapter.Text(ctx, e.gen, "redirect", redirectRequest(t.Original), RedirectFallback).Value
		ps.Log.Examiner(redirect, model.KindRedirect)
		t.Acknowledgment = ""
		t.Question = redirect
		t.RedirectCount = 1
		t.RedirectShown = false
		e.startClock(s.Mode, c, now)
		log.Info("off-topic answer, redirecting")

	default:
		ps.Log.Examiner(MoveOnMessage, model.KindMoveOn)
		t.Acknowledgment = ""
		c.settle(ctx, outcomeMovedOn, text)
		t.clear()
		log.Info("off-topic after redirect, moving on")
	}
	return nil
}
