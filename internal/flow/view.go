package flow

import (
	"math"
	"speakexam/internal/model"
	"strings"
	"time"
)

// render builds the view of the session. A redirect counts as shown once it
// has been rendered.
func (e *Engine) render(s *SessionState, now time.Time) *model.View {
	s.UpdatedAt = now
	v := &model.View{
		SessionID: s.ID,
		Run:       s.Run,
		Mode:      s.Mode,
		Step:      s.Step,
	}
	if s.Step == model.StepResults {
		v.ReportReady = s.Report != nil
		return v
	}

	c := e.controller(s)
	if c == nil {
		return v
	}
	t := &c.state().Turn
	v.Phase = c.phase()
	v.Stage = t.Stage()
	v.Acknowledgment = t.Acknowledgment
	v.Completion = t.Completion
	if t.Awaiting {
		v.Question = t.Question
		limits := c.limits()
		v.WordLimit = limits.WordLimit
		if s.Mode == model.ModeVoice {
			v.TimeLimitSeconds = limits.VoiceSeconds
		} else {
			v.CheckIn = t.Timer.CheckIn
		}
	}
	v.Prompt = spoken(t)

	switch c.phase() {
	case model.PhaseInterview:
		v.Topic = s.Interview.Topic()
	case model.PhaseMonologue:
		m := s.Monologue
		v.Topic = m.Category
		v.Card = m.Card
		v.ShowIntro = m.IntroPending
		if !m.IntroPending && !m.PrepDone {
			total := e.profile.Monologue.Preparation()
			left := total
			if !m.PrepStartedAt.IsZero() {
				left = max(0, total-now.Sub(m.PrepStartedAt))
			}
			v.Preparation = &model.Preparation{
				TotalSeconds:     int(total / time.Second),
				RemainingSeconds: math.Ceil(left.Seconds()),
			}
		}
	case model.PhaseDiscussion:
		v.Topic = s.Discussion.Theme
	}

	if v.Stage == StageShowingRedirect {
		t.RedirectShown = true
	}
	return v
}

// spoken is what the examiner says aloud on this render
func spoken(t *Turn) string {
	parts := []string{t.Acknowledgment}
	if t.Completion != "" {
		parts = append(parts, t.Completion)
	} else if t.Awaiting {
		parts = append(parts, t.Question)
	}
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
