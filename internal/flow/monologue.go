package flow

import (
	"context"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/model"
	"speakexam/internal/schema"
	"speakexam/internal/transcript"
	"strings"
	"time"
)

// newMonologue picks a category and prepares its card. Voice sessions wait
// on the intro page, text sessions start preparing right away.
func (e *Engine) newMonologue(ctx context.Context, mode model.Mode, now time.Time) *MonologueState {
	categories := e.profile.Monologue.Categories
	category := categories[e.rng.IntN(len(categories))]

	card := adapter.JSON(ctx, e.gen, "prompt_card", cardRequest(category), schema.PromptCard, fallbackCard(category)).Value
	card.Category = category

	st := &MonologueState{
		PhaseState: PhaseState{Log: transcript.New(model.PhaseMonologue)},
		Category:   category,
		Card:       &card,
	}
	if mode == model.ModeVoice {
		st.IntroPending = true
	} else {
		st.PrepStartedAt = now
	}
	return st
}

type monologueController struct {
	e  *Engine
	st *MonologueState
}

func (c *monologueController) phase() model.Phase { return model.PhaseMonologue }
func (c *monologueController) state() *PhaseState { return &c.st.PhaseState }

func (c *monologueController) limits() config.AnswerLimits {
	if !c.st.LongDone {
		return c.e.profile.Monologue.LongTurn
	}
	return c.e.profile.Monologue.Rounding
}

func (c *monologueController) answerKind() model.UtteranceKind {
	if !c.st.LongDone {
		return model.KindLongTurn
	}
	return model.KindAnswer
}

// ready ends the preparation countdown once it has run out
func (c *monologueController) ready(now time.Time) bool {
	st := c.st
	if st.IntroPending {
		return false
	}
	if st.PrepDone {
		return true
	}
	if st.PrepStartedAt.IsZero() || now.Sub(st.PrepStartedAt) < c.e.profile.Monologue.Preparation() {
		return false
	}
	st.PrepDone = true
	return true
}

func (c *monologueController) next(context.Context) (string, model.UtteranceKind, bool) {
	st := c.st
	if !st.LongDone {
		return st.Card.Text(), model.KindPromptCard, true
	}
	if st.RoundingIndex < len(st.Rounding) {
		q := st.Rounding[st.RoundingIndex]
		st.RoundingIndex++
		return q, model.KindRounding, true
	}
	return "", "", false
}

func (c *monologueController) acknowledge(ctx context.Context) string {
	subject := "\nThe candidate has just answered a rounding-off question.\n"
	if !c.st.LongDone {
		subject = "\nThe candidate has just finished their long turn on: " + c.st.Card.MainPrompt + "\n"
	}
	req := acknowledgmentRequest(2, subject, c.e.history(c))
	return adapter.Text(ctx, c.e.gen, "monologue_ack", req, monologueAckFallback).Value
}

// settle stores the long answer and prepares the rounding-off questions.
// A long turn that timed out ends the part with no rounding-off questions.
func (c *monologueController) settle(ctx context.Context, o outcome, answer string) {
	st := c.st
	if st.LongDone {
		return
	}
	st.LongDone = true
	if o == outcomeTimedOut {
		st.LongResponse = model.NoResponseProvided
		st.Rounding = nil
		return
	}
	st.LongResponse = answer
	st.Rounding = c.e.roundingQuestions(ctx, answer, st.Card.MainPrompt)
	st.RoundingIndex = 0
}

// roundingQuestions always returns exactly the configured number of questions:
// generated ones are truncated, missing ones come from the fallbacks.
func (e *Engine) roundingQuestions(ctx context.Context, longResponse, mainPrompt string) []string {
	p := e.profile.Monologue
	type roundingOut struct {
		Questions []string `json:"questions"`
	}
	req := roundingRequest(longResponse, mainPrompt, p.RoundingQuestions)
	res := adapter.JSON(ctx, e.gen, "rounding_questions", req, schema.Rounding, roundingOut{})
	return exactly(res.Value.Questions, p.FallbackRounding, p.RoundingQuestions)
}

func exactly(questions, fallback []string, n int) []string {
	out := make([]string, 0, n)
	for _, q := range questions {
		if len(out) == n {
			break
		}
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	for i := len(out); i < n && i < len(fallback); i++ {
		out = append(out, fallback[i])
	}
	return out
}
