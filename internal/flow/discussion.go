package flow

import (
	"context"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/model"
	"speakexam/internal/schema"
	"speakexam/internal/timing"
	"speakexam/internal/transcript"
	"strings"
	"time"
)

// newDiscussion derives the theme from the Part 2 card
func (e *Engine) newDiscussion(ctx context.Context, card *model.PromptCard) *DiscussionState {
	theme := generalTheme
	if card != nil && card.MainPrompt != "" {
		type themeOut struct {
			Theme string `json:"theme"`
		}
		fallback := themeOut{Theme: e.profile.Discussion.FallbackTheme}
		res := adapter.JSON(ctx, e.gen, "theme", themeRequest(card.MainPrompt), schema.Theme, fallback)
		theme = strings.TrimSpace(res.Value.Theme)
		if theme == "" {
			theme = fallback.Theme
		}
	}
	return &DiscussionState{
		PhaseState: PhaseState{Log: transcript.New(model.PhaseDiscussion)},
		Theme:      theme,
	}
}

type discussionController struct {
	e  *Engine
	st *DiscussionState
}

func (c *discussionController) phase() model.Phase { return model.PhaseDiscussion }
func (c *discussionController) state() *PhaseState { return &c.st.PhaseState }
func (c *discussionController) limits() config.AnswerLimits { return c.e.profile.Discussion.Answer }
func (c *discussionController) ready(time.Time) bool { return true }

func (c *discussionController) answerKind() model.UtteranceKind {
	return model.KindAnswer
}

// needsFollowUp: every main question gets one follow-up unless the candidate
// stayed off topic after a redirect. A second one is asked only when neither
// the main answer nor the first follow-up answer was detailed.
func (c *discussionController) needsFollowUp() bool {
	st := c.st
	p := c.e.profile.Discussion
	switch st.FollowUps {
	case 0:
		return !st.MainMovedOn
	case 1:
		return st.MainWords < p.DetailedWords && st.FollowUpWords < p.FollowUpWords
	}
	return false
}

func (c *discussionController) next(ctx context.Context) (string, model.UtteranceKind, bool) {
	st := c.st
	if st.MainAsked > 0 && c.needsFollowUp() {
		req := discussionQuestionRequest(st.Theme, st.MainAsked, true, c.e.history(c))
		q := adapter.Text(ctx, c.e.gen, "discussion_follow_up", req, discussionFallbackQuestion(st.Theme)).Value
		st.FollowUps++
		return q, model.KindFollowUp, true
	}
	if st.MainAsked >= c.e.profile.Discussion.MainQuestions {
		return "", "", false
	}

	req := discussionQuestionRequest(st.Theme, st.MainAsked, false, c.e.history(c))
	q := adapter.Text(ctx, c.e.gen, "discussion_question", req, discussionFallbackQuestion(st.Theme)).Value
	st.MainAsked++
	st.FollowUps = 0
	st.MainWords = 0
	st.FollowUpWords = 0
	st.MainMovedOn = false
	return q, model.KindQuestion, true
}

func (c *discussionController) acknowledge(ctx context.Context) string {
	req := acknowledgmentRequest(3, "\nTheme: "+c.st.Theme+"\n", c.e.history(c))
	return adapter.Text(ctx, c.e.gen, "discussion_ack", req, discussionAckFallback).Value
}

// settle records the answer length the follow-up policy looks at.
// Timeouts count as zero words.
func (c *discussionController) settle(_ context.Context, o outcome, answer string) {
	words := 0
	if o != outcomeTimedOut {
		words = timing.WordCount(answer)
	}
	switch c.st.FollowUps {
	case 0:
		c.st.MainWords = words
		c.st.MainMovedOn = o == outcomeMovedOn
	case 1:
		c.st.FollowUpWords = words
	}
}
