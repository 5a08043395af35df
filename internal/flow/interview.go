package flow

import (
	"context"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/model"
	"speakexam/internal/transcript"
	"time"
)

// newInterview draws the topics and their question budgets
func (e *Engine) newInterview() *InterviewState {
	p := e.profile.Interview
	order := e.rng.Perm(len(p.Topics))

	st := &InterviewState{
		PhaseState: PhaseState{Log: transcript.New(model.PhaseInterview)},
		Topics:     make([]string, 0, p.TopicCount),
		Budgets:    make([]int, 0, p.TopicCount),
	}
	for _, i := range order[:p.TopicCount] {
		st.Topics = append(st.Topics, p.Topics[i])
		st.Budgets = append(st.Budgets, p.MinQuestions+e.rng.IntN(p.MaxQuestions-p.MinQuestions+1))
	}
	return st
}

type interviewController struct {
	e  *Engine
	st *InterviewState
}

func (c *interviewController) phase() model.Phase { return model.PhaseInterview }
func (c *interviewController) state() *PhaseState { return &c.st.PhaseState }
func (c *interviewController) limits() config.AnswerLimits { return c.e.profile.Interview.Answer }
func (c *interviewController) ready(time.Time) bool { return true }

func (c *interviewController) answerKind() model.UtteranceKind {
	return model.KindAnswer
}

func (c *interviewController) next(ctx context.Context) (string, model.UtteranceKind, bool) {
	st := c.st
	for st.TopicIndex < len(st.Topics) && st.Asked >= st.Budgets[st.TopicIndex] {
		st.TopicIndex++
		st.Asked = 0
		st.BuildOff = false
		st.LastAnswer = ""
	}
	topic := st.Topic()
	if topic == "" {
		return "", "", false
	}

	kind := model.KindQuestion
	lastAnswer := ""
	if st.BuildOff && st.LastAnswer != "" {
		kind = model.KindFollowUp
		lastAnswer = st.LastAnswer
	}
	req := interviewQuestionRequest(topic, st.Asked, lastAnswer, c.e.history(c))
	q := adapter.Text(ctx, c.e.gen, "interview_question", req, interviewFallbackQuestion(topic)).Value

	st.Asked++
	st.Total++
	return q, kind, true
}

func (c *interviewController) acknowledge(ctx context.Context) string {
	req := acknowledgmentRequest(1, "\nCurrent topic: "+c.st.Topic()+"\n", c.e.history(c))
	return adapter.Text(ctx, c.e.gen, "interview_ack", req, interviewAckFallback).Value
}

// settle builds the next question off an accepted answer unless the topic's
// budget is spent
func (c *interviewController) settle(_ context.Context, o outcome, answer string) {
	st := c.st
	if o == outcomeAccepted && st.TopicIndex < len(st.Budgets) && st.Asked < st.Budgets[st.TopicIndex] {
		st.BuildOff = true
		st.LastAnswer = answer
		return
	}
	st.BuildOff = false
	st.LastAnswer = ""
}
