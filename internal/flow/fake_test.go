package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/model"
	"speakexam/internal/scoring"
	"strings"
	"testing"
	"time"
)

// fakeGen answers every examiner call deterministically. Answers mentioning
// pizza are off topic, answers saying maybe get a borderline verdict.
type fakeGen struct {
	fail      bool
	rounding  string
	questions int
	judged    []string
}

func (g *fakeGen) Generate(_ context.Context, req adapter.Request) (string, error) {
	if g.fail {
		return "", errors.New("provider down")
	}
	switch {
	case strings.Contains(req.System, "gone off-topic"):
		return "Let's get back to the question, please.", nil
	case req.Prompt == "Please acknowledge my answer.":
		return "Nice, thanks.", nil
	}
	g.questions++
	return fmt.Sprintf("Question %d?", g.questions), nil
}

func (g *fakeGen) GenerateJSON(_ context.Context, req adapter.Request) (json.RawMessage, error) {
	if g.fail {
		return nil, errors.New("provider down")
	}
	switch {
	case strings.Contains(req.System, "relevant to the question asked"):
		g.judged = append(g.judged, field(req.System, "Current question: "))
		answer := field(req.System, "Candidate's response: ")
		switch {
		case strings.Contains(answer, "pizza"):
			return json.RawMessage(`{"relevant": false, "relevance_score": 0.1}`), nil
		case strings.Contains(answer, "maybe"):
			return json.RawMessage(`{"relevant": false, "relevance_score": 0.75}`), nil
		}
		return json.RawMessage(`{"relevant": true, "relevance_score": 0.9}`), nil
	case strings.Contains(req.System, "prompt card"):
		return json.RawMessage(`{"main_prompt": "Describe a journey you enjoyed", "bullet_points": ["where you went", "who you went with", "why you enjoyed it"]}`), nil
	case strings.Contains(req.System, "rounding-off questions"):
		if g.rounding == "" {
			return json.RawMessage(`{"questions": ["Would you go again?", "Do you travel often?"]}`), nil
		}
		return json.RawMessage(g.rounding), nil
	case strings.Contains(req.System, "general theme"):
		return json.RawMessage(`{"theme": "travel and journeys"}`), nil
	}
	return nil, errors.New("unexpected request")
}

// field returns the unquoted value of the line starting with prefix
func field(system, prefix string) string {
	for _, line := range strings.Split(system, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.Trim(strings.TrimPrefix(line, prefix), `"`)
		}
	}
	return ""
}

type stubScorer struct {
	calls []scoring.Input
}

func (s *stubScorer) Score(_ context.Context, in scoring.Input) *model.ScoreReport {
	s.calls = append(s.calls, in)
	return &model.ScoreReport{FinalBand: 6.5, CEFRLevel: model.CEFRB2}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	engine *Engine
	gen    *fakeGen
	scorer *stubScorer
	clock  *fakeClock
	ctx    context.Context
}

func newHarness(t *testing.T, seed uint64) *harness {
	t.Helper()
	h := &harness{
		gen:    &fakeGen{},
		scorer: &stubScorer{},
		clock:  &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		ctx:    context.Background(),
	}
	h.engine = NewEngine(config.DefaultExamProfile(), h.gen, h.scorer,
		WithClock(h.clock.Now),
		WithRand(rand.NewPCG(seed, 7)),
	)
	return h
}

// start opens a session already in Part 1
func (h *harness) start(t *testing.T, mode model.Mode) (*SessionState, *model.View) {
	t.Helper()
	s := h.engine.NewSession("session-1")
	if _, err := h.engine.Begin(s); err != nil {
		t.Fatalf("begin: %v", err)
	}
	v, err := h.engine.SelectMode(h.ctx, s, mode)
	if err != nil {
		t.Fatalf("select mode: %v", err)
	}
	return s, v
}

// finishPart answers every question relevantly until the completion message
func (h *harness) finishPart(t *testing.T, s *SessionState, v *model.View, answer string) *model.View {
	t.Helper()
	for i := 0; i < 30 && v.Stage != StageShowingCompletion; i++ {
		var err error
		v, err = h.engine.Submit(h.ctx, s, Answer{Text: answer})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if v.Stage != StageShowingCompletion {
		t.Fatalf("part did not complete, stage %s", v.Stage)
	}
	return v
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("travel ", n))
}

func kinds(entries []model.Utterance, want ...model.UtteranceKind) []model.Utterance {
	var out []model.Utterance
	for _, u := range entries {
		for _, k := range want {
			if u.Kind == k {
				out = append(out, u)
			}
		}
	}
	return out
}
