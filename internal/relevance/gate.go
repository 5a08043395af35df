// Package relevance decides whether a candidate's answer addresses the question.
package relevance

import (
	"context"
	"fmt"
	"speakexam/internal/adapter"
	"speakexam/internal/model"
	"speakexam/internal/schema"
	"speakexam/internal/transcript"
	"unicode/utf8"
)

const (
	// Threshold is the score at or above which an answer counts as relevant
	// even when the verdict says otherwise.
	Threshold = 0.7

	// ContextEntries is how much of the log is shown to the evaluator
	ContextEntries = 4

	contextChars = 500
)

// Verdict is the evaluator's judgement of one answer
type Verdict struct {
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"relevance_score"`
	Reason   string  `json:"reason,omitempty"`
}

// Accepted reports whether the answer may proceed without a redirect
func (v Verdict) Accepted() bool {
	return v.Relevant || v.Score >= Threshold
}

// FailOpen is used when the evaluator cannot be reached. It never blocks the candidate.
var FailOpen = Verdict{Relevant: true, Score: Threshold}

// Gate asks the generator for a relevance verdict
type Gate struct {
	gen adapter.Generator
}

// NewGate creates a relevance gate
func NewGate(gen adapter.Generator) *Gate {
	return &Gate{gen: gen}
}

// Check judges answer against question. history is the recent conversation;
// only the last few entries are shown to the evaluator.
func (g *Gate) Check(ctx context.Context, answer, question string, history []model.Utterance) Verdict {
	if len(history) > ContextEntries {
		history = history[len(history)-ContextEntries:]
	}
	req := adapter.Request{
		System:      buildPrompt(answer, question, transcript.Format(history)),
		Temperature: 0.3,
		MaxTokens:   120,
	}
	res := adapter.JSON(ctx, g.gen, "relevance", req, schema.Relevance, FailOpen)
	return res.Value
}

func buildPrompt(answer, question, recent string) string {
	if len(recent) > contextChars {
		cut := len(recent) - contextChars
		for cut < len(recent) && !utf8.RuneStart(recent[cut]) {
			cut++
		}
		recent = recent[cut:]
	}
	return fmt.Sprintf(`You are a speaking test examiner checking whether a candidate's response is relevant to the question asked.

Current question: %q
Candidate's response: %q
Previous context:
%s

Decide whether the response is relevant. Consider:
- Did they answer the question asked?
- Are they staying on topic?
- Is the response related to what was asked?

Respond with ONLY a JSON object:
{
  "relevant": true or false,
  "relevance_score": 0.0 to 1.0,
  "reason": "brief explanation"
}`, question, answer, recent)
}
