package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/flow"
	"speakexam/internal/model"
	"speakexam/internal/scoring"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type offline struct{}

func (offline) Generate(context.Context, adapter.Request) (string, error) {
	return "", errors.New("no network")
}

func (offline) GenerateJSON(context.Context, adapter.Request) (json.RawMessage, error) {
	return nil, errors.New("no network")
}

type scripted struct {
	answers   []string
	asked     []string
	readies   int
	continues int
}

func (s *scripted) Answer(question string) (string, error) {
	s.asked = append(s.asked, question)
	if len(s.answers) > 0 {
		a := s.answers[0]
		s.answers = s.answers[1:]
		return a, nil
	}
	return "I usually spend my weekends walking by the river with my friends", nil
}

func (s *scripted) Ready(card *model.PromptCard) error {
	s.readies++
	if card == nil {
		return errors.New("no card")
	}
	return nil
}

func (s *scripted) Continue(string) error {
	s.continues++
	return nil
}

func TestPracticeRunsToReport(t *testing.T) {
	engine := flow.NewEngine(config.DefaultExamProfile(), offline{}, scoring.NewAggregator(offline{}, "gpt-4o"))
	p := &scripted{answers: []string{"", strings.Repeat("word ", 66)}}
	var out bytes.Buffer

	report, err := practice(context.Background(), engine, p, &out)
	require.NoError(t, err)
	require.True(t, report.Fallback)
	require.Equal(t, 1, p.readies)
	require.Equal(t, 3, p.continues)
	// 6..9 interview questions, the long turn, two rounding questions and
	// three discussion questions with at least one follow-up each, plus two retries.
	require.GreaterOrEqual(t, len(p.asked), 6+1+2+6+2)
	require.Equal(t, p.asked[0], p.asked[1])
	require.Equal(t, p.asked[1], p.asked[2])

	text := out.String()
	require.Contains(t, text, "answer is empty")
	require.Contains(t, text, "your response is 66 words, please reduce it to 65 words or less")
	require.Contains(t, text, "== part1:")
	require.Contains(t, text, "== part2:")
	require.Contains(t, text, "== part3:")

	out.Reset()
	printReport(&out, report)
	require.Contains(t, out.String(), "Overall band: 5.0")
	require.Contains(t, out.String(), "placeholder report")
}

func TestPracticeStopsOnPrompterError(t *testing.T) {
	engine := flow.NewEngine(config.DefaultExamProfile(), offline{}, scoring.NewAggregator(offline{}, "gpt-4o"))
	_, err := practice(context.Background(), engine, quitter{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "user aborted")
}

type quitter struct{}

func (quitter) Answer(string) (string, error) { return "", errors.New("user aborted") }
func (quitter) Ready(*model.PromptCard) error { return errors.New("user aborted") }
func (quitter) Continue(string) error { return errors.New("user aborted") }

func TestTimingCommand(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		words   int
	}{
		{
			name:    "bare array",
			content: `[{"word":"I","start":0,"end":0.5},{"word":"like","start":0.6,"end":1.0},{"word":"tea","start":3.0,"end":3.0}]`,
			words:   3,
		},
		{
			name:    "transcription object",
			content: `{"text":"I like tea","words":[{"word":"I","start":0,"end":0.5},{"word":"like","start":0.6,"end":1.0},{"word":"tea","start":3.0,"end":3.0}]}`,
			words:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			var out bytes.Buffer
			cmd := newTimingCommand()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"--part", "2", path})
			require.NoError(t, cmd.Execute())

			var got struct {
				model.TimingSummary
				Pace      string `json:"pace"`
				Annotated string `json:"annotated"`
			}
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			require.Equal(t, model.PhaseMonologue, got.Phase)
			require.Equal(t, tt.words, got.WordCount)
			require.Equal(t, 3.0, got.Duration)
			require.Equal(t, 60.0, got.WPM)
			require.Equal(t, 1, got.LongPauseCount)
			require.Equal(t, "very_slow", got.Pace)
			require.Equal(t, "I like [pause: 2.0s] tea", got.Annotated)
		})
	}
}

func TestTimingCommandRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	cmd := newTimingCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	require.ErrorContains(t, cmd.Execute(), "parsing")

	cmd = newTimingCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--part", "5", path})
	require.ErrorContains(t, cmd.Execute(), "--part must be between 1 and 3")
}
