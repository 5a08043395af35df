package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"speakexam/internal/adapter"
	"speakexam/internal/config"
	"speakexam/internal/flow"
	"speakexam/internal/model"
	"speakexam/internal/scoring"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter collects the candidate's input between examiner turns
type prompter interface {
	Answer(question string) (string, error)
	Ready(card *model.PromptCard) error
	Continue(message string) error
}

func newPracticeCommand() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Take a text-mode test in the terminal",
		Long: `Take a text-mode test in the terminal.

The session is kept in memory and nothing is archived. Without
OPENAI_API_KEY the examiner falls back to its built-in questions and the
report is the neutral fallback band.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if profilePath == "" {
				profilePath = config.Load().ExamProfilePath
			}
			profile, err := config.LoadExamProfile(profilePath)
			if err != nil {
				return err
			}

			aiConfig := config.DefaultAIConfig()
			client := adapter.NewOpenAIClient(aiConfig)
			engine := flow.NewEngine(profile, client, scoring.NewAggregator(client, aiConfig.Models.Scorer))

			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			report, err := practice(cmd.Context(), engine, newHuhPrompter(in, out), out)
			if err != nil {
				return err
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "YAML exam profile (overrides EXAM_PROFILE)")
	return cmd
}

// practice drives one text-mode run to its report
func practice(ctx context.Context, engine *flow.Engine, p prompter, out io.Writer) (*model.ScoreReport, error) {
	st := engine.NewSession("practice-" + uuid.New().String())
	if _, err := engine.Begin(st); err != nil {
		return nil, err
	}
	if _, err := engine.SelectMode(ctx, st, model.ModeText); err != nil {
		return nil, err
	}

	var phase model.Phase
	for {
		v := engine.Poll(ctx, st)
		if v.Step == model.StepResults {
			return engine.Score(ctx, st)
		}
		if v.Phase != phase {
			phase = v.Phase
			fmt.Fprintf(out, "\n== %s: %s ==\n", v.Step, v.Topic)
		}

		switch {
		case v.Preparation != nil:
			if err := p.Ready(v.Card); err != nil {
				return nil, err
			}
			if _, err := engine.SkipPreparation(ctx, st); err != nil {
				return nil, err
			}

		case v.Completion != "":
			if v.Acknowledgment != "" {
				fmt.Fprintln(out, v.Acknowledgment)
			}
			if err := p.Continue(v.Completion); err != nil {
				return nil, err
			}
			if _, err := engine.Continue(ctx, st); err != nil {
				return nil, err
			}

		case v.Question != "":
			if err := answer(ctx, engine, st, p, v, out); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("session stuck at %s/%s", v.Step, v.Stage)
		}
	}
}

// answer asks until the engine accepts a submission
func answer(ctx context.Context, engine *flow.Engine, st *flow.SessionState, p prompter, v *model.View, out io.Writer) error {
	if v.CheckIn != "" {
		fmt.Fprintln(out, v.CheckIn)
	}
	if v.Acknowledgment != "" {
		fmt.Fprintln(out, v.Acknowledgment)
	}
	for {
		text, err := p.Answer(v.Question)
		if err != nil {
			return err
		}
		_, err = engine.Submit(ctx, st, flow.Answer{Text: text})
		var limit *flow.WordLimitError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &limit), errors.Is(err, flow.ErrEmptyAnswer):
			fmt.Fprintln(out, err)
		default:
			return err
		}
	}
}

func printReport(out io.Writer, r *model.ScoreReport) {
	fmt.Fprintf(out, "\nOverall band: %.1f (CEFR %s)\n", r.FinalBand, r.CEFRLevel)
	if r.CEFRDescription != "" {
		fmt.Fprintln(out, r.CEFRDescription)
	}
	for _, c := range model.Criteria {
		if s, ok := r.Scores[c]; ok {
			fmt.Fprintf(out, "  %-20s %.1f  %s\n", c, s.Score, s.Justification)
		}
	}
	printList(out, "Strengths", r.Strengths)
	printList(out, "Areas for improvement", r.AreasForImprovement)
	if r.OverallFeedback != "" {
		fmt.Fprintf(out, "\n%s\n", r.OverallFeedback)
	}
	if r.Fallback {
		fmt.Fprintln(out, "\n(scoring was unavailable, this is a placeholder report)")
	}
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(out, "  - %s\n", it)
	}
}

type huhPrompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

func newHuhPrompter(in io.Reader, out io.Writer) *huhPrompter {
	// Use accessible mode for non-TTY input (e.g. piped answers).
	f, ok := in.(*os.File)
	return &huhPrompter{in: in, out: out, accessible: !ok || !term.IsTerminal(int(f.Fd()))}
}

func (h *huhPrompter) run(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).
		WithInput(h.in).
		WithOutput(h.out).
		WithAccessible(h.accessible).
		Run()
}

func (h *huhPrompter) Answer(question string) (string, error) {
	var text string
	err := h.run(huh.NewText().
		Title(question).
		Description("Type your answer. Ctrl+C quits.").
		Value(&text))
	if err != nil {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (h *huhPrompter) Ready(card *model.PromptCard) error {
	desc := ""
	if card != nil {
		var b strings.Builder
		fmt.Fprintln(&b, card.MainPrompt)
		fmt.Fprintln(&b, "You should say:")
		for _, bp := range card.BulletPoints {
			fmt.Fprintf(&b, "  - %s\n", bp)
		}
		desc = b.String()
	}
	var ready bool
	return h.run(huh.NewConfirm().
		Title("Take a minute to prepare, then start your long turn.").
		Description(desc).
		Affirmative("Start").
		Negative("Start").
		Value(&ready))
}

func (h *huhPrompter) Continue(message string) error {
	var next bool
	return h.run(huh.NewConfirm().
		Title(message).
		Affirmative("Continue").
		Negative("Continue").
		Value(&next))
}
