package main

import (
	"encoding/json"
	"fmt"
	"os"
	"speakexam/internal/model"
	"speakexam/internal/timing"

	"github.com/spf13/cobra"
)

func newTimingCommand() *cobra.Command {
	var part int
	var segment string

	cmd := &cobra.Command{
		Use:   "timing <words.json>",
		Short: "Print fluency figures for a word-timing file",
		Long: `Print fluency figures for a word-timing file.

The file is either a transcription object ({"text": ..., "words": [...]}) or a
bare array of {"word", "start", "end"} entries with times in seconds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, ok := model.PhaseFromNumber(part)
			if !ok {
				return fmt.Errorf("--part must be between 1 and %d", len(model.Phases))
			}
			tr, err := readTranscription(args[0])
			if err != nil {
				return err
			}

			summary := timing.Analyze(phase, segment, tr.Text, tr.Words)
			out := struct {
				model.TimingSummary
				Pace      timing.Pace `json:"pace"`
				Annotated string      `json:"annotated,omitempty"`
			}{
				TimingSummary: summary,
				Pace:          timing.ClassifyWPM(summary.WPM),
				Annotated:     timing.AnnotatePauses(tr.Words, timing.DisplayPause),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVar(&part, "part", 1, "Test part the answer belongs to (1-3)")
	cmd.Flags().StringVar(&segment, "segment", "answer", "Segment label in the output")
	return cmd
}

func readTranscription(path string) (*model.Transcription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var words []model.WordTiming
	if err := json.Unmarshal(data, &words); err == nil {
		return &model.Transcription{Words: words}, nil
	}

	var tr model.Transcription
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &tr, nil
}
