package main

import (
	"speakexam/internal/config"
	"speakexam/internal/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speakexam",
		Short: "Three-part speaking test examiner",
		Long: `speakexam runs a three-part oral proficiency test: a short interview,
a long turn on a prompt card and a discussion, followed by a rubric report.

Use "serve" for the HTTP and WebSocket API, "practice" for a text session in
the terminal and "timing" to inspect fluency figures of a word-timing file.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		level := cfg.LogLevel
		if *debugLogging {
			level = "debug"
		}
		logger.Init(level, cfg.LogPretty)
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newPracticeCommand())
	cmd.AddCommand(newTimingCommand())

	return cmd
}
