// Package adapter defines the text and speech capabilities the examiner depends on.
//
// Every capability is fallible and called once. Call sites never see an error:
// they go through WithFallback, Text or JSON and always supply the value to use
// when the provider fails.
package adapter

//go:generate mockgen -source=adapter.go -destination=mock_adapter/mock_adapter.go -package=mock_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"speakexam/internal/model"
)

var (
	// ErrDisabled is returned by providers without credentials
	ErrDisabled = errors.New("provider not configured")
	// ErrEmpty is returned when a provider answers with nothing usable
	ErrEmpty = errors.New("empty response from provider")
)

// Request is one generation call
type Request struct {
	// System is the instruction prompt
	System string
	// History is the recent conversation, oldest first
	History []model.Utterance
	// Prompt is the final user turn
	Prompt string

	Temperature float64
	MaxTokens   int

	// Model overrides the provider's default examiner model
	Model string
}

// Generator produces examiner text
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// Synthesizer turns text into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns recorded audio into text with word timings
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*model.Transcription, error)
}

// Error records which capability failed
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
