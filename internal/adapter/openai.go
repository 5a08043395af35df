package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"speakexam/internal/config"
	"speakexam/internal/model"
	"strings"
	"time"
)

// OpenAIClient implements Generator, Synthesizer and Transcriber against an
// OpenAI-compatible HTTP API
type OpenAIClient struct {
	config *config.AIConfig
	client *http.Client
}

// NewOpenAIClient creates a provider client
func NewOpenAIClient(cfg *config.AIConfig) *OpenAIClient {
	return &OpenAIClient{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// WithHTTPClient swaps the transport, used by tests
func (c *OpenAIClient) WithHTTPClient(hc *http.Client) *OpenAIClient {
	c.client = hc
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate returns the model's free-form reply
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	return c.chat(ctx, req, false)
}

// GenerateJSON returns the model's reply constrained to a JSON object
func (c *OpenAIClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	out, err := c.chat(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(out)) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}
	return json.RawMessage(out), nil
}

func (c *OpenAIClient) chat(ctx context.Context, req Request, jsonMode bool) (string, error) {
	if !c.config.IsEnabled() {
		return "", ErrDisabled
	}

	modelName := req.Model
	if modelName == "" {
		modelName = c.config.Models.Examiner
	}

	messages := []chatMessage{{Role: "system", Content: req.System}}
	for _, u := range req.History {
		role := "assistant"
		if u.IsCandidate() {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: u.Text})
	}
	if req.Prompt != "" {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	reqBody := map[string]interface{}{
		"model":       modelName,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		reqBody["max_tokens"] = req.MaxTokens
	}
	if jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint("/chat/completions"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmpty
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Synthesize renders text as MP3 audio
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.config.IsEnabled() {
		return nil, ErrDisabled
	}

	jsonBody, err := json.Marshal(map[string]string{
		"model":           c.config.Models.Speech,
		"voice":           c.config.Models.Voice,
		"input":           text,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint("/audio/speech"), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	audio, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, ErrEmpty
	}
	return audio, nil
}

// Transcribe uploads audio and returns text with word timings. Near-empty
// transcripts come back as the no-speech sentinel so relevance rejects them.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (*model.Transcription, error) {
	if !c.config.IsEnabled() {
		return nil, ErrDisabled
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(fw, audio); err != nil {
		return nil, err
	}
	fields := [][2]string{
		{"model", c.config.Models.Transcription},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "word"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint("/audio/transcriptions"), &b)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var out struct {
		Text  string             `json:"text"`
		Words []model.WordTiming `json:"words"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("transcription decode: %w", err)
	}
	return NormalizeTranscription(out.Text, out.Words), nil
}

// NormalizeTranscription applies the no-speech sentinel and derives duration
func NormalizeTranscription(text string, words []model.WordTiming) *model.Transcription {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return &model.Transcription{Text: model.NoSpeechDetected, Words: []model.WordTiming{}}
	}
	if words == nil {
		words = []model.WordTiming{}
	}
	t := &model.Transcription{Text: text, Words: words}
	if len(words) > 0 {
		t.Duration = words[len(words)-1].End
	}
	return t
}

func (c *OpenAIClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, snippet)
	}
	return body, nil
}
