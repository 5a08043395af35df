package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"speakexam/internal/adapter"
	"speakexam/internal/cache"
	"speakexam/internal/flow"
	"speakexam/internal/logger"
	"speakexam/internal/model"
	"speakexam/internal/repository"
	"speakexam/internal/transcript"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrTranscriptionFailed = errors.New("could not transcribe the recording, please try again")
)

// ExamService runs user events against stored sessions. Events for one session
// are serialized: load, apply, save and broadcast happen under its lock.
type ExamService struct {
	engine      *flow.Engine
	sessions    cache.SessionStore
	speech      cache.SpeechCache
	transcripts repository.TranscriptRepo
	reports     repository.ReportRepo
	synth       adapter.Synthesizer
	stt         adapter.Transcriber
	authSvc     *AuthService
	broadcaster Broadcaster
	voice       string

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewExamService creates a new exam service
func NewExamService(
	engine *flow.Engine,
	sessions cache.SessionStore,
	speech cache.SpeechCache,
	transcripts repository.TranscriptRepo,
	reports repository.ReportRepo,
	synth adapter.Synthesizer,
	stt adapter.Transcriber,
	authSvc *AuthService,
	voice string,
) *ExamService {
	return &ExamService{
		engine:      engine,
		sessions:    sessions,
		speech:      speech,
		transcripts: transcripts,
		reports:     reports,
		synth:       synth,
		stt:         stt,
		authSvc:     authSvc,
		broadcaster: noopBroadcaster{},
		voice:       voice,
		locks:       make(map[string]*sessionLock),
	}
}

// SetBroadcaster sets the WebSocket broadcaster (called after hub is created)
func (s *ExamService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSession opens a new session and its token
func (s *ExamService) CreateSession(ctx context.Context) (*model.CreateSessionResponse, error) {
	id := uuid.New().String()
	state := s.engine.NewSession(id)
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.authSvc.GenerateSessionToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Session(id).Info("session created")
	return &model.CreateSessionResponse{
		SessionID: id,
		Token:     token,
		View:      s.engine.Poll(ctx, state),
	}, nil
}

// Poll refreshes the session: timeouts, countdowns and pending questions
func (s *ExamService) Poll(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Poll(ctx, st), nil
	})
}

func (s *ExamService) Begin(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Begin(st)
	})
}

func (s *ExamService) SelectMode(ctx context.Context, id string, mode model.Mode) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.SelectMode(ctx, st, mode)
	})
}

// SubmitAnswer applies a typed answer
func (s *ExamService) SubmitAnswer(ctx context.Context, id, text string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Submit(ctx, st, flow.Answer{Text: text})
	})
}

// SubmitRecording transcribes a voice answer and submits it with its word
// timings. A failed transcription submits nothing so the candidate can record again.
func (s *ExamService) SubmitRecording(ctx context.Context, id string, audio io.Reader, filename string) (*model.View, error) {
	tr, err := s.stt.Transcribe(ctx, audio, filename)
	if err != nil {
		logger.Session(id).WithError(err).Warn("transcription failed")
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Submit(ctx, st, flow.Answer{Text: tr.Text, Words: tr.Words})
	})
}

func (s *ExamService) StartMonologue(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.StartMonologue(ctx, st)
	})
}

func (s *ExamService) SkipPreparation(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.SkipPreparation(ctx, st)
	})
}

// Continue moves past a completion message. After Part 3 this scores the run.
func (s *ExamService) Continue(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Continue(ctx, st)
	})
}

// SkipToPhase restarts part n, or jumps to results for n == 4
func (s *ExamService) SkipToPhase(ctx context.Context, id string, n int) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.SkipToPhase(ctx, st, n)
	})
}

func (s *ExamService) Restart(ctx context.Context, id string) (*model.View, error) {
	return s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		return s.engine.Restart(st), nil
	})
}

// EndSession drops the session and closes its WebSocket connections
func (s *ExamService) EndSession(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.broadcaster.DisconnectSession(id)
	logger.Session(id).Info("session ended")
	return nil
}

// Report returns the current run's report, scoring it on first request
func (s *ExamService) Report(ctx context.Context, id string) (*model.ScoreReport, error) {
	var report *model.ScoreReport
	_, err := s.apply(ctx, id, func(st *flow.SessionState) (*model.View, error) {
		r, err := s.engine.Score(ctx, st)
		if err != nil {
			return nil, err
		}
		report = r
		return s.engine.Poll(ctx, st), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Speech returns the synthesized audio of what the examiner is saying now.
// nil audio means speech is unavailable and the UI shows text only.
func (s *ExamService) Speech(ctx context.Context, id string) ([]byte, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	text := st.Prompt()
	if text == "" {
		return nil, nil
	}

	if audio, err := s.speech.Get(ctx, s.voice, text); err != nil {
		logger.Session(id).WithError(err).Warn("speech cache read failed")
	} else if audio != nil {
		return audio, nil
	}

	res := adapter.WithFallback("synthesize", []byte(nil), func() ([]byte, error) {
		return s.synth.Synthesize(ctx, text)
	})
	if res.Fallback() {
		return nil, nil
	}
	if err := s.speech.Set(ctx, s.voice, text, res.Value); err != nil {
		logger.Session(id).WithError(err).Warn("speech cache write failed")
	}
	return res.Value, nil
}

// apply runs one event under the session lock and persists the result
func (s *ExamService) apply(ctx context.Context, id string, fn func(*flow.SessionState) (*model.View, error)) (*model.View, error) {
	unlock := s.lock(id)
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := st.Report

	view, err := fn(st)
	if err != nil {
		return nil, err
	}
	scored := st.Report != nil && st.Report != before
	if scored {
		s.archive(ctx, st)
	}
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.broadcaster.BroadcastToSession(id, MessageView, view)
	if scored {
		s.broadcaster.BroadcastToSession(id, MessageReport, st.Report)
	}
	return view, nil
}

func (s *ExamService) load(ctx context.Context, id string) (*flow.SessionState, error) {
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if st == nil {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

// archive stores the run's transcript and report. Failures are logged only.
func (s *ExamService) archive(ctx context.Context, st *flow.SessionState) {
	log := logger.Session(st.ID).WithFields(logrus.Fields{"run": st.Run, "mode": st.Mode})
	interview, monologue, discussion := st.Logs()

	record := &model.TranscriptRecord{
		SessionID: st.ID,
		Run:       st.Run,
		Mode:      st.Mode,
		Timings:   st.Timings,
		CreatedAt: time.Now(),
	}
	for _, l := range []*transcript.Log{interview, monologue, discussion} {
		record.Parts = append(record.Parts, model.PartTranscript{Phase: l.Phase, Entries: l.All()})
	}
	if err := s.transcripts.Save(ctx, record); err != nil {
		log.WithError(err).Error("failed to archive transcript")
	}

	if st.Report.CreatedAt.IsZero() {
		st.Report.CreatedAt = record.CreatedAt
	}
	if err := s.reports.Save(ctx, st.Report); err != nil {
		log.WithError(err).Error("failed to archive report")
		return
	}
	log.WithField("final_band", st.Report.FinalBand).Info("run archived")
}

// lock serializes events per session; entries are dropped when unused
func (s *ExamService) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
