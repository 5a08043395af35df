package flow

import (
	"errors"
	"speakexam/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const goodAnswer = "I really enjoy spending time with my family at home"

func TestTurnStage(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
		want string
	}{
		{name: "idle", turn: Turn{}, want: StageNoQuestion},
		{name: "awaiting", turn: Turn{Awaiting: true}, want: StageAwaitingAnswer},
		{name: "redirect not rendered", turn: Turn{Awaiting: true, RedirectCount: 1}, want: StageShowingRedirect},
		{name: "redirect rendered", turn: Turn{Awaiting: true, RedirectCount: 1, RedirectShown: true}, want: StageAwaitingRedirectAnswer},
		{name: "completion wins", turn: Turn{Completion: "done", Awaiting: true}, want: StageShowingCompletion},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.turn.Stage())
		})
	}
}

func TestBeginAndSelectMode(t *testing.T) {
	h := newHarness(t, 1)
	s := h.engine.NewSession("abc")
	require.Equal(t, model.StepWelcome, s.Step)

	_, err := h.engine.SelectMode(h.ctx, s, "braille")
	require.ErrorIs(t, err, ErrInvalidAction)

	v, err := h.engine.Begin(s)
	require.NoError(t, err)
	require.Equal(t, model.StepModeSelect, v.Step)

	_, err = h.engine.Begin(s)
	require.ErrorIs(t, err, ErrInvalidAction)

	v, err = h.engine.SelectMode(h.ctx, s, model.ModeText)
	require.NoError(t, err)
	require.Equal(t, model.StepInterview, v.Step)
	require.Equal(t, model.PhaseInterview, v.Phase)
	require.Equal(t, StageAwaitingAnswer, v.Stage)
	require.Equal(t, "Question 1?", v.Question)
	require.Equal(t, 65, v.WordLimit)
	require.NotEmpty(t, v.Topic)
}

func TestInterviewRunsThreeTopicsWithinBudget(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		h := newHarness(t, seed)
		s, v := h.start(t, model.ModeText)
		v = h.finishPart(t, s, v, goodAnswer)

		st := s.Interview
		require.Len(t, st.Topics, 3)
		require.NotEqual(t, st.Topics[0], st.Topics[1])
		require.NotEqual(t, st.Topics[1], st.Topics[2])
		require.NotEqual(t, st.Topics[0], st.Topics[2])

		want := 0
		for _, b := range st.Budgets {
			require.True(t, b == 2 || b == 3, "budget %d", b)
			want += b
		}

		asked := kinds(st.Log.Entries, model.KindQuestion, model.KindFollowUp)
		require.Len(t, asked, want)
		require.GreaterOrEqual(t, len(asked), 6)
		require.LessOrEqual(t, len(asked), 9)
		require.Equal(t, want, st.Total)

		// each topic opens fresh and builds off the accepted answers after that
		i := 0
		for _, b := range st.Budgets {
			require.Equal(t, model.KindQuestion, asked[i].Kind)
			for j := 1; j < b; j++ {
				require.Equal(t, model.KindFollowUp, asked[i+j].Kind)
			}
			i += b
		}

		require.Equal(t, CompletionMessage(1), v.Completion)
		require.Equal(t, "Thank you for your responses; that completes Part 1. Now, let's move on to Part 2.", v.Completion)
		last := st.Log.Entries[len(st.Log.Entries)-1]
		require.Equal(t, model.KindCompletion, last.Kind)
	}
}

func TestAcknowledgmentPrependedToNextQuestion(t *testing.T) {
	h := newHarness(t, 3)
	s, _ := h.start(t, model.ModeText)

	v, err := h.engine.Submit(h.ctx, s, Answer{Text: goodAnswer})
	require.NoError(t, err)
	require.Equal(t, "Nice, thanks.", v.Acknowledgment)
	require.Equal(t, "Question 2?", v.Question)
	require.Equal(t, "Nice, thanks. Question 2?", v.Prompt)
}

func TestSingleRedirectThenMoveOn(t *testing.T) {
	h := newHarness(t, 2)
	s, v := h.start(t, model.ModeText)
	question := v.Question

	v, err := h.engine.Submit(h.ctx, s, Answer{Text: "I like pizza"})
	require.NoError(t, err)
	require.Equal(t, StageShowingRedirect, v.Stage)
	require.Equal(t, "Let's get back to the question, please.", v.Question)
	require.Empty(t, v.Acknowledgment)
	require.Equal(t, 1, s.Interview.Turn.RedirectCount)

	v = h.engine.Poll(h.ctx, s)
	require.Equal(t, StageAwaitingRedirectAnswer, v.Stage)

	before := s.Interview.Total
	v, err = h.engine.Submit(h.ctx, s, Answer{Text: "pizza is still the best"})
	require.NoError(t, err)

	entries := s.Interview.Log.Entries
	require.Len(t, kinds(entries, model.KindRedirect), 1)
	moveOn := kinds(entries, model.KindMoveOn)
	require.Len(t, moveOn, 1)
	require.Equal(t, MoveOnMessage, moveOn[0].Text)

	// both irrelevant answers were judged against the original question
	require.Equal(t, []string{question, question}, h.gen.judged)

	require.Equal(t, 0, s.Interview.Turn.RedirectCount)
	require.Equal(t, StageAwaitingAnswer, v.Stage)
	require.Empty(t, v.Acknowledgment)
	require.Equal(t, before+1, s.Interview.Total)
	require.False(t, s.Interview.Turn.Kind == model.KindFollowUp, "no build-off after an off-topic answer")
}

func TestBorderlineScoreIsAccepted(t *testing.T) {
	h := newHarness(t, 2)
	s, _ := h.start(t, model.ModeText)

	v, err := h.engine.Submit(h.ctx, s, Answer{Text: "maybe my brother"})
	require.NoError(t, err)
	require.Equal(t, StageAwaitingAnswer, v.Stage)
	require.Equal(t, "Nice, thanks.", v.Acknowledgment)
	require.Empty(t, kinds(s.Interview.Log.Entries, model.KindRedirect))
}

func TestSilenceCheckInThenTimeout(t *testing.T) {
	h := newHarness(t, 4)
	s, v := h.start(t, model.ModeText)
	first := v.Question

	h.clock.Advance(29 * time.Second)
	v = h.engine.Poll(h.ctx, s)
	require.Empty(t, v.CheckIn)

	h.clock.Advance(2 * time.Second)
	v = h.engine.Poll(h.ctx, s)
	require.Contains(t, h.engine.Profile().CheckInMessages, v.CheckIn)
	checkIn := v.CheckIn

	h.clock.Advance(15 * time.Second)
	v = h.engine.Poll(h.ctx, s)
	require.Equal(t, checkIn, v.CheckIn, "check-in message is chosen once")

	entries := len(s.Interview.Log.Entries)
	h.clock.Advance(14 * time.Second) // 60s, twice the threshold
	v = h.engine.Poll(h.ctx, s)

	added := s.Interview.Log.Entries[entries:]
	require.Equal(t, model.Utterance{
		Speaker: model.SpeakerCandidate,
		Text:    model.NoResponseTimedOut,
		Phase:   model.PhaseInterview,
		Kind:    model.KindTimeout,
	}, added[0])
	require.Len(t, kinds(s.Interview.Log.Entries, model.KindTimeout), 1)

	require.NotEqual(t, first, v.Question)
	require.Equal(t, StageAwaitingAnswer, v.Stage)
	require.Empty(t, v.CheckIn)
	require.Empty(t, v.Acknowledgment)
	require.Equal(t, model.KindQuestion, s.Interview.Turn.Kind, "no build-off after a timeout")
}

func TestLateAnswerIsTimedOut(t *testing.T) {
	ws := []model.WordTiming{{Word: "my", Start: 0, End: 0.3}, {Word: "family", Start: 0.4, End: 0.9}}
	tests := []struct {
		name     string
		mode     model.Mode
		wait     time.Duration
		timedOut bool
	}{
		{name: "text before twice the threshold", mode: model.ModeText, wait: 59 * time.Second},
		{name: "text past twice the threshold", mode: model.ModeText, wait: 61 * time.Second, timedOut: true},
		{name: "voice inside the buffer", mode: model.ModeVoice, wait: 39 * time.Second},
		{name: "voice long after the deadline", mode: model.ModeVoice, wait: 5 * time.Minute, timedOut: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 14)
			s, v := h.start(t, tc.mode)
			first := v.Question

			h.clock.Advance(tc.wait)
			v, err := h.engine.Submit(h.ctx, s, Answer{Text: goodAnswer, Words: ws})
			require.NoError(t, err)
			require.NotEqual(t, first, v.Question)

			entries := s.Interview.Log.Entries
			if !tc.timedOut {
				require.Empty(t, kinds(entries, model.KindTimeout))
				require.Len(t, kinds(entries, model.KindAnswer), 1)
				require.Equal(t, "Nice, thanks.", v.Acknowledgment)
				return
			}
			require.Len(t, kinds(entries, model.KindTimeout), 1)
			require.Empty(t, kinds(entries, model.KindAnswer, model.KindAcknowledgment))
			require.Empty(t, s.Timings)
			require.Empty(t, v.Acknowledgment)
			require.Equal(t, StageAwaitingAnswer, v.Stage)
			require.Equal(t, model.KindQuestion, s.Interview.Turn.Kind, "no build-off after a timeout")
		})
	}
}

func TestRejectedAnswersLeaveStateUntouched(t *testing.T) {
	h := newHarness(t, 5)
	s, _ := h.start(t, model.ModeText)
	entries := len(s.Interview.Log.Entries)
	turn := s.Interview.Turn

	_, err := h.engine.Submit(h.ctx, s, Answer{Text: "   "})
	require.ErrorIs(t, err, ErrEmptyAnswer)

	_, err = h.engine.Submit(h.ctx, s, Answer{Text: words(66)})
	var limitErr *WordLimitError
	require.True(t, errors.As(err, &limitErr))
	require.Equal(t, 66, limitErr.Count)
	require.Equal(t, 65, limitErr.Limit)

	require.Len(t, s.Interview.Log.Entries, entries)
	require.Equal(t, turn, s.Interview.Turn)
	require.Empty(t, h.gen.judged, "relevance is never consulted for rejected answers")

	_, err = h.engine.Submit(h.ctx, s, Answer{Text: words(65)})
	require.NoError(t, err)
}

func TestFallbacksWhenProviderIsDown(t *testing.T) {
	h := newHarness(t, 6)
	h.gen.fail = true
	s, v := h.start(t, model.ModeText)

	topic := s.Interview.Topic()
	require.Equal(t, "Let's talk about "+topic+". Can you tell me a little about it?", v.Question)

	// relevance fails open so even an off-topic answer is accepted
	v, err := h.engine.Submit(h.ctx, s, Answer{Text: "I like pizza"})
	require.NoError(t, err)
	require.Equal(t, "Thank you.", v.Acknowledgment)
	require.Empty(t, kinds(s.Interview.Log.Entries, model.KindRedirect))
}

func TestContinueOnlyFromCompletion(t *testing.T) {
	h := newHarness(t, 7)
	s, v := h.start(t, model.ModeText)

	_, err := h.engine.Continue(h.ctx, s)
	require.ErrorIs(t, err, ErrInvalidAction)

	h.finishPart(t, s, v, goodAnswer)
	v, err = h.engine.Continue(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, model.StepMonologue, v.Step)
	require.NotNil(t, v.Card)
	require.Equal(t, "Describe a journey you enjoyed", v.Card.MainPrompt)
	require.NotNil(t, v.Preparation)
}

func TestFullRunIsScoredOnce(t *testing.T) {
	h := newHarness(t, 8)
	s, v := h.start(t, model.ModeText)
	h.finishPart(t, s, v, goodAnswer)

	v, err := h.engine.Continue(h.ctx, s)
	require.NoError(t, err)
	v, err = h.engine.SkipPreparation(h.ctx, s)
	require.NoError(t, err)
	v, err = h.engine.Submit(h.ctx, s, Answer{Text: words(120)})
	require.NoError(t, err)
	h.finishPart(t, s, v, goodAnswer)

	v, err = h.engine.Continue(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, "travel and journeys", v.Topic)
	h.finishPart(t, s, v, words(40))

	_, err = h.engine.Score(h.ctx, s)
	require.ErrorIs(t, err, ErrInvalidAction, "not scored before the results step")

	v, err = h.engine.Continue(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, model.StepResults, v.Step)
	require.True(t, v.ReportReady)

	report, err := h.engine.Score(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, "session-1", report.SessionID)
	require.Equal(t, 1, report.Run)
	require.Len(t, h.scorer.calls, 1, "cached after the first scoring")

	in := h.scorer.calls[0]
	require.Equal(t, model.ModeText, in.Mode)
	require.Nil(t, in.Voice)
	require.NotZero(t, in.Interview.Len())
	require.NotZero(t, in.Monologue.Len())
	require.NotZero(t, in.Discussion.Len())
	require.Equal(t, CompletionMessage(3), in.Discussion.Entries[in.Discussion.Len()-1].Text)
	require.Equal(t, "Thank you for your responses; that completes Part 3. Now, let's move on to your results.", CompletionMessage(3))
}

func TestRestartClearsEverything(t *testing.T) {
	h := newHarness(t, 9)
	s, _ := h.start(t, model.ModeText)
	_, err := h.engine.Submit(h.ctx, s, Answer{Text: goodAnswer})
	require.NoError(t, err)

	_, err = h.engine.SkipToPhase(h.ctx, s, 4)
	require.NoError(t, err)
	first, err := h.engine.Score(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, first.Run)

	v := h.engine.Restart(s)
	require.Equal(t, model.StepWelcome, v.Step)
	require.Equal(t, 2, s.Run)
	require.Nil(t, s.Report)
	require.Nil(t, s.Interview)
	require.Nil(t, s.Monologue)
	require.Nil(t, s.Discussion)
	require.Empty(t, s.Timings)
	require.Empty(t, s.Mode)

	_, err = h.engine.SkipToPhase(h.ctx, s, 4)
	require.NoError(t, err)
	second, err := h.engine.Score(h.ctx, s)
	require.NoError(t, err)
	require.Equal(t, 2, second.Run)
	require.NotSame(t, first, second)

	require.Len(t, h.scorer.calls, 2)
	require.NotZero(t, h.scorer.calls[0].Interview.Len())
	require.Zero(t, h.scorer.calls[1].Interview.Len(), "new run does not see the old log")
}

func TestSkipToPhaseIsIdempotent(t *testing.T) {
	h := newHarness(t, 10)
	s := h.engine.NewSession("x")

	v, err := h.engine.SkipToPhase(h.ctx, s, 1)
	require.NoError(t, err)
	require.Equal(t, model.ModeText, s.Mode)
	_, err = h.engine.Submit(h.ctx, s, Answer{Text: goodAnswer})
	require.NoError(t, err)

	v, err = h.engine.SkipToPhase(h.ctx, s, 1)
	require.NoError(t, err)
	require.Equal(t, StageAwaitingAnswer, v.Stage)
	require.Len(t, s.Interview.Log.Entries, 1)
	require.Zero(t, s.Interview.TopicIndex)

	_, err = h.engine.SkipToPhase(h.ctx, s, 0)
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = h.engine.SkipToPhase(h.ctx, s, 5)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestVoiceAnswersRecordTiming(t *testing.T) {
	h := newHarness(t, 11)
	s, v := h.start(t, model.ModeVoice)
	require.Equal(t, 30, v.TimeLimitSeconds)

	ws := []model.WordTiming{
		{Word: "the", Start: 0, End: 0.4},
		{Word: "quick", Start: 0.5, End: 0.9},
		{Word: "brown", Start: 1.0, End: 1.4},
		{Word: "fox", Start: 1.5, End: 1.9},
		{Word: "jumps", Start: 2.0, End: 2.5},
	}
	_, err := h.engine.Submit(h.ctx, s, Answer{Text: "the quick brown fox jumps", Words: ws})
	require.NoError(t, err)

	require.Len(t, s.Timings, 1)
	require.Equal(t, 120.0, s.Timings[0].WPM)
	require.Equal(t, model.PhaseInterview, s.Timings[0].Phase)
	answers := s.Interview.Log.Answers()
	require.Equal(t, ws, answers[0].Words)
}

func TestVoiceDeadlineHasBuffer(t *testing.T) {
	h := newHarness(t, 12)
	s, v := h.start(t, model.ModeVoice)
	first := v.Question

	// no text-mode check-in or skip at 2T in voice mode
	h.clock.Advance(39 * time.Second)
	v = h.engine.Poll(h.ctx, s)
	require.Equal(t, first, v.Question)
	require.Empty(t, v.CheckIn)

	h.clock.Advance(time.Second) // 30s limit + 10s buffer
	v = h.engine.Poll(h.ctx, s)
	require.NotEqual(t, first, v.Question)
	require.Len(t, kinds(s.Interview.Log.Entries, model.KindTimeout), 1)
}

func TestSessionPrompt(t *testing.T) {
	h := newHarness(t, 13)
	s := h.engine.NewSession("p")
	require.Empty(t, s.Prompt())

	s, _ = h.start(t, model.ModeText)
	_, err := h.engine.Submit(h.ctx, s, Answer{Text: goodAnswer})
	require.NoError(t, err)
	require.Equal(t, "Nice, thanks. Question 2?", s.Prompt())

	_, err = h.engine.Submit(h.ctx, s, Answer{Text: "pizza"})
	require.NoError(t, err)
	require.Equal(t, "Let's get back to the question, please.", s.Prompt())
}
