package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"speakexam/internal/adapter"
	"speakexam/internal/adapter/mock_adapter"
	"speakexam/internal/model"
	"speakexam/internal/transcript"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// sampleInput has one timeout in Part 1 and one redirected answer in Part 3
func sampleInput() Input {
	p1 := transcript.New(model.PhaseInterview)
	p1.Examiner("Let's talk about food. What do you like to eat?", model.KindQuestion)
	p1.Candidate(words(30), model.KindAnswer, nil)
	p1.Examiner("Thank you.", model.KindAcknowledgment)
	p1.Examiner("Do you cook?", model.KindQuestion)
	p1.Candidate(model.NoResponseTimedOut, model.KindTimeout, nil)

	p2 := transcript.New(model.PhaseMonologue)
	p2.Examiner("Describe a place\nYou should say:\n- where", model.KindPromptCard)
	p2.Candidate(words(160), model.KindLongTurn, nil)
	p2.Examiner("Thank you.", model.KindAcknowledgment)
	p2.Examiner("Was that easy to talk about?", model.KindRounding)
	p2.Candidate(words(10), model.KindAnswer, nil)
	p2.Examiner("Is that still important to you?", model.KindRounding)
	p2.Candidate(words(30), model.KindAnswer, nil)

	p3 := transcript.New(model.PhaseDiscussion)
	p3.Examiner("Why do people travel?", model.KindQuestion)
	p3.Candidate("I like football", model.KindAnswer, nil)
	p3.Examiner("That's interesting, but let's focus on travel.", model.KindRedirect)
	p3.Candidate(words(60), model.KindAnswer, nil)

	return Input{Mode: model.ModeText, Interview: p1, Monologue: p2, Discussion: p3}
}

const rubricJSON = `{
  "scores": {
    "fluency_coherence": {"score": 8.0, "justification": "fluent"},
    "lexical_resource": {"score": 6.0, "justification": "adequate", "notable_vocabulary": ["wanderlust"]},
    "grammatical_range": {"score": 7.0, "justification": "varied"},
    "coherence_cohesion": {"score": 6.0, "justification": "linked"},
    "task_achievement": {"score": 4.0, "justification": "ok", "base_score_before_penalties": 7.0, "penalties_applied": 1.0}
  },
  "final_band": 9.0,
  "cefr_level": "C2",
  "strengths": ["range"],
  "areas_for_improvement": ["length"],
  "overall_feedback": "Solid performance."
}`

func TestBuildMetrics(t *testing.T) {
	m := BuildMetrics(sampleInput())

	require.Equal(t, 7, m.TotalResponses)
	require.Equal(t, 6, m.CompletedResponses)
	require.Equal(t, 1, m.TimeoutCount)
	require.Equal(t, 1, m.IrrelevantCount)
	require.Nil(t, m.Voice)

	p := m.Parts
	require.Equal(t, 1, p.InterviewCount)
	require.Equal(t, 30.0, p.InterviewAvgWords)
	require.Equal(t, AssessGood, p.InterviewAssessment)
	require.Equal(t, 160, p.LongTurnWords)
	require.Equal(t, AssessGood, p.LongTurnAssessment)
	require.Equal(t, 2, p.RoundingCount)
	require.Equal(t, 20.0, p.RoundingAvgWords)
	require.Equal(t, AssessGood, p.RoundingAssessment)
	require.Equal(t, 2, p.DiscussionCount)
	require.Equal(t, AssessTooShort, p.DiscussionAssessment)
}

func TestSplitMonologueWithoutKinds(t *testing.T) {
	answers := []model.Utterance{
		{Speaker: model.SpeakerCandidate, Text: words(5)},
		{Speaker: model.SpeakerCandidate, Text: words(120)},
		{Speaker: model.SpeakerCandidate, Text: words(12)},
	}
	long, rounding := splitMonologue(answers)
	require.Equal(t, 120, long)
	require.Equal(t, []int{12}, rounding)

	long, rounding = splitMonologue(answers[:1])
	require.Equal(t, 5, long)
	require.Empty(t, rounding)
}

func TestScoreAppliesPenaltyAndWeights(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mock_adapter.NewMockGenerator(ctrl)
	gen.EXPECT().
		GenerateJSON(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req adapter.Request) (json.RawMessage, error) {
			require.Equal(t, "scorer-model", req.Model)
			require.Equal(t, 0.3, req.Temperature)
			require.Contains(t, req.System, "=== Part 1 ===")
			require.Contains(t, req.System, "- Timeouts: 1")
			return json.RawMessage(rubricJSON), nil
		})

	report := NewAggregator(gen, "scorer-model").Score(context.Background(), sampleInput())

	require.False(t, report.Fallback)
	ta := report.Scores[model.CriterionTaskAchieve]
	require.Equal(t, 6.0, ta.Score)
	require.Equal(t, 1.0, ta.PenaltiesApplied)
	require.NotNil(t, ta.BaseScoreBeforePenalty)
	require.Equal(t, 7.0, *ta.BaseScoreBeforePenalty)

	// 0.25*8 + 0.2*6 + 0.2*7 + 0.15*6 + 0.2*6, the model's own band is ignored
	require.InDelta(t, 6.7, report.FinalBand, 1e-9)
	require.Equal(t, model.CEFRB2, report.CEFRLevel)
	require.Equal(t, "Upper Intermediate", report.CEFRDescription)
	require.Equal(t, []string{"wanderlust"}, report.Scores[model.CriterionLexical].NotableVocabulary)
	require.Equal(t, "Solid performance.", report.OverallFeedback)
	require.NotNil(t, report.Metrics)
	require.False(t, report.CreatedAt.IsZero())
}

func TestScoreFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{name: "provider error", err: errors.New("503")},
		{name: "not json", raw: `the candidate did well`},
		{name: "missing criterion", raw: `{"scores": {"fluency_coherence": {"score": 7}}}`},
		{name: "score out of range", raw: strings.Replace(rubricJSON, `"score": 8.0`, `"score": 11`, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			gen := mock_adapter.NewMockGenerator(ctrl)
			gen.EXPECT().GenerateJSON(gomock.Any(), gomock.Any()).Return(json.RawMessage(tc.raw), tc.err)

			report := NewAggregator(gen, "m").Score(context.Background(), sampleInput())

			require.True(t, report.Fallback)
			require.Equal(t, 5.0, report.FinalBand)
			require.Equal(t, model.CEFRB1, report.CEFRLevel)
			require.Equal(t, []string{"Completed the test"}, report.Strengths)
			require.Equal(t, "There was an error scoring your test. Please try again.", report.OverallFeedback)
			for _, c := range model.Criteria {
				require.Equal(t, 5.0, report.Scores[c].Score)
				require.Equal(t, "Unable to assess - system error", report.Scores[c].Justification)
			}
		})
	}
}

func TestVoicePromptCarriesPausesAndMetrics(t *testing.T) {
	in := sampleInput()
	in.Mode = model.ModeVoice
	in.Interview.Candidate("I live near the sea", model.KindAnswer, []model.WordTiming{
		{Word: "I", Start: 0, End: 0.2},
		{Word: "live", Start: 1.0, End: 1.3},
		{Word: "near", Start: 1.4, End: 1.6},
		{Word: "the", Start: 1.7, End: 1.8},
		{Word: "sea", Start: 1.9, End: 2.2},
	})
	in.Voice = &model.VoiceMetrics{AnswerCount: 1, AvgWPM: 136.4, MinWPM: 136.4, MaxWPM: 136.4, TotalSpeakingTime: 2.2}

	ctrl := gomock.NewController(t)
	gen := mock_adapter.NewMockGenerator(ctrl)
	gen.EXPECT().
		GenerateJSON(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req adapter.Request) (json.RawMessage, error) {
			require.Contains(t, req.System, "I [pause: 0.8s] live near the sea")
			require.Contains(t, req.System, "Speaking rate: 136.4 WPM")
			return nil, errors.New("stop here")
		})

	report := NewAggregator(gen, "m").Score(context.Background(), in)
	require.True(t, report.Fallback)
	require.NotNil(t, report.Metrics.Voice)
}

func TestTaskAchievementFloor(t *testing.T) {
	tests := []struct {
		name      string
		base      float64
		incidents int
		want      float64
	}{
		{name: "no penalty", base: 7, incidents: 0, want: 7},
		{name: "two incidents", base: 7, incidents: 2, want: 6},
		{name: "floors at one", base: 4, incidents: 10, want: 1},
		{name: "low base floors at one", base: 0.5, incidents: 0, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, TaskAchievement(tc.base, tc.incidents))
		})
	}
}

func TestCEFR(t *testing.T) {
	tests := []struct {
		band float64
		want model.CEFRLevel
	}{
		{9, model.CEFRC2},
		{8.9, model.CEFRC1},
		{7, model.CEFRC1},
		{6.5, model.CEFRB2},
		{5, model.CEFRB1},
		{4.9, model.CEFRA2},
		{3, model.CEFRA2},
		{2.9, model.CEFRA1},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, CEFR(tc.band), "band %.1f", tc.band)
	}
	require.Equal(t, "Beginner", CEFRDescription(model.CEFRA1))
	require.Equal(t, "Unknown", CEFRDescription("Z9"))
}
