// Package scoring turns a finished test into a rubric report.
package scoring

import (
	"context"
	"fmt"
	"math"
	"speakexam/internal/adapter"
	"speakexam/internal/logger"
	"speakexam/internal/model"
	"speakexam/internal/schema"
	"speakexam/internal/transcript"
	"strings"
	"time"
)

// Weights of each criterion in the final band
var Weights = map[model.Criterion]float64{
	model.CriterionFluency:     0.25,
	model.CriterionLexical:     0.20,
	model.CriterionGrammar:     0.20,
	model.CriterionCoherence:   0.15,
	model.CriterionTaskAchieve: 0.20,
}

// Penalty arithmetic for Task Achievement
const (
	PenaltyPerIncident = 0.5
	MinTaskAchievement = 1.0
	MaxBand            = 9.0

	fallbackBand          = 5.0
	fallbackJustification = "Unable to assess - system error"
	scorerTemperature     = 0.3
	scorerTokens          = 2000
)

// Input is everything the scorer sees. Voice is nil in text mode.
type Input struct {
	Mode       model.Mode
	Interview  *transcript.Log
	Monologue  *transcript.Log
	Discussion *transcript.Log
	Voice      *model.VoiceMetrics
}

func (in Input) logs() []*transcript.Log {
	var out []*transcript.Log
	for _, l := range []*transcript.Log{in.Interview, in.Monologue, in.Discussion} {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Aggregator scores a test with one structured generator call plus
// deterministic post-processing
type Aggregator struct {
	gen   adapter.Generator
	model string
	now   func() time.Time
}

// NewAggregator creates an aggregator using scorerModel for the rubric call
func NewAggregator(gen adapter.Generator, scorerModel string) *Aggregator {
	return &Aggregator{gen: gen, model: scorerModel, now: time.Now}
}

type rubricOutput struct {
	Scores              map[model.Criterion]model.CriterionScore `json:"scores"`
	Strengths           []string                                 `json:"strengths"`
	AreasForImprovement []string                                 `json:"areas_for_improvement"`
	OverallFeedback     string                                   `json:"overall_feedback"`
}

// Score always returns a report. Any generator, parse or schema failure yields
// the flat fallback report.
func (a *Aggregator) Score(ctx context.Context, in Input) *model.ScoreReport {
	metrics := BuildMetrics(in)
	req := adapter.Request{
		System:      buildPrompt(in, metrics),
		Temperature: scorerTemperature,
		MaxTokens:   scorerTokens,
		Model:       a.model,
	}

	res := adapter.JSON(ctx, a.gen, "score", req, schema.Report, rubricOutput{})
	if res.Fallback() {
		return a.fallback(metrics)
	}

	report := finalize(res.Value, metrics)
	report.CreatedAt = a.now().UTC()

	logger.Log.WithField("final_band", report.FinalBand).Info("test scored")
	return report
}

// finalize applies the penalty, clamps every criterion and derives band and CEFR
func finalize(out rubricOutput, metrics *model.TestMetrics) *model.ScoreReport {
	scores := make(map[model.Criterion]model.CriterionScore, len(model.Criteria))
	for _, c := range model.Criteria {
		cs := out.Scores[c]
		cs.Score = clamp(cs.Score)
		scores[c] = cs
	}

	ta := scores[model.CriterionTaskAchieve]
	base := ta.Score
	if ta.BaseScoreBeforePenalty != nil {
		base = clamp(*ta.BaseScoreBeforePenalty)
	}
	penalty := PenaltyPerIncident * float64(metrics.TimeoutCount+metrics.IrrelevantCount)
	ta.BaseScoreBeforePenalty = &base
	ta.PenaltiesApplied = penalty
	ta.Score = TaskAchievement(base, metrics.TimeoutCount+metrics.IrrelevantCount)
	scores[model.CriterionTaskAchieve] = ta

	band := FinalBand(scores)
	level := CEFR(band)
	return &model.ScoreReport{
		Scores:              scores,
		FinalBand:           band,
		CEFRLevel:           level,
		CEFRDescription:     CEFRDescription(level),
		Strengths:           nonNil(out.Strengths),
		AreasForImprovement: nonNil(out.AreasForImprovement),
		OverallFeedback:     out.OverallFeedback,
		Metrics:             metrics,
	}
}

// TaskAchievement subtracts half a band per incident, never going below 1
func TaskAchievement(base float64, incidents int) float64 {
	return clamp(math.Max(MinTaskAchievement, base-PenaltyPerIncident*float64(incidents)))
}

// FinalBand is the weighted sum of the criteria, to one decimal
func FinalBand(scores map[model.Criterion]model.CriterionScore) float64 {
	total := 0.0
	for _, c := range model.Criteria {
		total += Weights[c] * scores[c].Score
	}
	return round1(total)
}

func (a *Aggregator) fallback(metrics *model.TestMetrics) *model.ScoreReport {
	scores := make(map[model.Criterion]model.CriterionScore, len(model.Criteria))
	for _, c := range model.Criteria {
		scores[c] = model.CriterionScore{Score: fallbackBand, Justification: fallbackJustification}
	}
	return &model.ScoreReport{
		Scores:              scores,
		FinalBand:           fallbackBand,
		CEFRLevel:           model.CEFRB1,
		CEFRDescription:     CEFRDescription(model.CEFRB1),
		Strengths:           []string{"Completed the test"},
		AreasForImprovement: []string{"System error prevented detailed assessment"},
		OverallFeedback:     "There was an error scoring your test. Please try again.",
		Metrics:             metrics,
		Fallback:            true,
		CreatedAt:           a.now().UTC(),
	}
}

func buildPrompt(in Input, m *model.TestMetrics) string {
	annotate := in.Mode == model.ModeVoice
	conversation := transcript.FormatTranscript(annotate, in.logs()...)
	penalty := PenaltyPerIncident * float64(m.TimeoutCount+m.IrrelevantCount)

	return fmt.Sprintf(`You are an experienced IELTS Speaking examiner. Score this speaking test on the IELTS 1-9 band scale.

%s
FULL CONVERSATION TRANSCRIPT:
%s

NOTE: For voice answers, [pause: X.Xs] markers show pause locations and durations (0.5s and longer).
- Pauses between sentences or at clause boundaries are normal and should not be penalized
- Pauses mid-clause suggest processing difficulty

SCORING CRITERIA:

1. FLUENCY & COHERENCE (25%%): pace (120-160 WPM ideal), well-placed pauses, little hesitation, natural rhythm.
2. LEXICAL RESOURCE (20%%): range appropriate to the topics, natural collocation, paraphrasing, precision.
3. GRAMMATICAL RANGE & ACCURACY (20%%): accurate simple structures, attempted complex structures, variety of tenses.
4. COHERENCE & COHESION (15%%): linking words, logical organization, clear referencing and topic development.
5. TASK ACHIEVEMENT (20%%): addresses questions fully and relevantly with appropriate length.
   Ideal lengths: Part 1 20-50 words, Part 2 long turn 150+ (100+ acceptable), Part 2 rounding-off 20-50, Part 3 50-100.
   Give base_score_before_penalties (1-9) from quality and length. A penalty of %.1f bands is applied afterwards.

Assess overall effectiveness: isolated errors are acceptable when the message gets across, and
complex attempts with errors are better than only simple structures.

Respond with ONLY a JSON object:
{
  "scores": {
    "fluency_coherence": {"score": 7.0, "justification": "..."},
    "lexical_resource": {"score": 6.5, "justification": "...", "notable_vocabulary": ["..."]},
    "grammatical_range": {"score": 7.0, "justification": "...", "complex_attempts": ["..."]},
    "coherence_cohesion": {"score": 6.5, "justification": "...", "cohesive_devices_used": ["..."]},
    "task_achievement": {"score": 6.0, "justification": "...", "base_score_before_penalties": 7.0, "penalties_applied": %.1f}
  },
  "strengths": ["...", "...", "..."],
  "areas_for_improvement": ["...", "...", "..."],
  "overall_feedback": "2-3 sentence summary"
}`, formatMetrics(m), conversation, penalty, penalty)
}

func formatMetrics(m *model.TestMetrics) string {
	var sb strings.Builder
	p := m.Parts
	fmt.Fprintf(&sb, "Test Mode: %s\n\n", strings.ToUpper(string(m.Mode)))
	sb.WriteString("RESPONSE METRICS:\n")
	fmt.Fprintf(&sb, "- Total responses: %d/%d\n", m.CompletedResponses, m.TotalResponses)
	fmt.Fprintf(&sb, "- Average word count: %.1f words\n\n", m.AvgWordCount)
	sb.WriteString("PART-SPECIFIC METRICS:\n")
	fmt.Fprintf(&sb, "- Part 1: Avg %.1f words (%d responses) - %s\n", p.InterviewAvgWords, p.InterviewCount, p.InterviewAssessment)
	fmt.Fprintf(&sb, "- Part 2 Long Response: %d words - %s\n", p.LongTurnWords, p.LongTurnAssessment)
	fmt.Fprintf(&sb, "- Part 2 Rounding-off: Avg %.1f words (%d responses) - %s\n", p.RoundingAvgWords, p.RoundingCount, p.RoundingAssessment)
	fmt.Fprintf(&sb, "- Part 3: Avg %.1f words (%d responses) - %s\n\n", p.DiscussionAvgWords, p.DiscussionCount, p.DiscussionAssessment)
	sb.WriteString("PENALTIES:\n")
	fmt.Fprintf(&sb, "- Timeouts: %d (each = -0.5 from Task Achievement)\n", m.TimeoutCount)
	fmt.Fprintf(&sb, "- Irrelevant answers: %d (each = -0.5 from Task Achievement)\n\n", m.IrrelevantCount)

	if v := m.Voice; v != nil && v.AvgWPM > 0 {
		sb.WriteString("VOICE/FLUENCY METRICS:\n")
		fmt.Fprintf(&sb, "- Speaking rate: %.1f WPM (ideal: 120-160 WPM)\n", v.AvgWPM)
		fmt.Fprintf(&sb, "- WPM range: %.1f - %.1f WPM\n", v.MinWPM, v.MaxWPM)
		fmt.Fprintf(&sb, "- Total speaking time: %.1fs\n", v.TotalSpeakingTime)
		fmt.Fprintf(&sb, "- Total pauses: %d\n", v.TotalPauses)
		fmt.Fprintf(&sb, "- Average pause length: %.2fs\n", v.AvgPauseLength)
		fmt.Fprintf(&sb, "- Long pauses (>1.5s): %d\n", v.LongPauseCount)
		fmt.Fprintf(&sb, "- Pause frequency: %.1f pauses/min\n\n", v.PauseFrequency)
	}
	return sb.String()
}

func clamp(v float64) float64 {
	return math.Min(MaxBand, math.Max(0, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
