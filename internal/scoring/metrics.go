package scoring

import (
	"speakexam/internal/model"
	"speakexam/internal/timing"
	"speakexam/internal/transcript"
)

// Length assessments
const (
	AssessGood       = "good"
	AssessAcceptable = "acceptable"
	AssessTooShort   = "too_short"
	AssessTooLong    = "too_long"
)

// untaggedLongTurnWords identifies the long turn in logs without utterance kinds
const untaggedLongTurnWords = 80

// BuildMetrics computes the evidence handed to the scorer alongside the transcript
func BuildMetrics(in Input) *model.TestMetrics {
	logs := in.logs()
	var all []model.Utterance
	irrelevant := 0
	for _, l := range logs {
		all = append(all, l.Entries...)
		irrelevant += transcript.CountIrrelevant(l.Entries)
	}

	m := &model.TestMetrics{
		Mode:            in.Mode,
		TimeoutCount:    transcript.CountTimeouts(all),
		IrrelevantCount: irrelevant,
		Parts:           partMetrics(in),
	}

	words := 0
	for _, u := range all {
		if !u.IsCandidate() {
			continue
		}
		m.TotalResponses++
		if u.IsNoResponse() {
			continue
		}
		m.CompletedResponses++
		words += timing.WordCount(u.Text)
	}
	if m.CompletedResponses > 0 {
		m.AvgWordCount = round1(float64(words) / float64(m.CompletedResponses))
	}

	if in.Mode == model.ModeVoice && in.Voice != nil {
		v := *in.Voice
		m.Voice = &v
	}
	return m
}

func partMetrics(in Input) model.PartMetrics {
	var pm model.PartMetrics

	p1 := wordCounts(in.Interview.Answers())
	pm.InterviewCount = len(p1)
	pm.InterviewAvgWords = round1(mean(p1))
	pm.InterviewAssessment = assessRange(pm.InterviewAvgWords, 20, 50)

	long, rounding := splitMonologue(in.Monologue.Answers())
	pm.LongTurnWords = long
	pm.LongTurnAssessment = assessLongTurn(long)
	pm.RoundingCount = len(rounding)
	pm.RoundingAvgWords = round1(mean(rounding))
	pm.RoundingAssessment = assessRange(pm.RoundingAvgWords, 20, 50)

	p3 := wordCounts(in.Discussion.Answers())
	pm.DiscussionCount = len(p3)
	pm.DiscussionAvgWords = round1(mean(p3))
	pm.DiscussionAssessment = assessRange(pm.DiscussionAvgWords, 50, 100)

	return pm
}

// splitMonologue separates the long turn from the rounding-off answers. The
// last long-turn utterance wins, so a redirected long turn counts its retry.
func splitMonologue(answers []model.Utterance) (long int, rounding []int) {
	if len(answers) == 0 {
		return 0, nil
	}

	last := -1
	for i, u := range answers {
		if u.Kind == model.KindLongTurn {
			last = i
		}
	}
	if last < 0 {
		for i, u := range answers {
			if timing.WordCount(u.Text) > untaggedLongTurnWords {
				last = i
				break
			}
		}
	}
	if last < 0 {
		last = 0
	}

	long = timing.WordCount(answers[last].Text)
	for _, u := range answers[last+1:] {
		rounding = append(rounding, timing.WordCount(u.Text))
	}
	return long, rounding
}

func wordCounts(answers []model.Utterance) []int {
	out := make([]int, 0, len(answers))
	for _, u := range answers {
		out = append(out, timing.WordCount(u.Text))
	}
	return out
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func assessRange(avg, lo, hi float64) string {
	switch {
	case avg < lo:
		return AssessTooShort
	case avg > hi:
		return AssessTooLong
	}
	return AssessGood
}

func assessLongTurn(words int) string {
	switch {
	case words >= 150:
		return AssessGood
	case words >= 100:
		return AssessAcceptable
	}
	return AssessTooShort
}
