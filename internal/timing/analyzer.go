// Package timing derives fluency measurements from word-level timestamps.
package timing

import (
	"fmt"
	"math"
	"speakexam/internal/model"
	"strings"
)

const (
	// MinPause is the gap in seconds a silence must exceed to count as a pause
	MinPause = 0.3
	// LongPause is the gap in seconds above which a pause is long
	LongPause = 1.5
	// DisplayPause is the smallest pause rendered in scoring transcripts
	DisplayPause = 0.5
)

// Pace buckets a speaking rate
type Pace string

const (
	PaceVerySlow Pace = "very_slow"
	PaceSlow     Pace = "slow"
	PaceNormal   Pace = "normal"
	PaceFast     Pace = "fast"
	PaceVeryFast Pace = "very_fast"
)

// WordCount counts whitespace-separated tokens
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Analyze computes the timing summary of one answer. Empty timings yield zeros.
func Analyze(phase model.Phase, segment, text string, words []model.WordTiming) model.TimingSummary {
	summary := model.TimingSummary{
		Phase:     phase,
		Segment:   segment,
		WordCount: WordCount(text),
		Pauses:    []float64{},
	}
	if len(words) == 0 {
		return summary
	}
	if summary.WordCount == 0 {
		summary.WordCount = len(words)
	}

	duration := words[len(words)-1].End
	summary.Duration = round(duration, 1)
	if duration > 0 {
		summary.WPM = round(float64(summary.WordCount)/duration*60, 1)
	}

	summary.Pauses = Pauses(words)
	summary.PauseCount = len(summary.Pauses)
	var total float64
	for _, p := range summary.Pauses {
		total += p
		if p > LongPause {
			summary.LongPauseCount++
		}
	}
	if summary.PauseCount > 0 {
		summary.AvgPause = round(total/float64(summary.PauseCount), 2)
	}
	return summary
}

// Pauses returns every inter-word gap strictly longer than MinPause
func Pauses(words []model.WordTiming) []float64 {
	pauses := []float64{}
	for i := 0; i+1 < len(words); i++ {
		gap := gapBetween(words[i], words[i+1])
		if gap > MinPause {
			pauses = append(pauses, round(gap, 2))
		}
	}
	return pauses
}

// Aggregate folds per-answer summaries into session-wide voice metrics
func Aggregate(summaries []model.TimingSummary) model.VoiceMetrics {
	var m model.VoiceMetrics
	m.AnswerCount = len(summaries)
	if len(summaries) == 0 {
		return m
	}

	var (
		wpmSum     float64
		wpmCount   int
		pauseSum   float64
		pauseCount int
		duration   float64
	)
	for _, s := range summaries {
		duration += s.Duration
		m.TotalPauses += s.PauseCount
		m.LongPauseCount += s.LongPauseCount
		for _, p := range s.Pauses {
			pauseSum += p
			pauseCount++
		}
		if s.WPM <= 0 {
			continue
		}
		if wpmCount == 0 || s.WPM < m.MinWPM {
			m.MinWPM = s.WPM
		}
		if s.WPM > m.MaxWPM {
			m.MaxWPM = s.WPM
		}
		wpmSum += s.WPM
		wpmCount++
	}

	if wpmCount > 0 {
		m.AvgWPM = round(wpmSum/float64(wpmCount), 1)
	}
	if pauseCount > 0 {
		m.AvgPauseLength = round(pauseSum/float64(pauseCount), 2)
	}
	if duration > 0 {
		m.PauseFrequency = round(float64(m.TotalPauses)/duration*60, 1)
	}
	m.TotalSpeakingTime = round(duration, 1)
	return m
}

// ClassifyWPM buckets a speaking rate
func ClassifyWPM(wpm float64) Pace {
	switch {
	case wpm < 80:
		return PaceVerySlow
	case wpm < 120:
		return PaceSlow
	case wpm < 160:
		return PaceNormal
	case wpm < 200:
		return PaceFast
	default:
		return PaceVeryFast
	}
}

// AnnotatePauses renders the words with "[pause: X.Xs]" markers for gaps of at least threshold seconds
func AnnotatePauses(words []model.WordTiming, threshold float64) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			if gap := gapBetween(words[i-1], w); gap >= threshold {
				fmt.Fprintf(&sb, " [pause: %.1fs]", gap)
			}
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(w.Word))
	}
	return sb.String()
}

// gapBetween rounds to the millisecond so 1.3-1.0 compares equal to 0.3
func gapBetween(prev, next model.WordTiming) float64 {
	return round(next.Start-prev.End, 3)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
