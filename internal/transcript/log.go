// Package transcript holds the append-only conversation log of each part.
package transcript

import (
	"speakexam/internal/model"
	"speakexam/internal/timing"
	"strings"
)

// Log is the ordered record of one part's utterances
type Log struct {
	Phase   model.Phase       `json:"phase" bson:"phase"`
	Entries []model.Utterance `json:"entries" bson:"entries"`
}

// New returns an empty log for phase
func New(phase model.Phase) *Log {
	return &Log{Phase: phase, Entries: []model.Utterance{}}
}

// Append records u, stamping it with the log's phase
func (l *Log) Append(u model.Utterance) {
	u.Phase = l.Phase
	l.Entries = append(l.Entries, u)
}

// Examiner appends an examiner utterance
func (l *Log) Examiner(text string, kind model.UtteranceKind) {
	l.Append(model.Utterance{Speaker: model.SpeakerExaminer, Text: text, Kind: kind})
}

// Candidate appends a candidate utterance with optional word timings
func (l *Log) Candidate(text string, kind model.UtteranceKind, words []model.WordTiming) {
	l.Append(model.Utterance{Speaker: model.SpeakerCandidate, Text: text, Kind: kind, Words: words})
}

// Len returns the number of utterances
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// Recent returns a copy of the last n utterances
func (l *Log) Recent(n int) []model.Utterance {
	if l == nil || n <= 0 {
		return nil
	}
	start := len(l.Entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]model.Utterance, len(l.Entries)-start)
	copy(out, l.Entries[start:])
	return out
}

// All returns a copy of every utterance
func (l *Log) All() []model.Utterance {
	return l.Recent(l.Len())
}

// Answers returns the candidate's real answers, skipping timeout placeholders
func (l *Log) Answers() []model.Utterance {
	if l == nil {
		return nil
	}
	var out []model.Utterance
	for _, u := range l.Entries {
		if u.IsCandidate() && !u.IsNoResponse() {
			out = append(out, u)
		}
	}
	return out
}

// Format renders utterances as "Examiner: ..." / "Candidate: ..." lines
func Format(entries []model.Utterance) string {
	if len(entries) == 0 {
		return "(no conversation yet)"
	}
	lines := make([]string, 0, len(entries))
	for _, u := range entries {
		lines = append(lines, speakerLabel(u.Speaker)+": "+u.Text)
	}
	return strings.Join(lines, "\n")
}

// FormatTranscript renders several logs with part headers. When annotate is
// set, timed candidate answers show their pauses inline.
func FormatTranscript(annotate bool, logs ...*Log) string {
	var sb strings.Builder
	for _, l := range logs {
		if l.Len() == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("=== " + l.Phase.Label() + " ===\n\n")
		for _, u := range l.Entries {
			text := u.Text
			if annotate && u.IsCandidate() && len(u.Words) > 0 {
				text = timing.AnnotatePauses(u.Words, timing.DisplayPause)
			}
			sb.WriteString(speakerLabel(u.Speaker) + ": " + text + "\n")
		}
	}
	if sb.Len() == 0 {
		return "No conversation history available."
	}
	return strings.TrimRight(sb.String(), "\n")
}

func speakerLabel(s model.Speaker) string {
	if s == model.SpeakerCandidate {
		return "Candidate"
	}
	return "Examiner"
}
