package transcript

import (
	"speakexam/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogAppendStampsPhase(t *testing.T) {
	l := New(model.PhaseMonologue)
	l.Append(model.Utterance{Speaker: model.SpeakerExaminer, Text: "hi", Phase: model.PhaseInterview})
	l.Candidate("hello", model.KindAnswer, nil)

	require.Equal(t, 2, l.Len())
	for _, u := range l.All() {
		require.Equal(t, model.PhaseMonologue, u.Phase)
	}
}

func TestLogRecentReturnsCopy(t *testing.T) {
	l := New(model.PhaseInterview)
	for _, s := range []string{"a", "b", "c", "d"} {
		l.Examiner(s, model.KindQuestion)
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, "c", recent[0].Text)

	recent[0].Text = "changed"
	require.Equal(t, "c", l.Entries[2].Text)

	require.Len(t, l.Recent(10), 4)
	require.Nil(t, l.Recent(0))
}

func TestAnswersSkipsTimeouts(t *testing.T) {
	l := New(model.PhaseDiscussion)
	l.Examiner("q", model.KindQuestion)
	l.Candidate(model.NoResponseTimedOut, model.KindTimeout, nil)
	l.Candidate("real answer", model.KindAnswer, nil)

	answers := l.Answers()
	require.Len(t, answers, 1)
	require.Equal(t, "real answer", answers[0].Text)
}

func TestFormatTranscript(t *testing.T) {
	p1 := New(model.PhaseInterview)
	p1.Examiner("Do you like food?", model.KindQuestion)
	p1.Candidate("Yes I do", model.KindAnswer, []model.WordTiming{
		{Word: "Yes", Start: 0, End: 0.3},
		{Word: "I", Start: 1.3, End: 1.4},
		{Word: "do", Start: 1.5, End: 1.7},
	})
	p2 := New(model.PhaseMonologue)

	plain := FormatTranscript(false, p1, p2)
	require.Equal(t, "=== Part 1 ===\n\nExaminer: Do you like food?\nCandidate: Yes I do", plain)

	annotated := FormatTranscript(true, p1)
	require.Contains(t, annotated, "Candidate: Yes [pause: 1.0s] I do")

	require.Equal(t, "No conversation history available.", FormatTranscript(false, p2))
}

func TestCountPenalties(t *testing.T) {
	entries := []model.Utterance{
		{Speaker: model.SpeakerExaminer, Text: "Tell me about your family", Kind: model.KindQuestion},
		{Speaker: model.SpeakerCandidate, Text: "I like pizza", Kind: model.KindAnswer},
		{Speaker: model.SpeakerExaminer, Text: "Anyway, back to family?", Kind: model.KindRedirect},
		{Speaker: model.SpeakerCandidate, Text: "I don't know", Kind: model.KindAnswer},
		{Speaker: model.SpeakerExaminer, Text: "Thank you. Let's move on.", Kind: model.KindMoveOn},
		{Speaker: model.SpeakerExaminer, Text: "Could you please describe your home?", Kind: model.KindQuestion},
		{Speaker: model.SpeakerCandidate, Text: model.NoResponseTimedOut, Kind: model.KindTimeout},
		{Speaker: model.SpeakerExaminer, Text: "What do you do?", Kind: model.KindQuestion},
		{Speaker: model.SpeakerCandidate, Text: model.NoResponseProvided},
	}

	require.Equal(t, 2, CountTimeouts(entries))
	require.Equal(t, 2, CountIrrelevant(entries))
}

func TestCountIrrelevantUntaggedWording(t *testing.T) {
	entries := []model.Utterance{
		{Speaker: model.SpeakerExaminer, Text: "Where do you live?"},
		{Speaker: model.SpeakerCandidate, Text: "Blue is nice"},
		{Speaker: model.SpeakerExaminer, Text: "Let me rephrase: which city do you live in?"},
		{Speaker: model.SpeakerCandidate, Text: model.NoResponseTimedOut},
		{Speaker: model.SpeakerExaminer, Text: "Let's try that again."},
	}
	require.Equal(t, 1, CountIrrelevant(entries))
}
