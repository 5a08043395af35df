package transcript

import (
	"speakexam/internal/model"
	"strings"
)

// CountTimeouts counts candidate placeholders recorded for unanswered questions
func CountTimeouts(entries []model.Utterance) int {
	n := 0
	for _, u := range entries {
		if u.IsNoResponse() {
			n++
		}
	}
	return n
}

// CountIrrelevant counts real answers that drew a redirect or a move-on.
// Tagged utterances are judged by kind; untagged ones by wording.
func CountIrrelevant(entries []model.Utterance) int {
	n := 0
	for i, u := range entries {
		if u.Speaker != model.SpeakerExaminer || !marksIrrelevant(u) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if entries[j].IsCandidate() {
				if !entries[j].IsNoResponse() {
					n++
				}
				break
			}
		}
	}
	return n
}

func marksIrrelevant(u model.Utterance) bool {
	switch u.Kind {
	case model.KindRedirect, model.KindMoveOn:
		return true
	case "":
		return matchesRedirectWording(u.Text)
	}
	return false
}

func matchesRedirectWording(text string) bool {
	t := strings.ToLower(text)
	return (strings.Contains(t, "could you") && strings.Contains(t, "please")) ||
		strings.Contains(t, "let me rephrase") ||
		(strings.Contains(t, "let's try") && strings.Contains(t, "again")) ||
		strings.Contains(t, "let's move on") ||
		strings.Contains(t, "get back to the question")
}
