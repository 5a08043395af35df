package flow

import (
	"fmt"
	"speakexam/internal/adapter"
	"speakexam/internal/model"
	"speakexam/internal/transcript"
)

// Fixed examiner lines
const (
	MoveOnMessage    = "Thank you. Let's move on."
	RedirectFallback = "That's interesting, but let's get back to the question. Can you tell me more about that?"

	interviewAckFallback  = "Thank you."
	monologueAckFallback  = "Thank you."
	discussionAckFallback = "I see, thank you."

	generalTheme = "general life experiences"
)

// Generation knobs shared by the examiner call sites
const (
	questionTemperature = 0.7
	questionTokens      = 150
	ackTokens           = 60
	redirectTokens      = 80
)

// CompletionMessage is the fixed closing line of part n
func CompletionMessage(n int) string {
	if n >= len(model.Phases) {
		return fmt.Sprintf("Thank you for your responses; that completes Part %d. Now, let's move on to your results.", n)
	}
	return fmt.Sprintf("Thank you for your responses; that completes Part %d. Now, let's move on to Part %d.", n, n+1)
}

func interviewFallbackQuestion(topic string) string {
	return fmt.Sprintf("Let's talk about %s. Can you tell me a little about it?", topic)
}

func discussionFallbackQuestion(theme string) string {
	return fmt.Sprintf("Can you tell me more about %s?", theme)
}

func fallbackCard(category string) model.PromptCard {
	return model.PromptCard{
		Category:   category,
		MainPrompt: fmt.Sprintf("Describe %s that is important to you", category),
		BulletPoints: []string{
			"What or who it is",
			"When or where you encountered it",
			"What you do with it or how it affects you",
			"Why it is important to you",
		},
	}
}

func interviewQuestionRequest(topic string, asked int, lastAnswer string, history []model.Utterance) adapter.Request {
	var system string
	if lastAnswer != "" {
		system = fmt.Sprintf(`You are a friendly English speaking test examiner conducting Part 1 of an IELTS-style speaking test.

Current topic: %s
You have asked %d question(s) about this topic so far.

The candidate just answered: %q

Your task: Ask a natural follow-up question that builds off what they just said. Pick up on something specific they mentioned and ask them to say more about it.

Guidelines:
- Keep it conversational and simple (this is the warm-up part)
- Stay on the topic of %s
- ONLY ask ONE question

Previous conversation:
%s`, topic, asked, lastAnswer, topic, transcript.Format(history))
	} else {
		system = fmt.Sprintf(`You are a friendly English speaking test examiner conducting Part 1 of an IELTS-style speaking test.

Current topic: %s
You have asked %d question(s) about this topic so far.

Your task: Ask a simple, conversational question about %s.

Guidelines:
- If this is the first question about this topic, introduce it naturally (e.g. "Let's talk about %s")
- Make it relevant to everyday life
- ONLY ask ONE question, do not include acknowledgments

Previous conversation:
%s`, topic, asked, topic, topic, transcript.Format(history))
	}
	return adapter.Request{
		System:      system,
		History:     history,
		Prompt:      "Please ask me a question.",
		Temperature: questionTemperature,
		MaxTokens:   questionTokens,
	}
}

func acknowledgmentRequest(part int, subject string, history []model.Utterance) adapter.Request {
	system := fmt.Sprintf(`You are a friendly English speaking test examiner conducting Part %d of an IELTS-style speaking test.
%s
Your task: Give a brief, natural acknowledgment of the candidate's last answer.

Guidelines:
- Keep it SHORT (1-2 sentences max)
- Be encouraging and friendly
- DO NOT ask any questions
- DO NOT mention moving on to other topics

Previous conversation:
%s`, part, subject, transcript.Format(history))
	return adapter.Request{
		System:      system,
		History:     history,
		Prompt:      "Please acknowledge my answer.",
		Temperature: questionTemperature,
		MaxTokens:   ackTokens,
	}
}

func redirectRequest(question string) adapter.Request {
	return adapter.Request{
		System: fmt.Sprintf(`You are a friendly speaking test examiner. The candidate has gone off-topic from this question: %q

Write a brief, polite redirect message that:
- Briefly acknowledges what they said
- Gently brings them back to the question
- Is one sentence

Example: "That's interesting, but let's focus on the question. Can you tell me more about that?"

Return ONLY the redirect message text, no quotes.`, question),
		Temperature: questionTemperature,
		MaxTokens:   redirectTokens,
	}
}

func cardRequest(category string) adapter.Request {
	return adapter.Request{
		System: fmt.Sprintf(`You are creating a Part 2 speaking test prompt card for an IELTS-style test.

Category: %s

1. Create a main prompt that starts with "Describe" and asks about a specific topic within this category
2. Write 3-4 bullet points that help the candidate structure the answer: what/who, when/where, how, and why

Examples:
- "a person" -> "Describe a teacher who influenced you"
- "an object" -> "Describe something you own which is very important to you"

Respond with ONLY a JSON object:
{"main_prompt": "Describe ...", "bullet_points": ["...", "...", "...", "..."]}`, category),
		Temperature: 0.8,
		MaxTokens:   300,
	}
}

func roundingRequest(longResponse, mainPrompt string, n int) adapter.Request {
	if len(longResponse) > 2600 {
		longResponse = longResponse[:2600]
	}
	return adapter.Request{
		System: fmt.Sprintf(`You are a speaking test examiner. The candidate just completed a long turn about: %s

Their response was: %q

Generate exactly %d very brief, conversational rounding-off questions. Each should be one short sentence and follow naturally from what they said, e.g. "Was that easy to talk about?" or "Would you like to visit that place again?"

Respond with ONLY a JSON object:
{"questions": ["...", "..."]}`, mainPrompt, longResponse, n),
		Temperature: questionTemperature,
		MaxTokens:   questionTokens,
	}
}

func themeRequest(mainPrompt string) adapter.Request {
	return adapter.Request{
		System: `You are analyzing a speaking test prompt. Extract its general theme in 2-4 words.

Examples:
- "Describe a festival you attended" -> "celebrations and festivals"
- "Describe a book you enjoyed" -> "books and reading"
- "Describe a difficult decision" -> "decision making"

Respond with ONLY a JSON object: {"theme": "..."}`,
		Prompt:      mainPrompt,
		Temperature: 0.5,
		MaxTokens:   40,
	}
}

func discussionQuestionRequest(theme string, asked int, followUp bool, history []model.Utterance) adapter.Request {
	task := "main_question"
	if followUp {
		task = "follow_up"
	}
	system := fmt.Sprintf(`You are a friendly English speaking test examiner conducting Part 3 of an IELTS-style speaking test.

Theme: %s
Questions asked so far: %d

- If asking a main question: ask a simple, clear, conversational question about the theme
- If asking a follow-up: build off what the candidate just said, exploring a related angle

Keep the question simple and easy to understand. Ask ONE question only.

Previous conversation:
%s

Task: %s`, theme, asked, transcript.Format(history), task)
	return adapter.Request{
		System:      system,
		History:     history,
		Prompt:      fmt.Sprintf("Please generate a %s.", task),
		Temperature: questionTemperature,
		MaxTokens:   questionTokens,
	}
}
