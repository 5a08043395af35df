package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AnswerLimits are the per-answer constraints of one part or sub-part
type AnswerLimits struct {
	// WordLimit is the hard ceiling checked before relevance
	WordLimit int `yaml:"wordLimit"`

	// SilenceSeconds is the check-in threshold T in text mode. Skip happens at 2T.
	SilenceSeconds int `yaml:"silenceSeconds"`

	// VoiceSeconds is the recording limit shown to the candidate in voice mode
	VoiceSeconds int `yaml:"voiceSeconds"`
}

// SilenceThreshold returns T as a duration
func (l AnswerLimits) SilenceThreshold() time.Duration {
	return time.Duration(l.SilenceSeconds) * time.Second
}

// VoiceLimit returns the displayed voice limit as a duration
func (l AnswerLimits) VoiceLimit() time.Duration {
	return time.Duration(l.VoiceSeconds) * time.Second
}

// InterviewProfile configures Part 1
type InterviewProfile struct {
	Topics       []string     `yaml:"topics"`
	TopicCount   int          `yaml:"topicCount"`
	MinQuestions int          `yaml:"minQuestions"`
	MaxQuestions int          `yaml:"maxQuestions"`
	Answer       AnswerLimits `yaml:"answer"`
}

// MonologueProfile configures Part 2
type MonologueProfile struct {
	Categories         []string     `yaml:"categories"`
	PreparationSeconds int          `yaml:"preparationSeconds"`
	LongTurn           AnswerLimits `yaml:"longTurn"`
	Rounding           AnswerLimits `yaml:"rounding"`
	RoundingQuestions  int          `yaml:"roundingQuestions"`
	FallbackRounding   []string     `yaml:"fallbackRounding"`
}

// Preparation returns the countdown length
func (p MonologueProfile) Preparation() time.Duration {
	return time.Duration(p.PreparationSeconds) * time.Second
}

// DiscussionProfile configures Part 3
type DiscussionProfile struct {
	MainQuestions int          `yaml:"mainQuestions"`
	DetailedWords int          `yaml:"detailedWords"`
	FollowUpWords int          `yaml:"followUpWords"`
	FallbackTheme string       `yaml:"fallbackTheme"`
	Answer        AnswerLimits `yaml:"answer"`
}

// ExamProfile collects every tunable of the three parts
type ExamProfile struct {
	Interview          InterviewProfile  `yaml:"interview"`
	Monologue          MonologueProfile  `yaml:"monologue"`
	Discussion         DiscussionProfile `yaml:"discussion"`
	CheckInMessages    []string          `yaml:"checkInMessages"`
	VoiceBufferSeconds int               `yaml:"voiceBufferSeconds"`
	HistoryWindow      int               `yaml:"historyWindow"`
}

// VoiceBuffer is the grace period added to every displayed voice limit
func (p *ExamProfile) VoiceBuffer() time.Duration {
	return time.Duration(p.VoiceBufferSeconds) * time.Second
}

// DefaultExamProfile returns the standard test configuration
func DefaultExamProfile() *ExamProfile {
	return &ExamProfile{
		Interview: InterviewProfile{
			Topics: []string{
				"Family",
				"Hobbies",
				"Work and Studies",
				"Going out",
				"Hometown",
				"Daily routine",
				"Friends",
				"Food",
			},
			TopicCount:   3,
			MinQuestions: 2,
			MaxQuestions: 3,
			Answer:       AnswerLimits{WordLimit: 65, SilenceSeconds: 30, VoiceSeconds: 30},
		},
		Monologue: MonologueProfile{
			Categories: []string{
				"a person",
				"a place",
				"an object",
				"an event",
				"an activity",
				"media (book/film/music)",
				"a decision",
				"a journey",
			},
			PreparationSeconds: 60,
			LongTurn:           AnswerLimits{WordLimit: 400, SilenceSeconds: 60, VoiceSeconds: 120},
			Rounding:           AnswerLimits{WordLimit: 65, SilenceSeconds: 30, VoiceSeconds: 30},
			RoundingQuestions:  2,
			FallbackRounding: []string{
				"Was that easy to talk about?",
				"Is that still important to you?",
			},
		},
		Discussion: DiscussionProfile{
			MainQuestions: 3,
			DetailedWords: 30,
			FollowUpWords: 20,
			FallbackTheme: "life experiences",
			Answer:        AnswerLimits{WordLimit: 150, SilenceSeconds: 40, VoiceSeconds: 60},
		},
		CheckInMessages: []string{
			"Take your time. You can start whenever you're ready.",
			"No rush—begin when you've gathered your thoughts.",
			"It's okay to pause and think. Start when you're comfortable.",
		},
		VoiceBufferSeconds: 10,
		HistoryWindow:      6,
	}
}

// LoadExamProfile overlays the YAML file at path onto the defaults.
// An empty path returns the defaults.
func LoadExamProfile(path string) (*ExamProfile, error) {
	profile := DefaultExamProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exam profile: %w", err)
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing exam profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exam profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate checks the invariants the flow controllers rely on
func (p *ExamProfile) Validate() error {
	var errs []error
	iv := p.Interview
	if iv.TopicCount < 1 {
		errs = append(errs, errors.New("interview.topicCount must be at least 1"))
	}
	if len(iv.Topics) < iv.TopicCount {
		errs = append(errs, fmt.Errorf("interview.topics has %d entries, need %d", len(iv.Topics), iv.TopicCount))
	}
	if iv.MinQuestions < 1 || iv.MaxQuestions < iv.MinQuestions {
		errs = append(errs, errors.New("interview question budget must satisfy 1 <= min <= max"))
	}
	if len(p.Monologue.Categories) == 0 {
		errs = append(errs, errors.New("monologue.categories must not be empty"))
	}
	if p.Monologue.RoundingQuestions < 0 {
		errs = append(errs, errors.New("monologue.roundingQuestions must not be negative"))
	}
	if len(p.Monologue.FallbackRounding) < p.Monologue.RoundingQuestions {
		errs = append(errs, fmt.Errorf("monologue.fallbackRounding needs %d entries", p.Monologue.RoundingQuestions))
	}
	if p.Discussion.MainQuestions < 1 {
		errs = append(errs, errors.New("discussion.mainQuestions must be at least 1"))
	}
	if len(p.CheckInMessages) == 0 {
		errs = append(errs, errors.New("checkInMessages must not be empty"))
	}
	for name, l := range map[string]AnswerLimits{
		"interview.answer":   iv.Answer,
		"monologue.longTurn": p.Monologue.LongTurn,
		"monologue.rounding": p.Monologue.Rounding,
		"discussion.answer":  p.Discussion.Answer,
	} {
		if l.WordLimit < 1 || l.SilenceSeconds < 1 || l.VoiceSeconds < 1 {
			errs = append(errs, fmt.Errorf("%s limits must be positive", name))
		}
	}
	if p.HistoryWindow < 1 {
		errs = append(errs, errors.New("historyWindow must be at least 1"))
	}
	return errors.Join(errs...)
}
