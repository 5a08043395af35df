package model

import "time"

// Criterion names one of the five rubric criteria
type Criterion string

const (
	CriterionFluency     Criterion = "fluency_coherence"
	CriterionLexical     Criterion = "lexical_resource"
	CriterionGrammar     Criterion = "grammatical_range"
	CriterionCoherence   Criterion = "coherence_cohesion"
	CriterionTaskAchieve Criterion = "task_achievement"
)

// Criteria lists the rubric criteria in report order
var Criteria = []Criterion{
	CriterionFluency,
	CriterionLexical,
	CriterionGrammar,
	CriterionCoherence,
	CriterionTaskAchieve,
}

// CEFRLevel is a coarse six-level proficiency bucket
type CEFRLevel string

const (
	CEFRA1 CEFRLevel = "A1"
	CEFRA2 CEFRLevel = "A2"
	CEFRB1 CEFRLevel = "B1"
	CEFRB2 CEFRLevel = "B2"
	CEFRC1 CEFRLevel = "C1"
	CEFRC2 CEFRLevel = "C2"
)

// CriterionScore is the band and evidence for one criterion
type CriterionScore struct {
	Score                  float64  `json:"score" bson:"score"`
	Justification          string   `json:"justification" bson:"justification"`
	NotableVocabulary      []string `json:"notable_vocabulary,omitempty" bson:"notableVocabulary,omitempty"`
	ComplexAttempts        []string `json:"complex_attempts,omitempty" bson:"complexAttempts,omitempty"`
	CohesiveDevicesUsed    []string `json:"cohesive_devices_used,omitempty" bson:"cohesiveDevicesUsed,omitempty"`
	BaseScoreBeforePenalty *float64 `json:"base_score_before_penalties,omitempty" bson:"baseScoreBeforePenalties,omitempty"`
	PenaltiesApplied       float64  `json:"penalties_applied,omitempty" bson:"penaltiesApplied,omitempty"`
}

// ScoreReport is produced once per run at the end of the test
type ScoreReport struct {
	SessionID           string                       `json:"sessionId" bson:"sessionId"`
	Run                 int                          `json:"run" bson:"run"`
	Scores              map[Criterion]CriterionScore `json:"scores" bson:"scores"`
	FinalBand           float64                      `json:"final_band" bson:"finalBand"`
	CEFRLevel           CEFRLevel                    `json:"cefr_level" bson:"cefrLevel"`
	CEFRDescription     string                       `json:"cefr_description" bson:"cefrDescription"`
	Strengths           []string                     `json:"strengths" bson:"strengths"`
	AreasForImprovement []string                     `json:"areas_for_improvement" bson:"areasForImprovement"`
	OverallFeedback     string                       `json:"overall_feedback" bson:"overallFeedback"`
	Metrics             *TestMetrics                 `json:"metrics,omitempty" bson:"metrics,omitempty"`
	Fallback            bool                         `json:"fallback" bson:"fallback"`
	CreatedAt           time.Time                    `json:"createdAt" bson:"createdAt"`
}

// TestMetrics is the evidence fed into scoring alongside the transcript
type TestMetrics struct {
	Mode               Mode          `json:"mode" bson:"mode"`
	TotalResponses     int           `json:"totalResponses" bson:"totalResponses"`
	CompletedResponses int           `json:"completedResponses" bson:"completedResponses"`
	TimeoutCount       int           `json:"timeoutCount" bson:"timeoutCount"`
	IrrelevantCount    int           `json:"irrelevantCount" bson:"irrelevantCount"`
	AvgWordCount       float64       `json:"avgWordCount" bson:"avgWordCount"`
	Parts              PartMetrics   `json:"parts" bson:"parts"`
	Voice              *VoiceMetrics `json:"voice,omitempty" bson:"voice,omitempty"`
}

// PartMetrics holds per-part answer lengths and their assessments
type PartMetrics struct {
	InterviewAvgWords    float64 `json:"part1AvgWords" bson:"part1AvgWords"`
	InterviewCount       int     `json:"part1Count" bson:"part1Count"`
	InterviewAssessment  string  `json:"part1Assessment" bson:"part1Assessment"`
	LongTurnWords        int     `json:"part2LongWords" bson:"part2LongWords"`
	LongTurnAssessment   string  `json:"part2LongAssessment" bson:"part2LongAssessment"`
	RoundingAvgWords     float64 `json:"part2RoundingAvg" bson:"part2RoundingAvg"`
	RoundingCount        int     `json:"part2RoundingCount" bson:"part2RoundingCount"`
	RoundingAssessment   string  `json:"part2RoundingAssessment" bson:"part2RoundingAssessment"`
	DiscussionAvgWords   float64 `json:"part3AvgWords" bson:"part3AvgWords"`
	DiscussionCount      int     `json:"part3Count" bson:"part3Count"`
	DiscussionAssessment string  `json:"part3Assessment" bson:"part3Assessment"`
}

// PartTranscript is one part's log as archived
type PartTranscript struct {
	Phase   Phase       `json:"phase" bson:"phase"`
	Entries []Utterance `json:"entries" bson:"entries"`
}

// TranscriptRecord archives everything said during one run of a session
type TranscriptRecord struct {
	SessionID string           `json:"sessionId" bson:"sessionId"`
	Run       int              `json:"run" bson:"run"`
	Mode      Mode             `json:"mode" bson:"mode"`
	Parts     []PartTranscript `json:"parts" bson:"parts"`
	Timings   []TimingSummary  `json:"timings,omitempty" bson:"timings,omitempty"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
}
