package model

// TimingSummary holds fluency measurements for one voice answer
type TimingSummary struct {
	Phase          Phase     `json:"phase" bson:"phase"`
	Segment        string    `json:"segment" bson:"segment"`
	WPM            float64   `json:"wpm" bson:"wpm"`
	WordCount      int       `json:"wordCount" bson:"wordCount"`
	Duration       float64   `json:"duration" bson:"duration"`
	Pauses         []float64 `json:"pauses" bson:"pauses"`
	PauseCount     int       `json:"pauseCount" bson:"pauseCount"`
	LongPauseCount int       `json:"longPauseCount" bson:"longPauseCount"`
	AvgPause       float64   `json:"avgPause" bson:"avgPause"`
}

// VoiceMetrics aggregates timing summaries across a session
type VoiceMetrics struct {
	AnswerCount       int     `json:"answerCount" bson:"answerCount"`
	AvgWPM            float64 `json:"avgWpm" bson:"avgWpm"`
	MinWPM            float64 `json:"minWpm" bson:"minWpm"`
	MaxWPM            float64 `json:"maxWpm" bson:"maxWpm"`
	TotalPauses       int     `json:"totalPauses" bson:"totalPauses"`
	AvgPauseLength    float64 `json:"avgPauseLength" bson:"avgPauseLength"`
	LongPauseCount    int     `json:"longPauseCount" bson:"longPauseCount"`
	PauseFrequency    float64 `json:"pauseFrequencyPerMin" bson:"pauseFrequencyPerMin"`
	TotalSpeakingTime float64 `json:"totalSpeakingTime" bson:"totalSpeakingTime"`
}

// Transcription is the result of a speech-to-text call
type Transcription struct {
	Text     string       `json:"text"`
	Words    []WordTiming `json:"words"`
	Duration float64      `json:"duration"`
}
