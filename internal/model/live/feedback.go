package live

// AnalysisLabels are the categorical outputs of one analysis pass.
type AnalysisLabels struct {
	Emotion      string `json:"emotion"`
	EyeContact   string `json:"eye_contact"`
	Posture      string `json:"posture"`
	AudioQuality string `json:"audio_quality"`
	Transcript   string `json:"transcript"`
}

// CoachFeedback carries the narrative coaching text generated from the
// categorical labels. The wire key is gemini_feedback for compatibility
// with the existing frontend.
type CoachFeedback struct {
	PostureFeedback    string `json:"posture_feedback"`
	ExpressionFeedback string `json:"expression_feedback"`
	EyeContactFeedback string `json:"eye_contact_feedback"`
	VoiceFeedback      string `json:"voice_feedback"`
	OverallSuggestion  string `json:"overall_suggestion"`
}

// FeedbackData is the payload of one outbound feedback message.
type FeedbackData struct {
	Emotion      string        `json:"emotion"`
	EyeContact   string        `json:"eye_contact"`
	Posture      string        `json:"posture"`
	Transcript   string        `json:"transcript"`
	AudioQuality string        `json:"audio_quality"`
	Coach        CoachFeedback `json:"gemini_feedback"`
	Timestamp    string        `json:"timestamp"`
}
