package live

// Metric categories accumulated over a session.
const (
	CategoryEyeContact   = "eye_contact"
	CategoryEmotion      = "emotion"
	CategoryPosture      = "posture"
	CategoryAudioQuality = "audio_quality"
)

// CategorySummary is the per-category view inside a metrics snapshot.
type CategorySummary struct {
	Total  int            `bson:"total" json:"total"`
	Labels map[string]int `bson:"labels" json:"labels"`
}

// MetricsSnapshot maps category name to its accumulated counts.
type MetricsSnapshot map[string]CategorySummary
