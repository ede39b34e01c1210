package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

func TestServiceWithoutModelUsesFallback(t *testing.T) {
	svc, err := NewService(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	feedback, err := svc.CoachFeedback(context.Background(), livemodel.AnalysisLabels{
		Emotion:      "happy",
		EyeContact:   "no",
		Posture:      "slouched",
		AudioQuality: "quiet",
	})
	require.NoError(t, err)

	assert.Equal(t, expressionFeedback["happy"], feedback.ExpressionFeedback)
	assert.Equal(t, eyeContactFeedback["no"], feedback.EyeContactFeedback)
	assert.Equal(t, postureFeedback["slouched"], feedback.PostureFeedback)
	assert.Equal(t, voiceFeedback["quiet"], feedback.VoiceFeedback)
	assert.NotEmpty(t, feedback.OverallSuggestion)
}

func TestFallbackFeedbackUnlistedLabel(t *testing.T) {
	feedback := FallbackFeedback(livemodel.AnalysisLabels{Emotion: "perplexed"})
	assert.Equal(t, expressionFeedback["unknown"], feedback.ExpressionFeedback)
}

func TestParseCoachOutput(t *testing.T) {
	content := "Here is the feedback:\n```json\n" +
		`{"posture_feedback":"a","expression_feedback":"b","eye_contact_feedback":"c","voice_feedback":"d","overall_suggestion":"e"}` +
		"\n```"

	feedback, err := parseCoachOutput(content)
	require.NoError(t, err)
	assert.Equal(t, "a", feedback.PostureFeedback)
	assert.Equal(t, "e", feedback.OverallSuggestion)
}

func TestParseCoachOutputRejectsProse(t *testing.T) {
	_, err := parseCoachOutput("I could not analyze this segment.")
	assert.Error(t, err)
}

func TestFillMissingBackfillsEmptyFields(t *testing.T) {
	labels := livemodel.AnalysisLabels{
		Emotion: "neutral", EyeContact: "yes", Posture: "upright", AudioQuality: "good",
	}
	feedback := livemodel.CoachFeedback{PostureFeedback: "model text"}

	fillMissing(&feedback, labels)

	assert.Equal(t, "model text", feedback.PostureFeedback)
	assert.Equal(t, expressionFeedback["neutral"], feedback.ExpressionFeedback)
	assert.Equal(t, voiceFeedback["good"], feedback.VoiceFeedback)
	assert.NotEmpty(t, feedback.OverallSuggestion)
}
