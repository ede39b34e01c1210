package ai

import livemodel "github.com/jagcoaching/backend/internal/model/live"

// Canned coaching lines keyed by detected label. Used whenever the LLM
// is unavailable or returns something unusable.

var postureFeedback = map[string]string{
	"upright":  "Solid upright posture. Keep your shoulders relaxed so it reads as confident rather than stiff.",
	"slouched": "You are slouching slightly. Imagine a string pulling the crown of your head toward the ceiling.",
	"leaning":  "You are leaning to one side. Square your shoulders to the camera to project more stability.",
	"unknown":  "We could not read your posture this time. Try framing yourself from the waist up.",
}

var expressionFeedback = map[string]string{
	"happy":    "Your expression is warm and engaging. That energy carries well on camera.",
	"neutral":  "Your expression is calm and steady. A touch more animation at key points will add emphasis.",
	"sad":      "You look a little downcast. Lift your eyebrows slightly and smile at transitions.",
	"angry":    "Your expression reads as tense. Unclench your jaw and take a breath before the next point.",
	"surprise": "Lots of expressive energy. Channel it into the moments that deserve emphasis.",
	"fear":     "You look nervous. Slow your breathing; the audience is on your side.",
	"disgust":  "Your expression reads as strained. Reset with a neutral face and a slow exhale.",
	"unknown":  "We could not read your expression. Check that your face is well lit and centered.",
}

var eyeContactFeedback = map[string]string{
	"yes":     "Great eye contact with the lens. It makes the delivery feel personal.",
	"no":      "Your gaze is drifting off camera. Look at the lens, not the screen, when making a point.",
	"no_face": "We lost sight of your face. Re-center yourself in the frame.",
	"unknown": "Eye contact was hard to judge this time. Keep your face toward the camera.",
}

var voiceFeedback = map[string]string{
	"good":     "Your audio level is clean and clear. Keep this distance from the microphone.",
	"quiet":    "You are coming through quietly. Move closer to the microphone or project a little more.",
	"loud":     "Your audio is running hot. Back off the microphone slightly to avoid distortion.",
	"clipping": "Your audio is clipping. Lower your input gain or increase your distance from the microphone.",
	"unknown":  "We could not judge your audio. Check that your microphone is connected and unmuted.",
}

// FallbackFeedback assembles canned coaching text from the categorical
// labels alone.
func FallbackFeedback(labels livemodel.AnalysisLabels) livemodel.CoachFeedback {
	return livemodel.CoachFeedback{
		PostureFeedback:    pick(postureFeedback, labels.Posture),
		ExpressionFeedback: pick(expressionFeedback, labels.Emotion),
		EyeContactFeedback: pick(eyeContactFeedback, labels.EyeContact),
		VoiceFeedback:      pick(voiceFeedback, labels.AudioQuality),
		OverallSuggestion:  "Keep practicing this segment. Steady pacing and a pause after key points will make the delivery land.",
	}
}

func pick(m map[string]string, label string) string {
	if text, ok := m[label]; ok {
		return text
	}
	return m["unknown"]
}
