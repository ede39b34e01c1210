package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

// Service turns one analysis pass into narrative coaching feedback via
// an LLM chain. When no model is configured the canned fallback keeps
// the client UI alive.
type Service struct {
	chatModel model.BaseChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the coach chain on top of the supplied chat model.
// chatModel may be nil; the service then always answers from the canned
// fallback.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	svc := &Service{chatModel: chatModel}
	if chatModel == nil {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(coachSystemPrompt),
		schema.UserMessage(coachUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile coach chain: %w", err)
	}

	svc.chain = runnable
	return svc, nil
}

// Enabled 返回叙事反馈服务是否可用。
func (s *Service) Enabled() bool {
	return s != nil && s.chain != nil
}

// CoachFeedback generates the five narrative feedback fields for one
// analysis result. Any model or parse failure falls back to canned text;
// only context cancellation is surfaced to the caller.
func (s *Service) CoachFeedback(ctx context.Context, labels livemodel.AnalysisLabels) (livemodel.CoachFeedback, error) {
	if !s.Enabled() {
		return FallbackFeedback(labels), nil
	}

	input := map[string]any{
		"emotion":       orUnknown(labels.Emotion),
		"eye_contact":   orUnknown(labels.EyeContact),
		"posture":       orUnknown(labels.Posture),
		"audio_quality": orUnknown(labels.AudioQuality),
		"transcript":    strings.TrimSpace(labels.Transcript),
	}

	msg, err := s.chain.Invoke(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return livemodel.CoachFeedback{}, ctx.Err()
		}
		log.Printf("[coach] chain invoke failed, using fallback: %v", err)
		return FallbackFeedback(labels), nil
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return FallbackFeedback(labels), nil
	}

	feedback, err := parseCoachOutput(msg.Content)
	if err != nil {
		log.Printf("[coach] output parse failed, using fallback: %v", err)
		return FallbackFeedback(labels), nil
	}

	fillMissing(&feedback, labels)
	return feedback, nil
}

// parseCoachOutput 解析大模型返回的 JSON。
func parseCoachOutput(content string) (livemodel.CoachFeedback, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return livemodel.CoachFeedback{}, fmt.Errorf("missing json object")
	}

	var feedback livemodel.CoachFeedback
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &feedback); err != nil {
		return livemodel.CoachFeedback{}, err
	}
	return feedback, nil
}

func fillMissing(feedback *livemodel.CoachFeedback, labels livemodel.AnalysisLabels) {
	canned := FallbackFeedback(labels)
	if strings.TrimSpace(feedback.PostureFeedback) == "" {
		feedback.PostureFeedback = canned.PostureFeedback
	}
	if strings.TrimSpace(feedback.ExpressionFeedback) == "" {
		feedback.ExpressionFeedback = canned.ExpressionFeedback
	}
	if strings.TrimSpace(feedback.EyeContactFeedback) == "" {
		feedback.EyeContactFeedback = canned.EyeContactFeedback
	}
	if strings.TrimSpace(feedback.VoiceFeedback) == "" {
		feedback.VoiceFeedback = canned.VoiceFeedback
	}
	if strings.TrimSpace(feedback.OverallSuggestion) == "" {
		feedback.OverallSuggestion = canned.OverallSuggestion
	}
}

func orUnknown(label string) string {
	if strings.TrimSpace(label) == "" {
		return "unknown"
	}
	return label
}

const coachSystemPrompt = "You are an expert presentation coach reviewing a ten-second segment of a live practice run. " +
	"You receive the detected facial emotion, eye contact, posture, microphone audio quality and a transcript of what the speaker said. " +
	"Reply with a single JSON object and nothing else. The object has exactly five string fields: " +
	"posture_feedback, expression_feedback, eye_contact_feedback, voice_feedback and overall_suggestion. " +
	"Each field is one or two encouraging, specific sentences. When a signal is unknown, say what the speaker can do to give the camera or microphone a better signal instead of guessing."

const coachUserPrompt = "Detected facial emotion: {emotion}\n" +
	"Eye contact: {eye_contact}\n" +
	"Posture: {posture}\n" +
	"Audio quality: {audio_quality}\n" +
	"Transcribed speech: \"{transcript}\"\n\n" +
	"Give the JSON feedback now."
