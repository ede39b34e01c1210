package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jagcoaching/backend/internal/analysis/quality"
	livemodel "github.com/jagcoaching/backend/internal/model/live"
	"github.com/jagcoaching/backend/internal/service/ai"
)

// Service 使用多模态大模型对采样片段进行分析，并在必要时回退到启发式规则。
// It implements the live engine's Analyzer boundary: one call takes the
// current sample snapshot and returns a complete feedback object.
type Service struct {
	chatModel model.BaseChatModel
	coach     *ai.Service
	fallback  func(video, audio *livemodel.Sample) livemodel.AnalysisLabels
}

// NewService 创建分析服务。chatModel 可为空，此时仅使用启发式规则。
func NewService(chatModel model.BaseChatModel, coach *ai.Service) *Service {
	return &Service{
		chatModel: chatModel,
		coach:     coach,
		fallback:  quality.Assess,
	}
}

// Enabled 返回大模型分类器是否可用。
func (s *Service) Enabled() bool {
	return s != nil && s.chatModel != nil
}

// Analyze classifies the buffered samples and generates coaching text.
// The only error it returns is context cancellation/expiry: everything
// else degrades inside the adapter so a flaky model never kills a tick
// on its own.
func (s *Service) Analyze(ctx context.Context, video, audio *livemodel.Sample) (livemodel.FeedbackData, error) {
	labels, err := s.classify(ctx, video, audio)
	if err != nil {
		return livemodel.FeedbackData{}, err
	}

	coach, err := s.coach.CoachFeedback(ctx, labels)
	if err != nil {
		return livemodel.FeedbackData{}, err
	}

	return livemodel.FeedbackData{
		Emotion:      labels.Emotion,
		EyeContact:   labels.EyeContact,
		Posture:      labels.Posture,
		Transcript:   labels.Transcript,
		AudioQuality: labels.AudioQuality,
		Coach:        coach,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) classify(ctx context.Context, video, audio *livemodel.Sample) (livemodel.AnalysisLabels, error) {
	if !s.Enabled() {
		return s.fallback(video, audio), nil
	}

	msg, err := s.chatModel.Generate(ctx, classifierMessages(video, audio))
	if err != nil {
		if ctx.Err() != nil {
			return livemodel.AnalysisLabels{}, ctx.Err()
		}
		log.Printf("[analysis] classifier invoke failed, using heuristics: %v", err)
		return s.fallback(video, audio), nil
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(video, audio), nil
	}

	labels, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[analysis] classifier output parse failed, using heuristics: %v", err)
		return s.fallback(video, audio), nil
	}
	return labels, nil
}

func classifierMessages(video, audio *livemodel.Sample) []*schema.Message {
	parts := []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: classifierUserPrompt},
	}

	if video != nil && len(video.Data) > 0 {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:      "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(video.Data),
				MIMEType: "image/jpeg",
			},
		})
	}
	if audio != nil && len(audio.Data) > 0 {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeAudioURL,
			AudioURL: &schema.ChatMessageAudioURL{
				URL:      "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(audio.Data),
				MIMEType: "audio/wav",
			},
		})
	}

	return []*schema.Message{
		schema.SystemMessage(classifierSystemPrompt),
		{Role: schema.User, MultiContent: parts},
	}
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (livemodel.AnalysisLabels, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return livemodel.AnalysisLabels{}, fmt.Errorf("missing json object")
	}

	var labels livemodel.AnalysisLabels
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &labels); err != nil {
		return livemodel.AnalysisLabels{}, err
	}

	labels.Emotion = normalizeLabel(labels.Emotion)
	labels.EyeContact = normalizeLabel(labels.EyeContact)
	labels.Posture = normalizeLabel(labels.Posture)
	labels.AudioQuality = normalizeLabel(labels.AudioQuality)
	labels.Transcript = strings.TrimSpace(labels.Transcript)
	return labels, nil
}

func normalizeLabel(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

const classifierSystemPrompt = "You are the perception stage of a live presentation-coaching system. " +
	"You receive a single webcam frame and/or a short microphone clip from a practice session. " +
	"Reply with a single JSON object and nothing else, with exactly five string fields: " +
	"emotion (one of angry, disgust, fear, happy, sad, surprise, neutral, unknown), " +
	"eye_contact (one of yes, no, no_face, unknown), " +
	"posture (one of upright, slouched, leaning, unknown), " +
	"audio_quality (one of good, quiet, loud, clipping, unknown), " +
	"and transcript (the literal words spoken, empty if inaudible or absent). " +
	"Use unknown whenever a signal is missing rather than guessing."

const classifierUserPrompt = "Classify this segment of the practice session."
