package quality

import (
	"encoding/binary"
	"math"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
)

// Heuristic sample assessment used when no analysis model is configured
// or the model call fails. Visual categories cannot be judged from raw
// bytes, so they degrade to unknown/no_face; audio quality is computed
// from the waveform itself.

const (
	// RMS below this on 16-bit PCM reads as a muted or distant mic.
	quietRMS = 500.0
	// RMS above this reads as an overdriven input.
	loudRMS = 12000.0
	// Fraction of near-full-scale samples that flags clipping.
	clipRatio = 0.005
)

// Assess derives best-effort labels from the raw sample pair.
func Assess(video, audio *livemodel.Sample) livemodel.AnalysisLabels {
	labels := livemodel.AnalysisLabels{
		Emotion:      "unknown",
		EyeContact:   "unknown",
		Posture:      "unknown",
		AudioQuality: "unknown",
	}

	if video == nil || len(video.Data) == 0 {
		labels.EyeContact = "no_face"
	}
	if audio != nil && len(audio.Data) >= 2 {
		labels.AudioQuality = AssessAudio(audio.Data)
	}
	return labels
}

// AssessAudio classifies a little-endian 16-bit PCM chunk by level:
// quiet, loud, clipping or good.
func AssessAudio(pcm []byte) string {
	samples := len(pcm) / 2
	if samples == 0 {
		return "unknown"
	}

	var sumSquares float64
	clipped := 0
	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		f := float64(v)
		sumSquares += f * f
		if v >= 32600 || v <= -32600 {
			clipped++
		}
	}

	rms := math.Sqrt(sumSquares / float64(samples))
	switch {
	case float64(clipped)/float64(samples) > clipRatio:
		return "clipping"
	case rms < quietRMS:
		return "quiet"
	case rms > loudRMS:
		return "loud"
	default:
		return "good"
	}
}
