package live

import (
	"encoding/base64"
	"strings"
)

// Message types exchanged on the live streaming channel.
const (
	TypeVideoFrame = "video_frame"
	TypeAudioChunk = "audio_chunk"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeFeedback   = "feedback"
	TypeError      = "error"
)

// InboundMessage is one client→server frame. Data carries the base64
// payload for sample messages and is empty for ping/pong.
type InboundMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// OutboundMessage is one server→client frame.
type OutboundMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DecodeSamplePayload turns a transport-safe sample payload into raw bytes.
// Browsers send canvas captures as data URIs ("data:image/jpeg;base64,..."),
// so anything up to and including the first comma is stripped first.
func DecodeSamplePayload(payload string) ([]byte, error) {
	if idx := strings.IndexByte(payload, ','); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
}
