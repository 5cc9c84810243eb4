package pipeline

import (
	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

type EventType string

const (
	// EventTranscription carries the recognized text for a voice request.
	EventTranscription EventType = "transcription"
	// EventContent carries one incremental chunk of the answer.
	EventContent EventType = "content"
	// EventAudioChunk carries base64 audio for one sentence, in sentence
	// order.
	EventAudioChunk EventType = "audio-chunk"
	// EventAudioDone marks the end of the chunked audio stream.
	EventAudioDone EventType = "audio-done"
	// EventAudio is the legacy single-audio event: a URL to the full
	// synthesized answer, emitted after audio-done when storage is
	// configured.
	EventAudio EventType = "audio"
	// EventError is terminal; no done event follows it.
	EventError EventType = "error"
	// EventDone is the terminal success event with the full answer and the
	// latency breakdown.
	EventDone EventType = "done"
)

// StreamEvent is the tagged union written to the wire, one frame per event,
// in causal order.
type StreamEvent struct {
	Type EventType `json:"type"`

	Text        string                `json:"text,omitempty"`
	Content     string                `json:"content,omitempty"`
	Audio       string                `json:"audio,omitempty"`
	Index       int                   `json:"index,omitempty"`
	Chunks      int                   `json:"chunks,omitempty"`
	URL         string                `json:"url,omitempty"`
	FullContent string                `json:"fullContent,omitempty"`
	Latency     *models.LatencyReport `json:"latency,omitempty"`
	Code        utils.Code            `json:"code,omitempty"`
	Message     string                `json:"message,omitempty"`
}
