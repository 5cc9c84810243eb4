package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech/"

	// Multilingual default voice; handles both Hebrew and English.
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID = "eleven_multilingual_v2"
)

// ElevenLabs synthesizes speech through the ElevenLabs REST API. Output is
// MP3 bytes.
type ElevenLabs struct {
	apiKey     string
	voiceID    string
	modelID    string
	httpClient *http.Client
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func NewElevenLabs(apiKey, voiceID string) *ElevenLabs {
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	return &ElevenLabs{
		apiKey:     apiKey,
		voiceID:    voiceID,
		modelID:    defaultModelID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ElevenLabs) Configured() bool { return c.apiKey != "" }

func (c *ElevenLabs) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tts api key is not set")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, elevenLabsURL+c.voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("tts api: status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts api returned empty audio")
	}
	return audio, nil
}
