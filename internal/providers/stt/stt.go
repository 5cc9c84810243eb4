package stt

import "context"

type Provider interface {
	// Transcribe converts an audio clip to text. language is "he", "en" or
	// "auto"; empty text with a nil error means no speech was detected.
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
