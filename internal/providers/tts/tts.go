package tts

import "context"

type Provider interface {
	// Synthesize converts one sentence (or short passage) to audio bytes.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	// Configured reports whether the provider can be called at all; an
	// unconfigured provider degrades the voice path instead of failing it.
	Configured() bool
}
