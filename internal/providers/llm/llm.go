package llm

import "context"

type Provider interface {
	// StreamAnswer returns a stream of text chunks (incremental). The errs
	// channel carries at most one error and both channels close when the
	// stream ends.
	StreamAnswer(ctx context.Context, prompt string) (chunks <-chan string, errs <-chan error)
	Close() error
}
