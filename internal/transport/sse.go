// Package transport frames pipeline events for the wire. SSE is the
// primary contract: one data frame per event, flushed immediately, because
// ordering correctness depends on in-order, low-latency delivery.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/sse"
)

var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// SSEWriter serializes values as `data: <json>` frames. Every frame is
// flushed on its own; events are never batched.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := sse.Encode(s.w, sse.Event{Data: string(data)}); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SSEReader decodes a frame stream, buffering across arbitrary read
// boundaries: a frame is only yielded once its terminating blank line has
// arrived.
type SSEReader struct {
	r *bufio.Reader
}

func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{r: bufio.NewReader(r)}
}

// Next returns the payload of the next complete frame. io.EOF at a frame
// boundary, io.ErrUnexpectedEOF when the stream dies mid-frame.
func (r *SSEReader) Next() ([]byte, error) {
	var data [][]byte
	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && len(data) == 0 && strings.TrimSpace(line) == "" {
				return nil, io.EOF
			}
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, []byte(strings.TrimPrefix(payload, " ")))
		}
		// Other fields (id, event, retry, comments) are ignored.
	}
}
