package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/pipeline"
)

type echoTTS struct{}

func (echoTTS) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	return []byte(text), nil
}

func (echoTTS) Configured() bool { return true }

func newWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	orch := &pipeline.Orchestrator{
		STT:    &echoSTT{text: "what is one and two"},
		LLM:    &scriptedLLM{chunks: []string{"One. Two."}},
		TTS:    echoTTS{},
		Logger: testLog(),
	}
	r := gin.New()
	r.GET("/ws/voice", NewWSHandler(orch, testLog()).Voice)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/voice"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsFrame struct {
	kind int
	data []byte
}

// readRun collects frames until the terminal done or error event.
func readRun(t *testing.T, conn *websocket.Conn) []wsFrame {
	t.Helper()
	var frames []wsFrame
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		frames = append(frames, wsFrame{kind: kind, data: data})
		if kind == websocket.TextMessage {
			var ev pipeline.StreamEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			if ev.Type == pipeline.EventDone || ev.Type == pipeline.EventError {
				return frames
			}
		}
	}
}

func TestWSVoiceAudioChunksCarryIndexHeader(t *testing.T) {
	conn := dialWS(t, newWSServer(t))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":         "voice",
		"audio_base64": base64.StdEncoding.EncodeToString([]byte("opus")),
		"language":     "en",
	}))

	frames := readRun(t, conn)

	// Every binary audio frame is preceded by a JSON header carrying its
	// chunk index, so clients can reorder and detect gaps.
	wantIdx := 0
	var payloads []string
	for i, f := range frames {
		if f.kind != websocket.BinaryMessage {
			continue
		}
		require.Greater(t, i, 0)
		prev := frames[i-1]
		require.Equal(t, websocket.TextMessage, prev.kind)

		var header pipeline.StreamEvent
		require.NoError(t, json.Unmarshal(prev.data, &header))
		assert.Equal(t, pipeline.EventAudioChunk, header.Type)
		assert.Equal(t, wantIdx, header.Index)
		assert.Empty(t, header.Audio)

		payloads = append(payloads, string(f.data))
		wantIdx++
	}
	assert.Equal(t, []string{"One.", "Two."}, payloads)
}

func TestWSVoiceRejectsUnknownMessageType(t *testing.T) {
	conn := dialWS(t, newWSServer(t))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)

	var ev pipeline.StreamEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, pipeline.EventError, ev.Type)
}
