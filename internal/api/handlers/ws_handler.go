package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/pipeline"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

// WSHandler is the websocket variant of the voice endpoint. It exists for
// clients that want audio as binary frames instead of base64 inside JSON:
// each audio-chunk event goes out as a JSON header frame carrying the chunk
// index, immediately followed by the raw audio as a binary frame. Everything
// else is JSON text frames in the same order as the SSE stream.
type WSHandler struct {
	pipe     *pipeline.Orchestrator
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(pipe *pipeline.Orchestrator, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		pipe: pipe,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsVoiceRequest struct {
	Type                string            `json:"type"`
	AudioBase64         string            `json:"audio_base64"`
	Language            string            `json:"language"`
	VideoID             string            `json:"videoId"`
	EnableTTS           *bool             `json:"enableTTS"`
	ConversationHistory []models.ChatTurn `json:"conversationHistory"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeBinary(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.BinaryMessage, b)
}

func (h *WSHandler) Voice(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsVoiceRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(pipeline.StreamEvent{Type: pipeline.EventError, Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}
		if msg.Type != "voice" {
			_ = wc.writeJSON(pipeline.StreamEvent{Type: pipeline.EventError, Code: utils.CodeInvalidArgument, Message: "unknown message type"})
			continue
		}

		audio, err := base64.StdEncoding.DecodeString(msg.AudioBase64)
		if err != nil || len(audio) == 0 {
			_ = wc.writeJSON(pipeline.StreamEvent{Type: pipeline.EventError, Code: utils.CodeInvalidArgument, Message: "audio_base64 is required"})
			continue
		}
		if len(audio) > MaxAudioBytes {
			_ = wc.writeJSON(pipeline.StreamEvent{Type: pipeline.EventError, Code: utils.CodeInvalidArgument, Message: "audio exceeds 25MB"})
			continue
		}

		enableTTS := true
		if msg.EnableTTS != nil {
			enableTTS = *msg.EnableTTS
		}
		language := msg.Language
		if language == "" {
			language = "auto"
		}

		events := h.pipe.Run(ctx, pipeline.Request{
			Mode:      pipeline.ModeVoice,
			Audio:     audio,
			Language:  language,
			VideoID:   msg.VideoID,
			EnableTTS: enableTTS,
			History:   models.BoundHistory(msg.ConversationHistory),
		})

		if !h.forward(wc, events) {
			return
		}
	}
}

// forward relays one pipeline run. Returns false when the socket is dead.
func (h *WSHandler) forward(wc *wsConn, events <-chan pipeline.StreamEvent) bool {
	for ev := range events {
		var werr error
		if ev.Type == pipeline.EventAudioChunk {
			raw, derr := base64.StdEncoding.DecodeString(ev.Audio)
			if derr != nil {
				continue
			}
			// Header first so the client can pair the binary frame that
			// follows with its chunk index.
			header := ev
			header.Audio = ""
			if werr = wc.writeJSON(header); werr == nil {
				werr = wc.writeBinary(raw)
			}
		} else {
			werr = wc.writeJSON(ev)
		}
		if werr != nil {
			h.log.WithError(werr).Debug("websocket write failed")
			return false
		}
	}
	return true
}
