package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/pipeline"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/transport"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

type ChatHandler struct {
	pipe *pipeline.Orchestrator
	log  *logrus.Logger
}

func NewChatHandler(pipe *pipeline.Orchestrator, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{pipe: pipe, log: log}
}

type chatContext struct {
	Chunks       []models.TranscriptChunk `json:"chunks"`
	VideoContext string                   `json:"videoContext"`
}

type chatRequest struct {
	Messages []models.ChatTurn `json:"messages"`
	VideoID  string            `json:"videoId"`
	Context  *chatContext      `json:"context"`
}

// Ask answers a typed question as an ordered SSE stream. The last message
// must be the learner's question; earlier messages are history.
func (h *ChatHandler) Ask(c *gin.Context) {
	const op = "ChatHandler.Ask"

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if len(req.Messages) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "messages is required", nil))
		return
	}

	last := req.Messages[len(req.Messages)-1]
	question := strings.TrimSpace(last.Content)
	if last.Role != models.RoleUser || question == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "last message must be a non-empty user question", nil))
		return
	}
	if len([]rune(question)) > models.MaxTurnRunes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "question is too long", nil))
		return
	}

	preq := pipeline.Request{
		Mode:     pipeline.ModeText,
		Question: question,
		VideoID:  req.VideoID,
		History:  models.BoundHistory(req.Messages[:len(req.Messages)-1]),
	}
	if req.Context != nil {
		preq.ContextChunks = req.Context.Chunks
		preq.VideoContext = req.Context.VideoContext
	}

	events := h.pipe.Run(c.Request.Context(), preq)
	streamEvents(c, h.log, events)
}

// streamEvents drains the pipeline onto the wire, one flushed frame per
// event. A write failure means the client is gone; the request context
// cancellation stops the pipeline.
func streamEvents(c *gin.Context, log *logrus.Logger, events <-chan pipeline.StreamEvent) {
	w, err := transport.NewSSEWriter(c.Writer)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "streamEvents", "streaming unsupported", err))
		return
	}

	for ev := range events {
		if err := w.Send(ev); err != nil {
			log.WithError(err).Debug("client disconnected mid-stream")
			return
		}
	}
}
