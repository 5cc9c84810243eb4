package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/pipeline"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

// MaxAudioBytes bounds the uploaded clip. Recordings are short questions,
// not lectures.
const MaxAudioBytes = 25 << 20

var allowedAudioTypes = map[string]bool{
	"audio/webm":  true,
	"video/webm":  true,
	"audio/ogg":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
	"audio/mpeg":  true,
	"audio/mp4":   true,
	"audio/m4a":   true,
}

type VoiceHandler struct {
	pipe *pipeline.Orchestrator
	log  *logrus.Logger
}

func NewVoiceHandler(pipe *pipeline.Orchestrator, log *logrus.Logger) *VoiceHandler {
	return &VoiceHandler{pipe: pipe, log: log}
}

// Ask transcribes an uploaded clip and answers it as an ordered SSE stream.
// Validation failures are plain JSON errors; once the stream starts, errors
// travel as stream events.
func (h *VoiceHandler) Ask(c *gin.Context) {
	const op = "VoiceHandler.Ask"

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return
	}
	if fileHeader.Size > MaxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file exceeds 25MB", nil))
		return
	}
	if ct := mediaType(fileHeader); ct != "" && !allowedAudioTypes[ct] {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unsupported audio type "+ct, nil))
		return
	}

	language := strings.ToLower(strings.TrimSpace(c.PostForm("language")))
	switch language {
	case "":
		language = "auto"
	case "he", "en", "auto":
	default:
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "language must be he, en or auto", nil))
		return
	}

	enableTTS := true
	if v := c.PostForm("enableTTS"); v != "" {
		enableTTS = v == "true" || v == "1"
	}

	var history []models.ChatTurn
	if raw := c.PostForm("conversationHistory"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid conversationHistory", err))
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read audio", err))
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, MaxAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read audio", err))
		return
	}
	if len(audio) > MaxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file exceeds 25MB", nil))
		return
	}
	if len(audio) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is empty", nil))
		return
	}

	events := h.pipe.Run(c.Request.Context(), pipeline.Request{
		Mode:         pipeline.ModeVoice,
		Audio:        audio,
		Language:     language,
		VideoID:      c.PostForm("videoId"),
		EnableTTS:    enableTTS,
		History:      models.BoundHistory(history),
		VideoContext: c.PostForm("videoContext"),
	})

	streamEvents(c, h.log, events)
}

func mediaType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
