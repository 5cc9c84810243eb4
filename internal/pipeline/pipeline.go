package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/metrics"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/llm"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/stt"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/tts"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/storage"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/utils"
)

type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// CodeNoSpeech is emitted when transcription comes back empty; retrieval
// and generation are never invoked for such requests.
const CodeNoSpeech utils.Code = "NO_SPEECH"

const (
	defaultTopK = 5

	// At most this many sentence synthesis calls run concurrently while
	// later tokens keep streaming.
	maxSynthesisInFlight = 2
)

// Retriever produces ranked transcript passages for a query. The retrieval
// engine implements it; tests use fakes.
type Retriever interface {
	Retrieve(ctx context.Context, query, videoID string, topK int) ([]models.RetrievedPassage, error)
}

// Request is one admitted, validated pipeline run. Validation (audio size,
// MIME type, history bounds) happens at the API boundary.
type Request struct {
	Mode      Mode
	Audio     []byte
	Language  string
	VideoID   string
	EnableTTS bool

	// Question is set for text mode; voice mode derives it from
	// transcription.
	Question string
	History  []models.ChatTurn

	// ContextChunks, when supplied by the client (playback-window
	// context), bypass retrieval.
	ContextChunks []models.TranscriptChunk
	VideoContext  string
}

// Orchestrator sequences and overlaps the pipeline stages for one request
// and owns the ordering of the outbound event stream.
type Orchestrator struct {
	STT       stt.Provider     // voice path only
	LLM       llm.Provider     // required
	TTS       tts.Provider     // optional; absent degrades the voice path
	Retriever Retriever        // optional; absent means no grounding
	Uploader  storage.Uploader // optional; enables the legacy audio event
	Logger    *logrus.Logger
	Metrics   *metrics.Metrics
}

// Run starts the pipeline and returns the ordered event stream. The channel
// is closed after the terminal event (done or error). Cancelling ctx stops
// every in-flight stage.
func (o *Orchestrator) Run(ctx context.Context, req Request) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		o.run(ctx, req, events)
	}()
	return events
}

type ragResult struct {
	passages []models.RetrievedPassage
	ms       int64
	err      error
}

type synthOutcome struct {
	chunks int
	audio  []byte
}

func (o *Orchestrator) run(ctx context.Context, req Request, events chan<- StreamEvent) {
	log := o.Logger.WithField("mode", string(req.Mode))
	start := time.Now()
	var lat models.LatencyReport

	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(code utils.Code, msg string) {
		o.Metrics.CountRequest(string(req.Mode), "error")
		emit(StreamEvent{Type: EventError, Code: code, Message: msg})
	}

	if o.LLM == nil {
		fail(utils.CodeInternal, "internal error")
		return
	}

	ragCh := make(chan ragResult, 1)
	startRetrieval := func(query string) {
		go func() {
			t0 := time.Now()
			var passages []models.RetrievedPassage
			var err error
			switch {
			case len(req.ContextChunks) > 0:
				for _, c := range req.ContextChunks {
					passages = append(passages, models.RetrievedPassage{Chunk: c})
				}
			case o.Retriever != nil:
				passages, err = o.Retriever.Retrieve(ctx, query, req.VideoID, defaultTopK)
			}
			ragCh <- ragResult{passages: passages, ms: time.Since(t0).Milliseconds(), err: err}
		}()
	}

	question := strings.TrimSpace(req.Question)

	if req.Mode == ModeVoice {
		if o.STT == nil {
			fail(utils.CodeUnavailable, "voice is not configured")
			return
		}

		t0 := time.Now()
		text, confidence, err := o.STT.Transcribe(ctx, req.Audio, req.Language)
		sttDur := time.Since(t0)
		lat.SttMs = sttDur.Milliseconds()
		o.Metrics.ObserveStage("stt", sttDur)
		if err != nil {
			log.WithError(err).Error("transcription failed")
			fail(utils.CodeUnavailable, "transcription failed")
			return
		}

		question = strings.TrimSpace(text)
		if question == "" {
			fail(CodeNoSpeech, "no speech detected")
			return
		}

		// Retrieval starts the moment text is known; the transcription
		// event and stage bookkeeping overlap with it.
		startRetrieval(question)
		log.WithFields(logrus.Fields{"confidence": confidence, "stt_ms": lat.SttMs}).Debug("transcription done")
		if !emit(StreamEvent{Type: EventTranscription, Text: question}) {
			return
		}
	} else {
		if question == "" {
			fail(utils.CodeInvalidArgument, "question is required")
			return
		}
		startRetrieval(question)
	}

	var rag ragResult
	select {
	case rag = <-ragCh:
	case <-ctx.Done():
		return
	}
	lat.RagMs = rag.ms
	o.Metrics.ObserveStage("rag", time.Duration(rag.ms)*time.Millisecond)
	if rag.err != nil {
		// Non-fatal: the prompt carries an explicit nothing-found note so
		// the model declines instead of hallucinating.
		log.WithError(rag.err).Warn("retrieval failed, answering without context")
		rag.passages = nil
	}

	prompt := BuildPrompt(rag.passages, req.History, question, req.VideoContext)

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	chunks, errs := o.LLM.StreamAnswer(genCtx, prompt)

	synthActive := req.Mode == ModeVoice && req.EnableTTS && o.TTS != nil && o.TTS.Configured()
	var (
		splitter   SentenceSplitter
		pending    chan chan []byte
		collected  chan synthOutcome
		synthDone  bool
		discard    atomic.Bool
		ttsOnce    sync.Once
		firstTTSMs atomic.Int64
	)
	dispatch := func(string) {}

	if synthActive {
		pending = make(chan chan []byte, 64)
		collected = make(chan synthOutcome, 1)
		sem := make(chan struct{}, maxSynthesisInFlight)

		// Collector: audio chunks reach the wire in sentence order even
		// when synthesis completes out of order.
		go func() {
			var all []byte
			idx := 0
			for resCh := range pending {
				audio := <-resCh
				if len(audio) == 0 || discard.Load() {
					continue
				}
				ev := StreamEvent{
					Type:  EventAudioChunk,
					Audio: base64.StdEncoding.EncodeToString(audio),
					Index: idx,
				}
				if emit(ev) {
					idx++
					all = append(all, audio...)
				}
			}
			collected <- synthOutcome{chunks: idx, audio: all}
		}()

		dispatch = func(sentence string) {
			resCh := make(chan []byte, 1)
			pending <- resCh
			go func() {
				select {
				case sem <- struct{}{}:
				case <-genCtx.Done():
					resCh <- nil
					return
				}
				defer func() { <-sem }()

				t0 := time.Now()
				audio, err := o.TTS.Synthesize(genCtx, sentence, req.Language)
				if err != nil {
					log.WithError(err).Warn("sentence synthesis failed, skipping audio chunk")
					resCh <- nil
					return
				}
				ttsOnce.Do(func() {
					firstTTSMs.Store(time.Since(t0).Milliseconds())
					o.Metrics.ObserveStage("tts", time.Since(t0))
				})
				resCh <- audio
			}()
		}

		defer func() {
			if !synthDone {
				close(pending)
				<-collected
			}
		}()
	}

	var full strings.Builder
	llmStart := time.Now()
	firstToken := true
	for chunk := range chunks {
		if firstToken {
			firstToken = false
			// First byte, not call start: the model may chew on the prompt
			// prefix for a while before emitting.
			lat.LlmMs = time.Since(llmStart).Milliseconds()
			o.Metrics.ObserveStage("llm_first_token", time.Since(llmStart))
		}
		full.WriteString(chunk)
		if !emit(StreamEvent{Type: EventContent, Content: chunk}) {
			return
		}
		if synthActive {
			for _, sentence := range splitter.Feed(chunk) {
				dispatch(sentence)
			}
		}
	}

	if err := <-errs; err != nil {
		log.WithError(err).Error("generation stream failed")
		if synthActive && !synthDone {
			// The error event is terminal: mute the collector and drain
			// in-flight synthesis before emitting it.
			discard.Store(true)
			cancel()
			synthDone = true
			close(pending)
			<-collected
		}
		fail(utils.CodeUnavailable, "answer generation failed")
		return
	}

	if synthActive {
		if rem := splitter.Flush(); rem != "" {
			dispatch(rem)
		}
		synthDone = true
		close(pending)

		var out synthOutcome
		select {
		case out = <-collected:
		case <-ctx.Done():
			return
		}

		lat.TtsMs = firstTTSMs.Load()
		if !emit(StreamEvent{Type: EventAudioDone, Chunks: out.chunks}) {
			return
		}

		if o.Uploader != nil && len(out.audio) > 0 {
			name := fmt.Sprintf("answers/%s.mp3", uuid.NewString())
			url, err := o.Uploader.Upload(ctx, name, "audio/mpeg", bytes.NewReader(out.audio))
			if err != nil {
				log.WithError(err).Warn("audio upload failed, skipping legacy audio event")
			} else if !emit(StreamEvent{Type: EventAudio, URL: url}) {
				return
			}
		}
	}

	lat.TotalMs = time.Since(start).Milliseconds()
	o.Metrics.ObserveStage("total", time.Since(start))
	o.Metrics.CountRequest(string(req.Mode), "ok")
	emit(StreamEvent{Type: EventDone, FullContent: full.String(), Latency: &lat})
}
