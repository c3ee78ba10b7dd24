package stt

import (
	"time"

	"github.com/charmbracelet/log"
	"node.town/asrstream/speechpb"
)

type State int

const (
	Streaming State = iota
	Terminated
)

func (s State) String() string {
	if s == Terminated {
		return "terminated"
	}
	return "streaming"
}

// Handler follows the response events of one session. It moves from
// Streaming to Terminated on an error or an end of utterance and never back;
// terminate is called exactly once on that transition.
type Handler struct {
	logger    *log.Logger
	terminate func()
	state     State
	err       *RecognitionError
	results   []Result
	started   time.Time
	now       func() time.Time
}

func NewHandler(logger *log.Logger, terminate func()) *Handler {
	h := &Handler{
		logger:    logger,
		terminate: terminate,
		state:     Streaming,
		now:       time.Now,
	}
	h.started = h.now()
	return h
}

// Handle processes one response and reports whether more should be read.
func (h *Handler) Handle(resp *speechpb.StreamingRecognizeResponse) bool {
	if h.state == Terminated {
		return false
	}

	if status := resp.GetError(); status.GetCode() != 0 {
		h.err = &RecognitionError{Code: status.GetCode(), Message: status.GetMessage()}
		h.logger.Error(
			"recognition error",
			"code",
			status.GetCode(),
			"message",
			status.GetMessage(),
		)
		h.finish()
		return false
	}

	text := resp.TopTranscript()

	switch resp.GetSpeechEventType() {
	case speechpb.SpeechEventUnspecified:
		if text != "" {
			h.logger.Info("partial result", "transcript", text)
		}

	case speechpb.EndOfSingleUtterance:
		if text != "" {
			h.logger.Info("speech end", "transcript", text)
			h.record(KindSpeechEnd, resp)
		}
		h.finish()
		return false

	case speechpb.ContinuousDecodingEndOfUtterance:
		// does not end the session, unlike EndOfSingleUtterance
		if text != "" {
			h.logger.Info("final result", "transcript", text)
			h.record(KindFinal, resp)
		}

	case speechpb.SteadySpeechDetected:
		h.logger.Debug("steady speech")

	default:
		h.logger.Debug("ignoring event", "type", resp.GetSpeechEventType())
	}

	return true
}

func (h *Handler) finish() {
	h.state = Terminated
	if h.terminate != nil {
		h.terminate()
	}
}

func (h *Handler) record(kind ResultKind, resp *speechpb.StreamingRecognizeResponse) {
	top := resp.Top()
	h.results = append(h.results, Result{
		Kind:       kind,
		Text:       top.Transcript,
		Confidence: float64(top.Confidence),
		Offset:     h.now().Sub(h.started),
	})
}

func (h *Handler) State() State {
	return h.state
}

func (h *Handler) Terminated() bool {
	return h.state == Terminated
}

// Err is the recognition error that ended the session, if any.
func (h *Handler) Err() *RecognitionError {
	return h.err
}

func (h *Handler) Results() []Result {
	return h.results
}
