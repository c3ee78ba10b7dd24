// Package speechpb holds the messages of the speech.Speech service and their
// protobuf wire encoding. The schema lives in speech.proto next to this file.
package speechpb

import "fmt"

type Encoding int32

const (
	EncodingUnspecified Encoding = 0
	EncodingWAV16       Encoding = 1
)

func (e Encoding) String() string {
	switch e {
	case EncodingUnspecified:
		return "ENCODING_UNSPECIFIED"
	case EncodingWAV16:
		return "WAV16"
	}
	return fmt.Sprintf("Encoding(%d)", int32(e))
}

type SpeechEventType int32

const (
	SpeechEventUnspecified           SpeechEventType = 0
	EndOfSingleUtterance             SpeechEventType = 1
	ContinuousDecodingEndOfUtterance SpeechEventType = 2
	SteadySpeechDetected             SpeechEventType = 3
)

func (t SpeechEventType) String() string {
	switch t {
	case SpeechEventUnspecified:
		return "SPEECH_EVENT_UNSPECIFIED"
	case EndOfSingleUtterance:
		return "END_OF_SINGLE_UTTERANCE"
	case ContinuousDecodingEndOfUtterance:
		return "CONTINUOUS_DECODING_END_OF_UTTERANCE"
	case SteadySpeechDetected:
		return "STEADY_SPEECH_DETECTED"
	}
	return fmt.Sprintf("SpeechEventType(%d)", int32(t))
}

type RecognitionConfig struct {
	Encoding                 Encoding
	SampleRate               int32
	Channel                  int32
	MaxAlternatives          int32
	QueryContext             []string
	DisableItn               bool
	EnableContinuousDecoding bool
}

type EndpointConfig struct {
	StartSilence float32
	EndSilence   float32
}

type StreamingRecognitionConfig struct {
	Config            *RecognitionConfig
	EndpointDetection bool
	PartialResult     bool
	EndpointConfig    *EndpointConfig
}

// StreamingRecognizeRequest carries either StreamingConfig or AudioContent.
// When StreamingConfig is set AudioContent is ignored.
type StreamingRecognizeRequest struct {
	StreamingConfig *StreamingRecognitionConfig
	AudioContent    []byte
}

func (r *StreamingRecognizeRequest) GetStreamingConfig() *StreamingRecognitionConfig {
	if r == nil {
		return nil
	}
	return r.StreamingConfig
}

func (r *StreamingRecognizeRequest) GetAudioContent() []byte {
	if r == nil || r.StreamingConfig != nil {
		return nil
	}
	return r.AudioContent
}

type Status struct {
	Code    int32
	Message string
}

func (s *Status) GetCode() int32 {
	if s == nil {
		return 0
	}
	return s.Code
}

func (s *Status) GetMessage() string {
	if s == nil {
		return ""
	}
	return s.Message
}

type SpeechRecognitionAlternative struct {
	Transcript string
	Confidence float32
}

type StreamingRecognitionResult struct {
	Alternatives []*SpeechRecognitionAlternative
	IsFinal      bool
}

type StreamingRecognizeResponse struct {
	Error           *Status
	Results         []*StreamingRecognitionResult
	SpeechEventType SpeechEventType
}

func (r *StreamingRecognizeResponse) GetError() *Status {
	if r == nil {
		return nil
	}
	return r.Error
}

func (r *StreamingRecognizeResponse) GetSpeechEventType() SpeechEventType {
	if r == nil {
		return SpeechEventUnspecified
	}
	return r.SpeechEventType
}

// Top returns the first alternative of the first result, or nil when the
// response carries none.
func (r *StreamingRecognizeResponse) Top() *SpeechRecognitionAlternative {
	if r == nil || len(r.Results) == 0 || r.Results[0] == nil {
		return nil
	}
	alts := r.Results[0].Alternatives
	if len(alts) == 0 {
		return nil
	}
	return alts[0]
}

// TopTranscript is the transcript of Top, or "".
func (r *StreamingRecognizeResponse) TopTranscript() string {
	if alt := r.Top(); alt != nil {
		return alt.Transcript
	}
	return ""
}
