package speechpb

import (
	"bytes"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestRequestConfigEncoding(t *testing.T) {
	req := &StreamingRecognizeRequest{
		StreamingConfig: &StreamingRecognitionConfig{
			Config: &RecognitionConfig{
				Encoding:                 EncodingWAV16,
				SampleRate:               16000,
				Channel:                  1,
				MaxAlternatives:          1,
				QueryContext:             []string{"专有名词", "大城小爱"},
				DisableItn:               true,
				EnableContinuousDecoding: true,
			},
			EndpointDetection: true,
			PartialResult:     true,
			EndpointConfig:    &EndpointConfig{StartSilence: 10, EndSilence: 2},
		},
	}

	data, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got StreamingRecognizeRequest
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&got, req) {
		t.Errorf("decoded %+v, want %+v", got.StreamingConfig, req.StreamingConfig)
	}
	if got.GetAudioContent() != nil {
		t.Errorf("config request reports audio content")
	}
}

func TestRequestAudioEncoding(t *testing.T) {
	audio := []byte{0x00, 0x01, 0xfe, 0xff}
	data, err := (&StreamingRecognizeRequest{AudioContent: audio}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// field 2, length delimited
	want := append([]byte{0x12, byte(len(audio))}, audio...)
	if !bytes.Equal(data, want) {
		t.Fatalf("wire bytes %x, want %x", data, want)
	}

	var got StreamingRecognizeRequest
	if err := got.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.GetStreamingConfig() != nil {
		t.Errorf("audio request decoded with a config")
	}
	if !bytes.Equal(got.GetAudioContent(), audio) {
		t.Errorf("audio %x, want %x", got.GetAudioContent(), audio)
	}
}

func TestResponseDecoding(t *testing.T) {
	tests := []struct {
		name       string
		resp       *StreamingRecognizeResponse
		transcript string
		code       int32
		event      SpeechEventType
	}{
		{
			name: "partial",
			resp: &StreamingRecognizeResponse{
				Results: []*StreamingRecognitionResult{{
					Alternatives: []*SpeechRecognitionAlternative{
						{Transcript: "hello", Confidence: 0.9},
						{Transcript: "yellow", Confidence: 0.1},
					},
				}},
			},
			transcript: "hello",
			event:      SpeechEventUnspecified,
		},
		{
			name: "end of utterance",
			resp: &StreamingRecognizeResponse{
				Results: []*StreamingRecognitionResult{{
					Alternatives: []*SpeechRecognitionAlternative{{Transcript: "hello world"}},
					IsFinal:      true,
				}},
				SpeechEventType: EndOfSingleUtterance,
			},
			transcript: "hello world",
			event:      EndOfSingleUtterance,
		},
		{
			name: "error",
			resp: &StreamingRecognizeResponse{
				Error: &Status{Code: 5, Message: "bad audio"},
			},
			code:  5,
			event: SpeechEventUnspecified,
		},
		{
			name:  "no results",
			resp:  &StreamingRecognizeResponse{SpeechEventType: SteadySpeechDetected},
			event: SteadySpeechDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.resp.Marshal()
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got StreamingRecognizeResponse
			if err := got.Unmarshal(data); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.TopTranscript() != tt.transcript {
				t.Errorf("TopTranscript() = %q, want %q", got.TopTranscript(), tt.transcript)
			}
			if got.GetError().GetCode() != tt.code {
				t.Errorf("error code = %d, want %d", got.GetError().GetCode(), tt.code)
			}
			if got.GetSpeechEventType() != tt.event {
				t.Errorf("event = %v, want %v", got.GetSpeechEventType(), tt.event)
			}
		})
	}
}

func TestResponseSkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendString(b, "from a newer server")
	b = protowire.AppendTag(b, fieldResponseSpeechEventType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ContinuousDecodingEndOfUtterance))
	b = protowire.AppendTag(b, 16, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 42)

	var got StreamingRecognizeResponse
	if err := got.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.SpeechEventType != ContinuousDecodingEndOfUtterance {
		t.Errorf("event = %v, want %v", got.SpeechEventType, ContinuousDecodingEndOfUtterance)
	}
}

func TestResponseTruncated(t *testing.T) {
	data, err := (&StreamingRecognizeResponse{
		Error: &Status{Code: 3, Message: "truncated"},
	}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got StreamingRecognizeResponse
	if err := got.Unmarshal(data[:len(data)-2]); err == nil {
		t.Fatal("expected an error for a truncated message")
	}
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	var c Codec
	if _, err := c.Marshal("not a message"); err == nil {
		t.Error("Marshal accepted a string")
	}
	if err := c.Unmarshal(nil, new(int)); err == nil {
		t.Error("Unmarshal accepted an *int")
	}
	if c.Name() != "proto" {
		t.Errorf("Name() = %q", c.Name())
	}
}
