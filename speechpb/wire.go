package speechpb

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, see speech.proto.
const (
	fieldRequestStreamingConfig protowire.Number = 1
	fieldRequestAudioContent    protowire.Number = 2

	fieldStreamingConfigConfig            protowire.Number = 1
	fieldStreamingConfigEndpointDetection protowire.Number = 2
	fieldStreamingConfigPartialResult     protowire.Number = 3
	fieldStreamingConfigEndpointConfig    protowire.Number = 4

	fieldRecognitionEncoding           protowire.Number = 1
	fieldRecognitionSampleRate         protowire.Number = 2
	fieldRecognitionChannel            protowire.Number = 3
	fieldRecognitionMaxAlternatives    protowire.Number = 4
	fieldRecognitionQueryContext       protowire.Number = 5
	fieldRecognitionDisableItn         protowire.Number = 6
	fieldRecognitionContinuousDecoding protowire.Number = 7

	fieldEndpointStartSilence protowire.Number = 1
	fieldEndpointEndSilence   protowire.Number = 2

	fieldResponseError           protowire.Number = 1
	fieldResponseResults         protowire.Number = 2
	fieldResponseSpeechEventType protowire.Number = 3

	fieldStatusCode    protowire.Number = 1
	fieldStatusMessage protowire.Number = 2

	fieldResultAlternatives protowire.Number = 1
	fieldResultIsFinal      protowire.Number = 2

	fieldAlternativeTranscript protowire.Number = 1
	fieldAlternativeConfidence protowire.Number = 2
)

// Marshal encodes the request in protobuf wire format.
func (r *StreamingRecognizeRequest) Marshal() ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	var b []byte
	if r.StreamingConfig != nil {
		b = appendMessage(b, fieldRequestStreamingConfig, r.StreamingConfig.appendTo(nil))
		return b, nil
	}
	b = protowire.AppendTag(b, fieldRequestAudioContent, protowire.BytesType)
	b = protowire.AppendBytes(b, r.AudioContent)
	return b, nil
}

// Unmarshal decodes a request, replacing the receiver's contents.
func (r *StreamingRecognizeRequest) Unmarshal(b []byte) error {
	*r = StreamingRecognizeRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRequestStreamingConfig && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			cfg := &StreamingRecognitionConfig{}
			if err := cfg.unmarshal(v); err != nil {
				return 0, fmt.Errorf("streaming_config: %w", err)
			}
			r.StreamingConfig = cfg
			r.AudioContent = nil
			return n, nil
		case num == fieldRequestAudioContent && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			r.AudioContent = append([]byte{}, v...)
			r.StreamingConfig = nil
			return n, nil
		}
		return 0, nil
	})
}

func (c *StreamingRecognitionConfig) appendTo(b []byte) []byte {
	if c.Config != nil {
		b = appendMessage(b, fieldStreamingConfigConfig, c.Config.appendTo(nil))
	}
	b = appendBool(b, fieldStreamingConfigEndpointDetection, c.EndpointDetection)
	b = appendBool(b, fieldStreamingConfigPartialResult, c.PartialResult)
	if c.EndpointConfig != nil {
		b = appendMessage(b, fieldStreamingConfigEndpointConfig, c.EndpointConfig.appendTo(nil))
	}
	return b
}

func (c *StreamingRecognitionConfig) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldStreamingConfigConfig && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			rc := &RecognitionConfig{}
			if err := rc.unmarshal(v); err != nil {
				return 0, fmt.Errorf("config: %w", err)
			}
			c.Config = rc
			return n, nil
		case num == fieldStreamingConfigEndpointDetection && typ == protowire.VarintType:
			return consumeBool(b, &c.EndpointDetection), nil
		case num == fieldStreamingConfigPartialResult && typ == protowire.VarintType:
			return consumeBool(b, &c.PartialResult), nil
		case num == fieldStreamingConfigEndpointConfig && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			ec := &EndpointConfig{}
			if err := ec.unmarshal(v); err != nil {
				return 0, fmt.Errorf("endpoint_config: %w", err)
			}
			c.EndpointConfig = ec
			return n, nil
		}
		return 0, nil
	})
}

func (c *RecognitionConfig) appendTo(b []byte) []byte {
	b = appendInt32(b, fieldRecognitionEncoding, int32(c.Encoding))
	b = appendInt32(b, fieldRecognitionSampleRate, c.SampleRate)
	b = appendInt32(b, fieldRecognitionChannel, c.Channel)
	b = appendInt32(b, fieldRecognitionMaxAlternatives, c.MaxAlternatives)
	for _, word := range c.QueryContext {
		// repeated strings keep empty elements
		b = protowire.AppendTag(b, fieldRecognitionQueryContext, protowire.BytesType)
		b = protowire.AppendString(b, word)
	}
	b = appendBool(b, fieldRecognitionDisableItn, c.DisableItn)
	b = appendBool(b, fieldRecognitionContinuousDecoding, c.EnableContinuousDecoding)
	return b
}

func (c *RecognitionConfig) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			switch num {
			case fieldRecognitionEncoding:
				var v int32
				n := consumeInt32(b, &v)
				c.Encoding = Encoding(v)
				return n, nil
			case fieldRecognitionSampleRate:
				return consumeInt32(b, &c.SampleRate), nil
			case fieldRecognitionChannel:
				return consumeInt32(b, &c.Channel), nil
			case fieldRecognitionMaxAlternatives:
				return consumeInt32(b, &c.MaxAlternatives), nil
			case fieldRecognitionDisableItn:
				return consumeBool(b, &c.DisableItn), nil
			case fieldRecognitionContinuousDecoding:
				return consumeBool(b, &c.EnableContinuousDecoding), nil
			}
		}
		if num == fieldRecognitionQueryContext && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n >= 0 {
				c.QueryContext = append(c.QueryContext, v)
			}
			return n, nil
		}
		return 0, nil
	})
}

func (c *EndpointConfig) appendTo(b []byte) []byte {
	b = appendFloat(b, fieldEndpointStartSilence, c.StartSilence)
	b = appendFloat(b, fieldEndpointEndSilence, c.EndSilence)
	return b
}

func (c *EndpointConfig) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.Fixed32Type {
			return 0, nil
		}
		switch num {
		case fieldEndpointStartSilence:
			return consumeFloat(b, &c.StartSilence), nil
		case fieldEndpointEndSilence:
			return consumeFloat(b, &c.EndSilence), nil
		}
		return 0, nil
	})
}

// Marshal encodes the response in protobuf wire format.
func (r *StreamingRecognizeResponse) Marshal() ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	var b []byte
	if r.Error != nil {
		b = appendMessage(b, fieldResponseError, r.Error.appendTo(nil))
	}
	for _, res := range r.Results {
		if res == nil {
			res = &StreamingRecognitionResult{}
		}
		b = appendMessage(b, fieldResponseResults, res.appendTo(nil))
	}
	b = appendInt32(b, fieldResponseSpeechEventType, int32(r.SpeechEventType))
	return b, nil
}

// Unmarshal decodes a response, replacing the receiver's contents.
func (r *StreamingRecognizeResponse) Unmarshal(b []byte) error {
	*r = StreamingRecognizeResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldResponseError && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			st := &Status{}
			if err := st.unmarshal(v); err != nil {
				return 0, fmt.Errorf("error: %w", err)
			}
			r.Error = st
			return n, nil
		case num == fieldResponseResults && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			res := &StreamingRecognitionResult{}
			if err := res.unmarshal(v); err != nil {
				return 0, fmt.Errorf("results: %w", err)
			}
			r.Results = append(r.Results, res)
			return n, nil
		case num == fieldResponseSpeechEventType && typ == protowire.VarintType:
			var v int32
			n := consumeInt32(b, &v)
			r.SpeechEventType = SpeechEventType(v)
			return n, nil
		}
		return 0, nil
	})
}

func (s *Status) appendTo(b []byte) []byte {
	b = appendInt32(b, fieldStatusCode, s.Code)
	b = appendString(b, fieldStatusMessage, s.Message)
	return b
}

func (s *Status) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldStatusCode && typ == protowire.VarintType:
			return consumeInt32(b, &s.Code), nil
		case num == fieldStatusMessage && typ == protowire.BytesType:
			return consumeString(b, &s.Message), nil
		}
		return 0, nil
	})
}

func (r *StreamingRecognitionResult) appendTo(b []byte) []byte {
	for _, alt := range r.Alternatives {
		if alt == nil {
			alt = &SpeechRecognitionAlternative{}
		}
		b = appendMessage(b, fieldResultAlternatives, alt.appendTo(nil))
	}
	b = appendBool(b, fieldResultIsFinal, r.IsFinal)
	return b
}

func (r *StreamingRecognitionResult) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldResultAlternatives && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			alt := &SpeechRecognitionAlternative{}
			if err := alt.unmarshal(v); err != nil {
				return 0, fmt.Errorf("alternatives: %w", err)
			}
			r.Alternatives = append(r.Alternatives, alt)
			return n, nil
		case num == fieldResultIsFinal && typ == protowire.VarintType:
			return consumeBool(b, &r.IsFinal), nil
		}
		return 0, nil
	})
}

func (a *SpeechRecognitionAlternative) appendTo(b []byte) []byte {
	b = appendString(b, fieldAlternativeTranscript, a.Transcript)
	b = appendFloat(b, fieldAlternativeConfidence, a.Confidence)
	return b
}

func (a *SpeechRecognitionAlternative) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldAlternativeTranscript && typ == protowire.BytesType:
			return consumeString(b, &a.Transcript), nil
		case num == fieldAlternativeConfidence && typ == protowire.Fixed32Type:
			return consumeFloat(b, &a.Confidence), nil
		}
		return 0, nil
	})
}

// consumeFields walks the fields of one message. fn returns how many bytes of
// the field value it consumed, 0 for fields it does not know (they are
// skipped), or a negative protowire error code.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func consumeInt32(b []byte, dst *int32) int {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = int32(v)
	}
	return n
}

func consumeBool(b []byte, dst *bool) int {
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n
}

func consumeString(b []byte, dst *string) int {
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeFloat(b []byte, dst *float32) int {
	v, n := protowire.ConsumeFixed32(b)
	if n >= 0 {
		*dst = math.Float32frombits(v)
	}
	return n
}
