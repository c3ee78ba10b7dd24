// Package snd loads audio payloads for streaming.
package snd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

var ErrNotWAV = errors.New("not a RIFF/WAVE payload")

const (
	FormatPCM        = 1
	FormatExtensible = 0xFFFE
)

// Header is the subset of a RIFF/WAVE header the client cares about.
type Header struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
	// DataOffset is where the data chunk payload starts, 0 if the data chunk
	// was not found.
	DataOffset int
	DataSize   uint32
}

// Audio is a payload read fully into memory. Header is nil when the payload
// is not a WAV file or its header does not parse; Data is always the file
// exactly as read.
type Audio struct {
	Path   string
	Data   []byte
	Header *Header
	// HeaderErr is set when the payload claims RIFF/WAVE but the header is
	// malformed.
	HeaderErr error
}

func ReadFile(path string) (*Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	audio := &Audio{Path: path, Data: data}
	header, err := ParseHeader(data)
	switch {
	case err == nil:
		audio.Header = header
	case errors.Is(err, ErrNotWAV):
	default:
		audio.HeaderErr = fmt.Errorf("parse %s: %w", path, err)
	}

	return audio, nil
}

// ParseHeader walks the RIFF chunks of data up to the data chunk.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var h Header
	var sawFmt bool
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			h.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			h.NumChannels = binary.LittleEndian.Uint16(data[body+2:])
			h.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			h.BitsPerSample = binary.LittleEndian.Uint16(data[body+14:])
			sawFmt = true
		case "data":
			if !sawFmt {
				return nil, errors.New("data chunk before fmt chunk")
			}
			h.DataOffset = body
			h.DataSize = size
			return &h, nil
		}

		// chunks are word aligned
		next := body + int(size) + int(size&1)
		if next <= off {
			break
		}
		off = next
	}

	if !sawFmt {
		return nil, errors.New("missing fmt chunk")
	}
	return &h, nil
}

// Mismatches describes how h differs from 16-bit mono PCM at sampleRate.
func (h *Header) Mismatches(sampleRate int) []string {
	var out []string
	if h.AudioFormat != FormatPCM && h.AudioFormat != FormatExtensible {
		out = append(out, fmt.Sprintf("audio format %d is not PCM", h.AudioFormat))
	}
	if int(h.SampleRate) != sampleRate {
		out = append(out, fmt.Sprintf("file sample rate %d Hz, streaming at %d Hz", h.SampleRate, sampleRate))
	}
	if h.NumChannels != 1 {
		out = append(out, fmt.Sprintf("%d channels, expected mono", h.NumChannels))
	}
	if h.BitsPerSample != 16 {
		out = append(out, fmt.Sprintf("%d bits per sample, expected 16", h.BitsPerSample))
	}
	return out
}

// Duration of the data chunk in seconds, 0 when unknown.
func (h *Header) Duration() float64 {
	bytesPerSecond := float64(h.SampleRate) * float64(h.NumChannels) * float64(h.BitsPerSample) / 8
	if bytesPerSecond == 0 || h.DataOffset == 0 {
		return 0
	}
	return float64(h.DataSize) / bytesPerSecond
}
