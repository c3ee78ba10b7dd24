package stt

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"node.town/asrstream/speechpb"
)

const (
	DefaultInterval = 40 * time.Millisecond
	BytesPerSample  = 2
)

// ChunkBytes is how many bytes of 16-bit mono audio at sampleRate cover one
// interval.
func ChunkBytes(sampleRate int, interval time.Duration) int {
	return sampleRate * BytesPerSample * int(interval/time.Millisecond) / 1000
}

// Pacer sends the streaming config followed by the audio in interval sized
// chunks, one chunk per interval, like a live capture would.
type Pacer struct {
	config   *speechpb.StreamingRecognitionConfig
	audio    []byte
	interval time.Duration
	chunk    int
	logger   *log.Logger
}

func NewPacer(
	config *speechpb.StreamingRecognitionConfig,
	audio []byte,
	sampleRate int,
	interval time.Duration,
	logger *log.Logger,
) (*Pacer, error) {
	if config == nil {
		return nil, fmt.Errorf("streaming config is required")
	}
	chunk := ChunkBytes(sampleRate, interval)
	if chunk <= 0 {
		return nil, fmt.Errorf(
			"no audio fits in %s at %d Hz",
			interval,
			sampleRate,
		)
	}

	return &Pacer{
		config:   config,
		audio:    audio,
		interval: interval,
		chunk:    chunk,
		logger:   logger,
	}, nil
}

// WithLogger returns a copy of p that logs to logger.
func (p *Pacer) WithLogger(logger *log.Logger) *Pacer {
	c := *p
	c.logger = logger
	return &c
}

// AudioBytes is the size of the whole payload.
func (p *Pacer) AudioBytes() int {
	return len(p.audio)
}

func (p *Pacer) ChunkBytes() int {
	return p.chunk
}

// Chunks is the number of audio messages a full run sends.
func (p *Pacer) Chunks() int {
	return (len(p.audio) + p.chunk - 1) / p.chunk
}

// Pace hands the config message and then each audio chunk to send. It returns
// nil once the audio is exhausted or ctx is done; ctx is checked before every
// chunk and interrupts the wait between chunks.
func (p *Pacer) Pace(
	ctx context.Context,
	send func(*speechpb.StreamingRecognizeRequest) error,
) error {
	err := send(&speechpb.StreamingRecognizeRequest{StreamingConfig: p.config})
	if err != nil {
		return fmt.Errorf("send streaming config: %w", err)
	}

	offset := 0
	for {
		if ctx.Err() != nil {
			p.quit(offset)
			return nil
		}
		if offset >= len(p.audio) {
			p.logger.Debug("audio exhausted", "bytes", offset)
			return nil
		}

		end := min(offset+p.chunk, len(p.audio))
		err := send(&speechpb.StreamingRecognizeRequest{AudioContent: p.audio[offset:end]})
		if err != nil {
			if ctx.Err() != nil {
				p.quit(offset)
				return nil
			}
			return fmt.Errorf("send audio at offset %d: %w", offset, err)
		}
		offset = end

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (p *Pacer) quit(sent int) {
	p.logger.Info("quit sending audio", "sent", sent, "total", len(p.audio))
}
