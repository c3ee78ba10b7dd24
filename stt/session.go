package stt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/metadata"
	"node.town/asrstream/etc"
	"node.town/asrstream/speechpb"
)

const RequestIDHeader = "x-request-id"

// Session runs one StreamingRecognize call: the pacer feeds the stream while
// the handler reads it, until the audio and the server are both done or the
// handler terminates the session.
type Session struct {
	ID      string
	client  speechpb.SpeechClient
	pacer   *Pacer
	logger  *log.Logger
	handler *Handler
}

func NewSession(
	client speechpb.SpeechClient,
	pacer *Pacer,
	logger *log.Logger,
) *Session {
	id := etc.NewFreshID()
	logger = logger.With("session", id)
	return &Session{
		ID:     id,
		client: client,
		pacer:  pacer.WithLogger(logger),
		logger: logger,
	}
}

// Run blocks until the session is over. A recognition error reported by the
// server ends the session but is not returned; see Err.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Cancelling streamCtx closes both directions of the stream.
	streamCtx, terminate := context.WithCancel(gctx)
	defer terminate()

	s.handler = NewHandler(s.logger, terminate)

	stream, err := s.client.StreamingRecognize(
		metadata.AppendToOutgoingContext(streamCtx, RequestIDHeader, s.ID),
	)
	if err != nil {
		return fmt.Errorf("open recognition stream: %w", err)
	}

	s.logger.Info(
		"streaming",
		"bytes",
		s.pacer.AudioBytes(),
		"chunks",
		s.pacer.Chunks(),
		"chunk_bytes",
		s.pacer.ChunkBytes(),
	)

	g.Go(func() error {
		err := s.pacer.Pace(streamCtx, stream.Send)
		switch {
		case streamCtx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			// the server closed the stream, Recv reports why
			return nil
		case err != nil:
			return err
		}
		if err := stream.CloseSend(); err != nil {
			return fmt.Errorf("close send: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				s.logger.Debug("server closed the stream")
				terminate()
				return nil
			}
			if err != nil {
				if s.handler.Terminated() {
					return nil
				}
				return fmt.Errorf("receive recognition events: %w", err)
			}
			if !s.handler.Handle(resp) {
				return nil
			}
		}
	})

	return g.Wait()
}

// Err is the recognition error that ended the last Run, or nil.
func (s *Session) Err() *RecognitionError {
	if s.handler == nil {
		return nil
	}
	return s.handler.Err()
}

// Results are the final transcripts of the last Run.
func (s *Session) Results() []Result {
	if s.handler == nil {
		return nil
	}
	return s.handler.Results()
}
