package stt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"node.town/asrstream/speechpb"
)

// scriptedServer answers audio chunks with canned responses and records what
// it received. Fields are safe to read once done is closed.
type scriptedServer struct {
	onAudio func(chunk int) []*speechpb.StreamingRecognizeResponse
	atEOF   []*speechpb.StreamingRecognizeResponse

	first     *speechpb.StreamingRecognizeRequest
	audio     []byte
	chunks    int
	requestID string
	done      chan struct{}
}

func newScriptedServer() *scriptedServer {
	return &scriptedServer{done: make(chan struct{})}
}

func (s *scriptedServer) StreamingRecognize(stream speechpb.RecognizeServerStream) error {
	defer close(s.done)

	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 {
			s.requestID = ids[0]
		}
	}

	first, err := stream.Recv()
	if err != nil {
		return err
	}
	s.first = first

	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			for _, resp := range s.atEOF {
				if err := stream.Send(resp); err != nil {
					return err
				}
			}
			return nil
		}
		if err != nil {
			return err
		}

		s.audio = append(s.audio, req.GetAudioContent()...)
		s.chunks++
		if s.onAudio == nil {
			continue
		}
		for _, resp := range s.onAudio(s.chunks) {
			if err := stream.Send(resp); err != nil {
				return err
			}
		}
	}
}

func (s *scriptedServer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("server handler did not finish")
	}
}

func startServer(t *testing.T, srv speechpb.SpeechServer) speechpb.SpeechClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ForceServerCodec(speechpb.Codec{}))
	speechpb.RegisterSpeechServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := Dial(
		context.Background(),
		"passthrough:///bufnet",
		5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return speechpb.NewSpeechClient(conn)
}

func newTestSession(t *testing.T, client speechpb.SpeechClient, audio []byte, interval time.Duration) (*Session, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	logger := log.New(&logs)
	pacer, err := NewPacer(testConfig, audio, 16000, interval, logger)
	if err != nil {
		t.Fatalf("NewPacer: %v", err)
	}
	return NewSession(client, pacer, logger), &logs
}

func TestSessionStreamsWholeFile(t *testing.T) {
	srv := newScriptedServer()
	srv.onAudio = func(chunk int) []*speechpb.StreamingRecognizeResponse {
		if chunk == 2 {
			return []*speechpb.StreamingRecognizeResponse{event(speechpb.SpeechEventUnspecified, "partial")}
		}
		return nil
	}
	srv.atEOF = []*speechpb.StreamingRecognizeResponse{
		event(speechpb.ContinuousDecodingEndOfUtterance, "the whole file"),
	}

	audio := testAudio(1000)
	session, logs := newTestSession(t, startServer(t, srv), audio, time.Millisecond)

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	srv.wait(t)

	if srv.first.GetStreamingConfig() == nil {
		t.Fatal("first request was not the streaming config")
	}
	if srv.first.GetStreamingConfig().Config.SampleRate != 16000 {
		t.Errorf("config sample rate %d", srv.first.GetStreamingConfig().Config.SampleRate)
	}
	if !bytes.Equal(srv.audio, audio) {
		t.Errorf("server received %d bytes, want the %d byte file", len(srv.audio), len(audio))
	}
	if srv.chunks != (1000+31)/32 {
		t.Errorf("server received %d chunks", srv.chunks)
	}
	if srv.requestID != session.ID || session.ID == "" {
		t.Errorf("request id %q, session id %q", srv.requestID, session.ID)
	}

	results := session.Results()
	if len(results) != 1 || results[0].Text != "the whole file" {
		t.Errorf("Results() = %+v", results)
	}
	if !bytes.Contains(logs.Bytes(), []byte("partial")) {
		t.Errorf("partial result not logged: %q", logs.String())
	}
}

func TestSessionEndsOnSpeechEnd(t *testing.T) {
	srv := newScriptedServer()
	srv.onAudio = func(chunk int) []*speechpb.StreamingRecognizeResponse {
		if chunk == 2 {
			return []*speechpb.StreamingRecognizeResponse{
				event(speechpb.SpeechEventUnspecified, "hello"),
				event(speechpb.EndOfSingleUtterance, "hello world"),
			}
		}
		return nil
	}

	// 100 chunks of 5ms would take half a second
	audio := testAudio(160 * 100)
	session, logs := newTestSession(t, startServer(t, srv), audio, 5*time.Millisecond)

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	srv.wait(t)

	if srv.chunks >= 100 {
		t.Errorf("server received all %d chunks after the speech end", srv.chunks)
	}
	results := session.Results()
	if len(results) != 1 || results[0].Kind != KindSpeechEnd || results[0].Text != "hello world" {
		t.Errorf("Results() = %+v", results)
	}
	if session.Err() != nil {
		t.Errorf("Err() = %v", session.Err())
	}
	if !bytes.Contains(logs.Bytes(), []byte("quit sending audio")) {
		t.Errorf("pacer did not report stopping early: %q", logs.String())
	}
}

func TestSessionRecognitionError(t *testing.T) {
	srv := newScriptedServer()
	srv.onAudio = func(chunk int) []*speechpb.StreamingRecognizeResponse {
		if chunk == 1 {
			return []*speechpb.StreamingRecognizeResponse{
				failure(5, "bad audio"),
				event(speechpb.SpeechEventUnspecified, "should not be logged"),
			}
		}
		return nil
	}

	session, logs := newTestSession(t, startServer(t, srv), testAudio(160*100), 5*time.Millisecond)

	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run returned %v, a recognition error must end the session cleanly", err)
	}
	srv.wait(t)

	rerr := session.Err()
	if rerr == nil || rerr.Code != 5 {
		t.Fatalf("Err() = %v, want code 5", rerr)
	}
	if bytes.Contains(logs.Bytes(), []byte("should not be logged")) {
		t.Errorf("event after the error was handled: %q", logs.String())
	}
}

type failingServer struct{}

func (failingServer) StreamingRecognize(stream speechpb.RecognizeServerStream) error {
	return errors.New("model unavailable")
}

func TestSessionTransportError(t *testing.T) {
	session, _ := newTestSession(t, startServer(t, failingServer{}), testAudio(320), time.Millisecond)

	err := session.Run(context.Background())
	if err == nil {
		t.Fatal("expected the stream status to surface as an error")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("model unavailable")) {
		t.Errorf("error %q does not carry the server status", err)
	}
}
