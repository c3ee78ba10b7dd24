// Package stt streams audio to a speech.Speech server and follows the
// recognition events it sends back.
package stt

import (
	"errors"
	"fmt"
	"time"
)

type ResultKind string

const (
	KindSpeechEnd ResultKind = "speech_end"
	KindFinal     ResultKind = "final_result"
)

// Result is a final transcript logged during a session.
type Result struct {
	Kind       ResultKind
	Text       string
	Confidence float64
	// Offset from the start of the session.
	Offset time.Duration
}

var ErrConnectionTimeout = errors.New("connection timeout")

type ConnectionTimeoutError struct {
	Host    string
	Timeout time.Duration
	State   string
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf(
		"server %s not ready after %s (last state %s)",
		e.Host,
		e.Timeout,
		e.State,
	)
}

func (e *ConnectionTimeoutError) Is(target error) bool {
	return target == ErrConnectionTimeout
}

// RecognitionError is an error reported by the server inside a response.
type RecognitionError struct {
	Code    int32
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error %d: %s", e.Code, e.Message)
}
