package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial connects to host without transport security and waits up to timeout
// for the channel to become ready. It does not retry past the timeout.
func Dial(
	ctx context.Context,
	host string,
	timeout time.Duration,
	opts ...grpc.DialOption,
) (*grpc.ClientConn, error) {
	opts = append(
		[]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		opts...,
	)

	conn, err := grpc.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", host, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return conn, nil
		}
		if conn.WaitForStateChange(ctx, state) {
			continue
		}

		conn.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ConnectionTimeoutError{
				Host:    host,
				Timeout: timeout,
				State:   state.String(),
			}
		}
		return nil, ctx.Err()
	}
}
