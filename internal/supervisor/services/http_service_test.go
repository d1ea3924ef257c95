// Cinegraph - Movie Knowledge Graph Recommendation Engine
// Copyright 2026 Cinegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeServer simulates http.Server lifecycle.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	stopCh      chan struct{}
	shutdowns   int
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopCh: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopCh
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns++
	close(f.stopCh)
	return f.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if srv.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", srv.shutdowns)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("port in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() error = %v, want listen failure", err)
	}
}

func TestHTTPServiceString(t *testing.T) {
	if got := NewHTTPServerService(newFakeServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}
