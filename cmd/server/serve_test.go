package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/notify"
)

type closingSub struct {
	mu     sync.Mutex
	closed bool
}

func (s *closingSub) Send(context.Context, []byte) error { return nil }

func (s *closingSub) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *closingSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestDrainClosesLateSubscribers(t *testing.T) {
	hub := notify.NewHub(time.Second, logging.Discard())
	early, late := &closingSub{}, &closingSub{}
	hub.Register(early)

	started := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		// registers after drain has made its first pass over the hub
		time.Sleep(100 * time.Millisecond)
		hub.Register(late)
		w.WriteHeader(http.StatusOK)
	})}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(lis)

	done := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + lis.Addr().String() + "/ws")
		if err == nil {
			resp.Body.Close()
		}
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	drain(ctx, srv, hub, logging.Discard())

	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Logf("in-flight request: %v", err)
	}
	if hub.Len() != 0 {
		t.Errorf("subscribers left after drain: %d", hub.Len())
	}
	if !early.isClosed() || !late.isClosed() {
		t.Errorf("closed early=%v late=%v", early.isClosed(), late.isClosed())
	}
}
