// Package notify fans appointment events out to connected subscribers and
// optional external relays.
//
// Delivery is best-effort: each send is bounded by a timeout and a failing
// destination is logged and skipped. Broadcast never returns an error since
// the mutation it announces has already committed.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"appointment-booking-api/internal/logging"
)

// Sink is an external destination fed the same payload as subscribers.
// Publish may be called from several broadcasts at once.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event, payload []byte) error
}

// Result counts the outcome of one broadcast.
type Result struct {
	Delivered int
	Failed    int
}

type Hub struct {
	*Registry
	mu      sync.Mutex // serialises broadcasts
	sinks   []Sink
	timeout time.Duration
	logger  *logging.Logger
}

// NewHub returns a hub whose per-destination sends are bounded by timeout.
func NewHub(timeout time.Duration, logger *logging.Logger, sinks ...Sink) *Hub {
	return &Hub{
		Registry: NewRegistry(),
		sinks:    sinks,
		timeout:  timeout,
		logger:   logger.With("component", "notify"),
	}
}

// Broadcast encodes ev once and sends the identical bytes to every subscriber
// registered at call time, then to each sink. Sends run sequentially so a
// subscriber sees events in the order Broadcast was called, and concurrent
// broadcasts reach every subscriber in the same order.
func (h *Hub) Broadcast(ctx context.Context, ev Event) Result {
	var res Result

	payload, err := ev.Encode()
	if err != nil {
		h.logger.Error("encode event", "event", ev.Kind, "id", ev.ID, "error", err)
		return res
	}

	// a caller going away must not cut delivery short
	base := context.WithoutCancel(ctx)

	h.mu.Lock()
	for _, sub := range h.Snapshot() {
		if err := h.send(base, sub, payload); err != nil {
			res.Failed++
			h.logger.Warn("subscriber send failed", "event", ev.Kind, "id", ev.ID, "error", err)
			continue
		}
		res.Delivered++
	}
	h.mu.Unlock()

	// relays run outside the lock so a slow broker cannot hold up the next
	// fan-out; their relative order across broadcasts is not guaranteed
	for _, sink := range h.sinks {
		if err := h.publish(base, sink, ev, payload); err != nil {
			h.logger.Warn("relay publish failed", "relay", sink.Name(), "event", ev.Kind, "id", ev.ID, "error", err)
		}
	}

	h.logger.Debug("broadcast", "event", ev.Kind, "id", ev.ID,
		"delivered", res.Delivered, "failed", res.Failed)
	return res
}

func (h *Hub) send(base context.Context, sub Subscriber, payload []byte) (err error) {
	ctx, cancel := context.WithTimeout(base, h.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return sub.Send(ctx, payload)
}

func (h *Hub) publish(base context.Context, sink Sink, ev Event, payload []byte) (err error) {
	ctx, cancel := context.WithTimeout(base, h.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publish panicked: %v", r)
		}
	}()
	return sink.Publish(ctx, ev, payload)
}

// Shutdown deregisters every subscriber and closes those that can be closed.
func (h *Hub) Shutdown() {
	for _, sub := range h.Snapshot() {
		h.Deregister(sub)
		if c, ok := sub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				h.logger.Debug("close subscriber", "error", err)
			}
		}
	}
}
