// Package relay forwards appointment events to external brokers. Each relay
// is a notify.Sink; none of them are required for the service to run.
package relay

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/notify"
)

// Relay is a sink that owns a broker connection.
type Relay interface {
	notify.Sink
	io.Closer
}

// Open connects every enabled relay. On error the relays opened so far are
// closed before returning.
func Open(cfg config.RelaysConfig, logger *logging.Logger) ([]Relay, error) {
	var out []Relay
	fail := func(name string, err error) ([]Relay, error) {
		CloseAll(out, logger)
		return nil, fmt.Errorf("%s relay: %w", name, err)
	}

	if cfg.MQTT.Enabled {
		r, err := DialMQTT(cfg.MQTT)
		if err != nil {
			return fail("mqtt", err)
		}
		out = append(out, r)
	}
	if cfg.AMQP.Enabled {
		r, err := DialAMQP(cfg.AMQP)
		if err != nil {
			return fail("amqp", err)
		}
		out = append(out, r)
	}
	if cfg.Redis.Enabled {
		r, err := DialRedis(cfg.Redis)
		if err != nil {
			return fail("redis", err)
		}
		out = append(out, r)
	}

	for _, r := range out {
		logger.Info("relay connected", "relay", r.Name())
	}
	return out, nil
}

// Sinks adapts relays for notify.NewHub.
func Sinks(rs []Relay) []notify.Sink {
	out := make([]notify.Sink, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func CloseAll(rs []Relay, logger *logging.Logger) {
	for _, r := range rs {
		if err := r.Close(); err != nil {
			logger.Warn("relay close", "relay", r.Name(), "error", err)
		}
	}
}

// suffix turns an event kind into a topic or routing key segment.
func suffix(k notify.Kind) string {
	return strings.ToLower(string(k))
}

var errNotConnected = errors.New("not connected")
