package relay

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/notify"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes to a durable topic exchange with routing key
// appointment.<kind>.
type AMQP struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

func DialAMQP(cfg config.AMQPConfig) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	a := newAMQP(ch, cfg.Exchange)
	a.conn = conn
	return a, nil
}

func newAMQP(ch amqpChannel, exchange string) *AMQP {
	return &AMQP{ch: ch, exchange: exchange}
}

func (a *AMQP) Name() string { return "amqp" }

func (a *AMQP) Publish(ctx context.Context, ev notify.Event, payload []byte) error {
	return a.ch.PublishWithContext(ctx, a.exchange, "appointment."+suffix(ev.Kind), false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         string(ev.Kind),
			Body:         payload,
		})
}

func (a *AMQP) Close() error {
	err := a.ch.Close()
	if a.conn != nil {
		if cerr := a.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
