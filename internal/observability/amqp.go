package observability

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes JSON events to the relay's topic exchange.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error
	Close() error
}

// NewPublisher connects to the broker, or degrades to a noop publisher when
// AMQP is disabled or unreachable. The relay starts either way; event
// publishing is best-effort.
func NewPublisher(url, exchange string, logger *zap.SugaredLogger) Publisher {
	if url == "" {
		logger.Infow("amqp disabled, events dropped", "reason", "empty amqp url")
		return noopPublisher{logger: logger}
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Warnw("amqp unreachable, events dropped", "error", err)
		return noopPublisher{logger: logger}
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		logger.Warnw("amqp channel failed, events dropped", "error", err)
		return noopPublisher{logger: logger}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		logger.Warnw("amqp exchange declare failed, events dropped", "exchange", exchange, "error", err)
		return noopPublisher{logger: logger}
	}

	logger.Infow("amqp connected", "exchange", exchange)
	return &amqpPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.SugaredLogger
}

func (p *amqpPublisher) PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	amqpHeaders := amqp.Table{}
	for key, value := range headers {
		amqpHeaders[key] = value
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqpHeaders,
	})
	if err != nil {
		p.logger.Warnw("amqp publish failed", "routing_key", routingKey, "error", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// noopPublisher drops events, leaving a debug trace of what was dropped.
type noopPublisher struct {
	logger *zap.SugaredLogger
}

func (n noopPublisher) PublishJSON(_ context.Context, routingKey string, message any, _ map[string]string) error {
	switch envelope := message.(type) {
	case EventEnvelope:
		n.logger.Debugw("amqp noop publish", "routing_key", routingKey, "event_type", envelope.EventType, "event_name", envelope.EventName)
	default:
		n.logger.Debugw("amqp noop publish", "routing_key", routingKey)
	}
	return nil
}

func (noopPublisher) Close() error { return nil }

// Mode reports whether events actually reach a broker, for startup logging.
func Mode(p Publisher) string {
	if _, ok := p.(*amqpPublisher); ok {
		return "amqp"
	}
	return "noop"
}

var defaultPublisher Publisher

// SetPublisher installs the process-wide publisher used by PublishEvent.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent publishes through the installed publisher; without one the
// event is dropped silently.
func PublishEvent(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.PublishJSON(ctx, routingKey, message, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
