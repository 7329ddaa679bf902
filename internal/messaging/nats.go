package messaging

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSProducer publishes audit events to a NATS subject.
type NATSProducer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSProducer(url string, subject string, logger *slog.Logger) (*NATSProducer, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &NATSProducer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

func (p *NATSProducer) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal audit event", "error", err)
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Error("failed to publish audit event to NATS", "error", err)
		return err
	}

	p.logger.Debug("audit event published", "subject", p.subject, "type", event.Type)
	return nil
}

func (p *NATSProducer) Close() error {
	p.conn.Close()
	return nil
}
