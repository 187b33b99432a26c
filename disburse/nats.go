package disburse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig names the JetStream stream, subject and durable consumer.
type NATSConfig struct {
	Stream  string
	Subject string
	Durable string
}

// Connect dials NATS at url and opens a JetStream context.
func Connect(url string, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("bequest"),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(5),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("bequest/disburse: connect to nats at %s: %w", url, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("bequest/disburse: jetstream: %w", err)
	}
	return nc, js, nil
}

// NATSSource consumes FundsDisbursed events from a durable JetStream
// consumer. The stream is created when missing.
type NATSSource struct {
	js     jetstream.JetStream
	cfg    NATSConfig
	logger *slog.Logger
}

// NewNATSSource creates a source over js.
func NewNATSSource(js jetstream.JetStream, cfg NATSConfig, logger *slog.Logger) *NATSSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSSource{js: js, cfg: cfg, logger: logger}
}

// Run implements Source.
func (s *NATSSource) Run(ctx context.Context, handle Handler) error {
	stream, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     s.cfg.Stream,
		Subjects: []string{s.cfg.Subject},
	})
	if err != nil {
		return fmt.Errorf("bequest/disburse: ensure stream %s: %w", s.cfg.Stream, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       s.cfg.Durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: s.cfg.Subject,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("bequest/disburse: ensure consumer %s: %w", s.cfg.Durable, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		fd, err := decode(msg.Data())
		if err != nil {
			s.logger.Warn("dropping malformed event",
				slog.String("subject", msg.Subject()),
				slog.String("error", err.Error()),
			)
			_ = msg.Term() //nolint:errcheck // best effort
			return
		}
		handle(ctx, fd)
		if err := msg.Ack(); err != nil {
			s.logger.Warn("ack failed", slog.String("error", err.Error()))
		}
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		s.logger.Warn("consume error", slog.String("error", err.Error()))
	}))
	if err != nil {
		return fmt.Errorf("bequest/disburse: consume: %w", err)
	}

	<-ctx.Done()
	cc.Stop()
	return nil
}

func decode(data []byte) (FundsDisbursed, error) {
	var fd FundsDisbursed
	if err := json.Unmarshal(data, &fd); err != nil {
		return FundsDisbursed{}, err
	}
	if fd.TxHash == "" {
		return FundsDisbursed{}, errors.New("missing transactionHash")
	}
	return fd, nil
}
