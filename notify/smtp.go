package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"
)

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// transport is the part of *mail.Client the sender uses.
type transport interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// SMTPSender sends notifications over SMTP. Sends are rate limited; a
// send waits for a token or for ctx to end.
type SMTPSender struct {
	client  transport
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithRateLimit limits sends to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) SMTPOption {
	return func(s *SMTPSender) { s.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the sender logger.
func WithLogger(l *slog.Logger) SMTPOption {
	return func(s *SMTPSender) { s.logger = l }
}

// DefaultRate is the default send rate in messages per second.
const DefaultRate = rate.Limit(5)

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg SMTPConfig, opts ...SMTPOption) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("bequest/notify: smtp host and from address are required")
	}

	mopts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if cfg.Port > 0 {
		mopts = append(mopts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		mopts = append(mopts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, mopts...)
	if err != nil {
		return nil, fmt.Errorf("bequest/notify: create smtp client: %w", err)
	}
	return newSMTPSender(client, cfg.From, opts...), nil
}

func newSMTPSender(client transport, from string, opts ...SMTPOption) *SMTPSender {
	s := &SMTPSender{
		client:  client,
		from:    from,
		limiter: rate.NewLimiter(DefaultRate, 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one notification.
func (s *SMTPSender) Send(ctx context.Context, req Request) (*Result, error) {
	fail := func(err error) (*Result, error) {
		s.logger.Warn("notification failed",
			slog.String("recipient", req.RecipientEmail),
			slog.String("error", err.Error()),
		)
		return nil, &DeliveryError{Recipient: req.RecipientEmail, Err: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	msg, err := s.message(req)
	if err != nil {
		return fail(err)
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fail(err)
	}

	res := &Result{Success: true, MessageID: messageID(msg)}
	s.logger.Info("notification sent",
		slog.String("recipient", req.RecipientEmail),
		slog.String("message_id", res.MessageID),
	)
	return res, nil
}

func (s *SMTPSender) message(req Request) (*mail.Msg, error) {
	text, html, err := Render(req)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(req.RecipientEmail); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(Subject)
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}

func messageID(msg *mail.Msg) string {
	ids := msg.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return strings.Trim(ids[0], "<>")
}
