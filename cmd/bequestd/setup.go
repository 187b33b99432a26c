package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/venu630/bequest"
	audithook "github.com/venu630/bequest/audit_hook"
	"github.com/venu630/bequest/ledger"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/pin"
)

// loadConfig reads the dotenv files named by --env and the environment.
func loadConfig(cmd *cobra.Command) (bequest.Config, error) {
	files, err := cmd.Flags().GetStringSlice("env")
	if err != nil {
		return bequest.Config{}, fmt.Errorf("failed to get env flag: %w", err)
	}
	return bequest.LoadConfig(files...)
}

// newLogger builds the JSON process logger at the --log-level level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})), nil
}

// newSender returns the SMTP sender, or nil when SMTP is not configured.
func newSender(cfg bequest.Config, logger *slog.Logger) (notify.Sender, error) {
	if !cfg.SMTP.Enabled() {
		logger.Warn("smtp not configured, notifications disabled")
		return nil, nil
	}
	opts := []notify.SMTPOption{notify.WithLogger(logger)}
	if cfg.SMTP.RatePerSecond > 0 {
		opts = append(opts, notify.WithRateLimit(rate.Limit(cfg.SMTP.RatePerSecond), 1))
	}
	s, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}
	return s, nil
}

// newPinner returns the Pinata pinner, or nil when no credential is set.
func newPinner(cfg bequest.Config, logger *slog.Logger) (pin.Pinner, error) {
	if !cfg.Pinata.Enabled() {
		logger.Warn("pinata not configured, document upload disabled")
		return nil, nil
	}
	p, err := pin.NewPinata(pin.Credentials{
		JWT:       cfg.Pinata.JWT,
		APIKey:    cfg.Pinata.APIKey,
		APISecret: cfg.Pinata.APISecret,
	}, pin.WithEndpoint(cfg.Pinata.Endpoint), pin.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("pinata: %w", err)
	}
	return p, nil
}

// newLedger returns the ledger gateway. Without an endpoint the in-memory
// ledger is used so the service stays usable in development.
func newLedger(cfg bequest.Config, logger *slog.Logger) (ledger.Ledger, error) {
	if !cfg.Ledger.Enabled() {
		logger.Warn("ledger endpoint not configured, using in-memory ledger")
		return ledger.NewMemory(), nil
	}
	opts := []ledger.GatewayOption{ledger.WithLogger(logger)}
	if cfg.Ledger.APIKey != "" {
		opts = append(opts, ledger.WithAPIKey(cfg.Ledger.APIKey))
	}
	g, err := ledger.NewGateway(cfg.Ledger.Endpoint, cfg.Ledger.ContractAddress, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger gateway: %w", err)
	}
	return g, nil
}

// newAudit returns the extension that writes audit records to the log.
func newAudit(logger *slog.Logger) *audithook.Extension {
	return audithook.New(audithook.NewSlogRecorder(logger), audithook.WithLogger(logger))
}

// shutdownContext bounds graceful shutdown by the configured timeout.
func shutdownContext(cfg bequest.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
}
