package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/disburse"
	"github.com/venu630/bequest/ext"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Email beneficiaries when funds are disbursed",
	Long: `listen consumes disbursement events from NATS JetStream and emails
each beneficiary. It needs NATS_URL and the SMTP settings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runListen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Int("concurrency", 4, "notifications sent in parallel")
}

func runListen(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return fmt.Errorf("failed to get concurrency flag: %w", err)
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("%w: NATS_URL is required", bequest.ErrConfig)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.New("smtp is not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, js, err := disburse.Connect(cfg.NATS.URL, logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	extensions := ext.NewRegistry(logger)
	extensions.Register(newAudit(logger))

	l := disburse.NewListener(sender,
		disburse.WithEmitter(extensions),
		disburse.WithLogger(logger),
		disburse.WithConcurrency(concurrency),
	)
	if err := l.Run(ctx, disburse.NewNATSSource(js, natsConfig(cfg), logger)); err != nil {
		return err
	}
	logger.Info("listener stopped", slog.String("stream", cfg.NATS.Stream))
	return nil
}
