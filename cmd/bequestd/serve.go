package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/api"
	"github.com/venu630/bequest/disburse"
	"github.com/venu630/bequest/engine"
	"github.com/venu630/bequest/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the allocation API",
	Long: `serve runs the HTTP API of the allocation workflow. When SMTP is
configured it also emails beneficiaries of disbursements posted to
/v1/disbursements, and of those arriving on NATS when NATS_URL is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Duration("op-timeout", 30*time.Second, "timeout of each ledger, pinning or mail call")
	serveCmd.Flags().Bool("audit", true, "log an audit record for every workflow and submission event")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	opTimeout, err := cmd.Flags().GetDuration("op-timeout")
	if err != nil {
		return fmt.Errorf("failed to get op-timeout flag: %w", err)
	}
	audit, err := cmd.Flags().GetBool("audit")
	if err != nil {
		return fmt.Errorf("failed to get audit flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("store close error", slog.String("error", err.Error()))
		}
	}()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}

	c, err := bequest.New(
		bequest.WithConfig(cfg),
		bequest.WithLogger(logger),
		bequest.WithStore(st),
	)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	pinner, err := newPinner(cfg, logger)
	if err != nil {
		return err
	}
	ldg, err := newLedger(cfg, logger)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithLedger(ldg),
		engine.WithPinner(pinner),
		engine.WithSender(sender),
		engine.WithOperationTimeout(opTimeout),
	}
	if audit {
		opts = append(opts, engine.WithExtension(newAudit(logger)))
	}
	eng, err := engine.Build(c, opts...)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	app := api.New(eng, api.WithLogger(logger)).App()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("bequest api listening", slog.String("addr", cfg.Addr))
		return app.Listen(cfg.Addr)
	})
	if sender != nil {
		g.Go(func() error {
			return listen(gctx, cfg, eng, logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := shutdownContext(cfg)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("http shutdown error", slog.String("error", err.Error()))
		}
		if err := eng.Stop(shutdownCtx); err != nil {
			logger.Error("engine shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("goodbye")
	return nil
}

// listen runs the disbursement listener until ctx ends. Events posted to
// the API arrive on the event bus; NATS is consumed as well when configured.
func listen(ctx context.Context, cfg bequest.Config, eng *engine.Engine, logger *slog.Logger) error {
	l := disburse.NewListener(eng.Sender(),
		disburse.WithEmitter(eng.Extensions()),
		disburse.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(gctx, disburse.NewBusSource(eng.EventBus(), logger))
	})
	if cfg.NATS.URL != "" {
		nc, js, err := disburse.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		g.Go(func() error {
			return l.Run(gctx, disburse.NewNATSSource(js, natsConfig(cfg), logger))
		})
	}
	return g.Wait()
}

func natsConfig(cfg bequest.Config) disburse.NATSConfig {
	return disburse.NATSConfig{
		Stream:  cfg.NATS.Stream,
		Subject: cfg.NATS.Subject,
		Durable: cfg.NATS.Durable,
	}
}
