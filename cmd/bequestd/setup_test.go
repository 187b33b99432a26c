package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/ext"
	"github.com/venu630/bequest/ledger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAudit_RegistersAsExtension(t *testing.T) {
	a := newAudit(quietLogger())
	if a.Name() != "audit-hook" {
		t.Errorf("Name = %q, want audit-hook", a.Name())
	}

	r := ext.NewRegistry(quietLogger())
	r.Register(a)
	if got := r.Extensions(); len(got) != 1 {
		t.Errorf("registered %d extensions, want 1", len(got))
	}
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "loud", "")
	if _, err := newLogger(cmd); err == nil {
		t.Fatal("expected an error for an unknown level")
	}

	cmd = &cobra.Command{}
	cmd.Flags().String("log-level", "debug", "")
	if _, err := newLogger(cmd); err != nil {
		t.Fatalf("newLogger(debug): %v", err)
	}
}

func TestCollaborators_UnconfiguredDefaults(t *testing.T) {
	var cfg bequest.Config

	sender, err := newSender(cfg, quietLogger())
	if err != nil || sender != nil {
		t.Errorf("newSender = %v, %v; want nil, nil", sender, err)
	}
	pinner, err := newPinner(cfg, quietLogger())
	if err != nil || pinner != nil {
		t.Errorf("newPinner = %v, %v; want nil, nil", pinner, err)
	}
	ldg, err := newLedger(cfg, quietLogger())
	if err != nil {
		t.Fatalf("newLedger: %v", err)
	}
	if _, ok := ldg.(*ledger.Memory); !ok {
		t.Errorf("newLedger = %T, want *ledger.Memory", ldg)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	for _, name := range []string{"serve", "listen"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
}
