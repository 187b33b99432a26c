package event_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/store/memory"
)

func TestBus_PublishSubscribe(t *testing.T) {
	s := memory.New()
	bus := event.NewBus(s, event.WithSource("ledger"))

	ctx := context.Background()

	evt, err := bus.Publish(ctx, event.NameFundsDisbursed, []byte(`{"amount":"1"}`))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if evt.Name != event.NameFundsDisbursed {
		t.Errorf("Name = %q, want %q", evt.Name, event.NameFundsDisbursed)
	}
	if evt.Source != "ledger" {
		t.Errorf("Source = %q, want %q", evt.Source, "ledger")
	}

	got, err := bus.Subscribe(ctx, event.NameFundsDisbursed, time.Second)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.ID != evt.ID {
		t.Errorf("event ID = %s, want %s", got.ID, evt.ID)
	}
	if string(got.Payload) != `{"amount":"1"}` {
		t.Errorf("Payload = %q", string(got.Payload))
	}
}

func TestBus_PublishJSON(t *testing.T) {
	bus := event.NewBus(memory.New())
	ctx := context.Background()

	type payload struct {
		TxRef string `json:"tx_ref"`
	}
	evt, err := bus.PublishJSON(ctx, event.NameWillSubmitted, payload{TxRef: "0xabc"})
	if err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	var decoded payload
	if err := json.Unmarshal(evt.Payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TxRef != "0xabc" {
		t.Errorf("TxRef = %q", decoded.TxRef)
	}
}

func TestBus_PublishJSONRejectsUnmarshalable(t *testing.T) {
	bus := event.NewBus(memory.New())
	if _, err := bus.PublishJSON(context.Background(), "bad", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestBus_SubscribeTimeout(t *testing.T) {
	bus := event.NewBus(memory.New())

	got, err := bus.Subscribe(context.Background(), "nonexistent", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil event on timeout, got %+v", got)
	}
}

func TestBus_Ack(t *testing.T) {
	bus := event.NewBus(memory.New())
	ctx := context.Background()

	evt, err := bus.Publish(ctx, "ack-test", nil)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if ackErr := bus.Ack(ctx, evt.ID); ackErr != nil {
		t.Fatalf("Ack: %v", ackErr)
	}

	got, err := bus.Subscribe(ctx, "ack-test", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Subscribe after ack: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after ack, got %+v", got)
	}
}
