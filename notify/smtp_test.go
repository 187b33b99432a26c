package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/venu630/bequest"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []*mail.Msg
	err  error
}

func (f *fakeTransport) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func testRequest() Request {
	return Request{
		RecipientName:  "0x1234...abcd",
		RecipientEmail: "heir@example.com",
		OwnerName:      "Estate Owner",
		Amount:         "1.5",
		TransactionRef: "0xdeadbeef",
		DocumentName:   "Property Deed Document",
		DocumentRef:    "QmHash",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRender(t *testing.T) {
	text, html, err := Render(testRequest())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"Dear 0x1234...abcd", "Estate Owner has left you 1.5 ETH", "0xdeadbeef", "IPFS QmHash"} {
		if !strings.Contains(text, want) {
			t.Errorf("text body missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(html, "ipfs/QmHash") {
		t.Errorf("html body missing document link:\n%s", html)
	}
}

func TestRender_WithoutDocument(t *testing.T) {
	req := testRequest()
	req.DocumentRef = ""

	text, _, err := Render(req)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "Document:") {
		t.Errorf("unexpected document line:\n%s", text)
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	req := testRequest()
	req.OwnerName = "<script>"

	_, html, err := Render(req)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("owner name was not escaped")
	}
}

func TestSMTPSender_Send(t *testing.T) {
	tr := &fakeTransport{}
	s := newSMTPSender(tr, "noreply@example.com", WithLogger(quietLogger()))

	res, err := s.Send(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}
	if res.MessageID == "" {
		t.Error("expected a message ID")
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tr.sent))
	}
}

func TestSMTPSender_TransportFailure(t *testing.T) {
	cause := errors.New("connection refused")
	s := newSMTPSender(&fakeTransport{err: cause}, "noreply@example.com", WithLogger(quietLogger()))

	_, err := s.Send(context.Background(), testRequest())
	if !errors.Is(err, bequest.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	var de *DeliveryError
	if !errors.As(err, &de) || de.Recipient != "heir@example.com" {
		t.Errorf("expected DeliveryError for recipient, got %#v", err)
	}
}

func TestSMTPSender_BadRecipient(t *testing.T) {
	tr := &fakeTransport{}
	s := newSMTPSender(tr, "noreply@example.com", WithLogger(quietLogger()))

	req := testRequest()
	req.RecipientEmail = "not an address"
	if _, err := s.Send(context.Background(), req); !errors.Is(err, bequest.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if len(tr.sent) != 0 {
		t.Error("message was sent to an invalid recipient")
	}
}

func TestSMTPSender_RateLimitHonoursContext(t *testing.T) {
	s := newSMTPSender(&fakeTransport{}, "noreply@example.com",
		WithLogger(quietLogger()),
		WithRateLimit(rate.Limit(0.001), 1),
	)

	if _, err := s.Send(context.Background(), testRequest()); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Send(ctx, testRequest()); !errors.Is(err, bequest.ErrDelivery) {
		t.Fatalf("expected ErrDelivery once the limiter gives up, got %v", err)
	}
}

func TestNewSMTPSender_RequiresHostAndFrom(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{From: "a@example.com"}); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}); err == nil {
		t.Error("expected error without from")
	}
}
