package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/venu630/bequest/backoff"
)

// Compile-time check.
var _ Ledger = (*Gateway)(nil)

// Gateway talks to the contract gateway over HTTP.
//
//	POST {endpoint}/contracts/{contract}/allocations   {"allocations": [...]}
//	GET  {endpoint}/contracts/{contract}/wills/{owner}
//	POST {endpoint}/contracts/{contract}/wills         {Will}
//
// Successful writes answer {"txRef": "..."}. Failures answer
// {"kind": "...", "message": "..."}; when kind is absent it is derived
// from the status code.
type Gateway struct {
	base     string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	strategy backoff.Strategy
	attempts int
	logger   *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) GatewayOption {
	return func(g *Gateway) { g.apiKey = key }
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.client = c }
}

// WithReadRetry sets the retry policy for read calls.
func WithReadRetry(s backoff.Strategy, attempts int) GatewayOption {
	return func(g *Gateway) {
		g.strategy = s
		g.attempts = attempts
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway creates a gateway client for the contract at contract.
func NewGateway(endpoint, contract string, opts ...GatewayOption) (*Gateway, error) {
	if endpoint == "" || contract == "" {
		return nil, errors.New("bequest/ledger: endpoint and contract address are required")
	}
	base, err := url.JoinPath(endpoint, "contracts", contract)
	if err != nil {
		return nil, fmt.Errorf("bequest/ledger: endpoint: %w", err)
	}

	g := &Gateway{
		base: base,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		strategy: backoff.DefaultStrategy(),
		attempts: 3,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ledger",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only outages trip the breaker; contract refusals are answers.
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) != KindUnavailable
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return g, nil
}

type txResponse struct {
	TxRef string `json:"txRef"`
}

type willResponse struct {
	Exists bool   `json:"exists"`
	TxRef  string `json:"txRef"`
}

type errorResponse struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Submit implements Ledger.
func (g *Gateway) Submit(ctx context.Context, allocs []Allocation) (TxRef, error) {
	if len(allocs) == 0 {
		return "", &Error{Kind: KindRejected, Message: "no allocations"}
	}
	var resp txResponse
	err := g.call(ctx, http.MethodPost, g.base+"/allocations", map[string]any{"allocations": allocs}, &resp)
	if err != nil {
		return "", err
	}
	g.logger.Info("allocations submitted",
		slog.Int("allocations", len(allocs)),
		slog.String("tx_ref", resp.TxRef),
	)
	return TxRef(resp.TxRef), nil
}

// CreateWill implements Ledger.
func (g *Gateway) CreateWill(ctx context.Context, w Will) (TxRef, error) {
	var resp txResponse
	if err := g.call(ctx, http.MethodPost, g.base+"/wills", w, &resp); err != nil {
		return "", err
	}
	g.logger.Info("will created", slog.String("owner", w.Owner), slog.String("tx_ref", resp.TxRef))
	return TxRef(resp.TxRef), nil
}

// HasWill implements Ledger.
func (g *Gateway) HasWill(ctx context.Context, owner string) (bool, error) {
	w, err := g.will(ctx, owner)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return false, nil
		}
		return false, err
	}
	return w.Exists, nil
}

// WillTransaction implements Ledger.
func (g *Gateway) WillTransaction(ctx context.Context, owner string) (TxRef, error) {
	w, err := g.will(ctx, owner)
	if err != nil {
		return "", err
	}
	if !w.Exists {
		return "", &Error{Kind: KindNotFound, Message: "no will for " + owner}
	}
	return TxRef(w.TxRef), nil
}

func (g *Gateway) will(ctx context.Context, owner string) (*willResponse, error) {
	var resp willResponse
	err := backoff.Retry(ctx, g.strategy, g.attempts, func(ctx context.Context) error {
		err := g.call(ctx, http.MethodGet, g.base+"/wills/"+url.PathEscape(owner), nil, &resp)
		if err != nil && KindOf(err) != KindUnavailable {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// call runs one request through the circuit breaker.
func (g *Gateway) call(ctx context.Context, method, target string, body, out any) error {
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, g.do(ctx, method, target, body, out)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &Error{Kind: KindUnavailable, Err: err}
	default:
		return err
	}
}

func (g *Gateway) do(ctx context.Context, method, target string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bequest/ledger: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("bequest/ledger: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindUnavailable, Err: err}
	}

	if resp.StatusCode >= 300 {
		return classify(resp.StatusCode, payload)
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return &Error{Kind: KindUnavailable, Message: "malformed gateway response", Err: err}
		}
	}
	return nil
}

// classify maps a gateway failure response to an Error.
func classify(status int, payload []byte) *Error {
	var er errorResponse
	_ = json.Unmarshal(payload, &er) //nolint:errcheck // best-effort body

	msg := er.Message
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	kind := er.Kind
	if kind == "" {
		switch {
		case status == http.StatusNotFound:
			kind = KindNotFound
		case status == http.StatusPaymentRequired:
			kind = KindInsufficientFunds
		case status == http.StatusForbidden:
			kind = KindDeclined
		case status >= 500 || status == http.StatusTooManyRequests:
			kind = KindUnavailable
		default:
			kind = KindRejected
		}
	}
	return &Error{Kind: kind, Message: msg}
}

func asError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
