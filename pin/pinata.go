package pin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/venu630/bequest/backoff"
)

// Compile-time check.
var _ Pinner = (*Pinata)(nil)

// DefaultEndpoint is Pinata's file pinning endpoint.
const DefaultEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// Credentials authenticate against Pinata. JWT wins when both forms are set.
type Credentials struct {
	JWT       string
	APIKey    string
	APISecret string
}

func (c Credentials) valid() bool {
	return c.JWT != "" || (c.APIKey != "" && c.APISecret != "")
}

// Pinata pins documents through the Pinata API.
type Pinata struct {
	endpoint string
	creds    Credentials
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	strategy backoff.Strategy
	attempts int
	logger   *slog.Logger
}

// PinataOption configures a Pinata client.
type PinataOption func(*Pinata)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(u string) PinataOption {
	return func(p *Pinata) {
		if u != "" {
			p.endpoint = u
		}
	}
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) PinataOption {
	return func(p *Pinata) { p.client = c }
}

// WithRetry sets the upload retry policy.
func WithRetry(s backoff.Strategy, attempts int) PinataOption {
	return func(p *Pinata) {
		p.strategy = s
		p.attempts = attempts
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) PinataOption {
	return func(p *Pinata) { p.logger = l }
}

// NewPinata creates a Pinata client.
func NewPinata(creds Credentials, opts ...PinataOption) (*Pinata, error) {
	if !creds.valid() {
		return nil, errors.New("bequest/pin: pinata JWT or API key and secret are required")
	}
	p := &Pinata{
		endpoint: DefaultEndpoint,
		creds:    creds,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   2 * time.Minute,
		},
		strategy: backoff.DefaultStrategy(),
		attempts: 3,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "pinata",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool { return err == nil || !retryable(err) },
	})
	return p, nil
}

type pinataResponse struct {
	IpfsHash string `json:"IpfsHash"`
	PinSize  int64  `json:"PinSize"`
}

// statusError carries a non-2xx answer from Pinata.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string { return e.body }

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500 || se.status == http.StatusTooManyRequests
	}
	return true
}

// Pin implements Pinner. Uploads are content addressed, so a retried
// upload of the same bytes yields the same CID.
func (p *Pinata) Pin(ctx context.Context, doc Document) (Ref, error) {
	if len(doc.Data) == 0 {
		return Ref{}, &UploadError{Name: doc.Name, Err: errors.New("empty document")}
	}

	var ref Ref
	err := backoff.Retry(ctx, p.strategy, p.attempts, func(ctx context.Context) error {
		_, err := p.breaker.Execute(func() (any, error) {
			r, err := p.upload(ctx, doc)
			ref = r
			return nil, err
		})
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		ue := &UploadError{Name: doc.Name, Err: err}
		var se *statusError
		if errors.As(err, &se) {
			ue.Status = se.status
		}
		p.logger.Warn("document upload failed",
			slog.String("name", doc.Name),
			slog.String("error", err.Error()),
		)
		return Ref{}, ue
	}

	p.logger.Info("document pinned", slog.String("name", doc.Name), slog.String("cid", ref.CID))
	return ref, nil
}

func (p *Pinata) upload(ctx context.Context, doc Document) (Ref, error) {
	body, contentType, err := multipartBody(doc)
	if err != nil {
		return Ref{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return Ref{}, err
	}
	req.Header.Set("Content-Type", contentType)
	if p.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+p.creds.JWT)
	} else {
		req.Header.Set("pinata_api_key", p.creds.APIKey)
		req.Header.Set("pinata_secret_api_key", p.creds.APISecret)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Ref{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Ref{}, err
	}
	if resp.StatusCode >= 300 {
		return Ref{}, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(payload))}
	}

	var pr pinataResponse
	if err := json.Unmarshal(payload, &pr); err != nil {
		return Ref{}, fmt.Errorf("decode pinata response: %w", err)
	}
	if pr.IpfsHash == "" {
		return Ref{}, &statusError{status: resp.StatusCode, body: "response carried no IpfsHash"}
	}
	return Ref{CID: pr.IpfsHash, Size: pr.PinSize}, nil
}

// multipartBody encodes doc the way pinFileToIPFS expects: the file part,
// pinataMetadata carrying the name, and pinataOptions selecting CIDv0.
func multipartBody(doc Document) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	h.Set("Content-Type", ct)
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(doc.Data); err != nil {
		return nil, "", err
	}

	meta, err := json.Marshal(map[string]string{"name": doc.Name})
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
