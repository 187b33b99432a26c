package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/api"
	"github.com/venu630/bequest/engine"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/ledger"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/pin"
	"github.com/venu630/bequest/store/memory"
	"github.com/venu630/bequest/validate"
)

const owner = "0x96f3c7bcc7f098b9f12219a2842235863ec0a774"

type harness struct {
	app    *fiber.App
	eng    *engine.Engine
	ledger *ledger.Memory
	pinner *pin.Memory
}

func newHarness(t *testing.T, opts ...engine.Option) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := bequest.New(bequest.WithStore(memory.New()), bequest.WithLogger(logger))
	require.NoError(t, err)

	h := &harness{ledger: ledger.NewMemory(), pinner: pin.NewMemory()}
	opts = append([]engine.Option{engine.WithLedger(h.ledger), engine.WithPinner(h.pinner)}, opts...)
	eng, err := engine.Build(c, opts...)
	require.NoError(t, err)

	h.eng = eng
	h.app = api.New(eng).App()
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { assert.NoError(t, resp.Body.Close()) }()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (h *harness) start(t *testing.T, count any) string {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/v1/workflows", map[string]any{"count": count, "owner": owner})
	require.Equal(t, http.StatusCreated, status, body)
	return body["session"].(map[string]any)["id"].(string)
}

func beneficiary(i int, share string) map[string]string {
	return map[string]string{
		validate.FieldFirstName:     "Heir",
		validate.FieldLastName:      strconv.Itoa(i),
		validate.FieldEmail:         "heir@example.com",
		validate.FieldAge:           "30",
		validate.FieldRelation:      "Child",
		validate.FieldWalletAddress: "0x00000000000000000000000000000000000000a" + strconv.Itoa(i),
		validate.FieldShare:         share,
		validate.FieldSaleDeed:      "deed.pdf",
	}
}

func (h *harness) step(t *testing.T, sid string, i int, share string) (int, map[string]any) {
	t.Helper()
	status, body := h.do(t, http.MethodPut, "/v1/workflows/"+sid+"/draft", map[string]any{"fields": beneficiary(i, share)})
	require.Equal(t, http.StatusOK, status, body)
	return h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/submit", nil)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	status, body := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestWorkflow_CompletesAndSubmits(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, 2)

	status, _ := h.step(t, sid, 1, "70")
	require.Equal(t, http.StatusOK, status)

	status, body := h.step(t, sid, 2, "30")
	require.Equal(t, http.StatusOK, status, body)

	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	sub := body["submission"].(map[string]any)
	assert.Equal(t, "submitted", sub["state"])
	assert.NotEmpty(t, sub["tx_ref"])
	assert.Len(t, h.ledger.Submitted(), 1)

	status, got := h.do(t, http.MethodGet, "/v1/submissions/"+sub["id"].(string), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, sub["id"], got["id"])

	status, list := h.do(t, http.MethodGet, "/v1/submissions?state=submitted", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list["submissions"], 1)
}

func TestWorkflow_StartErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing count", map[string]any{}, http.StatusUnprocessableEntity},
		{"zero count", map[string]any{"count": "0"}, http.StatusUnprocessableEntity},
		{"too many", map[string]any{"count": 6}, http.StatusUnprocessableEntity},
		{"bad owner", map[string]any{"count": 1, "owner": "nope"}, http.StatusBadRequest},
		{"unknown definition", map[string]any{"count": 1, "definition": "trusts"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.do(t, http.MethodPost, "/v1/workflows", tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWorkflow_InvalidDraftBlocksSubmit(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, "1")

	fields := beneficiary(1, "100")
	fields[validate.FieldShare] = "150"
	status, body := h.do(t, http.MethodPut, "/v1/workflows/"+sid+"/draft", map[string]any{"fields": fields})
	require.Equal(t, http.StatusOK, status)
	draft := body["session"].(map[string]any)["draft"].(map[string]any)
	assert.Equal(t, false, draft["valid"])

	status, body = h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	fieldErrors := body["fieldErrors"].(map[string]any)
	assert.Equal(t, "Percentage Share must be at most 100.", fieldErrors[validate.FieldShare])
}

func TestWorkflow_ReconciliationFailure(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, "3")

	for i, share := range []string{"30", "50"} {
		status, _ := h.step(t, sid, i+1, share)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := h.step(t, sid, 3, "25")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "105", body["actualTotal"])
}

func TestWorkflow_PreviousAtFirstStepExits(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, "2")

	status, body := h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/previous", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, true, body["exit"])
}

func TestWorkflow_PreviousReturnsStored(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, "2")
	status, _ := h.step(t, sid, 1, "40")
	require.Equal(t, http.StatusOK, status)

	status, body := h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/previous", nil)
	require.Equal(t, http.StatusOK, status)
	stored := body["stored"].(map[string]any)
	assert.Equal(t, "40", stored["fields"].(map[string]any)[validate.FieldShare])
}

func TestWorkflow_AbandonThenClosed(t *testing.T) {
	h := newHarness(t)
	sid := h.start(t, "1")

	status, body := h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/abandon", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "abandoned", body["session"].(map[string]any)["state"])

	status, _ = h.do(t, http.MethodPost, "/v1/workflows/"+sid+"/submit", nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestWorkflow_BadAndUnknownIDs(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodGet, "/v1/workflows/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodGet, "/v1/workflows/wfs_01h455vb4pex5vsknk084sn02q", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSubmission_LedgerFailureThenResubmit(t *testing.T) {
	h := newHarness(t)
	h.ledger.FailNext(&ledger.Error{Kind: ledger.KindInsufficientFunds, Message: "insufficient funds"})
	sid := h.start(t, "1")

	status, body := h.step(t, sid, 1, "100")
	require.Equal(t, http.StatusBadGateway, status, body)
	assert.Equal(t, "insufficient_funds", body["kind"])
	sub := body["submission"].(map[string]any)
	assert.Equal(t, "failed", sub["state"])

	path := "/v1/submissions/" + sub["id"].(string) + "/resubmit"
	status, body = h.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "submitted", body["state"])

	status, _ = h.do(t, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestWills(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/v1/wills/"+owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["exists"])

	status, body = h.do(t, http.MethodPost, "/v1/wills", map[string]any{
		"owner":            owner,
		"firstName":        "Grace",
		"lastName":         "Hopper",
		"beneficiaryCount": 2,
	})
	require.Equal(t, http.StatusCreated, status, body)
	tx := body["txRef"]
	assert.NotEmpty(t, tx)

	status, body = h.do(t, http.MethodGet, "/v1/wills/"+owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, tx, body["txRef"])

	status, body = h.do(t, http.MethodPost, "/v1/wills", map[string]any{"owner": owner, "beneficiaryCount": "7"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["fieldErrors"], validate.FieldFirstName)

	status, _ = h.do(t, http.MethodGet, "/v1/wills/0x12", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWills_LedgerUnavailable(t *testing.T) {
	h := newHarness(t)
	h.ledger.FailNext(&ledger.Error{Kind: ledger.KindUnavailable, Message: "gateway down"})

	status, body := h.do(t, http.MethodGet, "/v1/wills/"+owner, nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "unavailable", body["kind"])
}

func TestDocuments_Pin(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"deed.pdf", "annex.pdf"} {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := h.send(t, req)
	require.Equal(t, http.StatusCreated, status, body)

	docs := body["documents"].([]any)
	require.Len(t, docs, 2)
	first := docs[0].(map[string]any)
	assert.Equal(t, "deed.pdf", first["name"])
	got, ok := h.pinner.Get(first["cid"].(string))
	require.True(t, ok)
	assert.Equal(t, "content of deed.pdf", string(got.Data))
}

func TestDocuments_RequiresFiles(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, _ := h.send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotifications(t *testing.T) {
	sender := notify.SenderFunc(func(_ context.Context, req notify.Request) (*notify.Result, error) {
		if req.RecipientEmail == "bounce@example.com" {
			return nil, &notify.DeliveryError{Recipient: req.RecipientEmail, Err: errors.New("rejected")}
		}
		return &notify.Result{Success: true, MessageID: "abc"}, nil
	})
	h := newHarness(t, engine.WithSender(sender))

	req := map[string]any{
		"beneficiaryName":  "0x1234...abcd",
		"beneficiaryEmail": "heir@example.com",
		"testatorName":     "Estate Owner",
		"ethAmount":        "1.5",
		"transactionHash":  "0xfeed",
	}
	status, body := h.do(t, http.MethodPost, "/v1/notifications", req)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "abc", body["messageId"])

	req["beneficiaryEmail"] = "bounce@example.com"
	status, _ = h.do(t, http.MethodPost, "/v1/notifications", req)
	assert.Equal(t, http.StatusBadGateway, status)

	delete(req, "transactionHash")
	status, body = h.do(t, http.MethodPost, "/v1/notifications", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fieldErrors"], "transactionHash")
}

func TestNotifications_NoSender(t *testing.T) {
	h := newHarness(t)
	status, _ := h.do(t, http.MethodPost, "/v1/notifications", map[string]any{
		"beneficiaryName":  "a",
		"beneficiaryEmail": "a@example.com",
		"testatorName":     "Estate Owner",
		"ethAmount":        "1",
		"transactionHash":  "0x1",
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestDisbursements(t *testing.T) {
	h := newHarness(t)

	req := map[string]any{
		"beneficiary":      "0x1234567890abcdef1234567890abcdef1234abcd",
		"amount":           "1500000000000000000",
		"saleDeedIpfsHash": "QmDeed",
		"email":            "heir@example.com",
		"transactionHash":  "0xfeed",
	}
	status, body := h.do(t, http.MethodPost, "/v1/disbursements", req)
	require.Equal(t, http.StatusAccepted, status, body)
	assert.NotEmpty(t, body["eventId"])

	evt, err := h.eng.EventBus().Subscribe(context.Background(), event.NameFundsDisbursed, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, evt)
	assert.Equal(t, body["eventId"], evt.ID.String())
	assert.Contains(t, string(evt.Payload), "heir@example.com")

	req["amount"] = "1.5"
	status, _ = h.do(t, http.MethodPost, "/v1/disbursements", req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	delete(req, "email")
	status, body = h.do(t, http.MethodPost, "/v1/disbursements", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fieldErrors"], "email")
}

func TestCORS(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/workflows", nil)
	req.Header.Set("Origin", bequest.DefaultConfig().CORSOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { assert.NoError(t, resp.Body.Close()) }()

	assert.Equal(t, bequest.DefaultConfig().CORSOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}
