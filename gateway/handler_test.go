package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/posmock/posmock/internal/clock"
	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/approval"
	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/engine"
	"github.com/posmock/posmock/service/policy"
	"github.com/posmock/posmock/service/responder"
	"github.com/posmock/posmock/tracing"
)

type fixture struct {
	router    http.Handler
	policies  *policy.Store
	approvals *approval.Service
	log       *audit.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	policies := policy.NewStore()
	approvals := approval.New()
	log := audit.NewLog(100)
	rsp := responder.New(engine.New(policies, approvals), log)
	handler := NewHandler(rsp, policies, approvals, log, zap.NewNop())
	return &fixture{
		router:    NewRouter(handler, zap.NewNop()),
		policies:  policies,
		approvals: approvals,
		log:       log,
	}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPaymentEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/mocks/payment", map[string]interface{}{
		"kiosk_id": "K1",
		"order_id": 3,
		"sum":      500,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp responder.PaymentResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SUCCESS", resp.Status)
	assert.Equal(t, 3, resp.OrderID)
}

func TestPaymentEndpointBadBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/mocks/payment", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/mocks/config/payment", &PolicyPayload{
		Mode:            "SEQUENCE",
		TimeoutSeconds:  15,
		DefaultResponse: "FAILURE",
		SequenceConfig:  &SequencePayload{SuccessCount: 2, FailureCount: 1},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var updated PolicyPayload
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "SEQUENCE", updated.Mode)
	assert.Equal(t, 3, updated.SequenceConfig.Remaining)

	rec = f.do(t, http.MethodGet, "/mocks/config", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var all map[string]*PolicyPayload
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)
	assert.Equal(t, "SEQUENCE", all["payment"].Mode)
	assert.Equal(t, "AUTO_SUCCESS", all["fiscal"].Mode)
}

func TestConfigUnknownService(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/mocks/config/printer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/mocks/config/printer", &PolicyPayload{Mode: "AUTO_SUCCESS"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigMalformedSequence(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/mocks/config/payment", &PolicyPayload{
		Mode:           "SEQUENCE",
		SequenceConfig: &SequencePayload{SuccessCount: -2},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogsEndpoint(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		rec := f.do(t, http.MethodPost, "/mocks/kds", map[string]interface{}{"order_id": i})
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/mocks/logs?limit=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var entries []*model.LogEntry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = f.do(t, http.MethodGet, "/mocks/logs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveEndpoint(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.policies.Set(model.ServiceFiscal, &model.ServicePolicy{
		Mode:           model.ModeManual,
		Timeout:        5 * time.Second,
		DefaultOutcome: model.OutcomeFailure,
	}))

	type result struct {
		code int
		body responder.FiscalResponse
	}
	done := make(chan result, 1)
	go func() {
		rec := f.do(t, http.MethodPost, "/mocks/fiscal", map[string]interface{}{"order_id": 1})
		var resp responder.FiscalResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		done <- result{code: rec.Code, body: resp}
	}()

	var id string
	assert.Eventually(t, func() bool {
		pending := f.approvals.ListPending()
		if len(pending) != 1 {
			return false
		}
		id = pending[0].ID
		return true
	}, 2*time.Second, 5*time.Millisecond)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/mocks/pending/%s/resolve", id), map[string]string{"outcome": "SUCCESS"})
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case res := <-done:
		assert.Equal(t, http.StatusOK, res.code)
		assert.Equal(t, "OK", res.body.Status)
	case <-time.After(3 * time.Second):
		t.Fatal("fiscal request did not return after resolution")
	}

	// Re-resolving a retired id is accepted and discarded.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/mocks/pending/%s/resolve", id), map[string]string{"outcome": "FAILURE"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResolveEndpointBadToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/mocks/pending/any/resolve", map[string]string{"outcome": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPendingEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/mocks/pending", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFiscalNewEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/mocks/fiscal/new", map[string]interface{}{
		"order_id":    5,
		"total_gross": 12345,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp responder.FiscalAPIResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, 123.45, resp.FiscalParams.Total)
	assert.EqualValues(t, 1, resp.FiscalParams.FiscalDocumentNumber)
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/mocks/payment/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "payment", status["service"])
	assert.Equal(t, "AUTO_SUCCESS", status["mode"])
	assert.EqualValues(t, 30, status["timeout_seconds"])

	rec = f.do(t, http.MethodGet, "/mocks/printer/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkConfig(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/mocks/config", map[string]*PolicyPayload{
		"payment": {Mode: "AUTO_FAILURE", TimeoutSeconds: 10},
		"kds":     {Mode: "MANUAL", TimeoutSeconds: 60, DefaultResponse: "FAILURE"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Status  string   `json:"status"`
		Updated []string `json:"updated"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, []string{"kds", "payment"}, result.Updated)

	p, err := f.policies.Get(model.ServiceKDS)
	assert.NoError(t, err)
	assert.Equal(t, model.ModeManual, p.Mode)
}

func TestBulkConfigAtomic(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/mocks/config", map[string]*PolicyPayload{
		"payment": {Mode: "AUTO_FAILURE"},
		"fiscal":  {Mode: "SEQUENCE", SequenceConfig: &SequencePayload{SuccessCount: -1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	p, err := f.policies.Get(model.ServicePayment)
	assert.NoError(t, err)
	assert.Equal(t, model.ModeAutoSuccess, p.Mode)

	rec = f.do(t, http.MethodPost, "/mocks/config", map[string]*PolicyPayload{
		"printer": {Mode: "AUTO_SUCCESS"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLoggerLatencyUsesClock(t *testing.T) {
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock.NowFunc = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 125 * time.Millisecond)
	}
	defer func() { clock.NowFunc = time.Now }()

	core, observed := observer.New(zap.InfoLevel)
	policies := policy.NewStore()
	approvals := approval.New()
	log := audit.NewLog(10)
	rsp := responder.New(engine.New(policies, approvals), log)
	handler := NewHandler(rsp, policies, approvals, log, zap.NewNop())
	router := NewRouter(handler, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := observed.FilterMessage("http request").All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, 125*time.Millisecond, fields["latency"])
}

func TestRequestSpanEmitted(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	assert.NoError(t, tracing.InitWithExporter("posmock", "0.0.1", exporter))
	exporter.Reset()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	assert.Contains(t, names, "GET /health")
}
