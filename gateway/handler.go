// Package gateway exposes the responder over HTTP: the three simulated edge
// endpoints, the config surface, the decision log and the manual-approval
// resolution intake.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/approval"
	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/policy"
	"github.com/posmock/posmock/service/responder"
	"github.com/posmock/posmock/service/sequence"
)

// Handler serves the responder's HTTP surface.
type Handler struct {
	responder *responder.Service
	policies  *policy.Store
	approvals *approval.Service
	log       *audit.Log
	logger    *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(rsp *responder.Service, policies *policy.Store, approvals *approval.Service, log *audit.Log, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		responder: rsp,
		policies:  policies,
		approvals: approvals,
		log:       log,
		logger:    logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP statuses. Unknown service is the
// caller's configuration error; a malformed sequence spec is a bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, policy.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sequence.ErrMalformedSpec):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req responder.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := h.responder.Payment(r.Context(), &req)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFiscal(w http.ResponseWriter, r *http.Request) {
	var req responder.FiscalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := h.responder.Fiscal(r.Context(), &req)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFiscalNew(w http.ResponseWriter, r *http.Request) {
	var req responder.FiscalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := h.responder.FiscalNew(r.Context(), &req)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleKDS(w http.ResponseWriter, r *http.Request) {
	var req responder.KDSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := h.responder.KDS(r.Context(), &req)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	all := h.policies.All()
	out := make(map[string]*PolicyPayload, len(all))
	for service, p := range all {
		out[service] = fromPolicy(p)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetServiceConfig(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	p, err := h.policies.Get(service)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, fromPolicy(p))
}

func (h *Handler) handleSetServiceConfig(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	var payload PolicyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := payload.toPolicy()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.policies.Set(service, p); err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.logger.Info("policy updated",
		zap.String("service", service),
		zap.String("mode", payload.Mode))
	updated, err := h.policies.Get(service)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, fromPolicy(updated))
}

// handleBulkConfig replaces the policy of every service named in the body.
// Payloads are validated up front so a bad entry leaves the whole store
// untouched.
func (h *Handler) handleBulkConfig(w http.ResponseWriter, r *http.Request) {
	var payloads map[string]*PolicyPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	policies := make(map[string]*model.ServicePolicy, len(payloads))
	for service, payload := range payloads {
		if _, err := h.policies.Get(service); err != nil {
			h.writeError(w, statusFor(err), err)
			return
		}
		p, err := payload.toPolicy()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		if p.Sequence != nil && (p.Sequence.SuccessCount < 0 || p.Sequence.FailureCount < 0) {
			h.writeError(w, http.StatusBadRequest, sequence.ErrMalformedSpec)
			return
		}
		policies[service] = p
	}
	updated := make([]string, 0, len(policies))
	for service, p := range policies {
		if err := h.policies.Set(service, p); err != nil {
			h.writeError(w, statusFor(err), err)
			return
		}
		updated = append(updated, service)
	}
	sort.Strings(updated)
	h.logger.Info("policies updated", zap.Strings("services", updated))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"updated": updated,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	p, err := h.policies.Get(service)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":          service,
		"mode":             string(p.Mode),
		"timeout_seconds":  int(p.Timeout / time.Second),
		"default_response": string(p.DefaultOutcome),
	})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	h.writeJSON(w, http.StatusOK, h.log.Recent(limit))
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.approvals.ListPending())
}

type resolvePayload struct {
	Outcome string `json:"outcome"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload resolvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.approvals.Resolve(r.Context(), id, payload.Outcome); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	// Stale and duplicate resolutions are accepted and discarded silently.
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "posmock",
		"endpoints": map[string]string{
			"payment":    "/mocks/payment",
			"fiscal":     "/mocks/fiscal",
			"fiscal_new": "/mocks/fiscal/new",
			"kds":        "/mocks/kds",
			"config":     "/mocks/config",
			"logs":       "/mocks/logs",
			"pending":    "/mocks/pending",
		},
	})
}
