package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
	"github.com/eugenenazirov/seat-allocator/internal/cache"
	"github.com/eugenenazirov/seat-allocator/internal/metrics"
	"github.com/eugenenazirov/seat-allocator/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultMaxSeats     = 10_000
	defaultMaxParties   = 200
	defaultDivisorCount = 5
	maxDivisorCount     = 100
)

// Handler wires the allocator, the default-method storage, the result cache
// and metrics into HTTP handlers.
type Handler struct {
	storage storage.Storage
	cache   *cache.Cache
	metrics *metrics.Collector

	maxSeats   int
	maxParties int

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithCache enables result caching. A nil cache disables it.
func WithCache(c *cache.Cache) HandlerOption {
	return func(h *Handler) {
		h.cache = c
	}
}

// WithMetrics records allocation metrics on m.
func WithMetrics(m *metrics.Collector) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLimits bounds the size of allocation requests. Non-positive values keep
// the defaults.
func WithLimits(maxSeats, maxParties int) HandlerOption {
	return func(h *Handler) {
		if maxSeats > 0 {
			h.maxSeats = maxSeats
		}
		if maxParties > 0 {
			h.maxParties = maxParties
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage:    store,
		maxSeats:   defaultMaxSeats,
		maxParties: defaultMaxParties,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListMethods(w http.ResponseWriter, r *http.Request) {
	_ = r
	methods := apportion.Methods()
	resp := methodsResponse{Methods: make([]methodInfo, 0, len(methods))}
	for _, m := range methods {
		resp.Methods = append(resp.Methods, methodInfo{
			Name:     m,
			Divisors: formatDivisors(apportion.Take(m, defaultDivisorCount)),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetMethod(w http.ResponseWriter, r *http.Request) {
	_ = r
	method, updatedAt, err := h.storage.GetMethod()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, methodResponse{
		Method:    method,
		UpdatedAt: updatedAt,
	})
}

func (h *Handler) handlePutMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	method, err := apportion.ParseMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid method", err.Error(), supportedMethodsHint())
		return
	}

	if err := h.storage.SetMethod(method); err != nil {
		if errors.Is(err, apportion.ErrUnknownMethod) {
			writeError(w, http.StatusBadRequest, "Invalid method", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	current, updatedAt, err := h.storage.GetMethod()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, methodResponse{
		Method:    current,
		UpdatedAt: updatedAt,
		Message:   "Default method updated successfully",
	})
}

func (h *Handler) handleDivisors(w http.ResponseWriter, r *http.Request) {
	method, ok := h.resolveMethod(w, r.URL.Query().Get("method"))
	if !ok {
		return
	}

	count := defaultDivisorCount
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxDivisorCount {
			writeError(w, http.StatusBadRequest, "Invalid request",
				fmt.Sprintf("count must be an integer between 1 and %d", maxDivisorCount))
			return
		}
		count = parsed
	}

	writeJSON(w, http.StatusOK, divisorsResponse{
		Method:   method,
		Divisors: formatDivisors(apportion.Take(method, count)),
	})
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	method, ok := h.resolveMethod(w, req.Method)
	if !ok {
		return
	}

	votes, names, err := req.ballot()
	if err != nil {
		h.metrics.ObserveAllocation(method.String(), metrics.OutcomeRejected, 0, 0)
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if req.Seats == nil {
		h.metrics.ObserveAllocation(method.String(), metrics.OutcomeRejected, 0, 0)
		writeError(w, http.StatusBadRequest, "Invalid request", "seats is required")
		return
	}
	seats := *req.Seats
	if seats > h.maxSeats || len(votes) > h.maxParties {
		h.metrics.ObserveAllocation(method.String(), metrics.OutcomeRejected, 0, 0)
		writeError(w, http.StatusBadRequest, "Request too large",
			fmt.Sprintf("at most %d seats and %d parties are allowed", h.maxSeats, h.maxParties))
		return
	}

	start := time.Now()
	result, cached := h.cache.Get(method, seats, votes)
	h.metrics.ObserveCacheLookup(cached)
	if !cached {
		var allocErr error
		result, allocErr = apportion.New(method).Allocate(seats, votes)
		if allocErr != nil {
			h.writeAllocationError(w, method, allocErr)
			return
		}
		h.cache.Add(method, seats, votes, result)
	}
	elapsed := time.Since(start)
	h.metrics.ObserveAllocation(method.String(), metrics.OutcomeSuccess, seats, elapsed)

	writeJSON(w, http.StatusOK, newAllocateResponse(result, seats, votes, names, cached, elapsed))
}

func (h *Handler) writeAllocationError(w http.ResponseWriter, method apportion.Method, err error) {
	switch {
	case errors.Is(err, apportion.ErrInvalidSeats),
		errors.Is(err, apportion.ErrNoParties),
		errors.Is(err, apportion.ErrInvalidVotes):
		h.metrics.ObserveAllocation(method.String(), metrics.OutcomeRejected, 0, 0)
		writeError(w, http.StatusUnprocessableEntity, "Cannot allocate seats", err.Error(),
			"Provide a non-negative seat count and at least one party with non-negative votes")
	default:
		h.metrics.ObserveAllocation(method.String(), metrics.OutcomeError, 0, 0)
		writeInternalError(w, err)
	}
}

// resolveMethod parses raw or, when empty, falls back to the stored default.
// It writes the error response itself and reports whether to continue.
func (h *Handler) resolveMethod(w http.ResponseWriter, raw string) (apportion.Method, bool) {
	if strings.TrimSpace(raw) == "" {
		method, _, err := h.storage.GetMethod()
		if err != nil {
			writeInternalError(w, err)
			return 0, false
		}
		return method, true
	}

	method, err := apportion.ParseMethod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid method", err.Error(), supportedMethodsHint())
		return 0, false
	}
	return method, true
}

func supportedMethodsHint() string {
	names := make([]string, 0, len(apportion.Methods()))
	for _, m := range apportion.Methods() {
		names = append(names, m.String())
	}
	return "Supported methods: " + strings.Join(names, ", ")
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
