package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/runner"
	"github.com/wonny/shelforder/pkg/logger"
)

// SortService is the part of runner.Runner the API exposes
type SortService interface {
	RunGrouping(ctx context.Context, groupingID string, opts runner.Options) (*runner.Report, error)
	RunAll(ctx context.Context, opts runner.Options) (*runner.Summary, error)
	Undo(ctx context.Context, groupingID string) (*contracts.OrderRecord, error)
	Order(ctx context.Context, groupingID string) (*contracts.OrderRecord, error)
	Diagnostics(ctx context.Context, groupingID string) (*runner.Diagnostics, error)
}

// SortHandler handles sort API endpoints
// ⭐ SSOT: 정렬 API 핸들러는 이 구조체에서만
type SortHandler struct {
	service     SortService
	logger      *logger.Logger
	bulkRunning atomic.Bool
	bulkTimeout time.Duration
}

// NewSortHandler creates a new sort handler
func NewSortHandler(service SortService, log *logger.Logger) *SortHandler {
	return &SortHandler{
		service:     service,
		logger:      log,
		bulkTimeout: 6 * time.Hour,
	}
}

// OrderResponse is the persisted order in display sequence
type OrderResponse struct {
	*contracts.OrderRecord
	Items []string `json:"items"`
}

// GetOrder returns the persisted order record
// GET /api/groupings/{id}/order
func (h *SortHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.service.Order(r.Context(), id)
	if err != nil {
		h.fail(w, err, id, "Failed to get order")
		return
	}

	respondJSON(w, http.StatusOK, OrderResponse{OrderRecord: rec, Items: rec.Current.OrderedIDs()})
}

// Sort runs one grouping
// POST /api/groupings/{id}/sort?dry_run=true&strategy=round_robin
func (h *SortHandler) Sort(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	opts, err := parseOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.RunGrouping(r.Context(), id, opts)
	if err != nil {
		h.fail(w, err, id, "Sort failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Undo restores the previous order
// POST /api/groupings/{id}/undo
func (h *SortHandler) Undo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.service.Undo(r.Context(), id)
	if err != nil {
		h.fail(w, err, id, "Undo failed")
		return
	}

	respondJSON(w, http.StatusOK, OrderResponse{OrderRecord: rec, Items: rec.Current.OrderedIDs()})
}

// Diagnostics returns the debug view of the latest run
// GET /api/groupings/{id}/diagnostics
func (h *SortHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	d, err := h.service.Diagnostics(r.Context(), id)
	if err != nil {
		h.fail(w, err, id, "Failed to get diagnostics")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// SortAll starts a bulk run in the background.
// Progress and the final summary arrive on the event stream.
// POST /api/sort/all?dry_run=true
func (h *SortHandler) SortAll(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.bulkRunning.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "bulk sort already running")
		return
	}

	go func() {
		defer h.bulkRunning.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), h.bulkTimeout)
		defer cancel()

		if _, err := h.service.RunAll(ctx, opts); err != nil {
			h.logger.WithError(err).Error("Bulk sort failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "started",
		"dry_run": opts.DryRun,
	})
}

func parseOptions(r *http.Request) (runner.Options, error) {
	q := r.URL.Query()
	opts := runner.Options{Strategy: q.Get("strategy")}

	if v := q.Get("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return opts, err
		}
		opts.DryRun = dry
	}

	return opts, nil
}

func (h *SortHandler) fail(w http.ResponseWriter, err error, groupingID, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("grouping_id", groupingID).Error(msg)
		respondError(w, status, msg)
		return
	}
	respondError(w, status, err.Error())
}
