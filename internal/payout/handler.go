package payout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/gymmatch/manager-api/internal/report"
	"github.com/gymmatch/manager-api/internal/revenue"
)

type Store interface {
	CreateBatch(ctx context.Context, payouts []Payout) ([]Payout, error)
	List(ctx context.Context, status revenue.PaymentStatus, trainerID string) ([]Payout, error)
	UpdateStatus(ctx context.Context, id uint, fn func(*Payout) error) (*Payout, error)
}

// Calculator computes a period's distribution from stored policies;
// *report.Service implements it.
type Calculator interface {
	Distribution(ctx context.Context, req report.DistributionRequest) (revenue.RevenueDistribution, error)
}

// CreateRequest carries the period's activity. Amounts are always computed
// here from the trainers' policies, never taken from the client.
type CreateRequest struct {
	Period   revenue.Period        `json:"period"`
	Trainers []report.TrainerInput `json:"trainers" validate:"required,min=1,dive"`
}

type CreateResponse struct {
	Created []Payout `json:"created"`
	// Skipped lists trainers whose payout for the period already exists.
	Skipped []string `json:"skipped"`
}

type StatusRequest struct {
	Status revenue.PaymentStatus `json:"status" validate:"required,oneof=pending processed paid"`
}

type Handler struct {
	Store      Store
	Calculator Calculator
	Logger     *slog.Logger
	now        func() time.Time
	validate   *validator.Validate
}

func NewHandler(store Store, calc Calculator, logger *slog.Logger) *Handler {
	return &Handler{
		Store:      store,
		Calculator: calc,
		Logger:     logger.With("module", "payout"),
		now:        time.Now,
		validate:   validator.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Create handles POST /payouts: it computes every trainer's compensation
// for the period and records it as a pending payout.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Period.StartDate.IsZero() || req.Period.EndDate.Before(req.Period.StartDate) {
		http.Error(w, "invalid period", http.StatusBadRequest)
		return
	}
	seen := make(map[string]bool, len(req.Trainers))
	for _, t := range req.Trainers {
		if seen[t.TrainerID] {
			http.Error(w, "duplicate trainer "+t.TrainerID, http.StatusBadRequest)
			return
		}
		seen[t.TrainerID] = true
	}

	dist, err := h.Calculator.Distribution(r.Context(), report.DistributionRequest{Period: req.Period, Trainers: req.Trainers})
	if errors.Is(err, report.ErrMissingPolicy) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "compute payouts", "error", err)
		http.Error(w, "could not compute payouts", http.StatusInternalServerError)
		return
	}

	payouts := make([]Payout, 0, len(dist.TrainerDistributions))
	for _, d := range dist.TrainerDistributions {
		payouts = append(payouts, FromDistribution(req.Period, d))
	}
	created, err := h.Store.CreateBatch(r.Context(), payouts)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "create payouts", "count", len(payouts), "error", err)
		http.Error(w, "could not save payouts", http.StatusInternalServerError)
		return
	}

	resp := CreateResponse{Created: created, Skipped: []string{}}
	if resp.Created == nil {
		resp.Created = []Payout{}
	}
	inserted := make(map[string]bool, len(created))
	for _, p := range created {
		inserted[p.TrainerID] = true
	}
	for _, p := range payouts {
		if !inserted[p.TrainerID] {
			resp.Skipped = append(resp.Skipped, p.TrainerID)
		}
	}
	h.Logger.InfoContext(r.Context(), "payouts recorded",
		"created", len(resp.Created), "skipped", len(resp.Skipped), "period_start", req.Period.StartDate)

	status := http.StatusCreated
	if len(resp.Created) == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// List handles GET /payouts[?status=&trainerId=].
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := revenue.PaymentStatus(q.Get("status"))
	if status != "" {
		if _, ok := statusOrder[status]; !ok {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
	}
	list, err := h.Store.List(r.Context(), status, q.Get("trainerId"))
	if err != nil {
		http.Error(w, "could not list payouts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateStatus handles PATCH /payouts/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Store.UpdateStatus(r.Context(), uint(id), func(p *Payout) error {
		return p.Advance(req.Status, h.now())
	})
	switch {
	case errors.Is(err, ErrPayoutNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.Logger.ErrorContext(r.Context(), "update payout status", "payout_id", id, "error", err)
		http.Error(w, "could not update payout", http.StatusInternalServerError)
		return
	}
	h.Logger.InfoContext(r.Context(), "payout status changed", "payout_id", id, "status", p.Status)
	writeJSON(w, http.StatusOK, p)
}
