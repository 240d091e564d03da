package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/gymmatch/manager-api/internal/revenue"
)

// maxSimulationPoints bounds the size of one simulation response.
const maxSimulationPoints = 10000

type Handler struct {
	Service *Service
	Logger  *slog.Logger
	// DefaultTiers is shown as the tier table of tiered plans without their
	// own tiers. Empty means revenue.DefaultTiers.
	DefaultTiers []revenue.Tier
	validate     *validator.Validate
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{Service: svc, Logger: logger.With("module", "report"), validate: validator.New()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// policyFromRecord validates a policy sent for a what-if calculation. No
// trainer is involved, so trainerId is not required.
func (h *Handler) policyFromRecord(rec revenue.PolicyRecord) (revenue.Policy, error) {
	if err := h.validate.StructExcept(rec, "TrainerID"); err != nil {
		return revenue.Policy{}, err
	}
	switch rec.Type {
	case revenue.CompensationFixed, revenue.CompensationPercentage, revenue.CompensationTiered:
	default:
		return revenue.Policy{}, fmt.Errorf("unknown compensation type %q", rec.Type)
	}
	if rec.Type == revenue.CompensationTiered && len(rec.Tiers) == 0 && len(h.DefaultTiers) > 0 {
		rec.Tiers = h.DefaultTiers
	}
	return rec.ToPolicy(), nil
}

// Distribution handles POST /revenue/distribution.
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	var req DistributionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Period.StartDate.IsZero() || req.Period.EndDate.Before(req.Period.StartDate) {
		http.Error(w, "period must have a start date not after its end date", http.StatusBadRequest)
		return
	}

	result, err := h.Service.Distribution(r.Context(), req)
	if errors.Is(err, ErrMissingPolicy) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "revenue distribution", "error", err)
		http.Error(w, "could not compute distribution", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Simulate handles POST /revenue/simulate.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !h.decode(w, r, &req) {
		return
	}
	policy, err := h.policyFromRecord(req.Policy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if (req.Range.Max-req.Range.Min)/req.Range.Step >= maxSimulationPoints {
		http.Error(w, fmt.Sprintf("range yields more than %d points", maxSimulationPoints), http.StatusBadRequest)
		return
	}

	points := slices.Collect(revenue.SimulateCompensation(req.Range, policy))
	writeJSON(w, http.StatusOK, SimulateResponse{Type: policy.Type(), Points: points})
}

// Compare handles POST /revenue/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !h.decode(w, r, &req) {
		return
	}
	plans := make([]revenue.Plan, 0, len(req.Plans))
	for _, p := range req.Plans {
		policy, err := h.policyFromRecord(p.Policy)
		if err != nil {
			http.Error(w, fmt.Sprintf("plan %q: %v", p.Name, err), http.StatusBadRequest)
			return
		}
		plans = append(plans, revenue.Plan{Name: p.Name, Policy: policy})
	}
	writeJSON(w, http.StatusOK, revenue.CompareCompensationPlans(req.GrossRevenue, plans))
}

// Target handles POST /revenue/target.
func (h *Handler) Target(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Target(r.Context(), req))
}

// CompensationTypes handles GET /revenue/compensation-types.
func (h *Handler) CompensationTypes(w http.ResponseWriter, r *http.Request) {
	resp := CompensationTypesResponse{DefaultTiers: h.DefaultTiers}
	if len(resp.DefaultTiers) == 0 {
		resp.DefaultTiers = revenue.DefaultTiers
	}
	for _, t := range []revenue.CompensationType{revenue.CompensationFixed, revenue.CompensationPercentage, revenue.CompensationTiered} {
		resp.Types = append(resp.Types, CompensationTypeInfo{Type: t, Label: t.Label(), Description: t.Description()})
	}
	writeJSON(w, http.StatusOK, resp)
}
