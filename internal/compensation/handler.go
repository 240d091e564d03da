package compensation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/gymmatch/manager-api/internal/revenue"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	Create(ctx context.Context, p *CompensationPolicy) error
	FindByID(ctx context.Context, id uint) (*CompensationPolicy, error)
	List(ctx context.Context, trainerID string) ([]CompensationPolicy, error)
	Replace(ctx context.Context, id uint, p *CompensationPolicy) error
	Delete(ctx context.Context, id uint) error
	FindEffective(ctx context.Context, trainerID string, at time.Time) (*CompensationPolicy, error)
}

type Handler struct {
	Store    Store
	Logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{Store: store, Logger: logger.With("module", "compensation"), validate: validator.New()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err
}

// validateRecord checks tags and the fields each type requires.
func (h *Handler) validateRecord(rec revenue.PolicyRecord) error {
	if err := h.validate.Struct(rec); err != nil {
		return err
	}
	switch rec.Type {
	case revenue.CompensationFixed:
		if rec.FixedAmount == nil {
			return errors.New("fixedAmount is required for fixed policies")
		}
	case revenue.CompensationPercentage:
		if rec.Percentage == nil {
			return errors.New("percentage is required for percentage policies")
		}
	case revenue.CompensationTiered:
	default:
		return fmt.Errorf("unknown compensation type %q", rec.Type)
	}
	if rec.EffectiveFrom.IsZero() {
		return errors.New("effectiveFrom is required")
	}
	if rec.EffectiveTo != nil && rec.EffectiveTo.Before(rec.EffectiveFrom) {
		return errors.New("effectiveTo is before effectiveFrom")
	}
	return nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (revenue.PolicyRecord, bool) {
	var rec revenue.PolicyRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return rec, false
	}
	if err := h.validateRecord(rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return rec, false
	}
	return rec, true
}

// Create handles POST /compensation/policies.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	p := FromRecord(rec)
	if err := h.Store.Create(r.Context(), &p); err != nil {
		h.Logger.ErrorContext(r.Context(), "create policy", "trainer_id", rec.TrainerID, "error", err)
		http.Error(w, "could not save policy", http.StatusInternalServerError)
		return
	}
	h.Logger.InfoContext(r.Context(), "policy created", "policy_id", p.ID, "trainer_id", p.TrainerID, "type", p.Type)
	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /compensation/policies[?trainerId=].
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context(), r.URL.Query().Get("trainerId"))
	if err != nil {
		http.Error(w, "could not list policies", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /compensation/policies/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	p, err := h.Store.FindByID(r.Context(), id)
	if errors.Is(err, ErrPolicyNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load policy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /compensation/policies/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	p := FromRecord(rec)
	err = h.Store.Replace(r.Context(), id, &p)
	if errors.Is(err, ErrPolicyNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "update policy", "policy_id", id, "error", err)
		http.Error(w, "could not update policy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /compensation/policies/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	err = h.Store.Delete(r.Context(), id)
	if errors.Is(err, ErrPolicyNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not delete policy", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Effective handles GET /compensation/trainers/{trainerId}/effective[?at=].
// at is an RFC 3339 timestamp or a YYYY-MM-DD date and defaults to now.
func (h *Handler) Effective(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := ParseInstant(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		at = parsed
	}
	p, err := h.Store.FindEffective(r.Context(), mux.Vars(r)["trainerId"], at)
	if errors.Is(err, ErrPolicyNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load policy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ParseInstant accepts RFC 3339 or a plain date.
func ParseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", raw)
	}
	return t, nil
}
