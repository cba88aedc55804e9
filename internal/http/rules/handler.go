package rules

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Handler edits the rule set of the workspace named by the "workspace" query
// parameter. Every mutation is saved immediately.
type Handler struct {
	locator *store.Locator
}

func NewHandler(locator *store.Locator) *Handler {
	return &Handler{locator: locator}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.replace)
	r.Put("/categories", h.setCategories)
	r.Post("/category-rules", h.addRule)
	r.Put("/category-rules/{id}", h.updateRule)
	r.Post("/category-rules/{id}/move", h.moveRule)
	r.Delete("/category-rules/{id}", h.removeRule)
	r.Put("/direction-overrides/{id}", h.setDirectionOverride)
	r.Delete("/direction-overrides/{id}", h.clearDirectionOverride)
	r.Put("/sheet-types", h.setSheetType)
}

type moveRequest struct {
	To int `json:"to"`
}

type directionOverrideRequest struct {
	Direction transaction.Direction `json:"direction"`
	Note      string                `json:"note"`
}

type sheetTypeRequest struct {
	Key  string               `json:"key"`
	Type classifier.SheetType `json:"type"`
}

func (h *Handler) service(w http.ResponseWriter, r *http.Request) (*rules.Service, bool) {
	repo, err := h.locator.Rules(r.URL.Query().Get("workspace"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return rules.NewService(repo), true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	rs, err := svc.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rs)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var rs rules.RuleSet
	if !decode(w, r, &rs) {
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.Replace(r.Context(), &rs); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &rs)
}

func (h *Handler) setCategories(w http.ResponseWriter, r *http.Request) {
	var categories []rules.Category
	if !decode(w, r, &categories) {
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.SetCategories(r.Context(), categories); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if !decode(w, r, &rule) {
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	added, err := svc.AddRule(r.Context(), rule)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if !decode(w, r, &rule) {
		return
	}

	rule.ID = chi.URLParam(r, "id")

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.UpdateRule(r.Context(), rule); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveRule(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.MoveRule(r.Context(), chi.URLParam(r, "id"), req.To); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRule(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.RemoveRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDirectionOverride(w http.ResponseWriter, r *http.Request) {
	var req directionOverrideRequest
	if !decode(w, r, &req) {
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.SetDirectionOverride(r.Context(), chi.URLParam(r, "id"), req.Direction, req.Note); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearDirectionOverride(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.ClearDirectionOverride(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setSheetType(w http.ResponseWriter, r *http.Request) {
	var req sheetTypeRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.SetSheetType(r.Context(), req.Key, req.Type); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.ErrRuleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, rules.ErrInvalidRule),
		errors.Is(err, rules.ErrInvalidDirection),
		errors.Is(err, rules.ErrInvalidSheetType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("rules request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
