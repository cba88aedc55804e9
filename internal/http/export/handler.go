package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/export"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

type Handler struct {
	svc     *export.Service
	locator *store.Locator
}

func NewHandler(svc *export.Service, locator *store.Locator) *Handler {
	return &Handler{svc: svc, locator: locator}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/transactions.csv", h.transactions)
	r.Post("/cycles.csv", h.cycles)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Path string `json:"path"`
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	res, ok := h.export(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	if err := export.WriteTransactions(w, res.Transactions); err != nil {
		slog.Error("failed to write csv", "error", err)
	}
}

func (h *Handler) cycles(w http.ResponseWriter, r *http.Request) {
	res, ok := h.export(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cycles.csv"`)

	if err := export.WriteCycles(w, res.Cycles); err != nil {
		slog.Error("failed to write csv", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	res, ok := h.export(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"export_%s.zip\"", time.Now().Format("20060102")))

	if err := export.WriteArchive(w, res); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) (*analysis.Result, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	dir, err := h.locator.Dir(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	repo, err := h.locator.Rules(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	res, err := h.svc.Export(r.Context(), dir, repo)
	if err != nil {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, analysis.ErrNoStatementFiles):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, workspace.ErrNotExist):
			status = http.StatusNotFound
		}

		http.Error(w, err.Error(), status)

		return nil, false
	}

	return res, true
}
