package analysis

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

const maxUploadSize = 32 << 20

type Handler struct {
	svc     *analysis.Service
	locator *store.Locator
}

func NewHandler(svc *analysis.Service, locator *store.Locator) *Handler {
	return &Handler{svc: svc, locator: locator}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
	r.Post("/directory", h.directory)
}

type directoryRequest struct {
	Path string `json:"path"`
}

// upload analyzes the statement files posted in the "files" form field. Rules
// come from the workspace named by the "workspace" form field.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "files field is required", http.StatusBadRequest)
		return
	}

	repo, err := h.locator.Rules(r.FormValue("workspace"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws := workspace.NewMemory()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to open "+fh.Filename, http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(f)
		f.Close()

		if err != nil {
			http.Error(w, "failed to read "+fh.Filename, http.StatusBadRequest)
			return
		}

		ws.Add(filepath.Base(fh.Filename), data)
	}

	h.analyze(w, r, ws, repo)
}

func (h *Handler) directory(w http.ResponseWriter, r *http.Request) {
	var req directoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	dir, err := h.locator.Dir(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	repo, err := h.locator.Rules(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.analyze(w, r, dir, repo)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, ws workspace.Workspace, repo *store.Sidecar) {
	res, err := h.svc.Analyze(r.Context(), ws, repo, classifier.NewDeferred())
	if err != nil {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, analysis.ErrNoStatementFiles):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, workspace.ErrNotExist):
			status = http.StatusNotFound
		}

		http.Error(w, err.Error(), status)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
