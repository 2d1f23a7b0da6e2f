package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/importer"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

type importResponse struct {
	Result string                `json:"result"`
	Status models.ImportProgress `json:"status"`
}

// startImport answers 202 when a run was launched and 409 when one is
// already running. The run outlives the request.
func (h *Handler) startImport(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}

	res := h.imports.Start(r.Context(), category)
	status := http.StatusAccepted
	if res == importer.Busy {
		status = http.StatusConflict
	}
	writeJSON(w, status, importResponse{Result: res.String(), Status: h.imports.Status()})
}

func (h *Handler) importStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.imports.Status())
}

func (h *Handler) stopImport(w http.ResponseWriter, r *http.Request) {
	res := h.imports.Stop()
	writeJSON(w, http.StatusOK, importResponse{Result: res.String(), Status: h.imports.Status()})
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	n, err := h.imports.Seed(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.lookups.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
