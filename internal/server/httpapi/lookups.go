package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/resolver"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}
	writeLookup(h, w, r, h.lookups.Brands(r.Context(), category))
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}
	brandID, ok := intParam(w, r, "brand")
	if !ok {
		return
	}
	writeLookup(h, w, r, h.lookups.Models(r.Context(), category, brandID))
}

func (h *Handler) listYears(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}
	brandID, ok := intParam(w, r, "brand")
	if !ok {
		return
	}
	modelID, ok := intParam(w, r, "model")
	if !ok {
		return
	}
	writeLookup(h, w, r, h.lookups.Years(r.Context(), category, brandID, modelID))
}

// trimDetail never fails on an unknown code; an unavailable detail is an empty
// object tagged with source "unavailable".
func (h *Handler) trimDetail(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}
	brandID, ok := intParam(w, r, "brand")
	if !ok {
		return
	}
	modelID, ok := intParam(w, r, "model")
	if !ok {
		return
	}

	res := h.lookups.TrimDetail(r.Context(), category, brandID, modelID, chi.URLParam(r, "code"))
	h.lookupHeaders(w, r, res.Source, res.StoreErr)
	if res.Items == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, res.Items)
}

func writeLookup[T any](h *Handler, w http.ResponseWriter, r *http.Request, res resolver.Lookup[[]T]) {
	h.lookupHeaders(w, r, res.Source, res.StoreErr)
	items := res.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) lookupHeaders(w http.ResponseWriter, r *http.Request, source resolver.Source, storeErr error) {
	w.Header().Set(common.MirrorSourceHeader, string(source))
	if storeErr != nil {
		w.Header().Set(common.MirrorDegradedHeader, "true")
		h.logger.Warn(r.Context(), "mirror degraded", "path", r.URL.Path, "error", storeErr)
	}
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	c, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return c, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
