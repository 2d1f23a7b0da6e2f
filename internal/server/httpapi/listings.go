package httpapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const (
	maxUploadMemory = 32 << 20
	// listingField carries the listing JSON in multipart requests.
	listingField = "listing"
	photosField  = "photos"
)

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type presignResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	items, err := h.listings.List(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []models.Listing{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	l, err := h.listings.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	l, uploads, cleanup, err := decodeListing(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	if err := h.listings.Create(r.Context(), l, uploads); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	l, uploads, cleanup, err := decodeListing(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	l.ID = id
	if err := h.listings.Update(r.Context(), l, uploads); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.listings.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	active, err := h.listings.ToggleActive(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
}

func (h *Handler) addPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, cleanup, err := openUploads(r.MultipartForm.File[photosField])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	l, err := h.listings.AddPhotos(r.Context(), id, uploads)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) presignPhoto(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Filename) == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}
	upload, public, err := h.listings.PresignPhoto(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{UploadURL: upload, PublicURL: public})
}

// decodeListing reads a listing either as a JSON body or as a multipart form
// with the listing JSON in one field and photo files in another.
func decodeListing(r *http.Request) (*models.Listing, []services.PhotoUpload, func(), error) {
	noop := func() {}
	l := &models.Listing{}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(l); err != nil {
			return nil, nil, noop, fmt.Errorf("invalid listing body: %w", err)
		}
		return l, nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, nil, noop, fmt.Errorf("invalid multipart form: %w", err)
	}
	form := r.MultipartForm
	if err := json.Unmarshal([]byte(r.FormValue(listingField)), l); err != nil {
		_ = form.RemoveAll()
		return nil, nil, noop, fmt.Errorf("invalid %s field: %w", listingField, err)
	}

	uploads, closeFiles, err := openUploads(form.File[photosField])
	if err != nil {
		_ = form.RemoveAll()
		return nil, nil, noop, err
	}
	return l, uploads, func() {
		closeFiles()
		_ = form.RemoveAll()
	}, nil
}

func openUploads(headers []*multipart.FileHeader) ([]services.PhotoUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]services.PhotoUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, services.PhotoUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
