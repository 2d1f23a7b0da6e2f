package httpapi

import "net/http"

func (h *Handler) feedJSON(w http.ResponseWriter, r *http.Request) {
	feed, err := h.listings.Feed(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, feed)
}

func (h *Handler) feedXML(w http.ResponseWriter, r *http.Request) {
	feed, err := h.listings.Feed(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeXML(w, http.StatusOK, feed)
}
