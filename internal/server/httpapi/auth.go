package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn(r.Context(), "login rejected", "username", req.Username)
		h.fail(w, r, err)
		return
	}

	h.setTokenCookies(w, r, pair)
	writeJSON(w, http.StatusOK, pair)
}

// refresh takes the refresh token from the JSON body or, failing that, the
// refresh cookie.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	pair, err := h.auth.RefreshToken(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setTokenCookies(w, r, pair)
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), refreshToken(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.clearTokenCookies(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func refreshToken(r *http.Request) string {
	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, r *http.Request, pair *services.TokenPair) {
	http.SetCookie(w, cookie(r, common.AccessTokenCookieName, pair.AccessToken, "/", h.auth.AccessTokenTTL()))
	http.SetCookie(w, cookie(r, common.RefreshTokenCookieName, pair.RefreshToken, "/auth", h.auth.RefreshTokenTTL()))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, cookie(r, common.AccessTokenCookieName, "", "/", -1))
	http.SetCookie(w, cookie(r, common.RefreshTokenCookieName, "", "/auth", -1))
}

// cookie builds an HttpOnly auth cookie, Secure when the request came in
// over TLS directly or through a proxy.
func cookie(r *http.Request, name, value, path string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"),
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl)
	}
	return c
}
