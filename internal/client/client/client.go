package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// LookupMeta tells where a lookup was answered from.
type LookupMeta struct {
	Source   string
	Degraded bool
}

// ImportReply is the answer of the import control endpoints.
type ImportReply struct {
	Result string                `json:"result"`
	Status models.ImportProgress `json:"status"`
}

// Presigned is a direct-upload slot for one photo.
type Presigned struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

// HTTPClient talks to the vehiclefeed HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for baseURL with its own cookie jar.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// HTTP returns the underlying client, for direct uploads.
func (c *HTTPClient) HTTP() *http.Client { return c.http }

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, "/healthz", nil, nil, false)
	return err
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	_, err := c.call(ctx, http.MethodPost, "/auth/login", body, nil, false)
	return err
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil, false)
	return err
}

func (c *HTTPClient) Refresh(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/auth/refresh", nil, nil, false)
	return err
}

func (c *HTTPClient) Brands(ctx context.Context, category string) ([]models.Brand, LookupMeta, error) {
	var out []models.Brand
	meta, err := c.lookup(ctx, "/api/brands/"+url.PathEscape(category), &out)
	return out, meta, err
}

func (c *HTTPClient) Models(ctx context.Context, category string, brandID int) ([]models.Model, LookupMeta, error) {
	var out []models.Model
	meta, err := c.lookup(ctx, fmt.Sprintf("/api/models/%s/%d", url.PathEscape(category), brandID), &out)
	return out, meta, err
}

func (c *HTTPClient) Years(ctx context.Context, category string, brandID, modelID int) ([]models.YearOption, LookupMeta, error) {
	var out []models.YearOption
	meta, err := c.lookup(ctx, fmt.Sprintf("/api/years/%s/%d/%d", url.PathEscape(category), brandID, modelID), &out)
	return out, meta, err
}

// Detail returns nil when neither the mirror nor the reference has the trim.
func (c *HTTPClient) Detail(ctx context.Context, category string, brandID, modelID int, code string) (*models.TrimDetail, LookupMeta, error) {
	var out models.TrimDetail
	path := fmt.Sprintf("/api/details/%s/%d/%d/%s", url.PathEscape(category), brandID, modelID, url.PathEscape(code))
	meta, err := c.lookup(ctx, path, &out)
	if err != nil || meta.Source == "unavailable" {
		return nil, meta, err
	}
	return &out, meta, nil
}

// StartImport reports started=false when another run is in progress.
func (c *HTTPClient) StartImport(ctx context.Context, category string) (ImportReply, bool, error) {
	var out ImportReply
	resp, err := c.call(ctx, http.MethodPost, "/admin/import/"+url.PathEscape(category), nil, &out, true)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			st, serr := c.ImportStatus(ctx)
			return ImportReply{Result: "busy", Status: st}, false, serr
		}
		return out, false, err
	}
	return out, resp.StatusCode == http.StatusAccepted, nil
}

func (c *HTTPClient) ImportStatus(ctx context.Context) (models.ImportProgress, error) {
	var out models.ImportProgress
	_, err := c.call(ctx, http.MethodGet, "/admin/import/status", nil, &out, true)
	return out, err
}

func (c *HTTPClient) StopImport(ctx context.Context) (ImportReply, error) {
	var out ImportReply
	_, err := c.call(ctx, http.MethodPost, "/admin/import/stop", nil, &out, true)
	return out, err
}

func (c *HTTPClient) Seed(ctx context.Context) (int, error) {
	var out struct {
		Inserted int `json:"inserted"`
	}
	_, err := c.call(ctx, http.MethodPost, "/admin/import/seed", nil, &out, true)
	return out.Inserted, err
}

func (c *HTTPClient) Stats(ctx context.Context) (*models.CacheStats, error) {
	var out models.CacheStats
	if _, err := c.call(ctx, http.MethodGet, "/admin/cache/stats", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Listings(ctx context.Context, activeOnly bool) ([]models.Listing, error) {
	var out []models.Listing
	path := "/api/listings"
	if activeOnly {
		path += "?active=true"
	}
	_, err := c.call(ctx, http.MethodGet, path, nil, &out, true)
	return out, err
}

func (c *HTTPClient) ToggleListing(ctx context.Context, id int64) (bool, error) {
	var out struct {
		Active bool `json:"active"`
	}
	_, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/listings/%d/toggle", id), nil, &out, true)
	return out.Active, err
}

func (c *HTTPClient) DeleteListing(ctx context.Context, id int64) error {
	_, err := c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/listings/%d", id), nil, nil, true)
	return err
}

func (c *HTTPClient) PresignPhoto(ctx context.Context, filename, contentType string) (*Presigned, error) {
	var out Presigned
	body := map[string]string{"filename": filename, "content_type": contentType}
	if _, err := c.call(ctx, http.MethodPost, "/api/photos/presign", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Feed downloads the public feed; format is "json" or "xml".
func (c *HTTPClient) Feed(ctx context.Context, format string) ([]byte, error) {
	if format != "json" && format != "xml" {
		return nil, fmt.Errorf("unknown feed format %q", format)
	}
	resp, err := c.do(ctx, http.MethodGet, "/feed."+format, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) lookup(ctx context.Context, path string, dst any) (LookupMeta, error) {
	resp, err := c.call(ctx, http.MethodGet, path, nil, dst, true)
	if err != nil {
		return LookupMeta{}, err
	}
	return LookupMeta{
		Source:   resp.Header.Get(common.MirrorSourceHeader),
		Degraded: resp.Header.Get(common.MirrorDegradedHeader) == "true",
	}, nil
}

// call sends body as JSON and decodes a 2xx answer into dst. With retry set,
// an expired access token is refreshed once and the call repeated.
func (c *HTTPClient) call(ctx context.Context, method, path string, body, dst any, retry bool) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && retry {
		expired := apiError(resp).Message == common.ErrTokenExpired.Error()
		resp.Body.Close()
		if !expired {
			return nil, ErrUnauthorized
		}
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.do(ctx, method, path, payload); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp, apiError(resp)
	}

	if dst != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func apiError(resp *http.Response) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
