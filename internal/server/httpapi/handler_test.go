package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/importer"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/resolver"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodToken = "good-access"

type fakeAuth struct {
	loggedOut []string
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	if username != "admin" || password != "secret" {
		return nil, common.ErrorUnauthorized
	}
	return &services.TokenPair{AccessToken: goodToken, RefreshToken: "r1"}, nil
}

func (f *fakeAuth) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	switch token {
	case "r1":
		return &services.TokenPair{AccessToken: goodToken, RefreshToken: "r2"}, nil
	case "old":
		return nil, common.ErrRefreshTokenExpired
	default:
		return nil, common.ErrorUnauthorized
	}
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Authenticate(token string) (string, error) {
	if token != goodToken {
		return "", common.ErrInvalidToken
	}
	return "admin", nil
}

func (f *fakeAuth) AccessTokenTTL() time.Duration  { return time.Minute }
func (f *fakeAuth) RefreshTokenTTL() time.Duration { return time.Hour }

type fakeLookups struct {
	brands   resolver.Lookup[[]models.Brand]
	detail   resolver.Lookup[*models.TrimDetail]
	lastCode string
	stats    *models.CacheStats
	statsErr error
}

func (f *fakeLookups) Brands(ctx context.Context, category models.Category) resolver.Lookup[[]models.Brand] {
	return f.brands
}

func (f *fakeLookups) Models(ctx context.Context, category models.Category, brandID int) resolver.Lookup[[]models.Model] {
	return resolver.Lookup[[]models.Model]{Source: resolver.SourceUnavailable}
}

func (f *fakeLookups) Years(ctx context.Context, category models.Category, brandID, modelID int) resolver.Lookup[[]models.YearOption] {
	return resolver.Lookup[[]models.YearOption]{
		Items:  []models.YearOption{{Code: "2020-1", Name: "Gol 1.0 2020"}},
		Source: resolver.SourceMirror,
	}
}

func (f *fakeLookups) TrimDetail(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) resolver.Lookup[*models.TrimDetail] {
	f.lastCode = yearCode
	return f.detail
}

func (f *fakeLookups) Stats(ctx context.Context) (*models.CacheStats, error) {
	return f.stats, f.statsErr
}

type fakeImports struct {
	mu      sync.Mutex
	running bool
	stopped bool
}

func (f *fakeImports) Start(ctx context.Context, category models.Category) importer.StartResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return importer.Busy
	}
	f.running = true
	return importer.Accepted
}

func (f *fakeImports) Status() models.ImportProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := models.ImportIdle
	if f.running {
		state = models.ImportRunning
	}
	return models.ImportProgress{Running: f.running, State: state}
}

func (f *fakeImports) Stop() importer.StopResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return importer.NotRunning
	}
	f.stopped = true
	return importer.Stopping
}

func (f *fakeImports) Seed(ctx context.Context) (int, error) { return 9, nil }

type fakeListings struct {
	rows      map[int64]*models.Listing
	uploads   []string
	noStorage bool
}

func (f *fakeListings) List(ctx context.Context, activeOnly bool) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range f.rows {
		if !activeOnly || l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListings) Get(ctx context.Context, id int64) (*models.Listing, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return l, nil
}

func (f *fakeListings) Create(ctx context.Context, l *models.Listing, uploads []services.PhotoUpload) error {
	if err := services.ValidateListing(l); err != nil {
		return err
	}
	for _, u := range uploads {
		b, _ := io.ReadAll(u.Body)
		f.uploads = append(f.uploads, u.Filename+":"+string(b))
		l.Photos = append(l.Photos, "https://cdn/"+u.Filename)
	}
	l.ID = int64(len(f.rows) + 1)
	f.rows[l.ID] = l
	return nil
}

func (f *fakeListings) Update(ctx context.Context, l *models.Listing, uploads []services.PhotoUpload) error {
	if _, ok := f.rows[l.ID]; !ok {
		return common.ErrorNotFound
	}
	f.rows[l.ID] = l
	return nil
}

func (f *fakeListings) Delete(ctx context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeListings) ToggleActive(ctx context.Context, id int64) (bool, error) {
	l, ok := f.rows[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	l.Active = !l.Active
	return l.Active, nil
}

func (f *fakeListings) AddPhotos(ctx context.Context, id int64, uploads []services.PhotoUpload) (*models.Listing, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, u := range uploads {
		l.Photos = append(l.Photos, "https://cdn/"+u.Filename)
	}
	return l, nil
}

func (f *fakeListings) PresignPhoto(ctx context.Context, filename, contentType string) (string, string, error) {
	if f.noStorage {
		return "", "", common.ErrPhotoStorageDisabled
	}
	return "https://signed/" + filename, "https://cdn/" + filename, nil
}

func (f *fakeListings) Feed(ctx context.Context) (*models.Feed, error) {
	items, _ := f.List(ctx, true)
	if items == nil {
		items = []models.Listing{}
	}
	return &models.Feed{Vehicles: items, Total: len(items), Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

type fixture struct {
	auth     *fakeAuth
	lookups  *fakeLookups
	imports  *fakeImports
	listings *fakeListings
	srv      *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:     &fakeAuth{},
		lookups:  &fakeLookups{},
		imports:  &fakeImports{},
		listings: &fakeListings{rows: map[int64]*models.Listing{}},
	}
	h := NewHandler(f.auth, f.lookups, f.imports, f.listings, logging.Discard())
	f.srv = httptest.NewServer(h.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, headers ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+goodToken)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func listingJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(models.Listing{
		Category:  models.CategoryCars,
		BrandID:   59,
		ModelID:   5940,
		ModelYear: 2020,
		Price:     55000,
		Active:    true,
	})
	require.NoError(t, err)
	return string(b)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/listings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/listings", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, f.srv.URL+"/api/listings", nil)
	req.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: goodToken})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []models.Listing{}, decode[[]models.Listing](t, resp))
}

func TestLoginRefreshLogout(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"bad"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decode[services.TokenPair](t, resp)
	assert.Equal(t, goodToken, pair.AccessToken)

	cookies := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, common.AccessTokenCookieName)
	require.Contains(t, cookies, common.RefreshTokenCookieName)
	assert.True(t, cookies[common.AccessTokenCookieName].HttpOnly)
	assert.Equal(t, "r1", cookies[common.RefreshTokenCookieName].Value)

	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/auth/refresh", nil)
	req.AddCookie(cookies[common.RefreshTokenCookieName])
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "r2", decode[services.TokenPair](t, resp2).RefreshToken)

	resp = f.do(t, http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"old"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"r2"}`))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"r2"}, f.auth.loggedOut)
	for _, c := range resp.Cookies() {
		assert.Equal(t, -1, c.MaxAge, c.Name)
	}
}

func TestLookups_SourceHeaders(t *testing.T) {
	f := newFixture(t)
	f.lookups.brands = resolver.Lookup[[]models.Brand]{
		Items:    []models.Brand{{ID: 59, Name: "VW - VolksWagen"}},
		Source:   resolver.SourceReference,
		StoreErr: &common.StoreError{Op: "find brands", Err: errors.New("down")},
	}

	resp := f.do(t, http.MethodGet, "/api/brands/carros", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "reference", resp.Header.Get(common.MirrorSourceHeader))
	assert.Equal(t, "true", resp.Header.Get(common.MirrorDegradedHeader))
	assert.Equal(t, []models.Brand{{ID: 59, Name: "VW - VolksWagen"}}, decode[[]models.Brand](t, resp))

	resp = f.do(t, http.MethodGet, "/api/models/motos/80", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unavailable", resp.Header.Get(common.MirrorSourceHeader))
	assert.Empty(t, resp.Header.Get(common.MirrorDegradedHeader))
	assert.Equal(t, []models.Model{}, decode[[]models.Model](t, resp))

	resp = f.do(t, http.MethodGet, "/api/years/carros/59/5940", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mirror", resp.Header.Get(common.MirrorSourceHeader))
}

func TestLookups_BadParams(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/brands/caminhoes", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/models/carros/abc", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/years/carros/59/0", nil).StatusCode)
}

func TestTrimDetail(t *testing.T) {
	f := newFixture(t)
	fuel := "Gasolina"
	f.lookups.detail = resolver.Lookup[*models.TrimDetail]{
		Items:  &models.TrimDetail{Category: models.CategoryCars, BrandID: 59, ModelID: 5940, Year: 2020, TrimID: "1", FuelType: &fuel},
		Source: resolver.SourceMirror,
	}

	resp := f.do(t, http.MethodGet, "/api/details/carros/59/5940/2020-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.TrimDetail](t, resp)
	assert.Equal(t, "1", got.TrimID)
	assert.Equal(t, "2020-1", f.lookups.lastCode)

	f.lookups.detail = resolver.Lookup[*models.TrimDetail]{Source: resolver.SourceUnavailable}
	resp = f.do(t, http.MethodGet, "/api/details/carros/59/5940/garbage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unavailable", resp.Header.Get(common.MirrorSourceHeader))
	assert.Equal(t, map[string]any{}, decode[map[string]any](t, resp))
}

func TestListings_CRUD(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/listings", strings.NewReader(listingJSON(t)), "Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Listing](t, resp)
	assert.Equal(t, int64(1), created.ID)

	resp = f.do(t, http.MethodGet, "/api/listings/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/listings/42", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/listings/x", nil).StatusCode)

	resp = f.do(t, http.MethodPost, "/api/listings/1/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]any](t, resp)["active"])

	resp = f.do(t, http.MethodPut, "/api/listings/1", strings.NewReader(listingJSON(t)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/listings/1", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/listings/1", nil).StatusCode)
}

func TestListings_InvalidBody(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/listings", strings.NewReader("{")).StatusCode)

	resp := f.do(t, http.MethodPost, "/api/listings", strings.NewReader(`{"category":"carros"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorBody](t, resp).Error, "invalid listing")
}

func TestListings_MultipartWithPhotos(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField(listingField, listingJSON(t)))
	fw, err := mw.CreateFormFile(photosField, "front.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("JPEG"))
	require.NoError(t, mw.Close())

	resp := f.do(t, http.MethodPost, "/api/listings", &buf, "Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Listing](t, resp)
	assert.Equal(t, []string{"https://cdn/front.jpg"}, created.Photos)
	assert.Equal(t, []string{"front.jpg:JPEG"}, f.listings.uploads)

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, err = mw.CreateFormFile(photosField, "rear.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("JPEG"))
	require.NoError(t, mw.Close())

	resp = f.do(t, http.MethodPost, "/api/listings/1/photos", &buf, "Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.Listing](t, resp).Photos, 2)
}

func TestPresign(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/photos/presign", strings.NewReader(`{"filename":"a.jpg","content_type":"image/jpeg"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[presignResponse](t, resp)
	assert.Equal(t, "https://signed/a.jpg", got.UploadURL)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/photos/presign", strings.NewReader(`{}`)).StatusCode)

	f.listings.noStorage = true
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/photos/presign", strings.NewReader(`{"filename":"a.jpg"}`)).StatusCode)
}

func TestImportEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/import/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, importer.NotRunning.String(), decode[importResponse](t, resp).Result)

	resp = f.do(t, http.MethodPost, "/admin/import/carros", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decode[importResponse](t, resp)
	assert.Equal(t, importer.Accepted.String(), body.Result)
	assert.True(t, body.Status.Running)

	resp = f.do(t, http.MethodPost, "/admin/import/motos", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/admin/import/bikes", nil).StatusCode)

	resp = f.do(t, http.MethodGet, "/admin/import/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ImportRunning, decode[models.ImportProgress](t, resp).State)

	resp = f.do(t, http.MethodPost, "/admin/import/stop", nil)
	assert.Equal(t, importer.Stopping.String(), decode[importResponse](t, resp).Result)
	assert.True(t, f.imports.stopped)

	resp = f.do(t, http.MethodPost, "/admin/import/seed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 9, decode[map[string]int](t, resp)["inserted"])
}

func TestCacheStats(t *testing.T) {
	f := newFixture(t)
	f.lookups.stats = &models.CacheStats{TotalRecords: 3, Brands: map[models.Category]int64{models.CategoryCars: 1}}

	resp := f.do(t, http.MethodGet, "/admin/cache/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), decode[models.CacheStats](t, resp).TotalRecords)

	f.lookups.statsErr = &common.StoreError{Op: "stats", Err: errors.New("down")}
	resp = f.do(t, http.MethodGet, "/admin/cache/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, common.ErrorInternal.Error(), decode[errorBody](t, resp).Error)
}

func TestFeeds(t *testing.T) {
	f := newFixture(t)
	f.listings.rows[1] = &models.Listing{ID: 1, Category: models.CategoryCars, BrandName: "VW", Active: true, Photos: []string{"https://cdn/a.jpg"}}
	f.listings.rows[2] = &models.Listing{ID: 2, Category: models.CategoryCars, Active: false}

	for _, path := range []string{"/feed.json", "/json"} {
		resp, err := http.Get(f.srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Contains(t, body, "vehicles")
		assert.Contains(t, body, "timestamp")
		assert.JSONEq(t, "1", string(body["total"]))
	}

	for _, path := range []string{"/feed.xml", "/xml"} {
		resp, err := http.Get(f.srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")

		var feed struct {
			XMLName  xml.Name `xml:"feed"`
			Total    int      `xml:"total"`
			Vehicles []struct {
				ID     int64    `xml:"id"`
				Photos []string `xml:"photos>photo"`
			} `xml:"vehicles>vehicle"`
		}
		require.NoError(t, xml.NewDecoder(resp.Body).Decode(&feed))
		resp.Body.Close()
		assert.Equal(t, 1, feed.Total)
		require.Len(t, feed.Vehicles, 1)
		assert.Equal(t, []string{"https://cdn/a.jpg"}, feed.Vehicles[0].Photos)
	}
}
