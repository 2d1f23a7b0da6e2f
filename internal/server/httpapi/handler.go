package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/importer"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/resolver"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticator is the operator auth flow.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (string, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// Lookups answers the hierarchy lookups mirror first.
type Lookups interface {
	Brands(ctx context.Context, category models.Category) resolver.Lookup[[]models.Brand]
	Models(ctx context.Context, category models.Category, brandID int) resolver.Lookup[[]models.Model]
	Years(ctx context.Context, category models.Category, brandID, modelID int) resolver.Lookup[[]models.YearOption]
	TrimDetail(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) resolver.Lookup[*models.TrimDetail]
	Stats(ctx context.Context) (*models.CacheStats, error)
}

// Imports controls the bulk importer.
type Imports interface {
	Start(ctx context.Context, category models.Category) importer.StartResult
	Status() models.ImportProgress
	Stop() importer.StopResult
	Seed(ctx context.Context) (int, error)
}

// Listings manages listings and the feed.
type Listings interface {
	List(ctx context.Context, activeOnly bool) ([]models.Listing, error)
	Get(ctx context.Context, id int64) (*models.Listing, error)
	Create(ctx context.Context, l *models.Listing, uploads []services.PhotoUpload) error
	Update(ctx context.Context, l *models.Listing, uploads []services.PhotoUpload) error
	Delete(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (bool, error)
	AddPhotos(ctx context.Context, id int64, uploads []services.PhotoUpload) (*models.Listing, error)
	PresignPhoto(ctx context.Context, filename, contentType string) (string, string, error)
	Feed(ctx context.Context) (*models.Feed, error)
}

// Handler holds the collaborators of the routes.
type Handler struct {
	auth     Authenticator
	lookups  Lookups
	imports  Imports
	listings Listings
	logger   logging.Logger
}

func NewHandler(a Authenticator, l Lookups, i Imports, ls Listings, logger logging.Logger) *Handler {
	return &Handler{
		auth:     a,
		lookups:  l,
		imports:  i,
		listings: ls,
		logger:   logger.With("module", "http"),
	}
}

// Routes mounts every endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)
	})

	r.Get("/feed.json", h.feedJSON)
	r.Get("/json", h.feedJSON)
	r.Get("/feed.xml", h.feedXML)
	r.Get("/xml", h.feedXML)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Route("/api", func(r chi.Router) {
			r.Get("/brands/{category}", h.listBrands)
			r.Get("/models/{category}/{brand}", h.listModels)
			r.Get("/years/{category}/{brand}/{model}", h.listYears)
			r.Get("/details/{category}/{brand}/{model}/{code}", h.trimDetail)

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", h.listListings)
				r.Post("/", h.createListing)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.getListing)
					r.Put("/", h.updateListing)
					r.Delete("/", h.deleteListing)
					r.Post("/toggle", h.toggleListing)
					r.Post("/photos", h.addPhotos)
				})
			})

			r.Post("/photos/presign", h.presignPhoto)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/import/{category}", h.startImport)
			r.Get("/import/status", h.importStatus)
			r.Post("/import/stop", h.stopImport)
			r.Post("/import/seed", h.seed)
			r.Get("/cache/stats", h.cacheStats)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
