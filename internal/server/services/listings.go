package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
)

// PhotoStore keeps listing photos and hands out their public URLs.
type PhotoStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
	PresignUpload(ctx context.Context, filename, contentType string) (uploadURL, publicURL string, err error)
}

// PhotoUpload is one file received from the operator.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ListingService manages listings, their photos and the public feed.
type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	photos      PhotoStore
	logger      logging.Logger
	now         func() time.Time
}

// NewListingService builds the service. photos may be nil when no bucket is
// configured; photo operations then fail with ErrPhotoStorageDisabled.
func NewListingService(db *sql.DB, m repomanager.RepositoryManager, photos PhotoStore, logger logging.Logger) *ListingService {
	return &ListingService{
		db:          db,
		repomanager: m,
		photos:      photos,
		logger:      logger.With("module", "listings"),
		now:         time.Now,
	}
}

func (s *ListingService) List(ctx context.Context, activeOnly bool) ([]models.Listing, error) {
	return s.repomanager.Listings(s.db).List(ctx, activeOnly)
}

func (s *ListingService) Get(ctx context.Context, id int64) (*models.Listing, error) {
	return s.repomanager.Listings(s.db).Get(ctx, id)
}

// Create validates l, uploads the given photos and stores the listing.
func (s *ListingService) Create(ctx context.Context, l *models.Listing, uploads []PhotoUpload) error {
	if err := ValidateListing(l); err != nil {
		return err
	}
	l.Photos = append(normalizePhotos(l.Photos), s.uploadAll(ctx, uploads)...)

	if err := s.repomanager.Listings(s.db).Create(ctx, l); err != nil {
		return fmt.Errorf("error creating listing: %w", err)
	}
	s.logger.Info(ctx, "listing created", "id", l.ID, "photos", len(l.Photos))
	return nil
}

// Update replaces the stored listing. New uploads are appended to the photos
// the caller kept.
func (s *ListingService) Update(ctx context.Context, l *models.Listing, uploads []PhotoUpload) error {
	if err := ValidateListing(l); err != nil {
		return err
	}
	l.Photos = append(normalizePhotos(l.Photos), s.uploadAll(ctx, uploads)...)

	if err := s.repomanager.Listings(s.db).Update(ctx, l); err != nil {
		return fmt.Errorf("error updating listing %d: %w", l.ID, err)
	}
	return nil
}

func (s *ListingService) Delete(ctx context.Context, id int64) error {
	return s.repomanager.Listings(s.db).Delete(ctx, id)
}

func (s *ListingService) ToggleActive(ctx context.Context, id int64) (bool, error) {
	return s.repomanager.Listings(s.db).ToggleActive(ctx, id)
}

// AddPhotos uploads files and appends their URLs to listing id inside one
// transaction, so concurrent edits do not drop photos.
func (s *ListingService) AddPhotos(ctx context.Context, id int64, uploads []PhotoUpload) (*models.Listing, error) {
	if s.photos == nil {
		return nil, common.ErrPhotoStorageDisabled
	}
	urls := s.uploadAll(ctx, uploads)

	var out *models.Listing
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Listings(tx)
		l, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		l.Photos = append(normalizePhotos(l.Photos), urls...)
		if err := repo.Update(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PresignPhoto returns a presigned PUT URL and the resulting public URL.
func (s *ListingService) PresignPhoto(ctx context.Context, filename, contentType string) (string, string, error) {
	if s.photos == nil {
		return "", "", common.ErrPhotoStorageDisabled
	}
	return s.photos.PresignUpload(ctx, filename, contentType)
}

// Feed returns the active listings, newest first.
func (s *ListingService) Feed(ctx context.Context) (*models.Feed, error) {
	items, err := s.repomanager.Listings(s.db).List(ctx, true)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Listing{}
	}
	for i := range items {
		items[i].Photos = normalizePhotos(items[i].Photos)
	}
	return &models.Feed{Vehicles: items, Total: len(items), Timestamp: s.now().UTC()}, nil
}

// uploadAll uploads every file; a failed upload is logged and skipped.
func (s *ListingService) uploadAll(ctx context.Context, uploads []PhotoUpload) []string {
	if len(uploads) == 0 {
		return nil
	}
	if s.photos == nil {
		s.logger.Warn(ctx, "photo upload skipped, storage not configured", "files", len(uploads))
		return nil
	}

	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.photos.Upload(ctx, u.Filename, u.ContentType, u.Body, u.Size)
		if err != nil {
			s.logger.Error(ctx, "photo upload failed", "file", u.Filename, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// ValidateListing checks the fields every listing needs. Errors wrap
// common.ErrInvalidListing.
func ValidateListing(l *models.Listing) error {
	if l == nil {
		return fmt.Errorf("%w: empty body", common.ErrInvalidListing)
	}
	if _, err := models.ParseCategory(string(l.Category)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidListing, err)
	}

	var problems []string
	if l.BrandID <= 0 {
		problems = append(problems, "brand_id is required")
	}
	if l.ModelID <= 0 {
		problems = append(problems, "model_id is required")
	}
	if l.ModelYear < 1900 || l.ModelYear > 2100 {
		problems = append(problems, "model_year out of range")
	}
	if l.ManufactureYear != 0 && (l.ManufactureYear > l.ModelYear || l.ManufactureYear < l.ModelYear-1) {
		problems = append(problems, "manufacture_year must be model_year or the year before")
	}
	if l.Mileage < 0 {
		problems = append(problems, "mileage must not be negative")
	}
	if l.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if l.Doors != nil && (*l.Doors < 0 || *l.Doors > 10) {
		problems = append(problems, "doors out of range")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidListing, strings.Join(problems, "; "))
	}
	return nil
}

func normalizePhotos(photos []string) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
