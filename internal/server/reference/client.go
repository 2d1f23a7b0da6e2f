// Package reference is the HTTP client of the vehicle pricing reference
// service (brands, models, years and trim details per category).
//
// Calls are single attempt with no retries. A transport error, a non-200
// status or an undecodable body turns into an Unavailable result; no error
// value ever leaves the four lookup methods.
package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// DefaultTimeout bounds every reference call.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps a single response body.
const maxBodySize = 8 << 20

// Client calls the reference service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewClient builds a client for baseURL. A non-positive timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("module", "reference"),
	}
}

// code decodes identifiers the service sends either as strings or numbers.
type code string

func (c *code) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = code(n.String())
	return nil
}

type namedCode struct {
	Code code   `json:"codigo"`
	Name string `json:"nome"`
}

type modelsEnvelope struct {
	Models []namedCode `json:"modelos"`
}

// ListBrands returns the brands of category.
func (c *Client) ListBrands(ctx context.Context, category models.Category) Result[[]models.Brand] {
	var raw []namedCode
	if err := c.get(ctx, fmt.Sprintf("/%s/marcas", category), &raw); err != nil {
		return Unavailable[[]models.Brand](err)
	}

	out := make([]models.Brand, 0, len(raw))
	for _, b := range raw {
		id, err := strconv.Atoi(string(b.Code))
		if err != nil {
			continue
		}
		out = append(out, models.Brand{ID: id, Name: b.Name})
	}
	return Ok(out)
}

// ListModels returns the models of a brand.
func (c *Client) ListModels(ctx context.Context, category models.Category, brandID int) Result[[]models.Model] {
	var env modelsEnvelope
	if err := c.get(ctx, fmt.Sprintf("/%s/marcas/%d/modelos", category, brandID), &env); err != nil {
		return Unavailable[[]models.Model](err)
	}

	out := make([]models.Model, 0, len(env.Models))
	for _, m := range env.Models {
		id, err := strconv.Atoi(string(m.Code))
		if err != nil {
			continue
		}
		out = append(out, models.Model{ID: id, Name: m.Name})
	}
	return Ok(out)
}

// ListYears returns the year/trim options of a model.
func (c *Client) ListYears(ctx context.Context, category models.Category, brandID, modelID int) Result[[]models.YearOption] {
	var raw []namedCode
	if err := c.get(ctx, fmt.Sprintf("/%s/marcas/%d/modelos/%d/anos", category, brandID, modelID), &raw); err != nil {
		return Unavailable[[]models.YearOption](err)
	}

	out := make([]models.YearOption, 0, len(raw))
	for _, y := range raw {
		out = append(out, models.YearOption{Code: string(y.Code), Name: y.Name})
	}
	return Ok(out)
}

// GetTrimDetails returns the detail document of one year/trim code.
func (c *Client) GetTrimDetails(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) Result[models.ReferenceDetail] {
	var d models.ReferenceDetail
	path := fmt.Sprintf("/%s/marcas/%d/modelos/%d/anos/%s", category, brandID, modelID, url.PathEscape(yearCode))
	if err := c.get(ctx, path, &d); err != nil {
		return Unavailable[models.ReferenceDetail](err)
	}
	return Ok(d)
}

// ErrStatus reports a non-200 answer.
var ErrStatus = errors.New("unexpected status")

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.logger.Warn(ctx, "reference request not built", "path", path, "error", err)
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "reference service unavailable", "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		c.logger.Warn(ctx, "reference service unavailable", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(dst); err != nil {
		c.logger.Warn(ctx, "reference response not decoded", "path", path, "error", err)
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
