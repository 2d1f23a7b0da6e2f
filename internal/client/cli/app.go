package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/client/client"
	"github.com/dmitrijs2005/vehiclefeed/internal/client/config"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// API is the part of the HTTP client the console uses.
type API interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Brands(ctx context.Context, category string) ([]models.Brand, client.LookupMeta, error)
	Models(ctx context.Context, category string, brandID int) ([]models.Model, client.LookupMeta, error)
	Years(ctx context.Context, category string, brandID, modelID int) ([]models.YearOption, client.LookupMeta, error)
	Detail(ctx context.Context, category string, brandID, modelID int, code string) (*models.TrimDetail, client.LookupMeta, error)
	StartImport(ctx context.Context, category string) (client.ImportReply, bool, error)
	ImportStatus(ctx context.Context) (models.ImportProgress, error)
	StopImport(ctx context.Context) (client.ImportReply, error)
	Seed(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.CacheStats, error)
	Listings(ctx context.Context, activeOnly bool) ([]models.Listing, error)
	ToggleListing(ctx context.Context, id int64) (bool, error)
	DeleteListing(ctx context.Context, id int64) error
	PresignPhoto(ctx context.Context, filename, contentType string) (*client.Presigned, error)
	Feed(ctx context.Context, format string) ([]byte, error)
}

type App struct {
	config   *config.Config
	api      API
	uploader uploader
	reader   *bufio.Reader
	out      io.Writer
	userName string
	loggedIn bool
	now      func() time.Time
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return &App{
		config:   c,
		api:      apiClient,
		uploader: presignedUploader(apiClient),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}, nil
}

// Run greets the operator, offers a login and then serves commands until
// EOF, "exit" or ctx is done.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "vehiclefeed admin console, server %s (type 'help' for commands)\n", a.config.ServerURL)

	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
	if err := a.Login(ctx, nil); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(anonymous)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}
