package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/config"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/httpapi"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/importer"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	return c
}

func TestNewApp_DBError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	}

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_InvalidListingsTableClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) { return db, nil }

	c := testConfig()
	c.ListingsTable = "bad-name; drop"
	_, err = NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository init error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectClose()

	c := testConfig()
	rm, err := repomanager.NewPostgresRepositoryManager(c.ListingsTable)
	require.NoError(t, err)
	logger := logging.Discard()

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		importer:    importer.New(db, rm, nil, importer.NewProgress(), logger, importer.Options{}),
		authService: services.NewAuthService(db, rm, c),
		server:      httpapi.NewServer(c.HTTPAddr, http.NotFoundHandler(), logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
