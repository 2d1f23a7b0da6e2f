// Package services contains server-side business logic. This file implements
// AuthService, which checks the operator credentials and issues, rotates and
// revokes JWT access tokens plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/auth"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/config"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService provides the operator authentication flow:
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: revoke a refresh token
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	credentials                  auth.Credentials
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		credentials: auth.Credentials{
			Username:     cfg.AuthUsername,
			Password:     cfg.AuthPassword,
			PasswordHash: cfg.AuthPasswordHash,
		},
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Login checks the operator credentials and, on success, returns a new TokenPair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if !s.credentials.Check(username, password) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, username, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown tokens yield ErrorUnauthorized, expired
// ones ErrRefreshTokenExpired.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.Subject, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes refreshToken. An empty or unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// Authenticate returns the subject of a valid access token.
func (s *AuthService) Authenticate(accessToken string) (string, error) {
	return auth.SubjectFromToken(accessToken, s.jwtSecret)
}

// PurgeExpired drops refresh tokens that are already past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, time.Now())
}

// AccessTokenTTL and RefreshTokenTTL are used for cookie lifetimes.
func (s *AuthService) AccessTokenTTL() time.Duration  { return s.accessTokenValidityDuration }
func (s *AuthService) RefreshTokenTTL() time.Duration { return s.refreshTokenValidityDuration }

// --- helpers below ---

func (s *AuthService) generateAccessToken(subject string) (string, error) {
	return auth.GenerateToken(subject, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *AuthService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AuthService) generateTokenPair(ctx context.Context, subject string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(subject)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, subject, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
