package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig mirrors Config for environment parsing. Pointer fields tell an
// unset variable apart from an explicit zero.
type envConfig struct {
	HTTPAddr                     *string        `env:"HTTP_ADDR"`
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	SecretKey                    *string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_VALIDITY"`
	AuthUsername                 *string        `env:"AUTH_USERNAME"`
	AuthPassword                 *string        `env:"AUTH_PASSWORD"`
	AuthPasswordHash             *string        `env:"AUTH_PASSWORD_HASH"`
	S3AccessKey                  *string        `env:"S3_ACCESS_KEY"`
	S3SecretKey                  *string        `env:"S3_SECRET_KEY"`
	S3Bucket                     *string        `env:"S3_BUCKET"`
	S3Region                     *string        `env:"S3_REGION"`
	S3BaseEndpoint               *string        `env:"S3_BASE_ENDPOINT"`
	S3PublicBaseURL              *string        `env:"S3_PUBLIC_BASE_URL"`
	ListingsTable                *string        `env:"LISTINGS_TABLE"`
	ReferenceBaseURL             *string        `env:"REFERENCE_BASE_URL"`
	ReferenceTimeout             *time.Duration `env:"REFERENCE_TIMEOUT"`
	ImportModelCap               *int           `env:"IMPORT_MODEL_CAP"`
	ImportYearCap                *int           `env:"IMPORT_YEAR_CAP"`
	ImportDelay                  *time.Duration `env:"IMPORT_DELAY"`
	ImportBrands                 []string       `env:"IMPORT_BRANDS" envSeparator:","`
	DefaultModelYear             *int           `env:"DEFAULT_MODEL_YEAR"`
	LogLevel                     *string        `env:"LOG_LEVEL"`
}

// parseEnv loads dotenvPath (if it exists) into the process environment
// without overriding variables already set, then overlays every variable
// that is present onto config.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var c envConfig
	if err := env.Parse(&c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setIf(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setIf(&config.AuthUsername, c.AuthUsername)
	setIf(&config.AuthPassword, c.AuthPassword)
	setIf(&config.AuthPasswordHash, c.AuthPasswordHash)
	setIf(&config.S3AccessKey, c.S3AccessKey)
	setIf(&config.S3SecretKey, c.S3SecretKey)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setIf(&config.ListingsTable, c.ListingsTable)
	setIf(&config.ReferenceBaseURL, c.ReferenceBaseURL)
	setIf(&config.ReferenceTimeout, c.ReferenceTimeout)
	setIf(&config.ImportModelCap, c.ImportModelCap)
	setIf(&config.ImportYearCap, c.ImportYearCap)
	setIf(&config.ImportDelay, c.ImportDelay)
	setIf(&config.DefaultModelYear, c.DefaultModelYear)
	setIf(&config.LogLevel, c.LogLevel)
	if len(c.ImportBrands) > 0 {
		config.ImportBrands = c.ImportBrands
	}

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
