package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vehiclefeed/internal/flagx"
	"github.com/dmitrijs2005/vehiclefeed/internal/timex"
)

// JsonConfig is the DTO used only for reading JSON configuration files.
// Interval fields use timex.Duration so both "1s" strings and integer
// nanoseconds are accepted. Absent keys keep their zero value and leave the
// corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr                     string          `json:"http_addr"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration  `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration  `json:"refresh_token_validity_duration"`
	AuthUsername                 string          `json:"auth_username"`
	AuthPassword                 string          `json:"auth_password"`
	AuthPasswordHash             string          `json:"auth_password_hash"`
	S3AccessKey                  string          `json:"s3_access_key"`
	S3SecretKey                  string          `json:"s3_secret_key"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	S3PublicBaseURL              string          `json:"s3_public_base_url"`
	ListingsTable                string          `json:"listings_table"`
	ReferenceBaseURL             string          `json:"reference_base_url"`
	ReferenceTimeout             timex.Duration  `json:"reference_timeout"`
	ImportModelCap               *int            `json:"import_model_cap"`
	ImportYearCap                *int            `json:"import_year_cap"`
	ImportDelay                  *timex.Duration `json:"import_delay"`
	ImportBrands                 []string        `json:"import_brands"`
	DefaultModelYear             int             `json:"default_model_year"`
	LogLevel                     string          `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) and copies the
// values it sets into config. A missing flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setStr(&config.HTTPAddr, c.HTTPAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setStr(&config.AuthUsername, c.AuthUsername)
	setStr(&config.AuthPassword, c.AuthPassword)
	setStr(&config.AuthPasswordHash, c.AuthPasswordHash)
	setStr(&config.S3AccessKey, c.S3AccessKey)
	setStr(&config.S3SecretKey, c.S3SecretKey)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setStr(&config.ListingsTable, c.ListingsTable)
	setStr(&config.ReferenceBaseURL, c.ReferenceBaseURL)
	setStr(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ReferenceTimeout.Duration > 0 {
		config.ReferenceTimeout = c.ReferenceTimeout.Duration
	}
	if c.ImportDelay != nil {
		config.ImportDelay = c.ImportDelay.Duration
	}
	setIf(&config.ImportModelCap, c.ImportModelCap)
	setIf(&config.ImportYearCap, c.ImportYearCap)
	if c.DefaultModelYear != 0 {
		config.DefaultModelYear = c.DefaultModelYear
	}
	if len(c.ImportBrands) > 0 {
		config.ImportBrands = c.ImportBrands
	}

	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
