package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/flagx"
	"github.com/dmitrijs2005/audioscribe/internal/timex"
	"github.com/pelletier/go-toml/v2"
)

// FileConfig is the on-disk shape of the configuration, shared by the JSON
// and TOML loaders. Durations accept "5m" style strings. Only fields present
// in the file (non-zero after decoding) override the current values.
type FileConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http" toml:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn" toml:"database_dsn"`
	SecretKey        string `json:"secret_key" toml:"secret_key"`
	Environment      string `json:"environment" toml:"environment"`

	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration" toml:"session_token_validity_duration"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" toml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" toml:"refresh_token_validity_duration"`
	TempTokenValidityDuration    timex.Duration `json:"temp_token_validity_duration" toml:"temp_token_validity_duration"`

	OTPValidityDuration  timex.Duration `json:"otp_validity_duration" toml:"otp_validity_duration"`
	OTPRetentionDuration timex.Duration `json:"otp_retention_duration" toml:"otp_retention_duration"`
	OTPJanitorInterval   timex.Duration `json:"otp_janitor_interval" toml:"otp_janitor_interval"`

	S3RootUser     string `json:"s3_root_user" toml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" toml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" toml:"s3_bucket"`
	S3Region       string `json:"s3_region" toml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" toml:"s3_base_endpoint"`

	TranscriptionEndpoint string         `json:"transcription_endpoint" toml:"transcription_endpoint"`
	TranscriptionTimeout  timex.Duration `json:"transcription_timeout" toml:"transcription_timeout"`
	AnalysisEndpoint      string         `json:"analysis_endpoint" toml:"analysis_endpoint"`
	AnalysisTimeout       timex.Duration `json:"analysis_timeout" toml:"analysis_timeout"`

	SMTPHost     string `json:"smtp_host" toml:"smtp_host"`
	SMTPPort     int    `json:"smtp_port" toml:"smtp_port"`
	SMTPUser     string `json:"smtp_user" toml:"smtp_user"`
	SMTPPassword string `json:"smtp_password" toml:"smtp_password"`
	SMTPFrom     string `json:"smtp_from" toml:"smtp_from"`

	CORSOrigins     []string       `json:"cors_origins" toml:"cors_origins"`
	MaxUploadBytes  int64          `json:"max_upload_bytes" toml:"max_upload_bytes"`
	SecureCookies   *bool          `json:"secure_cookies" toml:"secure_cookies"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout" toml:"shutdown_timeout"`

	LogLevel     string `json:"log_level" toml:"log_level"`
	LogFile      string `json:"log_file" toml:"log_file"`
	OTLPEndpoint string `json:"otlp_endpoint" toml:"otlp_endpoint"`
}

// parseFile overlays the file named by -c/-config onto config.
// A missing flag means nothing to load; an unreadable or malformed file panics,
// as does an unknown extension.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, fc)
	case ".toml":
		err = toml.Unmarshal(data, fc)
	default:
		return nil, fmt.Errorf("unsupported config file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.Environment, fc.Environment)

	setDuration(&c.SessionTokenValidityDuration, fc.SessionTokenValidityDuration)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	setDuration(&c.TempTokenValidityDuration, fc.TempTokenValidityDuration)
	setDuration(&c.OTPValidityDuration, fc.OTPValidityDuration)
	setDuration(&c.OTPRetentionDuration, fc.OTPRetentionDuration)
	setDuration(&c.OTPJanitorInterval, fc.OTPJanitorInterval)

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	setString(&c.TranscriptionEndpoint, fc.TranscriptionEndpoint)
	setDuration(&c.TranscriptionTimeout, fc.TranscriptionTimeout)
	setString(&c.AnalysisEndpoint, fc.AnalysisEndpoint)
	setDuration(&c.AnalysisTimeout, fc.AnalysisTimeout)

	setString(&c.SMTPHost, fc.SMTPHost)
	if fc.SMTPPort != 0 {
		c.SMTPPort = fc.SMTPPort
	}
	setString(&c.SMTPUser, fc.SMTPUser)
	setString(&c.SMTPPassword, fc.SMTPPassword)
	setString(&c.SMTPFrom, fc.SMTPFrom)

	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	if fc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.SecureCookies != nil {
		c.SecureCookies = *fc.SecureCookies
	}
	setDuration(&c.ShutdownTimeout, fc.ShutdownTimeout)

	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)
	setString(&c.OTLPEndpoint, fc.OTLPEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
