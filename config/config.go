package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/imgtransfer"
	imghttp "github.com/sagarc03/imgtransfer/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for imgtransfer.
type Config struct {
	Server  ServerConfig       `mapstructure:"server"`
	Storage StorageConfig      `mapstructure:"storage"`
	Staging StagingConfig      `mapstructure:"staging"`
	CORS    imghttp.CORSConfig `mapstructure:"cors"`
	Metrics MetricsConfig      `mapstructure:"metrics"`
	Log     LogConfig          `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64 `mapstructure:"max_upload_size" validate:"min=0"`
	RequestTimeout  int   `mapstructure:"request_timeout" validate:"min=0"`
	ShutdownTimeout int   `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// RequestTimeoutDuration returns the per-request deadline; zero disables it.
func (s ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend    string           `mapstructure:"backend" validate:"required,oneof=s3 filesystem"`
	S3         S3Config         `mapstructure:"s3"`
	Filesystem FilesystemConfig `mapstructure:"filesystem"`
}

// S3Config holds settings for the S3 backend. Bucket is only required when
// the s3 backend is selected.
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region" validate:"required"`
	Endpoint       string `mapstructure:"endpoint" validate:"omitempty,url"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PartSizeMB     int64  `mapstructure:"part_size_mb" validate:"min=5"`
	Concurrency    int    `mapstructure:"concurrency" validate:"min=1"`
}

type FilesystemConfig struct {
	Path string `mapstructure:"path"`
}

// StagingConfig holds the directory uploads are staged in before they are
// forwarded to the backend.
type StagingConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"max-upload-size": "server.max_upload_size",
	"backend":         "storage.backend",
	"bucket":          "storage.s3.bucket",
	"region":          "storage.s3.region",
	"endpoint":        "storage.s3.endpoint",
	"storage-path":    "storage.filesystem.path",
	"staging-dir":     "staging.dir",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"metrics":         "metrics.enabled",
}

// legacyEnv lists unprefixed environment variables still honoured for
// deployments that predate the IMGTRANSFER_ prefix.
var legacyEnv = map[string]string{
	"server.port":       "PORT",
	"storage.s3.bucket": "BUCKET_NAME",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3030)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.request_timeout", 60)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("storage.backend", string(imgtransfer.BackendS3))
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "https://s3.amazonaws.com")
	v.SetDefault("storage.s3.force_path_style", true)
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.part_size_mb", 16)
	v.SetDefault("storage.s3.concurrency", 4)
	v.SetDefault("storage.filesystem.path", "./data")

	v.SetDefault("staging.dir", filepath.Join(os.TempDir(), "imgtransfer"))

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.exposed_headers", []string{"Content-Length", "ETag", "Last-Modified"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validateStorage reports backend specific settings that field tags cannot
// express.
func validateStorage(sl validator.StructLevel) {
	storage := sl.Current().Interface().(StorageConfig)

	switch imgtransfer.StorageBackend(storage.Backend) {
	case imgtransfer.BackendS3:
		if storage.S3.Bucket == "" {
			sl.ReportError(storage.S3.Bucket, "S3.Bucket", "Bucket", "required_for_s3", "")
		}
		if (storage.S3.AccessKey == "") != (storage.S3.SecretKey == "") {
			sl.ReportError(storage.S3.SecretKey, "S3.SecretKey", "SecretKey", "required_with_access_key", "")
		}
	case imgtransfer.BackendFilesystem:
		if storage.Filesystem.Path == "" {
			sl.ReportError(storage.Filesystem.Path, "Filesystem.Path", "Path", "required_for_filesystem", "")
		}
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("IMGTRANSFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "IMGTRANSFER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
