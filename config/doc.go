// Package config provides configuration loading and validation for imgtransfer.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (IMGTRANSFER_ prefix, plus BUCKET_NAME and PORT)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with IMGTRANSFER_ prefix:
//   - server.port → IMGTRANSFER_SERVER_PORT (or PORT)
//   - storage.s3.bucket → IMGTRANSFER_STORAGE_S3_BUCKET (or BUCKET_NAME)
//   - log.level → IMGTRANSFER_LOG_LEVEL
//
// # Validation
//
// Configuration is validated using struct tags and a storage level check:
//   - Port must be 1-65535
//   - Backend must be s3 or filesystem
//   - The s3 backend needs a bucket; the filesystem backend needs a path
//   - Static S3 credentials need both keys
//   - Log level must be debug, info, warn, or error; format text or json
//
// Startup fails on any validation error.
package config
