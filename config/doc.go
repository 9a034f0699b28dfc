// Package config provides configuration loading and validation for relapse.
//
// The package handles YAML configuration files, environment variables, a
// .env file and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (RELAPSE_ prefix, then legacy names)
//  4. CLI flags
//
// Variables from .env are copied into the environment first and never
// replace a variable that is already set.
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
// All config keys map to environment variables with the RELAPSE_ prefix:
//   - server.port → RELAPSE_SERVER_PORT
//   - storage.bucket → RELAPSE_STORAGE_BUCKET
//
// A few keys also accept the unprefixed names used by earlier deployments:
//   - server.port → PORT
//   - database.url → DATABASE_URL
//   - storage.bucket → AWS_S3_BUCKET
//   - storage.gcp_bucket → GCP_BUCKET
//   - storage.region → AWS_REGION
//   - storage.access_key → AWS_ACCESS_KEY_ID
//   - storage.secret_key → AWS_SECRET_ACCESS_KEY
//   - storage.credentials_file → GOOGLE_APPLICATION_CREDENTIALS
//
// Bucket and credential presence is not checked here. The operations that
// need them report ErrNotConfigured instead, so the server starts without
// them.
package config
