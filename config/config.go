package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob"
	"github.com/sagarc03/relapse/database"
	relapsehttp "github.com/sagarc03/relapse/http"
)

// EnvPrefix prefixes every environment variable that maps to a config key.
const EnvPrefix = "RELAPSE"

// DotEnvFile is loaded into the environment when present. Variables that
// are already set are left alone.
var DotEnvFile = ".env"

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

// Config is the root configuration struct for relapse.
type Config struct {
	Env      string                 `mapstructure:"env" validate:"required"`
	Server   ServerConfig           `mapstructure:"server"`
	Database DatabaseConfig         `mapstructure:"database"`
	Storage  StorageConfig          `mapstructure:"storage"`
	CORS     relapsehttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// DatabaseConfig holds metadata store configuration. URL, when set, takes
// precedence over Type and DSN.
type DatabaseConfig struct {
	URL    string         `mapstructure:"url"`
	Type   string         `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	DSN    string         `mapstructure:"dsn" validate:"required"`
	Tables relapse.Tables `mapstructure:"tables"`
}

// Connection returns the database.Config described by c.
func (c DatabaseConfig) Connection() (database.Config, error) {
	typ, dsn := c.Type, c.DSN
	if c.URL != "" {
		var err error
		typ, dsn, err = database.ParseURL(c.URL)
		if err != nil {
			return database.Config{}, fmt.Errorf("database url: %w", err)
		}
	}
	return database.Config{Type: typ, DSN: dsn, Tables: c.Tables}, nil
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	Backend         string `mapstructure:"backend" validate:"required,oneof=auto s3 gcs minio stowry"`
	Bucket          string `mapstructure:"bucket"`
	GCPBucket       string `mapstructure:"gcp_bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	URLExpiry       int    `mapstructure:"url_expiry" validate:"min=1"` // seconds
}

// Blob returns the blob.Config described by c.
func (c StorageConfig) Blob() blob.Config {
	return blob.Config{
		Backend:         c.Backend,
		Bucket:          c.Bucket,
		GCPBucket:       c.GCPBucket,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		AccessKey:       c.AccessKey,
		SecretKey:       c.SecretKey,
		CredentialsFile: c.CredentialsFile,
		UseSSL:          c.UseSSL,
	}
}

func (c StorageConfig) URLExpiryDuration() time.Duration {
	return time.Duration(c.URLExpiry) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-url":          "database.url",
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"storage-backend": "storage.backend",
	"storage-bucket":  "storage.bucket",
	"port":            "server.port",
}

// legacyEnv lists the unprefixed variable names still honoured for a key.
// The prefixed name always wins when both are set.
var legacyEnv = map[string][]string{
	"server.port":              {"PORT"},
	"database.url":             {"DATABASE_URL"},
	"storage.bucket":           {"AWS_S3_BUCKET"},
	"storage.gcp_bucket":       {"GCP_BUCKET"},
	"storage.region":           {"AWS_REGION"},
	"storage.access_key":       {"AWS_ACCESS_KEY_ID"},
	"storage.secret_key":       {"AWS_SECRET_ACCESS_KEY"},
	"storage.credentials_file": {"GOOGLE_APPLICATION_CREDENTIALS"},
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

func bindLegacyEnv(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("database.url", "")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "relapse.db")
	v.SetDefault("database.tables.events", "events")
	v.SetDefault("database.tables.photos", "photos")

	v.SetDefault("storage.backend", "auto")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.gcp_bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.url_expiry", int(relapse.DefaultURLExpiry/time.Second))

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func loadDotEnv() {
	if DotEnvFile == "" {
		return
	}
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error reading env file", "file", DotEnvFile, "err", err)
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

	// 3. Bind environment variables, including a .env file
	loadDotEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

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
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if _, err := cfg.Database.Connection(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
