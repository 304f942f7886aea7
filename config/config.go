package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bucketry/bucketry"
	"github.com/bucketry/bucketry/credstore"
	bucketryhttp "github.com/bucketry/bucketry/http"
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

// Config is the root configuration struct for bucketry.
type Config struct {
	Server      ServerConfig            `mapstructure:"server"`
	Storage     StorageConfig           `mapstructure:"storage"`
	Credentials credstore.Config        `mapstructure:"credentials"`
	CORS        bucketryhttp.CORSConfig `mapstructure:"cors"`
	Log         LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP gateway configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// StorageConfig holds the storage engine configuration. It mirrors
// bucketry.Settings with config-friendly field types; Settings converts it.
type StorageConfig struct {
	Region          string `mapstructure:"region" validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`

	Endpoints       map[string]bucketry.Endpoints `mapstructure:"endpoints" validate:"required,min=1"`
	AddressingStyle string                        `mapstructure:"addressing_style" validate:"required,oneof=auto path virtual"`

	KeyPrefix     string `mapstructure:"key_prefix"`
	MaxAgeSeconds int    `mapstructure:"max_age_seconds" validate:"min=1"`
	BucketAuth    bool   `mapstructure:"bucket_auth"`

	ReducedRedundancy  bool              `mapstructure:"reduced_redundancy"`
	ContentDisposition string            `mapstructure:"content_disposition"`
	ContentLanguage    string            `mapstructure:"content_language"`
	Metadata           map[string]string `mapstructure:"metadata"`

	Encrypt    bool   `mapstructure:"encrypt"`
	EncryptKMS bool   `mapstructure:"encrypt_kms"`
	KMSKeyID   string `mapstructure:"kms_key_id"`

	FileOverwrite bool `mapstructure:"file_overwrite"`
	ReadOnly      bool `mapstructure:"read_only"`

	MaxPoolConnections    int `mapstructure:"max_pool_connections" validate:"min=1"`
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds" validate:"min=1"`
}

// Settings converts the config representation into engine settings.
// Configured header values become static settings; computed settings are
// only available programmatically.
func (c StorageConfig) Settings() bucketry.Settings {
	s := bucketry.Settings{
		Region:             c.Region,
		AccessKeyID:        c.AccessKeyID,
		SecretAccessKey:    c.SecretAccessKey,
		SessionToken:       c.SessionToken,
		Endpoints:          c.Endpoints,
		AddressingStyle:    bucketry.AddressingStyle(c.AddressingStyle),
		KeyPrefix:          c.KeyPrefix,
		MaxAge:             time.Duration(c.MaxAgeSeconds) * time.Second,
		BucketAuth:         c.BucketAuth,
		ReducedRedundancy:  c.ReducedRedundancy,
		Encrypt:            c.Encrypt,
		EncryptKMS:         c.EncryptKMS,
		KMSKeyID:           c.KMSKeyID,
		SignatureVersion:   "s3v4",
		FileOverwrite:      c.FileOverwrite,
		ReadOnly:           c.ReadOnly,
		MaxPoolConnections: c.MaxPoolConnections,
		ConnectTimeout:     time.Duration(c.ConnectTimeoutSeconds) * time.Second,
	}
	if c.ContentDisposition != "" {
		s.ContentDisposition = bucketry.Static(c.ContentDisposition)
	}
	if c.ContentLanguage != "" {
		s.ContentLanguage = bucketry.Static(c.ContentLanguage)
	}
	if len(c.Metadata) > 0 {
		s.Metadata = make(map[string]bucketry.Setting[string], len(c.Metadata))
		for k, v := range c.Metadata {
			s.Metadata[k] = bucketry.Static(v)
		}
	}
	return s
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":       "server.port",
	"region":     "storage.region",
	"key-prefix": "storage.key_prefix",
	"read-only":  "storage.read_only",
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
	v.SetDefault("server.port", 5708)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoints", map[string]bucketry.Endpoints{"s3": {}})
	v.SetDefault("storage.addressing_style", "auto")
	v.SetDefault("storage.max_age_seconds", 3600)
	v.SetDefault("storage.file_overwrite", true)
	v.SetDefault("storage.max_pool_connections", 10)
	v.SetDefault("storage.connect_timeout_seconds", 60)

	v.SetDefault("log.level", "info")
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
	v.SetEnvPrefix("BUCKETRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	return &cfg, nil
}
