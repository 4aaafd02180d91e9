package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
	spaceshttp "github.com/shidubei/DigitalOcean-ObjectSpaces/http"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPACES"

// DefaultEnvFile is loaded when present and no env file flag is given.
const DefaultEnvFile = ".env"

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

// Config is the root configuration struct for the spaces server.
type Config struct {
	Env    string                 `mapstructure:"env" validate:"required,oneof=development production"`
	Server ServerConfig           `mapstructure:"server"`
	Spaces spaces.StorageSettings `mapstructure:"spaces"`
	CORS   spaceshttp.CORSConfig  `mapstructure:"cors"`
	Log    LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	BasePath      string `mapstructure:"base_path" validate:"omitempty,startswith=/"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" validate:"min=1"`
	// Timeouts are in seconds, 0 disables the timeout.
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     int `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// Timeout converts a seconds setting to a duration.
func Timeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"base-path":       "server.base_path",
	"max-upload-size": "server.max_upload_size",
	"access-key":      "spaces.access_key",
	"secret-key":      "spaces.secret_key",
	"region":          "spaces.region",
	"bucket":          "spaces.bucket_name",
	"endpoint":        "spaces.endpoint_url_template",
	"log-level":       "log.level",
}

// envAliases lets the storage settings be given without repeating the
// section name, e.g. SPACES_ACCESS_KEY instead of SPACES_SPACES_ACCESS_KEY.
var envAliases = map[string]string{
	"spaces.access_key":            "ACCESS_KEY",
	"spaces.secret_key":            "SECRET_KEY",
	"spaces.region":                "REGION",
	"spaces.bucket_name":           "BUCKET_NAME",
	"spaces.endpoint_url_template": "ENDPOINT_URL_TEMPLATE",
}

// bindEnvAliases binds the full and the short environment variable of every
// aliased key. The full name wins when both are set.
func bindEnvAliases(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for key, alias := range envAliases {
		full := EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		_ = v.BindEnv(key, full, EnvPrefix+"_"+alias)
	}
}

// loaderFlags are consumed by Load itself and never bound to config keys.
var loaderFlags = map[string]bool{
	"config":   true,
	"env-file": true,
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if loaderFlags[f.Name] {
			return
		}

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
// Keys without a sensible default are registered empty so that AutomaticEnv
// picks them up during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_path", "/api/v1/spaces")
	v.SetDefault("server.max_upload_size", spaceshttp.DefaultMaxUploadSize)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("spaces.access_key", "")
	v.SetDefault("spaces.secret_key", "")
	v.SetDefault("spaces.region", "")
	v.SetDefault("spaces.bucket_name", "")
	v.SetDefault("spaces.endpoint_url_template", "https://%s.digitaloceanspaces.com")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{"Content-Disposition", "Content-Length", "ETag"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// loadEnvFiles exports the variables of the given dotenv files into the
// process environment. Variables already set are left untouched. Without
// explicit files, DefaultEnvFile is loaded if it exists.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{DefaultEnvFile}
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files %s: %w", strings.Join(files, ", "), err)
	}

	slog.Debug("env files loaded", "files", files)
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults.
// Variables from dotenv files count as environment variables but never
// override a variable that is already set.
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil). An "env-file"
//     string slice flag selects the dotenv files to load.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Export dotenv files
	var envFiles []string
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			envFiles, _ = flags.GetStringSlice("env-file")
		}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	// 3. Read config files
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

	// 4. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	// 5. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 7. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Spaces.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
