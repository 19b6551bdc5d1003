package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lechic-cafe/api/internal/platform/textutil"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultCurrency         = "RWF"
	defaultRelayBaseURL     = "https://formsubmit.co"
	defaultRelayTimeout     = 15 * time.Second
	defaultLocateTimeout    = 8 * time.Second
	defaultStoragePath      = "data/carts.db"
	defaultSnapshotPrefix   = "leChicCart_v1"
	defaultFallbackWhatsApp = true
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Cafe    CafeProfile
	Relay   RelayConfig
	Orders  OrderConfig
	Storage StorageConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CafeProfile holds the business identity printed on receipts and messages.
type CafeProfile struct {
	Name           string `yaml:"name"`
	Address        string `yaml:"address"`
	Currency       string `yaml:"currency"`
	RelayEmail     string `yaml:"relay_email"`
	WhatsAppNumber string `yaml:"whatsapp_number"`
}

// RelayConfig configures the form-to-email relay collaborator.
type RelayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OrderConfig controls the order dispatch flow.
type OrderConfig struct {
	LocateTimeout time.Duration
	// FallbackWhatsApp keeps offering the messaging deep link when the
	// relay leg fails, matching the behaviour customers already know.
	FallbackWhatsApp bool
}

// StorageConfig locates the cart snapshot store.
type StorageConfig struct {
	Path           string
	SnapshotPrefix string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = textutil.NormalizeStringMap(values)
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, environment variables, and an optional YAML café profile file.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	profile, err := loadCafeProfile(stringWithDefault(lookup, "CAFE_PROFILE_FILE", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Cafe: CafeProfile{
			Name:           stringWithDefault(lookup, "CAFE_NAME", profile.Name),
			Address:        stringWithDefault(lookup, "CAFE_ADDRESS", profile.Address),
			Currency:       strings.ToUpper(stringWithDefault(lookup, "CAFE_CURRENCY", firstNonEmpty(profile.Currency, defaultCurrency))),
			RelayEmail:     stringWithDefault(lookup, "CAFE_RELAY_EMAIL", profile.RelayEmail),
			WhatsAppNumber: stringWithDefault(lookup, "CAFE_WHATSAPP_NUMBER", profile.WhatsAppNumber),
		},
		Relay: RelayConfig{
			BaseURL: stringWithDefault(lookup, "RELAY_BASE_URL", defaultRelayBaseURL),
			Timeout: durationWithDefault(lookup, "RELAY_TIMEOUT", defaultRelayTimeout),
		},
		Orders: OrderConfig{
			LocateTimeout:    durationWithDefault(lookup, "ORDER_LOCATE_TIMEOUT", defaultLocateTimeout),
			FallbackWhatsApp: boolWithDefault(lookup, "ORDER_FALLBACK_WHATSAPP", defaultFallbackWhatsApp),
		},
		Storage: StorageConfig{
			Path:           stringWithDefault(lookup, "STORAGE_PATH", defaultStoragePath),
			SnapshotPrefix: stringWithDefault(lookup, "STORAGE_SNAPSHOT_PREFIX", defaultSnapshotPrefix),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Cafe.Name) == "" {
		missing = append(missing, "Cafe.Name")
	}
	if strings.TrimSpace(cfg.Cafe.RelayEmail) == "" {
		missing = append(missing, "Cafe.RelayEmail")
	}
	if strings.TrimSpace(cfg.Cafe.WhatsAppNumber) == "" {
		missing = append(missing, "Cafe.WhatsAppNumber")
	}
	if strings.TrimSpace(cfg.Relay.BaseURL) == "" {
		missing = append(missing, "Relay.BaseURL")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		missing = append(missing, "Storage.Path")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadCafeProfile(path string) (CafeProfile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return CafeProfile{}, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CafeProfile{}, fmt.Errorf("config: profile file %s does not exist", path)
	}
	if err != nil {
		return CafeProfile{}, fmt.Errorf("config: unable to read profile %s: %w", path, err)
	}

	var profile CafeProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return CafeProfile{}, fmt.Errorf("config: failed parsing profile %s: %w", path, err)
	}
	return profile, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
