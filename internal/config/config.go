package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Endpoints maps logical remote operations to URL path suffixes.
// There is no is_running endpoint: the running flag is derived from the
// status payload.
type Endpoints struct {
	Status string `yaml:"status"`
	Start  string `yaml:"start"`
	Stop   string `yaml:"stop"`
	Log    string `yaml:"log"`
}

// Config is the run-wide configuration for registry and control operations.
// It is constructed once at startup and passed by value into every
// operation; there is no global mutable configuration state.
type Config struct {
	// BaseURL is a template with a %s placeholder for the server address,
	// e.g. "http://%s".
	BaseURL string

	Endpoints Endpoints

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts per operation.
	RetryAttempts int

	// RetryBackoff is the fixed wait between attempts.
	RetryBackoff time.Duration

	// RegistryBackend selects the registry store: "file" or "sqlite".
	RegistryBackend string

	// RegistryPath overrides the backing file/database location.
	// Empty means the default path for the selected backend.
	RegistryPath string

	// AuthorizedOperators is an optional allow-list of OS usernames for
	// mutating commands. Empty disables the gate.
	AuthorizedOperators []string
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		BaseURL: "http://%s",
		Endpoints: Endpoints{
			Status: "/status",
			Start:  "/start",
			Stop:   "/stop",
			Log:    "/log",
		},
		Timeout:         5 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    2 * time.Second,
		RegistryBackend: BackendFile,
	}
}

// Load builds the effective configuration: defaults, overlaid by the
// optional YAML config file, overlaid by FLEET_* environment variables.
// Invalid values are logged and ignored; Load never fails.
func Load() Config {
	cfg := Default()
	applyFile(&cfg, GetPaths().ConfigFile)
	applyEnv(&cfg)
	return cfg
}

// StorePath resolves the registry backing path for the configured backend.
func (c Config) StorePath() string {
	if c.RegistryPath != "" {
		return ExpandPath(c.RegistryPath)
	}
	paths := GetPaths()
	if c.RegistryBackend == BackendSQLite {
		return paths.RegistryDB
	}
	return paths.RegistryFile
}

// URLFor builds the request URL for a server address and endpoint path.
func (c Config) URLFor(address, endpoint string) string {
	return fmt.Sprintf(c.BaseURL, address) + endpoint
}

type fileConfig struct {
	BaseURL             *string    `yaml:"base_url"`
	Endpoints           *Endpoints `yaml:"endpoints"`
	Timeout             *string    `yaml:"timeout"`
	RetryAttempts       *int       `yaml:"retry_attempts"`
	RetryBackoff        *string    `yaml:"retry_backoff"`
	RegistryBackend     *string    `yaml:"registry_backend"`
	RegistryPath        *string    `yaml:"registry_path"`
	AuthorizedOperators []string   `yaml:"authorized_operators"`
}

func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// A missing config file is the normal case.
		if !os.IsNotExist(err) {
			log.Printf("[Config] failed to read %s: %v", path, err)
		}
		return
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Printf("[Config] invalid config file %s: %v", path, err)
		return
	}

	if fc.BaseURL != nil {
		setBaseURL(cfg, *fc.BaseURL, path)
	}
	if fc.Endpoints != nil {
		applyEndpoints(&cfg.Endpoints, *fc.Endpoints)
	}
	if fc.Timeout != nil {
		setDuration(&cfg.Timeout, *fc.Timeout, "timeout")
	}
	if fc.RetryAttempts != nil {
		setAttempts(cfg, strconv.Itoa(*fc.RetryAttempts))
	}
	if fc.RetryBackoff != nil {
		setDuration(&cfg.RetryBackoff, *fc.RetryBackoff, "retry_backoff")
	}
	if fc.RegistryBackend != nil {
		setBackend(cfg, *fc.RegistryBackend)
	}
	if fc.RegistryPath != nil {
		cfg.RegistryPath = strings.TrimSpace(*fc.RegistryPath)
	}
	if len(fc.AuthorizedOperators) > 0 {
		cfg.AuthorizedOperators = trimOperators(fc.AuthorizedOperators)
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FLEET_BASE_URL")); v != "" {
		setBaseURL(cfg, v, "FLEET_BASE_URL")
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_TIMEOUT")); v != "" {
		setDuration(&cfg.Timeout, v, "FLEET_TIMEOUT")
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_RETRY_ATTEMPTS")); v != "" {
		setAttempts(cfg, v)
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_RETRY_BACKOFF")); v != "" {
		setDuration(&cfg.RetryBackoff, v, "FLEET_RETRY_BACKOFF")
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_REGISTRY_BACKEND")); v != "" {
		setBackend(cfg, v)
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_REGISTRY")); v != "" {
		cfg.RegistryPath = v
	}
	if v := strings.TrimSpace(os.Getenv("FLEET_AUTHORIZED_OPERATORS")); v != "" {
		cfg.AuthorizedOperators = trimOperators(strings.Split(v, ","))
	}
}

func setBaseURL(cfg *Config, value, source string) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "%s") {
		log.Printf("[Config] base URL from %s must contain a %%s address placeholder, keeping %q", source, cfg.BaseURL)
		return
	}
	cfg.BaseURL = value
}

func setDuration(dst *time.Duration, value, name string) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		log.Printf("[Config] invalid %s %q, keeping %s", name, value, *dst)
		return
	}
	*dst = d
}

func setAttempts(cfg *Config, value string) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		log.Printf("[Config] invalid retry attempts %q, keeping %d", value, cfg.RetryAttempts)
		return
	}
	cfg.RetryAttempts = n
}

func setBackend(cfg *Config, value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case BackendFile:
		cfg.RegistryBackend = BackendFile
	case BackendSQLite:
		cfg.RegistryBackend = BackendSQLite
	default:
		log.Printf("[Config] unknown registry backend %q, keeping %q", value, cfg.RegistryBackend)
	}
}

func applyEndpoints(dst *Endpoints, src Endpoints) {
	if src.Status != "" {
		dst.Status = src.Status
	}
	if src.Start != "" {
		dst.Start = src.Start
	}
	if src.Stop != "" {
		dst.Stop = src.Stop
	}
	if src.Log != "" {
		dst.Log = src.Log
	}
}

func trimOperators(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
