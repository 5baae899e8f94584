// Package config builds a types.Config from an optional YAML file, an
// optional .env file, and the process environment, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zenocode/zenocode/pkg/types"
)

// DefaultProvider is selected when neither the file nor the environment names one
const DefaultProvider = "openai"

// DefaultEnvFile is the dotenv file Load reads from the working directory
const DefaultEnvFile = ".env"

// Environment variables
const (
	EnvProvider          = "ZENOCODE_PROVIDER"
	EnvAPIKey            = "ZENOCODE_API_KEY"
	EnvModel             = "ZENOCODE_MODEL"
	EnvBaseURL           = "ZENOCODE_BASE_URL"
	EnvTimeout           = "ZENOCODE_TIMEOUT"
	EnvRequestsPerMinute = "ZENOCODE_REQUESTS_PER_MINUTE"
)

// vendorKeys are consulted when no credential has been configured
var vendorKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"ollama":    "OLLAMA_API_KEY",
}

// FileConfig is the on-disk YAML layout
type FileConfig struct {
	Provider          string `yaml:"provider"`
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	Timeout           string `yaml:"timeout"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// Options controls where Load looks
type Options struct {
	// Path of the YAML file. Empty skips the file.
	Path string
	// EnvFile is a dotenv file whose variables are added to the environment
	// without overriding ones already set. Empty skips it.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Provider and Model override every other source when set. They are
	// applied before the vendor key fallback so the key matches the
	// provider actually used.
	Provider string
	Model    string
}

// Load reads path (if it exists), then .env, then the environment
func Load(path string) (types.Config, error) {
	return LoadWithOptions(Options{Path: path, EnvFile: DefaultEnvFile})
}

// LoadWithOptions is Load with explicit sources
func LoadWithOptions(opts Options) (types.Config, error) {
	cfg := types.Config{Provider: DefaultProvider}

	if opts.Path != "" {
		file, err := LoadFile(opts.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return types.Config{}, err
		default:
			if err := file.apply(&cfg); err != nil {
				return types.Config{}, err
			}
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return types.Config{}, types.NewConfigError("", fmt.Sprintf("failed to load %s", opts.EnvFile)).
				WithOriginalErr(err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return types.Config{}, err
	}
	if opts.Provider != "" {
		cfg.Provider = opts.Provider
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	applyVendorKey(&cfg, lookup)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML file. A missing file is reported with an
// error matching fs.ErrNotExist.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, types.NewConfigError("", "failed to read config file").WithOriginalErr(err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.NewConfigError("", fmt.Sprintf("failed to parse YAML in %s", path)).WithOriginalErr(err)
	}
	return &file, nil
}

func (f *FileConfig) apply(cfg *types.Config) error {
	if f.Provider != "" {
		cfg.Provider = f.Provider
	}
	if f.APIKey != "" {
		cfg.APIKey = f.APIKey
	}
	if f.Model != "" {
		cfg.Model = f.Model
	}
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return types.NewConfigError("", fmt.Sprintf("invalid timeout %q", f.Timeout)).WithOriginalErr(err)
		}
		cfg.Timeout = d
	}
	if f.RequestsPerMinute != 0 {
		cfg.RequestsPerMinute = f.RequestsPerMinute
	}
	return nil
}

// lookupNonEmpty treats blank variables as unset
func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func applyEnv(cfg *types.Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) { return lookupNonEmpty(lookup, key) }

	if v, ok := get(EnvProvider); ok {
		cfg.Provider = v
	}
	if v, ok := get(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := get(EnvModel); ok {
		cfg.Model = v
	}
	if v, ok := get(EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return types.NewConfigError("", fmt.Sprintf("invalid %s %q", EnvTimeout, v)).WithOriginalErr(err)
		}
		cfg.Timeout = d
	}
	if v, ok := get(EnvRequestsPerMinute); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.NewConfigError("", fmt.Sprintf("invalid %s %q", EnvRequestsPerMinute, v)).WithOriginalErr(err)
		}
		cfg.RequestsPerMinute = n
	}
	return nil
}

// applyVendorKey fills an empty credential from the variable of the final
// provider only.
func applyVendorKey(cfg *types.Config, lookup func(string) (string, bool)) {
	if cfg.HasCredential() {
		return
	}
	if key, known := vendorKeys[cfg.Provider]; known {
		if v, ok := lookupNonEmpty(lookup, key); ok {
			cfg.APIKey = v
		}
	}
}
