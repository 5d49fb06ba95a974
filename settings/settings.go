// Package settings loads and saves the persisted configuration of the CLI.
// The pipeline never writes settings; only Save does.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/botirk38/noteinsights"
	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/types"
)

const DefaultFile = "noteinsights.yaml"

type Settings struct {
	Provider types.ProviderConfig `yaml:"provider"`

	// Vault is the directory holding the notes.
	Vault string `yaml:"vault"`

	// Target is the note the result is inserted into. Empty prints it.
	Target         string               `yaml:"target,omitempty"`
	InsertPosition types.InsertPosition `yaml:"insert_position"`

	MaxTokensPerRequest int            `yaml:"max_tokens_per_request"`
	RetryAttempts       int            `yaml:"retry_attempts"`
	Concurrency         int            `yaml:"concurrency"`
	RequestTimeout      time.Duration  `yaml:"request_timeout"`
	Backoff             types.Backoff  `yaml:"backoff"`
	TestMode            types.TestMode `yaml:"test_mode"`
	ExcludeFolders      []string       `yaml:"exclude_folders"`
	IncludePatterns     []string       `yaml:"include_patterns,omitempty"`
	Prompts             types.Prompts  `yaml:"prompts,omitempty"`

	Cache CacheSettings `yaml:"cache"`
	Log   LogSettings   `yaml:"log"`
}

// CacheSettings selects an optional completion cache. An empty Type disables it.
type CacheSettings struct {
	Type     types.BackendType `yaml:"type,omitempty"`
	Capacity int               `yaml:"capacity,omitempty"`
	Address  string            `yaml:"address,omitempty"`
	TTL      time.Duration     `yaml:"ttl,omitempty"`
}

// BackendConfig converts the cache settings for backends.NewBackend.
func (c CacheSettings) BackendConfig() types.BackendConfig {
	return types.BackendConfig{Capacity: c.Capacity, TTL: c.TTL, ConnectionString: c.Address}
}

type LogSettings struct {
	Level   string `yaml:"level"`
	Handler string `yaml:"handler"`
}

// Default returns the settings of a fresh installation.
func Default() Settings {
	run := noteinsights.DefaultRunConfig()
	return Settings{
		Provider: types.ProviderConfig{
			Type:  types.ProviderAnthropic,
			Model: models.DefaultModel[types.ProviderAnthropic],
		},
		Vault:               ".",
		InsertPosition:      run.InsertPosition,
		MaxTokensPerRequest: run.MaxTokensPerRequest,
		RetryAttempts:       run.RetryAttempts,
		Concurrency:         run.Concurrency,
		RequestTimeout:      run.RequestTimeout,
		Backoff:             run.Backoff,
		TestMode:            types.TestMode{MaxFiles: 5, MaxTokens: 10000},
		Log:                 LogSettings{Level: "info", Handler: "text"},
	}
}

// Load reads settings from file over the defaults.
func Load(file string) (s Settings, err error) {
	s = Default()

	var yamlBytes []byte
	if yamlBytes, err = os.ReadFile(file); err != nil {
		err = errors.Wrapf(err, "failed to read settings file %s", file)
		return
	}

	if err = yaml.Unmarshal(yamlBytes, &s); err != nil {
		err = errors.Wrapf(err, "failed to unmarshal settings file %s", file)
		return
	}

	return
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(file string) (Settings, error) {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(file)
}

// Save writes s to file. The file may hold an API key, so it is private to the user.
func Save(file string, s Settings) error {
	yamlBytes, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}
	if err := os.WriteFile(file, yamlBytes, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write settings file %s", file)
	}
	return nil
}

// LoadEnv loads the given dotenv files into the environment, skipping the
// missing ones. Variables already set win.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "failed to load env file %s", file)
		}
	}
	return nil
}

// ApplyEnv overrides s from NOTEINSIGHTS_* variables and fills a missing API
// key from the provider's conventional variable, e.g. ANTHROPIC_API_KEY.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv("NOTEINSIGHTS_PROVIDER"); v != "" {
		s.Provider.Type = types.ProviderType(strings.ToLower(v))
	}
	if v := os.Getenv("NOTEINSIGHTS_MODEL"); v != "" {
		s.Provider.Model = v
	}
	if v := os.Getenv("NOTEINSIGHTS_VAULT"); v != "" {
		s.Vault = v
	}
	if s.Provider.APIKey == "" {
		s.Provider.APIKey = os.Getenv(strings.ToUpper(string(s.Provider.Type)) + "_API_KEY")
	}
}

// Validate checks the settings that the pipeline does not validate itself.
func (s Settings) Validate() error {
	switch s.Provider.Type {
	case types.ProviderAnthropic, types.ProviderOpenAI, types.ProviderGemini:
	default:
		return fmt.Errorf("unsupported provider %q", s.Provider.Type)
	}
	if !s.InsertPosition.Valid() {
		return fmt.Errorf("unknown insert position %q", s.InsertPosition)
	}
	switch s.Cache.Type {
	case "", types.BackendLRU:
	case types.BackendRedis:
		if s.Cache.Address == "" {
			return errors.New("redis cache needs an address")
		}
	default:
		return fmt.Errorf("unsupported cache %q", s.Cache.Type)
	}
	return nil
}

// ProviderConfig returns the provider selection, with the provider's default
// model when none is set.
func (s Settings) ProviderConfig() types.ProviderConfig {
	cfg := s.Provider
	if cfg.Model == "" {
		cfg.Model = models.DefaultModel[cfg.Type]
	}
	return cfg
}

// RunConfig returns the run configuration described by s.
func (s Settings) RunConfig() types.RunConfig {
	return types.RunConfig{
		MaxTokensPerRequest: s.MaxTokensPerRequest,
		RetryAttempts:       s.RetryAttempts,
		TestMode:            s.TestMode,
		ExcludeFolders:      append([]string(nil), s.ExcludeFolders...),
		IncludePatterns:     append([]string(nil), s.IncludePatterns...),
		Prompts:             s.Prompts,
		InsertPosition:      s.InsertPosition,
		Concurrency:         s.Concurrency,
		RequestTimeout:      s.RequestTimeout,
		Backoff:             s.Backoff,
	}
}
