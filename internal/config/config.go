package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

// Vision provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the petmatch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Vision    VisionConfig    `yaml:"vision"`
	Directory DirectoryConfig `yaml:"directory"`
	Search    SearchConfig    `yaml:"search"`
	Enrich    EnrichConfig    `yaml:"enrichment"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings for the browser frontend.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"` // default "*"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	RequestTimeout  int `yaml:"request_timeout_sec"`
}

// CacheConfig holds the enrichment cache connection. Empty addrs disables caching.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	OrganizationTTL  int      `yaml:"organization_ttl_hours"`
	DescriptionTTL   int      `yaml:"description_ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// VisionConfig holds the trait extraction provider settings.
type VisionConfig struct {
	Provider        string       `yaml:"provider"` // openai, gemini
	APIKey          string       `yaml:"api_key"`
	BaseURL         string       `yaml:"base_url"`
	Model           string       `yaml:"model"`
	Temperature     float32      `yaml:"temperature"`
	MaxOutputTokens int          `yaml:"max_output_tokens"`
	MaxImages       int          `yaml:"max_images"`
	Budget          BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps paid vision calls. The budget is shared across the process.
type BudgetConfig struct {
	DailyCallLimit   int64  `yaml:"daily_call_limit"`   // 0 = unlimited
	MonthlyCallLimit int64  `yaml:"monthly_call_limit"` // 0 = unlimited
	Action           string `yaml:"action"`             // "reject" | "warn" (default)
}

// DirectoryConfig holds Petfinder API settings.
type DirectoryConfig struct {
	BaseURL        string  `yaml:"base_url"`
	ClientID       string  `yaml:"client_id"`
	ClientSecret   string  `yaml:"client_secret"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
	TimeoutSec     int     `yaml:"timeout_sec"`
}

// SearchConfig holds relaxation search settings.
type SearchConfig struct {
	RadiusKm float64  `yaml:"radius_km"`
	Limit    int      `yaml:"limit"`
	Priority []string `yaml:"priority"` // least important first
}

// EnrichConfig holds listing enrichment settings.
type EnrichConfig struct {
	Enabled      bool `yaml:"enabled"`
	Descriptions bool `yaml:"descriptions"`
	PoolSize     int  `yaml:"pool_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 45
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "petmatch:"
	}
	if c.Cache.OrganizationTTL <= 0 {
		c.Cache.OrganizationTTL = 24 * 7
	}
	if c.Cache.DescriptionTTL <= 0 {
		c.Cache.DescriptionTTL = 24
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Vision.Provider == "" {
		c.Vision.Provider = ProviderGemini
	}
	if c.Vision.Model == "" {
		switch c.Vision.Provider {
		case ProviderOpenAI:
			c.Vision.Model = "gpt-4o-mini"
		default:
			c.Vision.Model = "gemini-1.5-flash"
		}
	}
	if c.Vision.Temperature <= 0 {
		c.Vision.Temperature = 0.7
	}
	if c.Vision.MaxOutputTokens <= 0 {
		c.Vision.MaxOutputTokens = 256
	}
	if c.Vision.MaxImages <= 0 {
		c.Vision.MaxImages = 5
	}
	if c.Vision.Budget.Action == "" {
		c.Vision.Budget.Action = "warn"
	}
	if c.Directory.BaseURL == "" {
		c.Directory.BaseURL = "https://api.petfinder.com/v2"
	}
	if c.Directory.RequestsPerSec <= 0 {
		c.Directory.RequestsPerSec = 5
	}
	if c.Directory.Burst <= 0 {
		c.Directory.Burst = 5
	}
	if c.Directory.TimeoutSec <= 0 {
		c.Directory.TimeoutSec = 10
	}
	if c.Search.RadiusKm <= 0 {
		c.Search.RadiusKm = 32
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 20
	}
	if len(c.Search.Priority) == 0 {
		for _, k := range trait.DefaultPriority() {
			c.Search.Priority = append(c.Search.Priority, string(k))
		}
	}
	if c.Enrich.PoolSize <= 0 {
		c.Enrich.PoolSize = 4
	}
	if c.CORS.AllowedOrigin == "" {
		c.CORS.AllowedOrigin = "*"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Vision.Provider {
	case ProviderOpenAI, ProviderGemini:
		// ok
	default:
		return fmt.Errorf("vision.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderGemini, c.Vision.Provider)
	}
	if c.Vision.APIKey == "" {
		return fmt.Errorf("vision.api_key is required")
	}
	switch c.Vision.Budget.Action {
	case "warn", "reject":
		// ok
	default:
		return fmt.Errorf("vision.budget.action must be \"warn\" or \"reject\", got %q", c.Vision.Budget.Action)
	}
	if c.Directory.ClientID == "" {
		return fmt.Errorf("directory.client_id is required")
	}
	if c.Search.Limit > 100 {
		return fmt.Errorf("search.limit must be at most 100, got %d", c.Search.Limit)
	}
	if _, err := trait.ParsePriority(c.Search.Priority); err != nil {
		return fmt.Errorf("search.priority: %w", err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
