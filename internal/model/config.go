package model

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Venue-link failure policies
const (
	VenuePolicyFatal = "fatal" // Abort the record
	VenuePolicySkip  = "skip"  // Omit the venue claim and continue
)

// Language detector providers
const (
	DetectorStatistical = "statistical"
	DetectorOpenAI      = "openai"
)

// Config is the complete importer configuration.
// It is built once by the CLI and handed to the importer explicitly.
type Config struct {
	Wikibase     WikibaseConfig  `yaml:"wikibase" mapstructure:"wikibase"`
	OpenAlex     OpenAlexConfig  `yaml:"openalex" mapstructure:"openalex"`
	Import       ImportConfig    `yaml:"import" mapstructure:"import"`
	Language     LanguageConfig  `yaml:"language" mapstructure:"language"`
	HTTP         HTTPConfig      `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Output       OutputConfig    `yaml:"output" mapstructure:"output"`
}

// WikibaseConfig selects the target knowledge base and its credentials
type WikibaseConfig struct {
	APIURL          string `yaml:"api_url" mapstructure:"api_url"`
	SandboxAPIURL   string `yaml:"sandbox_api_url" mapstructure:"sandbox_api_url"`
	Sandbox         bool   `yaml:"sandbox" mapstructure:"sandbox"`
	Username        string `yaml:"username" mapstructure:"username"`
	Password        string `yaml:"password,omitempty" mapstructure:"password"`
	SearchNamespace string `yaml:"search_namespace" mapstructure:"search_namespace"`
	EditSummary     string `yaml:"edit_summary" mapstructure:"edit_summary"`
	MaxRetries      int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Endpoint returns the API URL for the selected environment.
func (w WikibaseConfig) Endpoint() string {
	if w.Sandbox {
		return w.SandboxAPIURL
	}
	return w.APIURL
}

// OpenAlexConfig configures the bibliographic source client
type OpenAlexConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Email         string `yaml:"email" mapstructure:"email"` // Sent as mailto= on every request
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ImportConfig holds the orchestrator toggles
type ImportConfig struct {
	Upload      bool          `yaml:"upload" mapstructure:"upload"` // false means dry run
	Pause       time.Duration `yaml:"pause" mapstructure:"pause"`   // Delay between imports, 0 disables
	VenuePolicy string        `yaml:"venue_policy" mapstructure:"venue_policy"`
}

// LanguageConfig selects how label languages are detected
type LanguageConfig struct {
	Detector      string        `yaml:"detector" mapstructure:"detector"`
	Fallback      string        `yaml:"fallback" mapstructure:"fallback"`
	OpenAIModel   string        `yaml:"openai_model" mapstructure:"openai_model"`
	OpenAIAPIKey  string        `yaml:"openai_api_key,omitempty" mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url,omitempty" mapstructure:"openai_base_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HTTPConfig is shared by both API clients
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// RateLimitConfig paces requests to the source
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the source response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls reports written after a run
type OutputConfig struct {
	JSON            string `yaml:"json,omitempty" mapstructure:"json"`
	Markdown        string `yaml:"markdown,omitempty" mapstructure:"markdown"`
	MetricsTextfile string `yaml:"metrics_textfile,omitempty" mapstructure:"metrics_textfile"`
	Verbose         bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	cacheDir := ".openalexbot-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".openalexbot", "cache")
	}

	return &Config{
		Wikibase: WikibaseConfig{
			APIURL:          "https://www.wikidata.org/w/api.php",
			SandboxAPIURL:   "https://test.wikidata.org/w/api.php",
			Sandbox:         true,
			SearchNamespace: "0",
			EditSummary:     "New item imported from OpenAlex",
			MaxRetries:      2,
		},
		OpenAlex: OpenAlexConfig{
			BaseURL:       "https://api.openalex.org",
			RespectRobots: true,
		},
		Import: ImportConfig{
			Upload:      false,
			Pause:       0,
			VenuePolicy: VenuePolicyFatal,
		},
		Language: LanguageConfig{
			Detector:    DetectorStatistical,
			Fallback:    "en",
			OpenAIModel: "gpt-4o-mini",
			Timeout:     15 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "OpenAlexBot/0.2 (+https://github.com/ppiankov/openalexbot)",
			MaxBodyBytes: 10_000_000,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
	}
}

// Validate checks the configuration before any network activity.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAlex.Email) == "" {
		return fmt.Errorf("%w: openalex.email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(c.OpenAlex.Email); err != nil {
		return fmt.Errorf("%w: openalex.email %q: %v", ErrInvalidInput, c.OpenAlex.Email, err)
	}
	if c.Wikibase.Endpoint() == "" {
		return fmt.Errorf("%w: no wikibase API URL configured", ErrInvalidInput)
	}
	if c.Import.Upload && (c.Wikibase.Username == "" || c.Wikibase.Password == "") {
		return fmt.Errorf("%w: upload requires wikibase.username and wikibase.password", ErrInvalidInput)
	}

	switch c.Import.VenuePolicy {
	case VenuePolicyFatal, VenuePolicySkip:
	default:
		return fmt.Errorf("%w: unknown venue policy %q (supported: fatal, skip)", ErrInvalidInput, c.Import.VenuePolicy)
	}

	switch c.Language.Detector {
	case DetectorStatistical:
	case DetectorOpenAI:
		if c.Language.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai language detector requires an API key", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown language detector %q (supported: statistical, openai)", ErrInvalidInput, c.Language.Detector)
	}

	return nil
}
