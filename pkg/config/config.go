package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for decay.
type Config struct {
	// History mining settings
	History HistoryConfig `koanf:"history" toml:"history"`

	// Thresholds for the forensic rules
	Thresholds Thresholds `koanf:"thresholds" toml:"thresholds"`

	// Social forensics from blame data
	Social SocialConfig `koanf:"social" toml:"social"`

	// Test discovery and scoring
	Testability TestabilityConfig `koanf:"testability" toml:"testability"`

	// Language front ends
	Frontend FrontendConfig `koanf:"frontend" toml:"frontend"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// User-defined rules, merged with the defaults
	Rules []RuleConfig `koanf:"rules" toml:"rules"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// HistoryConfig controls commit log mining.
type HistoryConfig struct {
	RecentDays         int      `koanf:"recent_days" toml:"recent_days"`
	MinSharedCommits   int      `koanf:"min_shared_commits" toml:"min_shared_commits"`
	MinCouplingPercent int      `koanf:"min_coupling_percent" toml:"min_coupling_percent"`
	Timeout            string   `koanf:"timeout" toml:"timeout"`
	NativeGit          bool     `koanf:"native_git" toml:"native_git"`
	SourceExtensions   []string `koanf:"source_extensions" toml:"source_extensions"`
}

// Thresholds are the numeric ceilings the default rules compare against.
type Thresholds struct {
	RipplePeers            int `koanf:"ripple_peers" toml:"ripple_peers"`
	HiddenDependencyPeers  int `koanf:"hidden_dependency_peers" toml:"hidden_dependency_peers"`
	HiddenDependencyFanOut int `koanf:"hidden_dependency_fan_out" toml:"hidden_dependency_fan_out"`
	GodClassComplexity     int `koanf:"god_class_complexity" toml:"god_class_complexity"`
	GodClassMethods        int `koanf:"god_class_methods" toml:"god_class_methods"`
	GodClassFanOut         int `koanf:"god_class_fan_out" toml:"god_class_fan_out"`
	SevereComponents       int `koanf:"severe_components" toml:"severe_components"`
	SplitComponents        int `koanf:"split_components" toml:"split_components"`
	BrainMethodComplexity  int `koanf:"brain_method_complexity" toml:"brain_method_complexity"`
	BrainMethodStatements  int `koanf:"brain_method_statements" toml:"brain_method_statements"`
	FanOut                 int `koanf:"fan_out" toml:"fan_out"`
	FragileHubChurn        int `koanf:"fragile_hub_churn" toml:"fragile_hub_churn"`
	BloatedLines           int `koanf:"bloated_lines" toml:"bloated_lines"`
}

// SocialConfig controls blame-based ownership signals.
type SocialConfig struct {
	Enabled               bool    `koanf:"enabled" toml:"enabled"`
	IslandShare           float64 `koanf:"island_share" toml:"island_share"`
	IslandInactiveDays    int     `koanf:"island_inactive_days" toml:"island_inactive_days"`
	BottleneckAuthors     int     `koanf:"bottleneck_authors" toml:"bottleneck_authors"`
	BottleneckActiveDays  int     `koanf:"bottleneck_active_days" toml:"bottleneck_active_days"`
	BottleneckRecentChurn int     `koanf:"bottleneck_recent_churn" toml:"bottleneck_recent_churn"`
	Timeout               string  `koanf:"timeout" toml:"timeout"`
}

// TestabilityConfig controls test discovery.
type TestabilityConfig struct {
	Enabled      bool    `koanf:"enabled" toml:"enabled"`
	HotspotRisk  float64 `koanf:"hotspot_risk" toml:"hotspot_risk"`
	HotspotChurn int     `koanf:"hotspot_churn" toml:"hotspot_churn"`
}

// FrontendConfig controls language front ends.
type FrontendConfig struct {
	Timeout string `koanf:"timeout" toml:"timeout"`

	// External analyzers run before the built-in front ends.
	External []ExternalConfig `koanf:"external" toml:"external"`
	Workers  int              `koanf:"workers" toml:"workers"`
}

// ExternalConfig binds an extension such as ".py" to a command that prints
// the metrics of the file given as its last argument as JSON.
type ExternalConfig struct {
	Extension string `koanf:"extension" toml:"extension"`
	Command   string `koanf:"command" toml:"command"`
	Language  string `koanf:"language" toml:"language"`
}

// ExcludeConfig controls which files are never analyzed.
type ExcludeConfig struct {
	// Patterns use gitignore syntax.
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
	SkipTests bool     `koanf:"skip_tests" toml:"skip_tests"`
}

// RuleConfig is a user rule such as `churn > 20 && maxcc > 10`.
type RuleConfig struct {
	Name        string `koanf:"name" toml:"name"`
	Priority    int    `koanf:"priority" toml:"priority"`
	Description string `koanf:"description" toml:"description"`
	Condition   string `koanf:"condition" toml:"condition"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format       string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Top          int    `koanf:"top" toml:"top"`
	HotspotsOnly bool   `koanf:"hotspots_only" toml:"hotspots_only"`
	MinChurn     int    `koanf:"min_churn" toml:"min_churn"`
}

// DefaultThresholds returns the rule thresholds used when none are
// configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RipplePeers:            10,
		HiddenDependencyPeers:  3,
		HiddenDependencyFanOut: 5,
		GodClassComplexity:     200,
		GodClassMethods:        50,
		GodClassFanOut:         50,
		SevereComponents:       4,
		SplitComponents:        3,
		BrainMethodComplexity:  15,
		BrainMethodStatements:  50,
		FanOut:                 30,
		FragileHubChurn:        10,
		BloatedLines:           500,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			RecentDays:         90,
			MinSharedCommits:   5,
			MinCouplingPercent: 30,
			Timeout:            "5m",
			NativeGit:          true,
			SourceExtensions: []string{
				".java", ".kt", ".scala", ".go", ".py", ".js", ".jsx", ".ts", ".tsx",
				".rb", ".rs", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".php", ".swift",
			},
		},
		Thresholds: DefaultThresholds(),
		Social: SocialConfig{
			Enabled:               true,
			IslandShare:           0.8,
			IslandInactiveDays:    90,
			BottleneckAuthors:     3,
			BottleneckActiveDays:  30,
			BottleneckRecentChurn: 10,
			Timeout:               "30s",
		},
		Testability: TestabilityConfig{
			Enabled:      true,
			HotspotRisk:  10,
			HotspotChurn: 5,
		},
		Frontend: FrontendConfig{
			Timeout: "30s",
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"**/test/**",
				"**/*Test.*",
				"**/node_modules/**",
				"**/vendor/**",
				"**/__pycache__/**",
			},
			Gitignore: true,
			SkipTests: true,
		},
		Output: OutputConfig{
			Format: "text",
			Top:    20,
		},
	}
}

// Load loads configuration from a file. The format follows the extension;
// unknown extensions are read as TOML. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := validateDocument(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames are searched, in order, in each search directory.
var configNames = []string{
	"decay.toml",
	"decay.yaml",
	"decay.yml",
	"decay.json",
	".decay.toml",
	".decay.yaml",
	".decay.yml",
	".decay.json",
}

// Find returns the first config file under dir or its .decay directory, or
// "" when there is none.
func Find(dir string) string {
	for _, sub := range []string{".", ".decay"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the first config file found in the working directory
// or returns the defaults. A config file that fails to load is reported
// rather than silently replaced.
func LoadOrDefault() (*Config, string, error) {
	path := Find(".")
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// HistoryTimeout returns the git log timeout.
func (c *Config) HistoryTimeout() time.Duration {
	return parseDuration(c.History.Timeout, 5*time.Minute)
}

// SocialTimeout returns the per-file git blame timeout.
func (c *Config) SocialTimeout() time.Duration {
	return parseDuration(c.Social.Timeout, 30*time.Second)
}

// FrontendTimeout returns the per-file external front end timeout.
func (c *Config) FrontendTimeout() time.Duration {
	return parseDuration(c.Frontend.Timeout, 30*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
