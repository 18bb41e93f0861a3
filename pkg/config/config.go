package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for texneat
type Config struct {
	Doc    DocConfig    `mapstructure:"doc"`
	Build  BuildConfig  `mapstructure:"build"`
	Repair RepairConfig `mapstructure:"repair"`
	Output OutputConfig `mapstructure:"output"`
}

// DocConfig describes the document tree layout
type DocConfig struct {
	Root       string `mapstructure:"root"`        // root document, e.g. main.tex
	StyleDir   string `mapstructure:"style_dir"`   // style fragments live here
	ModulesDir string `mapstructure:"modules_dir"` // content modules live here
}

// BuildConfig holds compile-test settings
type BuildConfig struct {
	Command          string        `mapstructure:"command"`
	Args             []string      `mapstructure:"args"`
	OutputDir        string        `mapstructure:"output_dir"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinArtifactBytes int64         `mapstructure:"min_artifact_bytes"`
}

// RepairConfig holds de-escaping settings
type RepairConfig struct {
	MaxPasses    int    `mapstructure:"max_passes"`
	Backup       bool   `mapstructure:"backup"`
	PatternsFile string `mapstructure:"patterns_file"` // optional TOML rule library override
}

// OutputConfig holds rendering settings
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text", "json", "yaml"
}

var defaultConfig = Config{
	Doc: DocConfig{
		Root:       "main.tex",
		StyleDir:   "style",
		ModulesDir: "modules",
	},
	Build: BuildConfig{
		Command:          "pdflatex",
		Args:             []string{"-interaction=nonstopmode", "-halt-on-error"},
		Timeout:          parseDurationDefault("2m"),
		MinArtifactBytes: 1024,
	},
	Repair: RepairConfig{
		MaxPasses: 5,
		Backup:    false,
	},
	Output: OutputConfig{
		Format: "text",
	},
}

// LoadConfig loads configuration from defaults, config files, and environment
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("doc.root", defaultConfig.Doc.Root)
	v.SetDefault("doc.style_dir", defaultConfig.Doc.StyleDir)
	v.SetDefault("doc.modules_dir", defaultConfig.Doc.ModulesDir)

	v.SetDefault("build.command", defaultConfig.Build.Command)
	v.SetDefault("build.args", defaultConfig.Build.Args)
	v.SetDefault("build.output_dir", defaultConfig.Build.OutputDir)
	v.SetDefault("build.timeout", defaultConfig.Build.Timeout)
	v.SetDefault("build.min_artifact_bytes", defaultConfig.Build.MinArtifactBytes)

	v.SetDefault("repair.max_passes", defaultConfig.Repair.MaxPasses)
	v.SetDefault("repair.backup", defaultConfig.Repair.Backup)
	v.SetDefault("repair.patterns_file", defaultConfig.Repair.PatternsFile)

	v.SetDefault("output.format", defaultConfig.Output.Format)

	// Configuration file search paths. The texneat home is created on first
	// use so users have a place to drop config and pattern overrides.
	v.SetConfigName("texneat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := EnsureTexneatHome(); err == nil {
		v.AddConfigPath(home)
	}

	// Environment variables
	v.SetEnvPrefix("TEXNEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional); ignore error to use defaults
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	return &config, nil
}

// LoadProjectConfig loads configuration with project-level overrides applied.
// A .texneat.yaml next to the document tree wins over home-directory config.
func LoadProjectConfig(dir string) (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	projectConfigs := []string{
		".texneat.yaml",
		".texneat.yml",
		"texneat.yaml",
		"texneat.yml",
	}

	for _, configFile := range projectConfigs {
		path := filepath.Join(dir, configFile)
		data, err := os.ReadFile(path) // #nosec G304 -- project config lookup by fixed names
		if err != nil {
			continue
		}
		if err := ValidateConfig(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			continue
		}
		if err := v.Unmarshal(config); err != nil {
			continue
		}
		break
	}

	return config, nil
}

// GetDocConfig returns document tree configuration
func (c *Config) GetDocConfig() DocConfig { return c.Doc }

// GetBuildConfig returns compile-test configuration
func (c *Config) GetBuildConfig() BuildConfig { return c.Build }

// GetRepairConfig returns de-escaping configuration
func (c *Config) GetRepairConfig() RepairConfig { return c.Repair }

// parseDurationDefault is a helper to create default duration values from string literal
func parseDurationDefault(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// GetTexneatHome returns the texneat home directory
func GetTexneatHome() (string, error) {
	if home := os.Getenv("TEXNEAT_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".texneat"), nil
}

// EnsureTexneatHome creates the texneat home directory if it doesn't exist
func EnsureTexneatHome() (string, error) {
	homeDir, err := GetTexneatHome()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create texneat home directory: %v", err)
	}

	return homeDir, nil
}

// UserPatternsFile returns the path of a user-level pattern library override
// in the texneat home, when one exists. Project config and explicit flags
// take precedence over it.
func UserPatternsFile() (string, bool) {
	home, err := GetTexneatHome()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, "patterns.toml")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
