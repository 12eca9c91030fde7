package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variable overrides. Resolved once at startup; the core
// logic never consults the environment afterwards.
const (
	EnvMetadataURL = "BENCHMAP_METADATA_URL"
	EnvDataDir     = "BENCHMAP_DATA_DIR"
	EnvAPIKey      = "BENCHMAP_API_KEY"
)

// Config represents the application configuration
type Config struct {
	Version     int        `toml:"version"`
	MetadataURL string     `toml:"metadata_url"` // URL or path of metadata.json; empty means <data_dir>/metadata.json
	DataDir     string     `toml:"data_dir"`     // base directory (or URL) for data files
	APIKey      string     `toml:"api_key"`      // tile style API key, passed through to the style, unused by core logic
	UISettings  UISettings `toml:"ui"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	LabelZoom   int `toml:"label_zoom"`   // zoom level from which park name labels render
	ResultLimit int `toml:"result_limit"` // cap on rendered search results
}

// ResolveMetadataURL returns the effective metadata location.
func (c *Config) ResolveMetadataURL() string {
	if c.MetadataURL != "" {
		return c.MetadataURL
	}
	return joinLocation(c.DataDir, "metadata.json")
}

// ResolveDataURL resolves a metadata file entry against the data dir.
func (c *Config) ResolveDataURL(name string) string {
	return joinLocation(c.DataDir, name)
}

// joinLocation joins a base (URL or filesystem path) with a file name.
func joinLocation(base, name string) string {
	if base == "" {
		return name
	}
	if isURL(base) {
		if base[len(base)-1] == '/' {
			return base + name
		}
		return base + "/" + name
	}
	return filepath.Join(base, name)
}

func isURL(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || s[:8] == "https://")
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a new config service. A benchmap.toml in the
// working directory wins over the user config dir.
func NewConfigService() ConfigService {
	if _, err := os.Stat("benchmap.toml"); err == nil {
		return &configService{filePath: "benchmap.toml"}
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	benchmapDir := filepath.Join(configDir, "benchmap")
	os.MkdirAll(benchmapDir, 0755)

	return &configService{
		filePath: filepath.Join(benchmapDir, "benchmap.toml"),
	}
}

// Load loads the configuration from file, falling back to defaults when
// no file exists. Environment overrides are applied in both cases.
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		ApplyEnv(cfg)
		return cfg, nil
	}

	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.UISettings.ResultLimit <= 0 {
		cfg.UISettings.ResultLimit = DefaultConfig().UISettings.ResultLimit
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto cfg. A .env file in the
// working directory is honored when present; missing files are fine.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv(EnvMetadataURL); v != "" {
		cfg.MetadataURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: "public",
		UISettings: UISettings{
			LabelZoom:   14,
			ResultLimit: 2000,
		},
	}
}
