package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings holds runtime parameters for the daemon and CLI.
// Zero values mean "unspecified" and will be replaced by defaults in main.
// The core components never write this back to disk.
type Settings struct {
	Addr                string `json:"addr" yaml:"addr" toml:"addr"`
	InstallRoot         string `json:"install_root" yaml:"install_root" toml:"install_root"`
	CacheDir            string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	CatalogEndpoint     string `json:"catalog_endpoint" yaml:"catalog_endpoint" toml:"catalog_endpoint"`
	LoraHostToken       string `json:"lora_host_token" yaml:"lora_host_token" toml:"lora_host_token"`
	ConcurrentDownloads int    `json:"concurrent_downloads" yaml:"concurrent_downloads" toml:"concurrent_downloads"`
	UpdateManifestURL   string `json:"update_manifest_url" yaml:"update_manifest_url" toml:"update_manifest_url"`
	LogLevel            string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a settings file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Settings, error) {
	var cfg Settings
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
