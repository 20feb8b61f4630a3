// Package config loads the gateway configuration from a JSON or YAML file
// with environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig            `json:"server" yaml:"server"`
	Log    LogConfig               `json:"log,omitempty" yaml:"log,omitempty"`
	Onebot map[string]OnebotConfig `json:"onebot" yaml:"onebot"`
}

type ServerConfig struct {
	Host     string `json:"host" yaml:"host" env:"MOVIEPILOT_HOST"`
	Port     int    `json:"port" yaml:"port" env:"MOVIEPILOT_PORT"`
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty" env:"MOVIEPILOT_API_TOKEN"`
}

type LogConfig struct {
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" env:"MOVIEPILOT_DEBUG"`
}

// OnebotConfig holds per-source bot settings. The three ID lists are
// comma-separated; an empty list means no restriction for that dimension.
type OnebotConfig struct {
	PermissionUsers string `json:"permission_users,omitempty" yaml:"permission_users,omitempty"`
	Users           string `json:"users,omitempty" yaml:"users,omitempty"`
	Groups          string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// AdminIDs returns the parsed permission_users list.
func (c OnebotConfig) AdminIDs() []string { return SplitIDs(c.PermissionUsers) }

// UserIDs returns the parsed users whitelist.
func (c OnebotConfig) UserIDs() []string { return SplitIDs(c.Users) }

// GroupIDs returns the parsed groups whitelist.
func (c OnebotConfig) GroupIDs() []string { return SplitIDs(c.Groups) }

// SplitIDs splits a comma-separated ID list, dropping empty entries.
func SplitIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Onebot: map[string]OnebotConfig{},
	}
}

// LoadConfig reads the config file at path, falling back to defaults when
// the file does not exist. The format is chosen by file extension:
// .yaml/.yml parse as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
