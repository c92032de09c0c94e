// Package config loads arbor's YAML configuration. Settings resolve in
// order: flags, environment, the discovered config file, defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration (.arbor/config.yaml).
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Projects []ProjectRef `yaml:"projects"`
	UI       UIConfig     `yaml:"ui"`
}

// ServerConfig locates the documentation server. Token is read from the
// file only as a last resort; prefer TokenEnv pointing at an environment
// variable.
type ServerConfig struct {
	URL      string `yaml:"url"`
	Token    string `yaml:"token,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

// ResolveURL applies the ARBOR_SERVER environment override.
func (s ServerConfig) ResolveURL() string {
	if env := os.Getenv("ARBOR_SERVER"); env != "" {
		return env
	}
	return s.URL
}

// ResolveToken returns the auth token: explicit value, then the named
// environment variable, then ARBOR_TOKEN.
func (s ServerConfig) ResolveToken() string {
	if s.Token != "" {
		return s.Token
	}
	if s.TokenEnv != "" {
		return os.Getenv(s.TokenEnv)
	}
	return os.Getenv("ARBOR_TOKEN")
}

// ProjectRef names a project the user works in.
type ProjectRef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// UIConfig holds tree view preferences.
type UIConfig struct {
	ExpandAll bool `yaml:"expand_all"`
}

// Default returns the zero configuration used when no file is found.
func Default() Config {
	return Config{}
}

// Load reads a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ProjectByName finds a configured project by name or id.
func (c Config) ProjectByName(name string) (ProjectRef, bool) {
	for _, p := range c.Projects {
		if p.Name == name || p.ID == name {
			return p, true
		}
	}
	return ProjectRef{}, false
}
