package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiprobe/internal/config"
)

// LoadConfig reads a mock definition from a YAML or JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks every route and compiles regex paths
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf("no routes defined")
	}

	for i := range c.Routes {
		route := &c.Routes[i]
		if route.Method == "" {
			return fmt.Errorf("route %d: method is required", i)
		}
		if route.Path == "" {
			return fmt.Errorf("route %d: path is required", i)
		}

		switch route.PathType {
		case "", PathExact, PathPrefix:
		case PathRegex:
			re, err := regexp.Compile(route.Path)
			if err != nil {
				return fmt.Errorf("route %d: invalid path regex: %w", i, err)
			}
			route.pattern = re
		default:
			return fmt.Errorf("route %d: pathType must be 'exact', 'prefix', or 'regex'", i)
		}

		if route.Echo && (route.Body != "" || route.BodyFile != "") {
			return fmt.Errorf("route %d: echo cannot be combined with body or bodyFile", i)
		}
	}

	return nil
}

// SaveConfig writes a mock definition as YAML or JSON
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EchoConfig returns a single catch-all route that echoes request bodies
func EchoConfig() *Config {
	return &Config{
		Host: "127.0.0.1",
		Routes: []Route{
			{Name: "echo", Method: "*", Path: "/", PathType: PathPrefix, Echo: true},
		},
		Logging: true,
	}
}
