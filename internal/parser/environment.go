package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/types"
)

// LoadEnvironment reads an environment file. The format is picked by extension:
// .env (dotenv), .yaml/.yml, or .json (comments and trailing commas allowed).
func LoadEnvironment(path string) (types.Environment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".env" || filepath.Base(path) == ".env" {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		return types.Environment(vars), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	env := types.Environment{}
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(jsonc.ToJSON(data), &env); err != nil {
			return nil, fmt.Errorf("failed to parse environment JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported environment file format: %s (use .env, .yaml, .yml, or .json)", ext)
	}

	return env, nil
}

// SaveEnvironment writes an environment as YAML or JSON depending on the extension
func SaveEnvironment(env types.Environment, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported environment file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}

	return nil
}
