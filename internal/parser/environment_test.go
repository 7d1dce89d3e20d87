package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/studiowebux/apiprobe/internal/types"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadEnvironment_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "dotenv",
			file: "dev.env",
			content: `# comment
base=https://api.test
token="abc"
`,
		},
		{
			name: "yaml",
			file: "dev.yaml",
			content: `base: https://api.test
token: abc
`,
		},
		{
			name: "json with comments",
			file: "dev.json",
			content: `{
  // local api
  "base": "https://api.test",
  "token": "abc",
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := LoadEnvironment(writeTempFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadEnvironment failed: %v", err)
			}
			if env["base"] != "https://api.test" {
				t.Errorf("expected base=https://api.test, got %q", env["base"])
			}
			if env["token"] != "abc" {
				t.Errorf("expected token=abc, got %q", env["token"])
			}
		})
	}
}

func TestLoadEnvironment_UnsupportedExtension(t *testing.T) {
	if _, err := LoadEnvironment(writeTempFile(t, "dev.toml", "a = 1")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadEnvironment_MissingFile(t *testing.T) {
	if _, err := LoadEnvironment(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveEnvironment_RoundTrip(t *testing.T) {
	env := types.Environment{"base": "https://api.test", "id": "7"}

	for _, name := range []string{"env.yaml", "env.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := SaveEnvironment(env, path); err != nil {
				t.Fatalf("SaveEnvironment failed: %v", err)
			}
			loaded, err := LoadEnvironment(path)
			if err != nil {
				t.Fatalf("LoadEnvironment failed: %v", err)
			}
			if len(loaded) != 2 || loaded["base"] != env["base"] || loaded["id"] != env["id"] {
				t.Errorf("round trip mismatch: %v", loaded)
			}
		})
	}
}
