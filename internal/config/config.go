package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// EnvPrefix prefixes environment overrides, e.g. APIPROBE_REQUEST_TIMEOUT
	EnvPrefix = "APIPROBE"
)

// Configuration keys
const (
	KeyRequestTimeout  = "request.timeout"
	KeyRequestInsecure = "request.insecure"
	KeyHistoryArchive  = "history.archive_path"
	KeyCancelPrevious  = "session.cancel_previous"
	KeyRunnerWorkers   = "runner.concurrency"
	KeyLogLevel        = "log.level"
)

var (
	// ConfigDir is the global configuration directory (~/.apiprobe)
	ConfigDir string

	// CollectionsDir is the default directory for collection files
	CollectionsDir string

	// ConfigFile is the default settings file
	ConfigFile string
)

// Settings holds the resolved runtime configuration
type Settings struct {
	RequestTimeout time.Duration
	Insecure       bool
	HistoryArchive string // empty disables the sqlite archive
	CancelPrevious bool
	RunnerWorkers  int
	LogLevel       int
}

// Initialize sets up the configuration directories
// It creates ~/.apiprobe/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	ConfigDir = filepath.Join(homeDir, ".apiprobe")
	CollectionsDir = filepath.Join(ConfigDir, "collections")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")

	dirs := []string{ConfigDir, CollectionsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyRequestInsecure, false)
	v.SetDefault(KeyHistoryArchive, "")
	v.SetDefault(KeyCancelPrevious, false)
	v.SetDefault(KeyRunnerWorkers, 4)
	v.SetDefault(KeyLogLevel, 0)
}

// Load reads settings from cfgFile (or the default locations) and the environment.
// A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Settings, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".apiprobe")
		if ConfigDir != "" {
			v.AddConfigPath(ConfigDir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	settings := &Settings{
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		Insecure:       v.GetBool(KeyRequestInsecure),
		HistoryArchive: expandHome(v.GetString(KeyHistoryArchive)),
		CancelPrevious: v.GetBool(KeyCancelPrevious),
		RunnerWorkers:  v.GetInt(KeyRunnerWorkers),
		LogLevel:       v.GetInt(KeyLogLevel),
	}

	if settings.RequestTimeout <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyRequestTimeout, settings.RequestTimeout)
	}
	if settings.RunnerWorkers < 1 {
		settings.RunnerWorkers = 1
	}

	return settings, nil
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

// ResolveCollectionPath finds a collection file, trying the .json extension
// and the collections directory when the exact path doesn't exist.
func ResolveCollectionPath(basePath string) (string, error) {
	extensions := []string{"", ".json", ".postman_collection.json"}

	for _, ext := range extensions {
		candidate := basePath + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if filepath.IsAbs(basePath) || CollectionsDir == "" {
		return "", fmt.Errorf("file not found: %s (tried .json, .postman_collection.json extensions)", basePath)
	}

	for _, ext := range extensions {
		candidate := filepath.Join(CollectionsDir, basePath+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched current directory and %s)", basePath, CollectionsDir)
}
