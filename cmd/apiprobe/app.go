package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/studiowebux/apiprobe/internal/collection"
	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/history"
	"github.com/studiowebux/apiprobe/internal/logger"
	"github.com/studiowebux/apiprobe/internal/parser"
	"github.com/studiowebux/apiprobe/internal/session"
	"github.com/studiowebux/apiprobe/internal/types"
)

var (
	settings  *config.Settings
	log       = logr.Discard()
	flushLogs func() error
)

// setup runs before every command: .env, config directories, settings, logging
func setup(cmd *cobra.Command, args []string) error {
	// a .env in the working directory may carry APIPROBE_* overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	s, err := config.Load(viper.New(), flagConfig)
	if err != nil {
		return err
	}
	settings = s

	level := settings.LogLevel
	if flagVerbose > level {
		level = flagVerbose
	}
	logger.SetLevel(int8(level))
	log, flushLogs = logger.New("apiprobe", logger.WithConsoleSink(os.Stderr))

	return nil
}

// newManager wires the executor, history and store from the loaded settings.
// The returned func closes the history archive, if any.
func newManager(store *collection.Store, env types.Environment) (*session.Manager, func(), error) {
	client, err := executor.NewHTTPClient(&executor.TLSConfig{InsecureSkipVerify: settings.Insecure}, settings.RequestTimeout)
	if err != nil {
		return nil, nil, err
	}

	historyOpts := []history.Option{history.WithLogger(log)}
	cleanup := func() {}

	if settings.HistoryArchive != "" {
		archive, err := history.OpenArchive(settings.HistoryArchive)
		if err != nil {
			return nil, nil, err
		}
		historyOpts = append(historyOpts, history.WithSink(archive))
		cleanup = func() {
			if err := archive.Close(); err != nil {
				log.Error(err, "failed to close history archive")
			}
		}
	}

	mgr := session.NewManager(
		session.WithStore(store),
		session.WithHistory(history.NewLog(historyOpts...)),
		session.WithEnvironment(env),
		session.WithCancelPrevious(settings.CancelPrevious),
		session.WithExecutorOptions(executor.WithHTTPClient(client)),
		session.WithLogger(log),
	)
	return mgr, cleanup, nil
}

// loadEnvironment merges --env-file and -e flags, -e winning
func loadEnvironment() (types.Environment, error) {
	env := types.Environment{}
	if flagEnvFile != "" {
		fileVars, err := parser.LoadEnvironment(flagEnvFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			env[k] = v
		}
	}
	for k, v := range parser.ParseAssignments(flagExtraVars) {
		env[k] = v
	}
	return env, nil
}

// loadCollection imports a Postman collection file into store
func loadCollection(store *collection.Store, path string) (types.Collection, error) {
	resolved, err := config.ResolveCollectionPath(path)
	if err != nil {
		return types.Collection{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return types.Collection{}, fmt.Errorf("failed to read collection: %w", err)
	}

	col, err := store.Import(data)
	if err != nil {
		return types.Collection{}, fmt.Errorf("%s: %w", resolved, err)
	}
	log.V(1).Info("collection loaded", "path", resolved, "name", col.Name, "requests", len(col.Requests))
	return col, nil
}

// useColor is true unless --no-color is set or stdout is piped
func useColor() bool {
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// defaultFormat prints only the body when output is piped
func defaultFormat() string {
	if flagOutput != "" {
		return flagOutput
	}
	stat, err := os.Stdout.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		return "body"
	}
	return "text"
}
