package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studiowebux/apiprobe/internal/cli"
	"github.com/studiowebux/apiprobe/internal/collection"
	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/converter"
	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/history"
	"github.com/studiowebux/apiprobe/internal/mock"
	"github.com/studiowebux/apiprobe/internal/parser"
	"github.com/studiowebux/apiprobe/internal/session"
	"github.com/studiowebux/apiprobe/internal/types"
)

// Flags for import/export
var (
	flagHAR        bool
	flagHARName    string
	flagHARFilter  string
	flagHARHeaders bool
	flagImportOut  string
	flagExportOut  string
)

// Flags for runner, demo and history
var (
	flagConcurrency  int
	flagBail         bool
	flagDemoDir      string
	flagHistoryLimit int
	flagHistoryClear bool
	flagHistoryStats bool
)

var runCmd = &cobra.Command{
	Use:   "run <collection> <request>",
	Short: "Execute one request of a collection",
	Long: `Execute one request of a Postman v2.1 collection.

The request is matched by ID, then by name (case-insensitive). The collection
extension is optional: 'api' resolves to 'api.json' or to a file in
~/.apiprobe/collections.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := collection.NewStore()
		col, err := loadCollection(store, args[0])
		if err != nil {
			return err
		}

		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		mgr, cleanup, err := newManager(store, env)
		if err != nil {
			return err
		}
		defer cleanup()

		req, err := store.FindRequest(col.ID, args[1])
		if err != nil {
			return err
		}
		warnUnresolved(col, req, env)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		pending, err := mgr.Send(ctx, col.ID, req.ID)
		if err != nil {
			return err
		}
		return output(pending.Wait())
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <method> <url>",
	Short: "Send an ad-hoc request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := cli.BuildRequest(args[0], args[1], flagHeaders, flagData)
		if err != nil {
			return err
		}

		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		mgr, cleanup, err := newManager(collection.NewStore(), env)
		if err != nil {
			return err
		}
		defer cleanup()

		warnUnresolved(types.Collection{}, req, env)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return output(mgr.SendRequest(ctx, req).Wait())
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate a collection (or HAR capture) and list its requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		store := collection.NewStore()
		var col types.Collection
		if flagHAR {
			name := flagHARName
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			harCol, err := converter.FromHAR(data, converter.HAROptions{
				Name:          name,
				Filter:        flagHARFilter,
				ImportHeaders: flagHARHeaders,
				Log:           log,
			})
			if err != nil {
				return err
			}
			col = store.Add(harCol)
		} else {
			col, err = store.Import(data)
			if err != nil {
				return err
			}
		}

		fmt.Printf("%s (%d requests)\n", col.Name, len(col.Requests))
		for _, r := range col.Requests {
			fmt.Printf("  %-7s %-32s %s\n", r.Method, r.Name, r.URL)
		}
		if names := collectionVariables(col); len(names) > 0 {
			fmt.Printf("\nVariables: %s\n", strings.Join(names, ", "))
		}

		if flagImportOut == "" {
			return nil
		}
		return writeExport(store, col.ID, flagImportOut)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Re-export a collection as Postman v2.1 JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := collection.NewStore()
		col, err := loadCollection(store, args[0])
		if err != nil {
			return err
		}
		return writeExport(store, col.ID, flagExportOut)
	},
}

var runnerCmd = &cobra.Command{
	Use:   "runner <collection>",
	Short: "Send every request of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := collection.NewStore()
		col, err := loadCollection(store, args[0])
		if err != nil {
			return err
		}

		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		mgr, cleanup, err := newManager(store, env)
		if err != nil {
			return err
		}
		defer cleanup()

		workers := flagConcurrency
		if workers < 1 {
			workers = settings.RunnerWorkers
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		results, err := mgr.RunCollection(ctx, col.ID, session.RunOptions{Concurrency: workers, Bail: flagBail})
		fmt.Print(cli.RenderRun(results, useColor()))
		if err != nil {
			return err
		}

		for _, r := range results {
			if r.Failed() {
				return &exitError{code: 1}
			}
		}
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find <collection> <query>",
	Short: "Fuzzy search requests by name and URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := collection.NewStore()
		if _, err := loadCollection(store, args[0]); err != nil {
			return err
		}

		matches := store.Search(args[1])
		if len(matches) == 0 {
			return fmt.Errorf("no requests match %q", args[1])
		}
		for _, m := range matches {
			fmt.Printf("%-7s %-32s %s\n", m.Request.Method, m.Request.Name, m.Request.URL)
		}
		return nil
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock [config.yaml]",
	Short: "Start a mock server (echo server without a config)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mock.EchoConfig()
		workdir, _ := os.Getwd()
		if len(args) == 1 {
			loaded, err := mock.LoadConfig(args[0])
			if err != nil {
				return err
			}
			cfg = loaded
			workdir = filepath.Dir(args[0])
		}

		srv, err := mock.NewServer(cfg, workdir, log)
		if err != nil {
			return err
		}
		addr, err := srv.Start()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Mock server listening on %s (Ctrl+C to stop)\n", addr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		return srv.Stop()
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "List or write the built-in demo collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := collection.NewDefaultStore()

		for _, col := range store.List() {
			if flagDemoDir == "" {
				fmt.Printf("%s (%d requests)\n", col.Name, len(col.Requests))
				continue
			}

			if err := os.MkdirAll(flagDemoDir, config.DirPermissions); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			path := filepath.Join(flagDemoDir, slug(col.Name)+".postman_collection.json")
			if err := writeExport(store, col.ID, path); err != nil {
				return err
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived requests (requires history.archive_path)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if settings.HistoryArchive == "" {
			return fmt.Errorf("history archive is disabled, set %s in the config", config.KeyHistoryArchive)
		}

		archive, err := history.OpenArchive(settings.HistoryArchive)
		if err != nil {
			return err
		}
		defer archive.Close()

		if flagHistoryClear {
			if err := archive.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "History cleared")
			return nil
		}

		if flagHistoryStats {
			return printStats(archive)
		}

		entries, err := archive.Load(flagHistoryLimit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-7s %-45s %s (%s)\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Request.Method, e.Request.URL,
				cli.StatusLine(e.Response),
				executor.FormatDuration(e.Response.Duration))
		}
		return nil
	},
}

func printStats(archive *history.Archive) error {
	stats, err := archive.Stats()
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Printf("%-7s %-45s calls=%d ok=%d err=%d net=%d avg=%s min=%s max=%s\n",
			s.Method, s.URL, s.TotalCalls, s.SuccessCount, s.ErrorCount, s.NetworkErrors,
			executor.FormatDuration(int64(s.AvgDurationMs)),
			executor.FormatDuration(s.MinDurationMs),
			executor.FormatDuration(s.MaxDurationMs))
	}
	return nil
}

// output renders and delivers a response; 4xx/5xx and network errors exit 1
func output(resp types.Response) error {
	rendered, err := cli.Render(resp, cli.OutputOptions{
		Format: defaultFormat(),
		Full:   flagFull,
		Query:  flagQuery,
		Color:  useColor() && flagSave == "",
	})
	if err != nil {
		return err
	}

	if err := cli.Deliver(rendered, cli.DeliverOptions{SavePath: flagSave, Copy: flagCopy}, os.Stdout, os.Stderr); err != nil {
		return err
	}

	if code := cli.ExitCode(resp); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// warnUnresolved reports placeholders no variable layer can fill
func warnUnresolved(col types.Collection, req types.Request, env types.Environment) {
	resolver := parser.NewVariableResolver(col.Variables, env, nil)
	resolver.ResolveRequest(&req)
	if unresolved := resolver.GetUnresolvedVariables(); len(unresolved) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unresolved variables: %s\n", strings.Join(unresolved, ", "))
	}
}

func collectionVariables(col types.Collection) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range col.Requests {
		for _, name := range parser.ExtractRequestVariables(&r) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func writeExport(store *collection.Store, id, path string) error {
	data, err := store.Export(id)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Collection written to %s\n", path)
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

