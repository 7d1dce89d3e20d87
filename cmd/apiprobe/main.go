package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	err := rootCmd.Execute()
	if flushLogs != nil {
		_ = flushLogs()
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the process with code without printing anything
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "apiprobe",
	Short: "apiprobe - API testing from the terminal",
	Long: `apiprobe sends HTTP requests described in Postman v2.1 collections.

Placeholders like {{base}} are filled from collection variables, the
environment file and -e flags (highest priority). Every send is kept in a
history of the last 50 requests, optionally archived to sqlite.

Examples:
  apiprobe demo -o ./collections              # Write the demo collections
  apiprobe run demo.json "List posts"         # Execute a request
  apiprobe run api.json login -e user=bob     # Provide a variable
  apiprobe send POST https://httpbin.org/post -d '{"a":1}'
  apiprobe runner api.json -c 4               # Run a whole collection
  apiprobe import capture.har --har -o api.json`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Global flags
var (
	flagConfig  string
	flagVerbose int
	flagNoColor bool
)

// Flags for run/send
var (
	flagExtraVars []string
	flagEnvFile   string
	flagOutput    string
	flagFull      bool
	flagQuery     string
	flagSave      string
	flagCopy      bool
	flagHeaders   []string
	flagData      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.apiprobe/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	for _, cmd := range []*cobra.Command{runCmd, sendCmd, runnerCmd} {
		cmd.Flags().StringArrayVarP(&flagExtraVars, "extra-vars", "e", []string{}, "Set variable (key=value), can be repeated")
		cmd.Flags().StringVar(&flagEnvFile, "env-file", "", "Load variables from a .env, .yaml or .json file")
	}
	for _, cmd := range []*cobra.Command{runCmd, sendCmd} {
		cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml/body)")
		cmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show response headers")
		cmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to the response body")
		cmd.Flags().StringVarP(&flagSave, "save", "s", "", "Save output to file")
		cmd.Flags().BoolVar(&flagCopy, "copy", false, "Copy output to the clipboard")
	}
	sendCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", []string{}, "Header 'Key: Value', can be repeated")
	sendCmd.Flags().StringVarP(&flagData, "data", "d", "", "Raw request body")

	importCmd.Flags().BoolVar(&flagHAR, "har", false, "Input is a HAR capture instead of a Postman collection")
	importCmd.Flags().StringVar(&flagHARName, "name", "", "Collection name for HAR imports")
	importCmd.Flags().StringVar(&flagHARFilter, "filter", "", "Only import HAR entries whose URL contains this text")
	importCmd.Flags().BoolVar(&flagHARHeaders, "import-headers", false, "Keep sensitive HAR headers (cookies, authorization)")
	importCmd.Flags().StringVarP(&flagImportOut, "output", "o", "", "Write the imported collection as Postman v2.1 JSON")

	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "Output file (default stdout)")

	runnerCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", 0, "Parallel requests (default runner.concurrency)")
	runnerCmd.Flags().BoolVar(&flagBail, "bail", false, "Stop after the first failed request")

	demoCmd.Flags().StringVarP(&flagDemoDir, "output", "o", "", "Directory to write the demo collections to")

	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete every archived entry")
	historyCmd.Flags().BoolVar(&flagHistoryStats, "stats", false, "Show per-endpoint statistics")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runnerCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(historyCmd)
}
