package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/studiowebux/apiprobe/internal/config"
)

// clipboardWrite is swapped in tests; headless machines have no clipboard
var clipboardWrite = clipboard.WriteAll

// DeliverOptions says where rendered output goes besides stdout
type DeliverOptions struct {
	SavePath string // write to this file instead of stdout
	Copy     bool   // also copy to the system clipboard
}

// Deliver writes output to stdout or the save file, and optionally to the
// clipboard. Status messages go to stderr.
func Deliver(output string, opts DeliverOptions, stdout, stderr io.Writer) error {
	if opts.SavePath != "" {
		if err := os.WriteFile(opts.SavePath, []byte(output), config.FilePermissions); err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		fmt.Fprintf(stderr, "Response saved to %s\n", opts.SavePath)
	} else {
		fmt.Fprint(stdout, output)
	}

	if opts.Copy {
		if err := clipboardWrite(output); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(stderr, "Response copied to clipboard")
		}
	}

	return nil
}
