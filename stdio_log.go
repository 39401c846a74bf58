package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rook-computer/photoframe/internal/config"
)

const envStdioLog = "PHOTOFRAME_STDIO_LOG"

// setupStdioLog sends stdout and stderr, including panic traces, to the file
// named by the flag or PHOTOFRAME_STDIO_LOG. The console is left in graphics
// mode on a crash, so this is the only place such output survives.
func setupStdioLog(flagPath string) error {
	path := flagPath
	if path == "" {
		path = os.Getenv(envStdioLog)
	}
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open stdio log: %w", err)
	}
	fmt.Fprintf(f, "--- photoframe %s started %s ---\n", config.Version, time.Now().Format(time.RFC3339))
	return redirectStdio(f)
}
