// Command versionctl encodes, compares and indexes version strings.
//
// Usage:
//
//	versionctl encode 1.0.0-rc.1
//	versionctl sort --sort-mode numeric_aware < versions.txt
//	versionctl index --store ./data versions.txt
//	versionctl query --store ./data range --from 1.0.0 --to 2.0.0
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
