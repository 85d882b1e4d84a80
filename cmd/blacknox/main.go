package main

import (
	"fmt"
	"os"
	"runtime"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func formatVersion() string {
	return fmt.Sprintf("blacknox %s (commit: %s, built: %s, %s)", Version, GitCommit, BuildTime, runtime.Version())
}
