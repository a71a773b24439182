package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/modsync/internal/cli"
	"github.com/arthur-debert/modsync/pkg/errors"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(errors.ExitCode(err))
	}
}
