package main

import (
	"fmt"
	"runtime"

	"github.com/oriys/memo/internal/observability"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memo %s (%s, %s/%s)\n",
				observability.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
