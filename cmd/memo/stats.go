package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oriys/memo/internal/metrics"
	"github.com/oriys/memo/internal/output"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := fetchStats(addr, timeout)
			if err != nil {
				return err
			}
			p := output.NewPrinter(output.ParseFormat(outputFormat))
			p.SetWriter(cmd.OutOrStdout())
			return p.PrintStats(snap)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "Daemon base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

func fetchStats(addr string, timeout time.Duration) (metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(strings.TrimRight(addr, "/") + "/stats")
	if err != nil {
		return snap, fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("fetch stats: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode stats: %w", err)
	}
	return snap, nil
}
