package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func serverStats(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()

	srv, err := lookupServer(cmd, a, args[0])
	if err != nil {
		return err
	}

	stats, err := a.client.Statistics(cmd.Context(), srv)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to query %q", srv.Name), err)
	}

	if formatter.jsonMode {
		out := map[string]interface{}{
			"name":           srv.Name,
			"success_count":  stats.SuccessCount,
			"failed_count":   stats.FailedCount,
			"retry_count":    stats.RetryCount,
			"total_attempts": stats.TotalAttempts,
		}
		if stats.SuccessRate != nil {
			out["success_rate"] = *stats.SuccessRate
		}
		if stats.LastUpdated != "" {
			out["last_updated"] = stats.LastUpdated
		}
		return formatter.Print(out)
	}
	return formatter.Print(fmt.Sprintf("%s: %s", srv.Name, stats.String()))
}
