package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/basoka/fleet/internal/version"
	"github.com/spf13/cobra"
)

// Global variables for use across commands
var rootCmd *cobra.Command

// OutputFormatter handles output in JSON or human-readable format
type OutputFormatter struct {
	jsonMode bool
}

// newOutputFormatter creates a new formatter based on the command's --json flag
func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &OutputFormatter{jsonMode: jsonMode}
}

// Print outputs data in the appropriate format
func (f *OutputFormatter) Print(data interface{}) error {
	if f.jsonMode {
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
	} else {
		switch v := data.(type) {
		case string:
			fmt.Println(v)
		default:
			// Fallback to JSON for unknown types
			jsonBytes, _ := json.MarshalIndent(data, "", "  ")
			fmt.Println(string(jsonBytes))
		}
	}
	return nil
}

// Success outputs a success message
func (f *OutputFormatter) Success(message string, data map[string]interface{}) error {
	if f.jsonMode {
		output := map[string]interface{}{
			"success": true,
			"message": message,
		}
		for k, v := range data {
			output[k] = v
		}
		return f.Print(output)
	}
	fmt.Println(message)
	return nil
}

// Error outputs an error message
func (f *OutputFormatter) Error(message string, err error) error {
	if f.jsonMode {
		output := map[string]interface{}{
			"success": false,
			"error":   message,
		}
		if err != nil {
			output["details"] = err.Error()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(os.Stderr, string(jsonBytes))
	} else {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
		} else {
			fmt.Fprintln(os.Stderr, message)
		}
	}
	if err == nil {
		return errors.New(message)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func init() {
	// Initialize root command
	rootCmd = &cobra.Command{
		Use:   "fleet",
		Short: "Fleet - remote control for checker servers",
		Long: `Fleet keeps a registry of named checker servers and controls them over
HTTP: start, stop, status, logs and login statistics, for one server or the
whole fleet at once.`,
	}
	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	// Add global --json flag
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func main() {
	addCmd := &cobra.Command{
		Use:           "add [name] [host:port]",
		Short:         "Register a server",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          addServer,
	}

	removeCmd := &cobra.Command{
		Use:           "remove [name]",
		Short:         "Remove a server from the registry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          removeServer,
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List all registered servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          listServers,
	}

	startCmd := &cobra.Command{
		Use:           "start [name]",
		Short:         "Start a server's checker process",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          startServers,
	}
	startCmd.Flags().Bool("all", false, "Start every registered server")

	stopCmd := &cobra.Command{
		Use:           "stop [name]",
		Short:         "Stop a server's checker process",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          stopServers,
	}
	stopCmd.Flags().Bool("all", false, "Stop every registered server")

	statusCmd := &cobra.Command{
		Use:           "status [name]",
		Short:         "Query server status",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serverStatus,
	}
	statusCmd.Flags().Bool("all", false, "Query every registered server")

	runningCmd := &cobra.Command{
		Use:           "running [name]",
		Short:         "Report whether the checker process is running",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serverRunning,
	}

	logCmd := &cobra.Command{
		Use:           "log [name]",
		Short:         "Fetch the server's recent log",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serverLog,
	}
	logCmd.Flags().String("lines", "", "Number of log lines to request (1-500, default 50)")
	logCmd.Flags().Bool("save", false, "Save the log bundle under the fleet logs directory instead of printing")

	statsCmd := &cobra.Command{
		Use:           "stats [name]",
		Short:         "Show login statistics",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serverStats,
	}

	versionCmd := &cobra.Command{
		Use:           "version",
		Short:         "Print the fleet version",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newOutputFormatter(cmd).Print(version.String())
		},
	}

	rootCmd.AddCommand(addCmd, removeCmd, listCmd, startCmd, stopCmd,
		statusCmd, runningCmd, logCmd, statsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
