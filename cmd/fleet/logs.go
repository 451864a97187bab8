package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/basoka/fleet/internal/config"
	"github.com/basoka/fleet/internal/control"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

func serverLog(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	lines, _ := cmd.Flags().GetString("lines")
	save, _ := cmd.Flags().GetBool("save")

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()

	srv, err := lookupServer(cmd, a, args[0])
	if err != nil {
		return err
	}

	bundle, err := a.client.Log(cmd.Context(), srv, lines)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to fetch log from %q", srv.Name), err)
	}

	if save {
		dir, count, err := saveBundle(bundle)
		if err != nil {
			return formatter.Error("Failed to save log bundle", err)
		}
		return formatter.Success(fmt.Sprintf("Saved %d file(s) to %s", count, dir), map[string]interface{}{
			"dir":   dir,
			"files": count,
		})
	}

	text := bundle.Text
	if text == "" {
		return formatter.Print("(no log content)")
	}
	// Full content goes to pipes and files; only interactive terminals get
	// the tail-truncated view.
	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		text = control.TruncateTail(text, control.DisplayLimit)
	}
	return formatter.Print(text)
}

// saveBundle writes the bundle's artifacts into a fresh directory under the
// fleet logs dir. A text-only bundle is written as a single server.log.
func saveBundle(bundle control.Bundle) (string, int, error) {
	paths, err := config.EnsureDirs()
	if err != nil {
		return "", 0, err
	}
	dir := filepath.Join(paths.LogsDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}

	files := bundle.Artifacts
	if len(files) == 0 {
		files = map[string][]byte{"server.log": []byte(bundle.Text)}
	}
	count := 0
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return "", 0, err
		}
		count++
	}
	return dir, count, nil
}
