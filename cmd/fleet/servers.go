package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func addServer(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	name, address := args[0], args[1]

	if err := validateAddress(address); err != nil {
		return formatter.Error("Invalid server address", err)
	}

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()
	if !operatorAllowed(a.cfg) {
		return nil
	}

	if err := a.reg.Add(cmd.Context(), name, address); err != nil {
		return formatter.Error("Failed to add server", err)
	}
	return formatter.Success(fmt.Sprintf("Added server %q (%s)", name, address), map[string]interface{}{
		"name":    name,
		"address": address,
	})
}

func removeServer(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	name := args[0]

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()
	if !operatorAllowed(a.cfg) {
		return nil
	}

	if err := a.reg.Delete(cmd.Context(), name); err != nil {
		return formatter.Error("Failed to remove server", err)
	}
	return formatter.Success(fmt.Sprintf("Removed server %q", name), map[string]interface{}{
		"name": name,
	})
}

func listServers(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()

	servers, err := a.reg.Snapshot(cmd.Context())
	if err != nil {
		return formatter.Error("Failed to read registry", err)
	}

	if formatter.jsonMode {
		type row struct {
			Name    string `json:"name"`
			Address string `json:"address"`
			Running bool   `json:"running"`
		}
		rows := make([]row, 0, len(servers))
		for _, srv := range servers {
			rows = append(rows, row{Name: srv.Name, Address: srv.Address, Running: srv.Running})
		}
		return formatter.Print(rows)
	}

	if len(servers) == 0 {
		fmt.Println("No servers registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRUNNING")
	for _, srv := range servers {
		fmt.Fprintf(w, "%s\t%s\t%v\n", srv.Name, srv.Address, srv.Running)
	}
	return w.Flush()
}
