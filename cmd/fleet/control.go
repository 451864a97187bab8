package main

import (
	"fmt"

	"github.com/basoka/fleet/internal/control"
	"github.com/basoka/fleet/internal/fleet"
	"github.com/basoka/fleet/internal/registry"
	"github.com/spf13/cobra"
)

func startServers(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return formatter.Error("Server name required (or --all)", nil)
	}

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()
	if !operatorAllowed(a.cfg) {
		return nil
	}

	if all {
		lines, err := fleet.New(a.reg, a.client).StartAll(cmd.Context())
		if err != nil {
			return formatter.Error("Failed to start servers", err)
		}
		return printReport(formatter, lines)
	}

	srv, err := lookupServer(cmd, a, args[0])
	if err != nil {
		return err
	}

	res, err := a.client.Start(cmd.Context(), &srv)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to start %q", srv.Name), err)
	}
	switch res.Outcome {
	case control.OutcomeAlreadyRunning:
		return formatter.Success(fmt.Sprintf("%q already running", srv.Name), actionData(srv.Name, res))
	case control.OutcomeFailed:
		return formatter.Error(fmt.Sprintf("Failed to start %q: %s", srv.Name, res.Message), nil)
	default:
		msg := fmt.Sprintf("Started %q", srv.Name)
		if res.PID > 0 {
			msg = fmt.Sprintf("Started %q (pid %d)", srv.Name, res.PID)
		}
		return formatter.Success(msg, actionData(srv.Name, res))
	}
}

func stopServers(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return formatter.Error("Server name required (or --all)", nil)
	}

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()
	if !operatorAllowed(a.cfg) {
		return nil
	}

	if all {
		lines, err := fleet.New(a.reg, a.client).StopAll(cmd.Context())
		if err != nil {
			return formatter.Error("Failed to stop servers", err)
		}
		return printReport(formatter, lines)
	}

	srv, err := lookupServer(cmd, a, args[0])
	if err != nil {
		return err
	}

	res, err := a.client.Stop(cmd.Context(), &srv)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to stop %q", srv.Name), err)
	}
	switch res.Outcome {
	case control.OutcomeNotRunning:
		return formatter.Success(fmt.Sprintf("%q was not running", srv.Name), actionData(srv.Name, res))
	case control.OutcomeFailed:
		return formatter.Error(fmt.Sprintf("Failed to stop %q: %s", srv.Name, res.Message), nil)
	default:
		return formatter.Success(fmt.Sprintf("Stopped %q", srv.Name), actionData(srv.Name, res))
	}
}

func serverStatus(cmd *cobra.Command, args []string) error {
	formatter := newOutputFormatter(cmd)
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return formatter.Error("Server name required (or --all)", nil)
	}

	a, err := openApp()
	if err != nil {
		return formatter.Error("Failed to open registry", err)
	}
	defer a.close()

	if all {
		lines, err := fleet.New(a.reg, a.client).StatusAll(cmd.Context())
		if err != nil {
			return formatter.Error("Failed to query servers", err)
		}
		return printReport(formatter, lines)
	}

	srv, err := lookupServer(cmd, a, args[0])
	if err != nil {
		return err
	}

	st, err := a.client.Status(cmd.Context(), srv)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to query %q", srv.Name), err)
	}
	if formatter.jsonMode {
		return formatter.Print(st)
	}
	return formatter.Print(fmt.Sprintf("%s: %s", srv.Name, st.Summary()))
}

func serverRunning(cmd *cobra.Command, args []string) error {
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

	running, err := a.client.IsRunning(cmd.Context(), srv)
	if err != nil {
		return formatter.Error(fmt.Sprintf("Failed to query %q", srv.Name), err)
	}
	if formatter.jsonMode {
		return formatter.Print(map[string]interface{}{"name": srv.Name, "running": running})
	}
	state := "stopped"
	if running {
		state = "running"
	}
	return formatter.Print(fmt.Sprintf("%s: %s", srv.Name, state))
}

// lookupServer resolves a name against the registry. A missing name is an
// operator error, reported through the formatter.
func lookupServer(cmd *cobra.Command, a *app, name string) (registry.Server, error) {
	formatter := newOutputFormatter(cmd)
	srv, ok, err := a.reg.Get(cmd.Context(), name)
	if err != nil {
		return registry.Server{}, formatter.Error("Failed to read registry", err)
	}
	if !ok {
		return registry.Server{}, formatter.Error(fmt.Sprintf("Server %q not found", name), nil)
	}
	return srv, nil
}

func printReport(formatter *OutputFormatter, lines []string) error {
	if len(lines) == 0 {
		if formatter.jsonMode {
			return formatter.Print([]string{})
		}
		fmt.Println("No servers registered")
		return nil
	}
	if formatter.jsonMode {
		return formatter.Print(lines)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func actionData(name string, res control.ActionResult) map[string]interface{} {
	data := map[string]interface{}{
		"name":    name,
		"outcome": string(res.Outcome),
	}
	if res.PID > 0 {
		data["pid"] = res.PID
	}
	return data
}
