package main

import (
	"os/user"

	"github.com/basoka/fleet/internal/config"
)

// allowedFor reports whether the named operator may run mutating commands.
// An empty allow-list disables the gate.
func allowedFor(username string, operators []string) bool {
	if len(operators) == 0 {
		return true
	}
	for _, op := range operators {
		if op == username {
			return true
		}
	}
	return false
}

// operatorAllowed resolves the invoking OS user against the configured
// allow-list. Unauthorized invocations are ignored without output.
func operatorAllowed(cfg config.Config) bool {
	if len(cfg.AuthorizedOperators) == 0 {
		return true
	}
	u, err := user.Current()
	if err != nil {
		return false
	}
	return allowedFor(u.Username, cfg.AuthorizedOperators)
}
