// patterngen generates typed field accessors for go-pattern entities from
// their JSON schemas.
//
// Usage:
//
//	patterngen <command> [flags]
//
// Commands:
//
//	init        Create a patterngen.yaml manifest
//	generate    Generate accessors for configured entities
//	inspect     Show the accessors a schema yields
//	version     Show version information
//
// Examples:
//
//	# Start a manifest in the current module
//	patterngen init
//
//	# Generate every configured entity
//	patterngen generate
//
//	# One-off generation without a manifest
//	patterngen generate --schema person.json --type Person --dir ./person
//
//	# Fail in CI when generated files drift
//	patterngen generate --check
package main

import (
	"os"

	"github.com/AshkanYarmoradi/go-pattern/cli/commands"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
