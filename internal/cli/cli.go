// Package cli wires the pipeline's command surface: run the full
// collect-validate-parse-score-emit pass, check liveness of a previous
// run's metrics endpoint, and print the version.
package cli

import "github.com/alecthomas/kong"

// CLI is the top-level kong command tree. GenerateSecret, Access and
// SimpleRun have no equivalent in this domain (there is no proxy secret,
// no client access info, and no config-free mode for a pipeline whose
// source list and scoring knobs are the entire configuration) and are
// dropped.
type CLI struct {
	Run     Run              `kong:"cmd,help='Run the full harvesting pipeline.'"`
	Health  Health           `kong:"cmd,help='Check a previous run reported healthy.'"`
	Version kong.VersionFlag `kong:"help='Print version.',short='v'"`
}
