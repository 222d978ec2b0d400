// Package cli holds the command line front end of the voting backend.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:           "qkd-voting",
		Short:         "Quantum-secured voting backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	AddGlobalFlags(c.PersistentFlags())
	c.AddCommand(
		ServeCommand(),
		SimulateCommand(),
		VoteCommand(),
		TrialsCommand(),
	)
	return c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
