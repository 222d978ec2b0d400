package cli

import (
	"github.com/spf13/cobra"
)

func TrialsCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "trials",
		Short: "Runs repeated casts and prints QBER and CHSH statistics",
		RunE:  trialsFunc,
	}
	flags := c.Flags()
	flags.Int(TrialsKey, 1000, "Number of casts to run")
	flags.Bool(EveKey, false, "Enable the intercept-resend eavesdropper")
	return c
}

func trialsFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	trials, err := flags.GetInt(TrialsKey)
	if err != nil {
		return err
	}
	eve, err := flags.GetBool(EveKey)
	if err != nil {
		return err
	}

	log, server, err := setup(flags)
	if err != nil {
		return err
	}
	defer log.Sync()

	summary, err := server.VotingService().RunTrials(c.Context(), trials, eve)
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), summary)
}
