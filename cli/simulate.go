package cli

import (
	"github.com/spf13/cobra"
)

func SimulateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "simulate",
		Short: "Runs one BB84 and CHSH simulation and prints the transcript",
		RunE:  simulateFunc,
	}
	c.Flags().Bool(EveKey, false, "Enable the intercept-resend eavesdropper")
	return c
}

func simulateFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	eve, err := flags.GetBool(EveKey)
	if err != nil {
		return err
	}

	log, server, err := setup(flags)
	if err != nil {
		return err
	}
	defer log.Sync()

	result, err := server.VotingService().Simulate(eve)
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), result)
}
