package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func VoteCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "vote",
		Short: "Casts a single vote and prints the decision",
		RunE:  voteFunc,
	}
	flags := c.Flags()
	flags.String(PartyKey, "", "Party the vote is cast for (required)")
	flags.Bool(EveKey, false, "Enable the intercept-resend eavesdropper")
	return c
}

func voteFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	party, err := flags.GetString(PartyKey)
	if err != nil {
		return err
	}
	if party == "" {
		return errors.New("--party is required")
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

	votingService := server.VotingService()
	record, err := votingService.CastVote(party, eve)
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), votingService.PublicRecord(record))
}
