package cli

import (
	"github.com/spf13/cobra"
)

func ServeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API",
		RunE:  serveFunc,
	}
	c.Flags().String(AddrKey, "", "Listen address, overrides listen_addr")
	return c
}

func serveFunc(c *cobra.Command, _ []string) error {
	log, server, err := setup(c.Flags())
	if err != nil {
		return err
	}
	defer log.Sync()

	return server.Start(c.Context())
}
