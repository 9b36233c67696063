package main

import (
	"github.com/spf13/cobra"

	"github.com/sandia-minimega/phonesim/internal/logging"
	"github.com/sandia-minimega/phonesim/profile"
	"github.com/sandia-minimega/phonesim/server"
)

func newServeCmd() *cobra.Command {
	var network, addr string

	cmd := &cobra.Command{
		Use:   "serve <profile.xml>",
		Short: "Load a rule profile and serve sessions over a listener",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			srv, err := server.Listen(network, addr, prof)
			if err != nil {
				return err
			}
			logging.Log.Infof("listening on %s %s", network, srv.Addr())
			return srv.Serve()
		},
	}
	cmd.Flags().StringVar(&network, "network", "tcp", `listener network ("tcp" or "unix")`)
	cmd.Flags().StringVar(&addr, "addr", ":5554", "listener address (a path, for \"unix\")")
	return cmd
}
