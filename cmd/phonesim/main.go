// Command phonesim runs the AT-command phone/SIM simulator: it loads a
// rule profile and serves one session per accepted connection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandia-minimega/phonesim/internal/logging"
)

var debug bool

func main() {
	root := &cobra.Command{
		Use:   "phonesim",
		Short: "AT-command phone/SIM simulator",
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debug)
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
