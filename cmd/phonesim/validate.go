package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandia-minimega/phonesim/profile"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile.xml>",
		Short: "Parse a rule profile and report errors without serving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d state(s), %d phonebook(s), start=%q\n",
				len(prof.States), len(prof.Phonebooks), prof.StartStateName)
			return nil
		},
	}
}
