package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sandia-minimega/phonesim/profile"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <profile.xml>",
		Short: "Print every state's chat and unsolicited items as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"State", "Kind", "Command / Delay", "Response", "Switch To"})
			for name, st := range prof.States {
				for _, item := range st.Items {
					switch {
					case item.Chat != nil:
						ci := item.Chat
						t.AppendRow(table.Row{name, "chat", ci.Command, ci.Response, ci.SwitchTo})
					case item.Unsolicited != nil:
						ui := item.Unsolicited
						t.AppendRow(table.Row{name, "unsolicited", ui.DelayMS, ui.Response, ui.SwitchTo})
					}
				}
			}
			t.Render()
			return nil
		},
	}
}
