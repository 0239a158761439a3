package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrefsCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change stored preferences",
	}
	cmd.AddCommand(newConfirmDeleteCmd(f))
	return cmd
}

func newConfirmDeleteCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:       "confirm-delete [on|off]",
		Short:     "Ask before deleting a single gallery entry",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), f, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				var show bool
				switch args[0] {
				case "on", "true", "yes":
					show = true
				case "off", "false", "no":
				default:
					return fmt.Errorf("want on or off, got %q", args[0])
				}
				if err := a.prefs.SetShowDeleteConfirmation(show); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "confirm-delete: %s\n", onOff(a.prefs.ShowDeleteConfirmation()))
			return nil
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
