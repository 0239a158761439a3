package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/internal/preview"
	"github.com/mhpenta/schnell/studio"
)

func newGalleryCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gallery",
		Aliases: []string{"g"},
		Short:   "List, export and delete saved images",
	}
	cmd.AddCommand(newGalleryListCmd(f))
	cmd.AddCommand(newGalleryShowCmd(f))
	cmd.AddCommand(newGalleryRemoveCmd(f))
	cmd.AddCommand(newGalleryClearCmd(f))
	return cmd
}

// withGallery opens the app without a provider and runs fn with a controller
// and delete policy.
func withGallery(cmd *cobra.Command, f *flags, fn func(a *app, ctrl *studio.Controller, policy *studio.DeletePolicy) error) error {
	a, err := openApp(cmd.Context(), f, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.controller(studio.LogNotifier{Logger: a.logger})
	return fn(a, ctrl, studio.NewDeletePolicy(ctrl, a.prefs))
}

func newGalleryListCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List gallery entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGallery(cmd, f, func(a *app, ctrl *studio.Controller, _ *studio.DeletePolicy) error {
				entries := ctrl.Store().Entries()
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No images yet! Generate something cool to show here.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tIMAGE\tPROMPT")
				for i, e := range entries {
					desc := "unreadable"
					if info, err := preview.Inspect(e.ImageURL); err == nil {
						desc = info.String()
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", i, desc, strings.Join(strings.Fields(e.Prompt), " "))
				}
				return tw.Flush()
			})
		},
	}
}

func newGalleryShowCmd(f *flags) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "show <index>",
		Short: "Print an entry's prompt and save its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withGallery(cmd, f, func(a *app, ctrl *studio.Controller, _ *studio.DeletePolicy) error {
				if err := ctrl.Select(i); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ctrl.Prompt())

				storage := a.exportStorage()
				if outDir != "" {
					storage = schnell.NewDirStorage(outDir)
				}
				res, err := ctrl.Export(cmd.Context(), storage)
				if err != nil {
					return fmt.Errorf("save image: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to save the image in")
	return cmd
}

func newGalleryRemoveCmd(f *flags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete one entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return withGallery(cmd, f, func(_ *app, ctrl *studio.Controller, policy *studio.DeletePolicy) error {
				entry, ok := ctrl.Store().At(i)
				if !ok {
					return fmt.Errorf("no entry %d (gallery has %d)", i, ctrl.Store().Len())
				}

				confirmed := yes
				if policy.ConfirmRemove() && !yes {
					confirmed, err = ask(cmd, fmt.Sprintf("Delete %q?", entry.Prompt))
					if err != nil {
						return err
					}
					if !confirmed {
						return nil
					}
				}
				return policy.Remove(i, confirmed)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newGalleryClearCmd(f *flags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGallery(cmd, f, func(_ *app, ctrl *studio.Controller, policy *studio.DeletePolicy) error {
				if ctrl.Store().Len() == 0 {
					return nil
				}
				confirmed := yes
				if !yes {
					var err error
					confirmed, err = ask(cmd, fmt.Sprintf("Delete all %d images?", ctrl.Store().Len()))
					if err != nil {
						return err
					}
					if !confirmed {
						return nil
					}
				}
				return policy.Clear(confirmed)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

// ask prints question and reads a y/N answer from the command's stdin.
// EOF without an answer returns ErrConfirmationRequired.
func ask(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("%w: pass --yes to skip the question", studio.ErrConfirmationRequired)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
