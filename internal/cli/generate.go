package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhpenta/schnell"
	"github.com/mhpenta/schnell/studio"
)

func newGenerateCmd(f *flags) *cobra.Command {
	var (
		outDir string
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate one image and add it to the gallery",
		Long: "Generate sends the prompt (the arguments, or stdin when none are given)\n" +
			"to the configured provider, adds the image to the gallery and saves it\n" +
			"under a random name in the export directory.",
		Example: `  schnell generate "a lighthouse at dusk, oil painting"
  echo "a red fox in snow" | schnell generate -o ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd, args)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			a, err := openApp(ctx, f, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := a.controller(studio.LogNotifier{Logger: a.logger})
			ctrl.SetPrompt(prompt)

			if err := ctrl.Submit(ctx); err != nil {
				if !errors.Is(err, studio.ErrStorageFull) {
					return err
				}
				// The image was generated; only the gallery save failed.
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}

			if noSave {
				return nil
			}

			storage := a.exportStorage()
			if outDir != "" {
				storage = schnell.NewDirStorage(outDir)
			}
			res, err := ctrl.Export(ctx, storage)
			if err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to save the image in (default: export_dir from config)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "only add the image to the gallery")
	return cmd
}

// readPrompt joins args, or reads stdin when there are none.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(prompt) == "" {
		return "", studio.ErrNothingToSubmit
	}
	return prompt, nil
}
