// Package cli is the schnell command line: the interactive TUI by default,
// plus subcommands for scripted generation and gallery management.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// flags holds the persistent flag values of one command tree.
type flags struct {
	cfgFile  string
	provider string
	model    string
	logLevel string
	useTUI   bool
}

// Execute is the entry point called from main.go.
func Execute(version, commit, date string) {
	if err := NewRootCmd(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the full command tree.
func NewRootCmd(version, commit, date string) *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "schnell",
		Short: "Turn prompts into images and keep them in a gallery",
		Long: "schnell sends a text prompt to FLUX.1-schnell on HuggingFace, shows the result\n" +
			"and keeps every generated image in a local gallery.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Default TUI on when stdout is a terminal and --tui was not explicitly set.
			if !cmd.Root().PersistentFlags().Changed("tui") && isTerminal(cmd.OutOrStdout()) {
				f.useTUI = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.useTUI {
				return cmd.Help()
			}
			return runTUI(cmd, f)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&f.cfgFile, "config", "c", "", "config file path (default ~/.config/schnell/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&f.provider, "provider", "p", "", "override provider (huggingface, gemini, openai)")
	rootCmd.PersistentFlags().StringVarP(&f.model, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&f.useTUI, "tui", false, "use the interactive TUI (default: auto-detect terminal)")

	// Subcommands
	rootCmd.AddCommand(newGenerateCmd(f))
	rootCmd.AddCommand(newGalleryCmd(f))
	rootCmd.AddCommand(newPrefsCmd(f))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
