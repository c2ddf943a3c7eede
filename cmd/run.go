package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ptyterm/pkg/app"
	"ptyterm/pkg/config"
	"ptyterm/pkg/history"
)

var (
	runShell            string
	runTerm             string
	runTranscriptFile   string
	runTranscriptFormat string
	runDebugLog         string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [profile]",
	Short: "Start an interactive terminal session",
	Long: `Start an interactive terminal session, either with the default shell
or from a saved profile.

Examples:
  # Run the default shell
  ptyterm run

  # Run a specific command
  ptyterm run --shell /bin/bash

  # Run a saved profile
  ptyterm run work

  # Record a transcript of the session
  ptyterm run --transcript session.log --transcript-format timestamped`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&runShell, "shell", "s", "", "command to run (default: $SHELL)")
	runCmd.Flags().StringVar(&runTerm, "term", "", "TERM value advertised to the child")
	runCmd.Flags().StringVarP(&runTranscriptFile, "transcript", "t", "", "export a session transcript to this file")
	runCmd.Flags().StringVar(&runTranscriptFormat, "transcript-format", "plain", "transcript format (plain, timestamped, json)")
	runCmd.Flags().StringVar(&runDebugLog, "debug-log", "", "write engine debug output to this file")
}

func runSession(cmd *cobra.Command, args []string) error {
	profile := config.DefaultProfile()

	if len(args) == 1 {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		manager := config.NewFileProfileManager(dir)
		profile, err = manager.Load(args[0])
		if err != nil {
			return err
		}
		if verbose {
			fmt.Printf("Loaded profile '%s'\n", args[0])
		}
	}

	if runShell != "" {
		profile.Command = runShell
	}
	if runTerm != "" {
		profile.Term = runTerm
	}

	format, err := history.ParseExportFormat(runTranscriptFormat)
	if err != nil {
		return err
	}

	runner := app.NewRunner(profile, app.RunOptions{
		TranscriptFile:   runTranscriptFile,
		TranscriptFormat: format,
		DebugLog:         runDebugLog,
	})
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running session: %v\n", err)
		os.Exit(1)
	}
	return nil
}
