package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"ptyterm/pkg/config"
	"ptyterm/pkg/history"
)

// RunOptions adjusts an interactive run beyond the profile.
type RunOptions struct {
	// TranscriptFile, when non-empty, receives the transcript export
	// after the session ends.
	TranscriptFile   string
	TranscriptFormat history.ExportFormat

	// DebugLog names a file for engine debug output.
	DebugLog string

	// Quiet suppresses the session summary.
	Quiet bool
}

// Runner runs one interactive session with signal-aware teardown.
type Runner struct {
	profile config.Profile
	opts    RunOptions
	app     *Application
}

// NewRunner creates a runner for the given profile.
func NewRunner(profile config.Profile, opts RunOptions) *Runner {
	return &Runner{profile: profile, opts: opts}
}

// Run starts the session and blocks until the child exits or the host
// receives an interrupt.
func (r *Runner) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("standard input is not a terminal")
	}

	cfg := DefaultAppConfig()
	cfg.Profile = r.profile
	cfg.DebugLog = r.opts.DebugLog
	if r.opts.TranscriptFile != "" && cfg.Profile.TranscriptSize == 0 {
		cfg.Profile.TranscriptSize = history.DefaultMaxSize
	}

	application, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.app = application

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)

	if r.opts.TranscriptFile != "" {
		if transcript := application.Transcript(); transcript != nil {
			if err := transcript.Export(r.opts.TranscriptFile, r.opts.TranscriptFormat); err != nil {
				fmt.Fprintf(os.Stderr, "failed to export transcript: %v\n", err)
			}
		}
	}

	if !r.opts.Quiet {
		r.printSummary()
	}
	return runErr
}

func (r *Runner) printSummary() {
	if r.app == nil {
		return
	}
	sent, recv, duration := r.app.Stats()
	fmt.Printf("\nSession finished after %v (%d bytes sent, %d bytes received)\n",
		duration.Round(time.Millisecond), sent, recv)
}
