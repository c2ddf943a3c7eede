// Package pty spawns child processes on a pseudo-terminal and exposes
// non-blocking I/O, resize, and teardown for the emulation engine.
package pty

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by Read when no output is currently
	// available. It is a normal polling result, not a failure.
	ErrWouldBlock = errors.New("pty: no data available")

	// ErrSessionClosed is returned by any operation on a session whose
	// child has exited or whose master side has been closed.
	ErrSessionClosed = errors.New("pty: session closed")

	// ErrUnsupported is returned by Spawn on platforms without PTY
	// support.
	ErrUnsupported = errors.New("pty: not supported on this platform")
)

// Session is the contract for a live PTY-backed child process. Read is
// non-blocking: it returns ErrWouldBlock when the child has produced no
// output, and ErrSessionClosed once the child is gone. Implementations
// must be safe for concurrent use.
type Session interface {
	// Read drains up to len(p) bytes of child output.
	Read(p []byte) (int, error)

	// Write delivers input bytes to the child as if typed.
	Write(p []byte) (int, error)

	// Resize updates the PTY window size and notifies the child.
	Resize(rows, cols int) error

	// Terminate tears the session down: hangs up the child's process
	// group, escalates if it lingers, and closes the master side.
	// Terminate is idempotent.
	Terminate() error

	// Pid returns the child process ID, or -1 after termination.
	Pid() int
}

// Config describes the child process and initial terminal geometry.
type Config struct {
	// Command is the program to run. Empty means the user's shell
	// ($SHELL, falling back to /bin/sh).
	Command string
	Args    []string

	// Env entries are appended to the inherited environment. TERM is
	// always forced to the Term value.
	Env []string

	// Term is the TERM value advertised to the child. Empty means
	// "xterm-256color".
	Term string

	Rows int
	Cols int
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("invalid pty size %dx%d: dimensions must be positive", c.Rows, c.Cols)
	}
	if c.Rows > 0xFFFF || c.Cols > 0xFFFF {
		return fmt.Errorf("invalid pty size %dx%d: dimensions exceed uint16", c.Rows, c.Cols)
	}
	return nil
}

func (c *Config) term() string {
	if c.Term == "" {
		return "xterm-256color"
	}
	return c.Term
}
