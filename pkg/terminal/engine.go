package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ptyterm/pkg/pty"
)

// Logger receives debug output from the engine. Components stay silent
// unless a logger is injected.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// EngineConfig configures an emulation engine.
type EngineConfig struct {
	Rows int
	Cols int

	// AutoScroll shifts the screen up when output passes the bottom
	// edge. Off by default: overflow overwrites the last row.
	AutoScroll bool

	// PollInterval is the delay between output polls when the session
	// has nothing to read. Zero means 10ms.
	PollInterval time.Duration

	// ReadBufferSize is the per-poll read chunk size. Zero means 4096.
	ReadBufferSize int
}

// Validate checks the configuration.
func (c *EngineConfig) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("invalid engine size %dx%d: dimensions must be positive", c.Rows, c.Cols)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("invalid poll interval %v: must not be negative", c.PollInterval)
	}
	if c.ReadBufferSize < 0 {
		return fmt.Errorf("invalid read buffer size %d: must not be negative", c.ReadBufferSize)
	}
	return nil
}

func (c *EngineConfig) pollInterval() time.Duration {
	if c.PollInterval == 0 {
		return 10 * time.Millisecond
	}
	return c.PollInterval
}

func (c *EngineConfig) readBufferSize() int {
	if c.ReadBufferSize == 0 {
		return 4096
	}
	return c.ReadBufferSize
}

// Engine coordinates a PTY session, the escape-sequence parser, and the
// screen buffer. One mutex serializes all access to parser and screen, so
// snapshots taken concurrently with the output pump are always consistent.
type Engine struct {
	mu      sync.Mutex
	session pty.Session
	parser  Parser
	screen  *Screen
	cfg     EngineConfig
	logger  Logger

	started bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewEngine creates an engine for the given session. The session may be
// nil for output-replay use, in which case SendInput and Resize operate on
// the screen only.
func NewEngine(session pty.Session, cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	screen, err := NewScreen(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	screen.SetAutoScroll(cfg.AutoScroll)
	return &Engine{
		session: session,
		parser:  NewVTParser(),
		screen:  screen,
		cfg:     cfg,
		done:    make(chan struct{}),
	}, nil
}

// SetLogger installs a debug logger. Must be called before Start.
func (e *Engine) SetLogger(l Logger) {
	e.logger = l
}

func (e *Engine) debugf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debugf(format, args...)
	}
}

// FeedOutput parses a chunk of session output and applies the resulting
// actions to the screen. Sequences split across chunks resume where the
// previous chunk left off.
func (e *Engine) FeedOutput(p []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, action := range e.parser.Feed(p) {
		e.screen.Apply(action)
	}
}

// SendInput delivers input bytes to the session.
func (e *Engine) SendInput(p []byte) error {
	if e.session == nil {
		return pty.ErrSessionClosed
	}
	if _, err := e.session.Write(p); err != nil {
		return fmt.Errorf("failed to send input: %w", err)
	}
	return nil
}

// Resize updates the screen geometry and propagates the new size to the
// session, so the child process learns about it via SIGWINCH.
func (e *Engine) Resize(rows, cols int) error {
	e.mu.Lock()
	err := e.screen.Resize(rows, cols)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if e.session != nil {
		if err := e.session.Resize(rows, cols); err != nil && !errors.Is(err, pty.ErrSessionClosed) {
			return err
		}
	}
	return nil
}

// Snapshot returns a consistent copy of the current screen state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screen.Snapshot()
}

// Start launches the output pump: a goroutine that polls the session for
// output and feeds it through the parser. Returns an error if the engine
// has no session or was already started.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return fmt.Errorf("cannot start engine without a session")
	}
	if e.started {
		return fmt.Errorf("engine already started")
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	go e.pump(ctx)
	return nil
}

// pump is the poll loop. A read that would block sleeps one interval; a
// closed session ends the loop and closes Done.
func (e *Engine) pump(ctx context.Context) {
	defer close(e.done)

	buf := make([]byte, e.cfg.readBufferSize())
	interval := e.cfg.pollInterval()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := e.session.Read(buf)
		switch {
		case err == nil:
			e.FeedOutput(buf[:n])
		case errors.Is(err, pty.ErrWouldBlock):
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		default:
			e.debugf("session read ended: %v", err)
			return
		}
	}
}

// Done is closed when the output pump has stopped, either because the
// session closed or because the engine was shut down.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Close shuts the engine down: the output pump stops first, then the
// session is terminated, so no reads race the teardown. The screen keeps
// its final state and stays snapshottable.
func (e *Engine) Close() error {
	e.mu.Lock()
	cancel := e.cancel
	started := e.started
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		<-e.done
	}

	if e.session != nil {
		if err := e.session.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate session: %w", err)
		}
	}
	return nil
}
