// Package app is the interactive front-end: it renders engine snapshots to
// the host terminal with tcell, encodes key events into session input, and
// propagates host resizes to the engine.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"ptyterm/pkg/config"
	"ptyterm/pkg/history"
	"ptyterm/pkg/pty"
	"ptyterm/pkg/terminal"
)

// AppConfig contains front-end configuration.
type AppConfig struct {
	Profile config.Profile

	// FrameInterval is the render cadence. Zero means 50ms (20 FPS).
	FrameInterval time.Duration

	// DebugLog, when non-empty, names a file that receives engine debug
	// output.
	DebugLog string
}

// DefaultAppConfig returns the default front-end configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Profile:       config.DefaultProfile(),
		FrameInterval: 50 * time.Millisecond,
	}
}

func (c AppConfig) frameInterval() time.Duration {
	if c.FrameInterval <= 0 {
		return 50 * time.Millisecond
	}
	return c.FrameInterval
}

// Session tracks statistics for one interactive run.
type Session struct {
	mu        sync.Mutex
	StartTime time.Time
	EndTime   *time.Time
	BytesSent int64
	BytesRecv int64
}

func newSession() *Session {
	return &Session{StartTime: time.Now()}
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
}

func (s *Session) add(sent, recv int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BytesSent += sent
	s.BytesRecv += recv
}

// Stats returns the bytes moved and the session duration so far.
func (s *Session) Stats() (sent, recv int64, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return s.BytesSent, s.BytesRecv, end.Sub(s.StartTime)
}

// recordingSession wraps a PTY session so that all traffic passing through
// it lands in the transcript and the session statistics.
type recordingSession struct {
	pty.Session
	transcript *history.Transcript
	stats      *Session
}

func (r *recordingSession) Read(p []byte) (int, error) {
	n, err := r.Session.Read(p)
	if n > 0 {
		if r.transcript != nil {
			_ = r.transcript.Record(p[:n], history.DirectionOutput)
		}
		r.stats.add(0, int64(n))
	}
	return n, err
}

func (r *recordingSession) Write(p []byte) (int, error) {
	n, err := r.Session.Write(p)
	if n > 0 {
		if r.transcript != nil {
			_ = r.transcript.Record(p[:n], history.DirectionInput)
		}
		r.stats.add(int64(n), 0)
	}
	return n, err
}

// Application owns the tcell screen, the engine, and the event loop for one
// interactive session.
type Application struct {
	cfg        AppConfig
	screen     tcell.Screen
	engine     *terminal.Engine
	transcript *history.Transcript
	session    *Session

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debugLog *os.File

	mu      sync.Mutex
	running bool
}

// fileLogger adapts a debug file to the engine's Logger.
type fileLogger struct {
	f *os.File
}

func (l *fileLogger) Debugf(format string, args ...interface{}) {
	fmt.Fprintf(l.f, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// NewApplication initializes the host screen, spawns the child session at
// the host terminal's size, and wires the engine. The caller must invoke
// Run or Close.
func NewApplication(cfg AppConfig) (*Application, error) {
	if err := cfg.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}

	app := &Application{
		cfg:     cfg,
		screen:  screen,
		session: newSession(),
	}

	if cfg.DebugLog != "" {
		// Best effort; debug logging never blocks startup.
		app.debugLog, _ = os.Create(cfg.DebugLog)
	}
	if cfg.Profile.TranscriptSize > 0 {
		app.transcript = history.NewTranscript(cfg.Profile.TranscriptSize)
	}

	// The child always runs at the host terminal's current size; the
	// profile geometry is only the fallback when the size is unknown.
	cols, rows := screen.Size()
	if rows <= 0 || cols <= 0 {
		rows, cols = cfg.Profile.Rows, cfg.Profile.Cols
	}

	session, err := pty.Spawn(pty.Config{
		Command: cfg.Profile.Command,
		Args:    cfg.Profile.Args,
		Term:    cfg.Profile.Term,
		Rows:    rows,
		Cols:    cols,
	})
	if err != nil {
		app.finishScreen()
		return nil, err
	}

	recorded := &recordingSession{
		Session:    session,
		transcript: app.transcript,
		stats:      app.session,
	}

	engine, err := terminal.NewEngine(recorded, terminal.EngineConfig{
		Rows:       rows,
		Cols:       cols,
		AutoScroll: true,
	})
	if err != nil {
		_ = session.Terminate()
		app.finishScreen()
		return nil, err
	}
	if app.debugLog != nil {
		engine.SetLogger(&fileLogger{f: app.debugLog})
	}
	app.engine = engine

	return app, nil
}

// Transcript returns the session transcript, or nil when recording is off.
func (a *Application) Transcript() *history.Transcript {
	return a.transcript
}

// Stats returns the session statistics.
func (a *Application) Stats() (sent, recv int64, duration time.Duration) {
	return a.session.Stats()
}

// Run drives the session until the child exits or the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	if err := a.engine.Start(ctx); err != nil {
		return err
	}

	a.wg.Add(2)
	go a.renderLoop(ctx)
	go a.eventLoop(ctx)

	select {
	case <-ctx.Done():
	case <-a.engine.Done():
	}
	return a.Close()
}

// Close tears everything down in order: loops stop, the engine (and with
// it the child session) terminates, and the host screen is restored last
// so any teardown error is printable.
func (a *Application) Close() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
	// Wake the event loop out of PollEvent.
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	a.wg.Wait()

	err := a.engine.Close()
	a.session.end()
	a.finishScreen()

	if a.debugLog != nil {
		a.debugLog.Close()
		a.debugLog = nil
	}
	return err
}

func (a *Application) finishScreen() {
	if a.screen != nil {
		a.screen.Fini()
		a.screen = nil
	}
}

func (a *Application) renderLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.frameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.render()
		}
	}
}

// render draws the current snapshot. The snapshot is a consistent copy, so
// drawing never races the output pump.
func (a *Application) render() {
	snap := a.engine.Snapshot()

	for row := 0; row < snap.Rows; row++ {
		for col := 0; col < snap.Cols; col++ {
			cell := snap.Cells[row][col]
			if cell.Char == 0 {
				// Placeholder behind a wide glyph; tcell handles the
				// spill itself.
				continue
			}
			a.screen.SetContent(col, row, cell.Char, nil, styleFor(cell.Attributes))
		}
	}

	if snap.CursorVisible {
		a.screen.ShowCursor(snap.CursorCol, snap.CursorRow)
	} else {
		a.screen.HideCursor()
	}
	a.screen.Show()
}

func styleFor(attrs terminal.TextAttributes) tcell.Style {
	fg, bg := attrs.Foreground, attrs.Background
	if attrs.Reverse {
		fg, bg = bg, fg
	}
	style := tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B))).
		Background(tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B)))
	if attrs.Bold {
		style = style.Bold(true)
	}
	if attrs.Underline {
		style = style.Underline(true)
	}
	return style
}

func (a *Application) eventLoop(ctx context.Context) {
	defer a.wg.Done()

	for {
		event := a.screen.PollEvent()
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch ev := event.(type) {
		case *tcell.EventKey:
			data := EncodeKey(ev)
			if len(data) > 0 {
				if err := a.engine.SendInput(data); err != nil {
					return
				}
			}
		case *tcell.EventResize:
			cols, rows := ev.Size()
			if rows > 0 && cols > 0 {
				_ = a.engine.Resize(rows, cols)
				a.screen.Clear()
				a.render()
			}
		case *tcell.EventInterrupt:
			return
		case nil:
			return
		}
	}
}
