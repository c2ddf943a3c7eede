package terminal

import (
	"context"
	"sync"
	"testing"
	"time"

	"ptyterm/pkg/pty"
)

// fakeSession scripts child output for the pump and records input and
// resizes.
type fakeSession struct {
	mu      sync.Mutex
	chunks  [][]byte
	inputs  [][]byte
	resizes [][2]int
	closed  bool
}

func (f *fakeSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, pty.ErrSessionClosed
	}
	if len(f.chunks) == 0 {
		return 0, pty.ErrWouldBlock
	}
	n := copy(p, f.chunks[0])
	if n == len(f.chunks[0]) {
		f.chunks = f.chunks[1:]
	} else {
		f.chunks[0] = f.chunks[0][n:]
	}
	return n, nil
}

func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, pty.ErrSessionClosed
	}
	f.inputs = append(f.inputs, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeSession) Resize(rows, cols int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{rows, cols})
	return nil
}

func (f *fakeSession) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) Pid() int { return 1234 }

func (f *fakeSession) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func newTestEngine(t *testing.T, session pty.Session) *Engine {
	t.Helper()
	engine, err := NewEngine(session, EngineConfig{Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestEngineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EngineConfig
		wantErr bool
	}{
		{"valid", EngineConfig{Rows: 24, Cols: 80}, false},
		{"zero rows", EngineConfig{Rows: 0, Cols: 80}, true},
		{"zero cols", EngineConfig{Rows: 24, Cols: 0}, true},
		{"negative poll interval", EngineConfig{Rows: 24, Cols: 80, PollInterval: -time.Second}, true},
		{"negative read buffer", EngineConfig{Rows: 24, Cols: 80, ReadBufferSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_FeedOutput(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.FeedOutput([]byte("\x1b[31mhi"))

	snap := engine.Snapshot()
	if snap.Cells[0][0].Char != 'h' || snap.Cells[0][1].Char != 'i' {
		t.Errorf("text not applied to screen")
	}
	if snap.Cells[0][0].Attributes.Foreground != (RGB{205, 0, 0}) {
		t.Errorf("foreground = %v, want {205 0 0}", snap.Cells[0][0].Attributes.Foreground)
	}
}

func TestEngine_FeedOutputAcrossCalls(t *testing.T) {
	engine := newTestEngine(t, nil)
	engine.FeedOutput([]byte("\x1b[3"))
	engine.FeedOutput([]byte("1mX"))

	snap := engine.Snapshot()
	if snap.Cells[0][0].Attributes.Foreground != (RGB{205, 0, 0}) {
		t.Errorf("sequence split across feeds was not resumed")
	}
}

func TestEngine_SendInput(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	if err := engine.SendInput([]byte("ls\r")); err != nil {
		t.Fatalf("SendInput failed: %v", err)
	}
	if len(session.inputs) != 1 || string(session.inputs[0]) != "ls\r" {
		t.Errorf("session inputs = %q, want [\"ls\\r\"]", session.inputs)
	}
}

func TestEngine_SendInputWithoutSession(t *testing.T) {
	engine := newTestEngine(t, nil)
	if err := engine.SendInput([]byte("x")); err == nil {
		t.Errorf("SendInput without session should fail")
	}
}

func TestEngine_Resize(t *testing.T) {
	session := &fakeSession{}
	engine := newTestEngine(t, session)

	if err := engine.Resize(30, 100); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}

	snap := engine.Snapshot()
	if snap.Rows != 30 || snap.Cols != 100 {
		t.Errorf("screen size = %dx%d, want 30x100", snap.Rows, snap.Cols)
	}
	if len(session.resizes) != 1 || session.resizes[0] != [2]int{30, 100} {
		t.Errorf("session resizes = %v, want [[30 100]]", session.resizes)
	}
}

func TestEngine_ResizeInvalid(t *testing.T) {
	engine := newTestEngine(t, &fakeSession{})
	if err := engine.Resize(0, 100); err == nil {
		t.Errorf("Resize(0, 100) should fail")
	}
}

func TestEngine_PumpAppliesOutput(t *testing.T) {
	session := &fakeSession{chunks: [][]byte{
		[]byte("hel"),
		[]byte("lo\r\n"),
		[]byte("\x1b[1mworld"),
	}}
	engine, err := NewEngine(session, EngineConfig{
		Rows:         24,
		Cols:         80,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer engine.Close()

	deadline := time.After(2 * time.Second)
	for {
		snap := engine.Snapshot()
		if snap.Cells[1][4].Char == 'd' {
			if !snap.Cells[1][0].Attributes.Bold {
				t.Errorf("second line should be bold")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("pump never applied output; row1 = %+v", snap.Cells[1][:6])
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEngine_DoneOnSessionClose(t *testing.T) {
	session := &fakeSession{}
	engine, err := NewEngine(session, EngineConfig{
		Rows:         24,
		Cols:         80,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	session.close()

	select {
	case <-engine.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("Done not closed after session closed")
	}

	// Snapshot still works after the pump stops.
	snap := engine.Snapshot()
	if snap.Rows != 24 {
		t.Errorf("snapshot unavailable after close")
	}
	if err := engine.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestEngine_StartTwice(t *testing.T) {
	engine := newTestEngine(t, &fakeSession{})
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer engine.Close()

	if err := engine.Start(context.Background()); err == nil {
		t.Errorf("second Start should fail")
	}
}

func TestEngine_StartWithoutSession(t *testing.T) {
	engine := newTestEngine(t, nil)
	if err := engine.Start(context.Background()); err == nil {
		t.Errorf("Start without session should fail")
	}
}

func TestEngine_CloseTerminatesSession(t *testing.T) {
	session := &fakeSession{}
	engine, err := NewEngine(session, EngineConfig{
		Rows:         24,
		Cols:         80,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	session.mu.Lock()
	closed := session.closed
	session.mu.Unlock()
	if !closed {
		t.Errorf("session not terminated by Close")
	}

	select {
	case <-engine.Done():
	default:
		t.Errorf("Done should be closed after Close")
	}
}

func TestEngine_SnapshotConcurrentWithPump(t *testing.T) {
	chunks := make([][]byte, 100)
	for i := range chunks {
		chunks[i] = []byte("abcdefghij\r\n\x1b[2J\x1b[H")
	}
	session := &fakeSession{chunks: chunks}
	engine, err := NewEngine(session, EngineConfig{
		Rows:         24,
		Cols:         80,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer engine.Close()

	// Snapshots taken while the pump runs must always be structurally
	// sound; the race detector covers the locking.
	for i := 0; i < 200; i++ {
		snap := engine.Snapshot()
		if len(snap.Cells) != snap.Rows || len(snap.Cells[0]) != snap.Cols {
			t.Fatalf("inconsistent snapshot geometry")
		}
	}
}
