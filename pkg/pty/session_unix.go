//go:build !windows

package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// unixSession is the POSIX Session implementation. The master side is put
// into non-blocking mode at spawn time and all I/O goes through raw fd
// reads and writes, so a quiet child costs one EAGAIN per poll instead of
// a parked goroutine.
type unixSession struct {
	mu     sync.Mutex
	master *os.File
	fd     int
	cmd    *exec.Cmd
	pid    int
	closed bool
}

// Spawn starts the configured command on a freshly allocated PTY. The
// child becomes the leader of a new session with the PTY slave as its
// controlling terminal, so job control and SIGWINCH delivery work as in a
// real terminal.
func Spawn(cfg Config) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	command := cfg.Command
	if command == "" {
		command = os.Getenv("SHELL")
		if command == "" {
			command = "/bin/sh"
		}
	}

	cmd := exec.Command(command, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Env = append(cmd.Env, "TERM="+cfg.term())

	ws := &pty.Winsize{Rows: uint16(cfg.Rows), Cols: uint16(cfg.Cols)}
	master, err := pty.StartWithSize(cmd, ws)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", command, err)
	}

	fd := int(master.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = master.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("failed to set non-blocking mode: %w", err)
	}

	return &unixSession{
		master: master,
		fd:     fd,
		cmd:    cmd,
		pid:    cmd.Process.Pid,
	}, nil
}

func (s *unixSession) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	n, err := unix.Read(s.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, ErrWouldBlock
		}
		// EIO on the master means the slave side is gone: the child
		// exited and nothing holds the terminal open.
		return 0, ErrSessionClosed
	}
	if n == 0 {
		return 0, ErrSessionClosed
	}
	return n, nil
}

func (s *unixSession) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	written := 0
	for written < len(p) {
		n, err := unix.Write(s.fd, p[written:])
		if err != nil {
			if err == unix.EAGAIN {
				// Kernel PTY buffer full; retry the remainder.
				time.Sleep(time.Millisecond)
				continue
			}
			return written, ErrSessionClosed
		}
		written += n
	}
	return written, nil
}

func (s *unixSession) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 || rows > 0xFFFF || cols > 0xFFFF {
		return fmt.Errorf("invalid pty size %dx%d: dimensions must be positive", rows, cols)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	// Setsize issues TIOCSWINSZ, which also delivers SIGWINCH to the
	// child's foreground process group.
	ws := &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
	if err := pty.Setsize(s.master, ws); err != nil {
		return fmt.Errorf("failed to resize pty: %w", err)
	}
	return nil
}

// Terminate hangs up the child's process group and escalates to SIGTERM
// and SIGKILL if it does not exit, then closes the master side and reaps
// the child. Safe to call more than once.
func (s *unixSession) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()

	// SIGHUP to the negative pid signals the whole process group, the
	// same thing the kernel does when a real terminal disappears.
	_ = unix.Kill(-s.pid, unix.SIGHUP)
	for _, sig := range []unix.Signal{unix.SIGTERM, unix.SIGKILL} {
		select {
		case <-done:
			return s.master.Close()
		case <-time.After(500 * time.Millisecond):
			_ = unix.Kill(-s.pid, sig)
		}
	}
	<-done
	return s.master.Close()
}

func (s *unixSession) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return -1
	}
	return s.pid
}
