//go:build windows

package pty

// Spawn is unavailable on Windows: the session layer depends on POSIX
// pseudo-terminal semantics (controlling terminals, process groups,
// SIGWINCH).
func Spawn(cfg Config) (Session, error) {
	return nil, ErrUnsupported
}
