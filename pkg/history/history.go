// Package history records raw session traffic: every chunk of bytes sent
// to or received from the child process, with direction and timestamp. It
// is an I/O transcript, not display scrollback.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Direction marks which way a transcript entry flowed.
type Direction int

const (
	DirectionInput  Direction = iota // keyboard to child
	DirectionOutput                  // child to screen
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "unknown"
	}
}

// ExportFormat selects how a transcript is written to a file.
type ExportFormat int

const (
	FormatPlainText   ExportFormat = iota // raw bytes, output only readable
	FormatTimestamped                     // one line per entry with time and direction
	FormatJSON                            // structured entries
)

// String returns the string representation of ExportFormat.
func (f ExportFormat) String() string {
	switch f {
	case FormatPlainText:
		return "plain_text"
	case FormatTimestamped:
		return "timestamped"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseExportFormat resolves a format name as given on the command line.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch name {
	case "plain", "plain_text", "text":
		return FormatPlainText, nil
	case "timestamped":
		return FormatTimestamped, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", name)
	}
}

// Recorder is the contract for transcript recording.
type Recorder interface {
	Record(data []byte, direction Direction) error
	Entries() []Entry
	Size() int
	Export(filename string, format ExportFormat) error
	Clear()
}

// Entry is one recorded chunk of session traffic.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Data      []byte    `json:"data"`
}

// Validate checks that the entry is well formed.
func (e Entry) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp cannot be zero")
	}
	if e.Direction != DirectionInput && e.Direction != DirectionOutput {
		return fmt.Errorf("invalid direction: %d", e.Direction)
	}
	if e.Data == nil {
		return fmt.Errorf("data cannot be nil")
	}
	return nil
}

// Transcript is a bounded in-memory Recorder. When the byte budget is
// exceeded the oldest whole entries are dropped, so the transcript always
// holds the most recent traffic. Safe for concurrent use: the engine's
// output pump and the input path record from different goroutines.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	maxSize int
}

// DefaultMaxSize is the transcript byte budget used when none is given.
const DefaultMaxSize = 1024 * 1024

// NewTranscript creates a transcript bounded to maxSize bytes of recorded
// data. Non-positive values select DefaultMaxSize.
func NewTranscript(maxSize int) *Transcript {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Transcript{maxSize: maxSize}
}

// Record appends a chunk to the transcript, evicting the oldest entries if
// the byte budget would be exceeded. The data is copied; callers may reuse
// their buffer.
func (t *Transcript) Record(data []byte, direction Direction) error {
	if data == nil {
		return fmt.Errorf("data cannot be nil")
	}
	if direction != DirectionInput && direction != DirectionOutput {
		return fmt.Errorf("invalid direction: %d", direction)
	}
	if len(data) == 0 {
		return nil
	}

	entry := Entry{
		Timestamp: time.Now(),
		Direction: direction,
		Data:      append([]byte(nil), data...),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry)
	t.size += len(entry.Data)
	for t.size > t.maxSize && len(t.entries) > 1 {
		t.size -= len(t.entries[0].Data)
		t.entries = t.entries[1:]
	}
	return nil
}

// Entries returns a copy of the recorded entries, oldest first.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Size returns the number of recorded bytes currently held.
func (t *Transcript) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// MaxSize returns the byte budget.
func (t *Transcript) MaxSize() int {
	return t.maxSize
}

// Clear drops all recorded entries.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.size = 0
}

// Export writes the transcript to a file in the given format.
func (t *Transcript) Export(filename string, format ExportFormat) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	return exportEntries(t.Entries(), filename, format)
}

func exportEntries(entries []Entry, filename string, format ExportFormat) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatPlainText:
		return exportPlainText(file, entries)
	case FormatTimestamped:
		return exportTimestamped(file, entries)
	case FormatJSON:
		return exportJSON(file, entries)
	default:
		return fmt.Errorf("unsupported format: %v", format)
	}
}

// exportPlainText writes only the child's output bytes, reproducing what
// the session displayed (escape sequences included).
func exportPlainText(file *os.File, entries []Entry) error {
	for _, entry := range entries {
		if entry.Direction != DirectionOutput {
			continue
		}
		if _, err := file.Write(entry.Data); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}
	return nil
}

func exportTimestamped(file *os.File, entries []Entry) error {
	for _, entry := range entries {
		direction := ">>"
		if entry.Direction == DirectionOutput {
			direction = "<<"
		}
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05.000"),
			direction,
			strings.ReplaceAll(string(entry.Data), "\n", "\\n"))
		if _, err := file.WriteString(line); err != nil {
			return fmt.Errorf("failed to write timestamped data: %w", err)
		}
	}
	return nil
}

func exportJSON(file *os.File, entries []Entry) error {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	data := struct {
		Entries []Entry `json:"entries"`
		Count   int     `json:"count"`
	}{
		Entries: entries,
		Count:   len(entries),
	}
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
