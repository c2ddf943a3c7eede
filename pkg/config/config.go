// Package config manages named session profiles stored as JSON under the
// user configuration directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Profile describes how a session is launched: the command, the terminal
// identity, and the initial geometry.
type Profile struct {
	// Command is the program to run. Empty selects the user's shell.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Term is the TERM value advertised to the child. Empty means
	// "xterm-256color".
	Term string `json:"term,omitempty"`

	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// TranscriptSize is the transcript byte budget. Zero disables
	// recording.
	TranscriptSize int `json:"transcript_size,omitempty"`
}

// DefaultProfile returns the profile used when none is named: the user's
// shell at the classic 24x80 geometry.
func DefaultProfile() Profile {
	return Profile{
		Rows: 24,
		Cols: 80,
	}
}

// Validate checks the profile.
func (p Profile) Validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("invalid profile size %dx%d: dimensions must be positive", p.Rows, p.Cols)
	}
	if p.Rows > 0xFFFF || p.Cols > 0xFFFF {
		return fmt.Errorf("invalid profile size %dx%d: dimensions exceed uint16", p.Rows, p.Cols)
	}
	if p.TranscriptSize < 0 {
		return fmt.Errorf("invalid transcript size %d: must not be negative", p.TranscriptSize)
	}
	return nil
}

// ProfileManager is the contract for profile storage.
type ProfileManager interface {
	Save(name string, profile Profile) error
	Load(name string) (Profile, error)
	List() ([]ProfileInfo, error)
	Delete(name string) error
	Exists(name string) bool
}

// ProfileInfo is a stored profile plus its metadata.
type ProfileInfo struct {
	Name       string    `json:"name"`
	Profile    Profile   `json:"profile"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Validate checks the stored record.
func (p ProfileInfo) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if err := p.Profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("created_at timestamp cannot be zero")
	}
	return nil
}

// profileStorage is the on-disk format.
type profileStorage struct {
	Profiles map[string]ProfileInfo `json:"profiles"`
	Version  string                 `json:"version"`
}

// DefaultDir returns the per-user profile directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "ptyterm"), nil
}

// FileProfileManager implements ProfileManager on a single JSON file.
type FileProfileManager struct {
	dir  string
	file string
}

// NewFileProfileManager creates a manager rooted at dir.
func NewFileProfileManager(dir string) *FileProfileManager {
	return &FileProfileManager{
		dir:  dir,
		file: "profiles.json",
	}
}

// Path returns the full path of the storage file.
func (m *FileProfileManager) Path() string {
	return filepath.Join(m.dir, m.file)
}

// Save stores a profile under the given name, preserving the creation
// timestamp if the name already exists.
func (m *FileProfileManager) Save(name string, profile Profile) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	storage, err := m.loadStorage()
	if err != nil {
		return fmt.Errorf("failed to load existing profiles: %w", err)
	}

	now := time.Now()
	info := ProfileInfo{
		Name:       name,
		Profile:    profile,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if existing, ok := storage.Profiles[name]; ok {
		info.CreatedAt = existing.CreatedAt
	}
	storage.Profiles[name] = info

	if err := m.saveStorage(storage); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Load retrieves a profile by name and touches its last-used timestamp.
func (m *FileProfileManager) Load(name string) (Profile, error) {
	if name == "" {
		return Profile{}, fmt.Errorf("profile name cannot be empty")
	}

	storage, err := m.loadStorage()
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load profiles: %w", err)
	}

	info, ok := storage.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile '%s' not found", name)
	}

	info.LastUsedAt = time.Now()
	storage.Profiles[name] = info
	// The timestamp update is best effort.
	_ = m.saveStorage(storage)

	return info.Profile, nil
}

// List returns all stored profiles.
func (m *FileProfileManager) List() ([]ProfileInfo, error) {
	storage, err := m.loadStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	infos := make([]ProfileInfo, 0, len(storage.Profiles))
	for _, info := range storage.Profiles {
		infos = append(infos, info)
	}
	return infos, nil
}

// Delete removes a stored profile.
func (m *FileProfileManager) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	storage, err := m.loadStorage()
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if _, ok := storage.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' not found", name)
	}
	delete(storage.Profiles, name)

	if err := m.saveStorage(storage); err != nil {
		return fmt.Errorf("failed to save profiles after deletion: %w", err)
	}
	return nil
}

// Exists reports whether a profile with the given name is stored.
func (m *FileProfileManager) Exists(name string) bool {
	if name == "" {
		return false
	}
	storage, err := m.loadStorage()
	if err != nil {
		return false
	}
	_, ok := storage.Profiles[name]
	return ok
}

func (m *FileProfileManager) loadStorage() (profileStorage, error) {
	data, err := os.ReadFile(m.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return profileStorage{
				Profiles: make(map[string]ProfileInfo),
				Version:  "1.0",
			}, nil
		}
		return profileStorage{}, fmt.Errorf("failed to read profile file: %w", err)
	}

	var storage profileStorage
	if err := json.Unmarshal(data, &storage); err != nil {
		return profileStorage{}, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if storage.Profiles == nil {
		storage.Profiles = make(map[string]ProfileInfo)
	}
	return storage, nil
}

// saveStorage writes via a temporary file and rename, so a crash mid-write
// never leaves a truncated profile file.
func (m *FileProfileManager) saveStorage(storage profileStorage) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(storage, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile data: %w", err)
	}

	path := m.Path()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary profile file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary profile file: %w", err)
	}
	return nil
}
