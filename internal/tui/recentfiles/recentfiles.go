// ABOUTME: Remembers recently uploaded files for the authoring form
// ABOUTME: Stores absolute paths as JSON in the XDG config directory

package recentfiles

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// MaxRecentFiles is the maximum number of recent files to keep
const MaxRecentFiles = 8

// RecentFiles manages the list of recently uploaded files
type RecentFiles struct {
	configDir string
	files     []string
}

type recentData struct {
	Files []string `json:"files"`
}

func New(configDir string) *RecentFiles {
	return &RecentFiles{configDir: configDir}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/course-author, or ~/.config/course-author
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "course-author")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "course-author")
}

func (rf *RecentFiles) configFile() string {
	return filepath.Join(rf.configDir, "recent.json")
}

// Load reads the list from disk, dropping files that no longer exist.
// A missing or corrupt file yields an empty list.
func (rf *RecentFiles) Load() ([]string, error) {
	data, err := os.ReadFile(rf.configFile())
	if errors.Is(err, fs.ErrNotExist) {
		rf.files = []string{}
		return rf.files, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		rf.files = []string{}
		return rf.files, nil
	}

	rf.files = make([]string, 0, len(recent.Files))
	for _, path := range recent.Files {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			rf.files = append(rf.files, path)
		}
	}
	return rf.files, nil
}

func (rf *RecentFiles) save(files []string) error {
	if err := os.MkdirAll(rf.configDir, 0o755); err != nil {
		return err
	}
	if len(files) > MaxRecentFiles {
		files = files[:MaxRecentFiles]
	}
	rf.files = files

	data, err := json.MarshalIndent(recentData{Files: files}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rf.configFile(), data, 0o644)
}

// Add moves path to the front of the list, storing it as an absolute path.
func (rf *RecentFiles) Add(path string) error {
	if rf.configDir == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if rf.files == nil {
		if _, err := rf.Load(); err != nil {
			rf.files = []string{}
		}
	}

	files := make([]string, 0, len(rf.files)+1)
	files = append(files, abs)
	for _, f := range rf.files {
		if f != abs {
			files = append(files, f)
		}
	}
	return rf.save(files)
}

// List returns the current list of recent files
func (rf *RecentFiles) List() []string {
	if rf.files == nil {
		if _, err := rf.Load(); err != nil {
			return nil
		}
	}
	return slices.Clone(rf.files)
}
