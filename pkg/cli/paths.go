package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the snapsense directory layout.
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base snapsense directory (~/.snapsense)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.snapsense/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// EventsDir returns the event log database directory (~/.snapsense/events)
func (p *Paths) EventsDir() string {
	return filepath.Join(p.BaseDir(), "events")
}

// ClipsDir returns the local gesture clip directory (~/.snapsense/clips)
func (p *Paths) ClipsDir() string {
	return filepath.Join(p.BaseDir(), "clips")
}

// LogDir returns the log directory (~/.snapsense/logs)
func (p *Paths) LogDir() string {
	return filepath.Join(p.BaseDir(), "logs")
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (p *Paths) EnsureBaseDir() error {
	return os.MkdirAll(p.BaseDir(), 0755)
}

// EnsureEventsDir creates the event log directory if it doesn't exist
func (p *Paths) EnsureEventsDir() error {
	return os.MkdirAll(p.EventsDir(), 0755)
}

// EnsureClipsDir creates the clip directory if it doesn't exist
func (p *Paths) EnsureClipsDir() error {
	return os.MkdirAll(p.ClipsDir(), 0755)
}

// EnsureLogDir creates the log directory if it doesn't exist
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0755)
}

// LogPath returns a path within the log directory
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogDir(), name)
}
