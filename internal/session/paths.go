package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.flasher.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".flasher")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// SocketPath returns the daemon's control socket inside dataDir.
func SocketPath(dataDir string) string {
	return filepath.Join(dataDir, "flashd.sock")
}

// DBPath returns the sqlite session database inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "sessions.db")
}

// LogDir returns the log directory inside dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the daemon log file path.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "flashd.log")
}

// EnsureDir creates the data directory tree with proper permissions.
func EnsureDir(dataDir string) error {
	for _, d := range []string{dataDir, LogDir(dataDir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
