package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := BaseDir()
	want := filepath.Join(home, ".flasher")
	if got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath()
	if !strings.HasSuffix(got, filepath.Join(".flasher", "config.toml")) {
		t.Errorf("ConfigPath() = %q, want suffix .flasher/config.toml", got)
	}
}

func TestDataDirPaths(t *testing.T) {
	dir := filepath.Join("srv", "flasher")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"socket", SocketPath(dir), filepath.Join(dir, "flashd.sock")},
		{"db", DBPath(dir), filepath.Join(dir, "sessions.db")},
		{"log", LogPath(dir), filepath.Join(dir, "logs", "flashd.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	if err := EnsureDir(dataDir); err != nil {
		t.Fatal(err)
	}

	for _, d := range []string{dataDir, LogDir(dataDir)} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("%s not created: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("%s permission = %o, want 0700", d, perm)
		}
	}
}
