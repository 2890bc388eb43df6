package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigEnv, "")

	if got := ResolveConfigPath(""); got != "" {
		t.Errorf("no config anywhere: got %q, want empty", got)
	}

	if err := os.MkdirAll(filepath.Join(home, ".flasher"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("listen = \":1\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := ResolveConfigPath(""); got != ConfigPath() {
		t.Errorf("default file: got %q, want %q", got, ConfigPath())
	}

	t.Setenv(ConfigEnv, "/etc/flasher.yaml")
	if got := ResolveConfigPath(""); got != "/etc/flasher.yaml" {
		t.Errorf("env: got %q, want /etc/flasher.yaml", got)
	}

	if got := ResolveConfigPath("./local.toml"); got != "./local.toml" {
		t.Errorf("flag: got %q, want ./local.toml", got)
	}
}
