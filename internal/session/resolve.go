package session

import "os"

// ConfigEnv names the environment variable that points at a config file.
const ConfigEnv = "FLASHER_CONFIG"

// ResolveConfigPath determines which config file to load using precedence:
// 1. flagOverride (--config flag)
// 2. $FLASHER_CONFIG
// 3. ~/.flasher/config.toml, if it exists
// An empty result means "run on defaults".
func ResolveConfigPath(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	if _, err := os.Stat(ConfigPath()); err == nil {
		return ConfigPath()
	}
	return ""
}
