package internal

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/parley/pkg/config"
)

const Logo = "💬"

var version = "dev"

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".parley", "config.json")
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// SetupLogging applies the configured log level; debug forces it down.
func SetupLogging(cfg *config.Config, debug bool) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// GetVersion returns the version string.
func GetVersion() string {
	return version
}
