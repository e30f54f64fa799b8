package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName   = "sleeves"
	osWindows = "windows"
	osDarwin  = "darwin"
)

// GetDataDir returns the platform-specific data directory for sleeves
func GetDataDir() (string, error) {
	switch runtime.GOOS {
	case osWindows:
		return windowsDir("APPDATA", "Roaming")
	case osDarwin:
		return homeDir("Library", "Application Support", appName)
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, appName), nil
		}
		return homeDir(".local", "share", appName)
	}
}

// GetConfigDir returns the platform-specific configuration directory for sleeves
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case osWindows:
		return windowsDir("APPDATA", "Roaming")
	case osDarwin:
		return homeDir("Library", "Preferences", appName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, appName), nil
		}
		return homeDir(".config", appName)
	}
}

func windowsDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	return filepath.Join(os.Getenv("USERPROFILE"), "AppData", fallback, appName), nil
}

func homeDir(parts ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, parts...)...), nil
}
