package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const appName = "typerush"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultWordListDir returns the default directory for word lists.
func DefaultWordListDir() string {
	return filepath.Join(XDGConfigHome(), appName, "wordlists")
}

// ResolveWordListPath maps a bare list name such as "en" to a file in the
// word list directory. Anything that looks like a path is returned as is.
func ResolveWordListPath(name string) string {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || filepath.Ext(name) != "" {
		return name
	}
	return filepath.Join(DefaultWordListDir(), name+".txt")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultPlayerIDPath returns where the generated player id is kept.
func DefaultPlayerIDPath() string {
	return filepath.Join(XDGDataHome(), appName, "player-id")
}

// DefaultPlayer returns the login name of the current user, or a stable
// generated id stored at idPath when no name is available.
func DefaultPlayer(idPath string) (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name, nil
	}
	return LoadOrCreatePlayerID(idPath)
}

// LoadOrCreatePlayerID reads the player id at path, generating and saving a
// new one on first use.
func LoadOrCreatePlayerID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read player id: %w", err)
	}
	id := "player-" + uuid.NewString()[:8]
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write player id: %w", err)
	}
	return id, nil
}
