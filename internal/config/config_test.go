package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Game.Player != nil || cfg.Gateway.URL != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[game]
player = "ada"
difficulty = "hard"

[gateway]
url = "http://localhost:8080"
timeout = "3s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Game.Player == nil || *cfg.Game.Player != "ada" {
		t.Fatalf("unexpected player %v", cfg.Game.Player)
	}
	if cfg.Game.Difficulty == nil || *cfg.Game.Difficulty != "hard" {
		t.Fatalf("unexpected difficulty %v", cfg.Game.Difficulty)
	}
	if cfg.Game.WordList != nil {
		t.Fatalf("expected unset word list")
	}
	timeout, err := cfg.Gateway.TimeoutDuration()
	if err != nil || timeout == nil || *timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v %v", timeout, err)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[game]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "game.speed") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestTimeoutDurationInvalid(t *testing.T) {
	bad := "soon"
	if _, err := (GatewayConfig{Timeout: &bad}).TimeoutDuration(); err == nil {
		t.Fatalf("expected parse error")
	}
	negative := "-1s"
	if _, err := (GatewayConfig{Timeout: &negative}).TimeoutDuration(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
	if d, err := (GatewayConfig{}).TimeoutDuration(); err != nil || d != nil {
		t.Fatalf("expected nil for unset timeout")
	}
}

func TestXDGPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	if got, want := DefaultConfigPath(), filepath.Join(dir, "config", "typerush", "config.toml"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got, want := DefaultDBPath(), filepath.Join(dir, "data", "typerush", "typerush.db"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got, want := ResolveWordListPath("en"), filepath.Join(dir, "config", "typerush", "wordlists", "en.txt"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := ResolveWordListPath("/tmp/words.txt"); got != "/tmp/words.txt" {
		t.Fatalf("expected path unchanged, got %s", got)
	}
}

func TestLoadOrCreatePlayerID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typerush", "player-id")
	first, err := LoadOrCreatePlayerID(path)
	if err != nil {
		t.Fatalf("create player id: %v", err)
	}
	if !strings.HasPrefix(first, "player-") {
		t.Fatalf("unexpected id %q", first)
	}
	second, err := LoadOrCreatePlayerID(path)
	if err != nil {
		t.Fatalf("load player id: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable id, got %q then %q", first, second)
	}
}

func TestLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("TYPERUSH_ADDR", "")
	t.Setenv("TYPERUSH_DB_DRIVER", "")
	t.Setenv("TYPERUSH_DB_DSN", "")
	t.Setenv("TYPERUSH_RATE_LIMIT_RPS", "")

	_ = os.Unsetenv("TYPERUSH_RATE_LIMIT_BURST")
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("TYPERUSH_RATE_LIMIT_BURST=20\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("TYPERUSH_RATE_LIMIT_BURST") })

	cfg, err := LoadServerConfig(envFile, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("load server config: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DBDriver != "sqlite" || cfg.RateLimitRPS != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected burst from dotenv, got %d", cfg.RateLimitBurst)
	}
	if cfg.DBDSN != filepath.Join(dir, "typerush", "typerush.db") {
		t.Fatalf("unexpected dsn %q", cfg.DBDSN)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "127.0.0.1" {
		t.Fatalf("unexpected proxies %v", cfg.TrustedProxies)
	}
}

func TestLoadServerConfigValidation(t *testing.T) {
	t.Setenv("TYPERUSH_DB_DRIVER", "mysql")
	t.Setenv("TYPERUSH_DB_DSN", "")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatalf("expected error for mysql without dsn")
	}
	t.Setenv("TYPERUSH_DB_DRIVER", "postgres")
	t.Setenv("TYPERUSH_DB_DSN", "x")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
