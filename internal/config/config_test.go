package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if got := cfg.SMS.Interval(); got != 2*time.Second {
		t.Fatalf("SMS.Interval() = %v, want 2s", got)
	}
	if got := cfg.Pipeline.Timeout(); got != 30*time.Second {
		t.Fatalf("Pipeline.Timeout() = %v, want 30s", got)
	}
	if cfg.Pipeline.DispatchQueueSize != DefaultDispatchQueue {
		t.Fatalf("DispatchQueueSize = %d, want %d", cfg.Pipeline.DispatchQueueSize, DefaultDispatchQueue)
	}
	if cfg.Gemini.Prompt() == "" {
		t.Fatal("Gemini.Prompt() is empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = ":9090"

[sms]
poll_interval = "500ms"
list_limit = 10

[gemini]
model = "gemini-2.0-pro"
grounding = false

[pipeline]
dispatch_queue_size = 4
long_poll_timeout = "5s"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Server.Addr = %q", cfg.Server.Addr)
	}
	if got := cfg.SMS.Interval(); got != 500*time.Millisecond {
		t.Fatalf("SMS.Interval() = %v, want 500ms", got)
	}
	if cfg.SMS.ListLimit != 10 {
		t.Fatalf("SMS.ListLimit = %d, want 10", cfg.SMS.ListLimit)
	}
	if cfg.Gemini.Grounding {
		t.Fatal("Gemini.Grounding = true, want false")
	}
	if cfg.Pipeline.DispatchQueueSize != 4 {
		t.Fatalf("DispatchQueueSize = %d, want 4", cfg.Pipeline.DispatchQueueSize)
	}
	if got := cfg.Pipeline.Timeout(); got != 5*time.Second {
		t.Fatalf("Pipeline.Timeout() = %v, want 5s", got)
	}
}

func TestParseDurationFallback(t *testing.T) {
	t.Parallel()
	if got := parseDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("parseDuration(garbage) = %v, want fallback", got)
	}
	if got := parseDuration("-2s", time.Minute); got != time.Minute {
		t.Fatalf("parseDuration(-2s) = %v, want fallback", got)
	}
}
