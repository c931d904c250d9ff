package internal

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Index.Enabled() {
		t.Error("catalog should be disabled by default")
	}
	if cfg.Host.LockTimeout != 0 {
		t.Errorf("lock timeout = %v, want 0", cfg.Host.LockTimeout)
	}
}

func TestHostConfig_NegativeLockTimeout(t *testing.T) {
	cfg := HostConfig{LockTimeout: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative lock timeout should fail validation")
	}
}

func TestMigrateConfig_Invalid(t *testing.T) {
	cases := map[string]func(*MigrateConfig){
		"zero concurrency": func(c *MigrateConfig) { c.Concurrency = 0 },
		"huge concurrency": func(c *MigrateConfig) { c.Concurrency = 1000 },
		"negative rate":    func(c *MigrateConfig) { c.RequestsPerSecond = -1 },
		"no timeout":       func(c *MigrateConfig) { c.Timeout = 0 },
		"no user agent":    func(c *MigrateConfig) { c.UserAgent = "" },
	}
	for name, mutate := range cases {
		cfg := NewDefaultConfig()
		mutate(&cfg.Migrate)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func frameOf(payload string) []byte {
	buf := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func TestRun_Ping(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFile = filepath.Join(t.TempDir(), "host.log")

	var out bytes.Buffer
	in := bytes.NewReader(frameOf(`{"action":"ping"}`))
	if err := Run(context.Background(), WithConfig(cfg), WithStreams(in, &out)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := frameOf(`{"success":true,"message":"pong"}`)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output = %q, want %q", out.Bytes(), want)
	}

	logs, err := os.ReadFile(cfg.App.LogFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logs), "Host starting") {
		t.Errorf("log file missing startup line: %s", logs)
	}
}

func TestRun_TruncatedInputFails(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFile = filepath.Join(t.TempDir(), "host.log")

	var out bytes.Buffer
	in := bytes.NewReader([]byte{0x10, 0x00})
	if err := Run(context.Background(), WithConfig(cfg), WithStreams(in, &out)); err == nil {
		t.Fatal("expected error for truncated header")
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.Bytes())
	}
}

func TestRun_CatalogOpenFailureIsNotFatal(t *testing.T) {
	cfg := NewDefaultConfig()
	dir := t.TempDir()
	cfg.App.LogFile = filepath.Join(dir, "host.log")
	cfg.Index.Path = filepath.Join(dir, "missing", "nested", "catalog.db")

	var out bytes.Buffer
	in := bytes.NewReader(frameOf(`{"action":"search_bookmarks","query":"go"}`))
	if err := Run(context.Background(), WithConfig(cfg), WithStreams(in, &out)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `"code":"unavailable"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
