package sinkconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/logship/shipper/sinkregistry"

	_ "xdao.co/logship/shipper/spool"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sinks.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{FrameBytes: 1024, Sinks: []SinkConfig{{Name: "spool"}}}, true},
		{"valid all policy", Config{FrameBytes: 1, ShipPolicy: "all", Sinks: []SinkConfig{{Name: "a"}, {Name: "b"}}}, true},
		{"zero frame bytes", Config{Sinks: []SinkConfig{{Name: "spool"}}}, false},
		{"negative frame bytes", Config{FrameBytes: -1, Sinks: []SinkConfig{{Name: "spool"}}}, false},
		{"no sinks", Config{FrameBytes: 1024}, false},
		{"unnamed sink", Config{FrameBytes: 1024, Sinks: []SinkConfig{{}}}, false},
		{"duplicate ids", Config{FrameBytes: 1024, Sinks: []SinkConfig{{Name: "spool"}, {Name: "spool"}}}, false},
		{"bad policy", Config{FrameBytes: 1024, ShipPolicy: "quorum", Sinks: []SinkConfig{{Name: "spool"}}}, false},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
	  "frame_bytes": 2048,
	  "sinks": [{"name":"spool", "config":{"spool-dir":"/tmp/x"}}]
	}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.FrameBytes != 2048 || len(cfg.Sinks) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadFile(""); err == nil {
		t.Error("expected error for empty path")
	}
	bad := writeConfig(t, `{"frame_bytes": 0, "sinks": []}`)
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestOpenAndShip(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		FrameBytes: 16,
		Sinks: []SinkConfig{{
			Name:   "spool",
			Config: map[string]string{"spool-dir": dir},
		}},
	}

	sh, closeFn, err := cfg.NewShipper(sinkregistry.UsageCLI)
	if err != nil {
		t.Fatalf("NewShipper: %v", err)
	}
	defer func() {
		_ = sh.Close()
		if closeFn != nil {
			_ = closeFn()
		}
	}()

	if sh.MaxFrameSize() != 16 {
		t.Errorf("MaxFrameSize = %d", sh.MaxFrameSize())
	}
	if err := sh.ShipText(context.Background(), "a record longer than sixteen bytes"); err != nil {
		t.Fatalf("ShipText: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected a spooled record")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := Config{FrameBytes: 8, Sinks: []SinkConfig{{Name: "no-such-sink"}}}
	if _, _, err := cfg.Open(sinkregistry.UsageCLI); err == nil {
		t.Error("expected error for unknown backend")
	}
}
