package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCfg(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	writeCfg(t, `
http:
  addr: ":8080"
platform:
  apiBase: "http://platform:9000"
  gatewayUrl: "ws://platform:9000/gateway"
  token: "secret"
zones:
  - id: "duo"
    kind: "shared"
    nameTemplate: "Duo {index}"
    defaultCapacity: 2
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.Path == "" {
		t.Fatalf("storage defaults: %+v", cfg.Storage)
	}
	if cfg.Logging.Service != "voice-service" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults: %+v", cfg.Logging)
	}
	if cfg.KeepaliveDuration() != 60*time.Second {
		t.Fatalf("keepalive default: %v", cfg.KeepaliveDuration())
	}
	if cfg.OwnershipLockDuration() != 10*time.Minute {
		t.Fatalf("ownership lock default: %v", cfg.OwnershipLockDuration())
	}

	zones := cfg.ZoneConfigs()
	if len(zones) != 1 || zones["duo"].NameTemplate != "Duo {index}" {
		t.Fatalf("zones: %+v", zones)
	}
}

func TestLoadConfig_ParsesDurations(t *testing.T) {
	writeCfg(t, `
http:
  addr: ":8080"
platform:
  apiBase: "http://platform:9000"
  gatewayUrl: "ws://platform:9000/gateway"
zones:
  - id: "duo"
    kind: "shared"
    nameTemplate: "Duo {index}"
lifecycle:
  keepalive: "45s"
  ownershipLock: "5m"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KeepaliveDuration() != 45*time.Second {
		t.Fatalf("keepalive: %v", cfg.KeepaliveDuration())
	}
	if cfg.OwnershipLockDuration() != 5*time.Minute {
		t.Fatalf("ownership lock: %v", cfg.OwnershipLockDuration())
	}
}

func TestLoadConfig_RejectsBadZones(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
http: {addr: ":8080"}
platform: {apiBase: "http://p", gatewayUrl: "ws://p"}
zones:
  - {id: "a", kind: "shared", nameTemplate: "X"}
  - {id: "a", kind: "shared", nameTemplate: "Y"}
`,
		"bad kind": `
http: {addr: ":8080"}
platform: {apiBase: "http://p", gatewayUrl: "ws://p"}
zones:
  - {id: "a", kind: "weird", nameTemplate: "X"}
`,
		"empty template": `
http: {addr: ":8080"}
platform: {apiBase: "http://p", gatewayUrl: "ws://p"}
zones:
  - {id: "a", kind: "personal"}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			writeCfg(t, body)
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfig_PostgresNeedsDSN(t *testing.T) {
	writeCfg(t, `
http: {addr: ":8080"}
platform: {apiBase: "http://p", gatewayUrl: "ws://p"}
storage: {backend: "postgres"}
zones:
  - {id: "a", kind: "shared", nameTemplate: "X"}
`)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected dsn error")
	}
}
