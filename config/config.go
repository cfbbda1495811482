package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // voice-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Platform struct {
	APIBase    string `yaml:"apiBase"`    // REST-команды платформе
	GatewayURL string `yaml:"gatewayUrl"` // websocket-фид событий
	Token      string `yaml:"token"`
}

type Storage struct {
	Backend string `yaml:"backend"` // file|postgres
	Path    string `yaml:"path"`    // для file
	DSN     string `yaml:"dsn"`     // для postgres
}

type Zone struct {
	ID              string `yaml:"id"`
	Kind            string `yaml:"kind"` // shared|personal
	NameTemplate    string `yaml:"nameTemplate"`
	DefaultCapacity int    `yaml:"defaultCapacity"`
}

type Lifecycle struct {
	Keepalive     string `yaml:"keepalive"`     // "60s"
	OwnershipLock string `yaml:"ownershipLock"` // "10m"
	BoosterRole   string `yaml:"boosterRole"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Logging   Logging   `yaml:"logging"`
	Platform  Platform  `yaml:"platform"`
	Storage   Storage   `yaml:"storage"`
	Zones     []Zone    `yaml:"zones"`
	Lifecycle Lifecycle `yaml:"lifecycle"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Platform.APIBase == "" {
		return errors.New("platform.apiBase is required")
	}
	if c.Platform.GatewayURL == "" {
		return errors.New("platform.gatewayUrl is required")
	}
	if len(c.Zones) == 0 {
		return errors.New("at least one zone is required")
	}
	seen := map[string]bool{}
	for _, z := range c.Zones {
		if z.ID == "" {
			return errors.New("zone id is required")
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone id %q", z.ID)
		}
		seen[z.ID] = true
		if z.Kind != string(domain.ZoneShared) && z.Kind != string(domain.ZonePersonal) {
			return fmt.Errorf("zone %q: kind must be shared or personal", z.ID)
		}
		if z.NameTemplate == "" {
			return fmt.Errorf("zone %q: nameTemplate is required", z.ID)
		}
		if z.DefaultCapacity < 0 {
			return fmt.Errorf("zone %q: defaultCapacity must be >= 0", z.ID)
		}
	}

	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "voice-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Backend == "file" && c.Storage.Path == "" {
		c.Storage.Path = "data/tempvoice.json"
	}
	if c.Storage.Backend == "postgres" && c.Storage.DSN == "" {
		return errors.New("storage.dsn is required for the postgres backend")
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "postgres" {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// ZoneConfigs — зоны в доменном виде, ключ — идентификатор зоны.
func (c *Config) ZoneConfigs() map[string]domain.ZoneConfig {
	out := make(map[string]domain.ZoneConfig, len(c.Zones))
	for _, z := range c.Zones {
		out[z.ID] = domain.ZoneConfig{
			ID:              z.ID,
			Kind:            domain.ZoneKind(z.Kind),
			NameTemplate:    z.NameTemplate,
			DefaultCapacity: z.DefaultCapacity,
		}
	}
	return out
}

func (c *Config) KeepaliveDuration() time.Duration {
	return parseDurationOr(60*time.Second, c.Lifecycle.Keepalive)
}

func (c *Config) OwnershipLockDuration() time.Duration {
	return parseDurationOr(10*time.Minute, c.Lifecycle.OwnershipLock)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
