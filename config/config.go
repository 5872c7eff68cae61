package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type WS struct {
	ReadLimit    int64  `yaml:"readLimit"`    // max inbound frame size, bytes
	PingInterval string `yaml:"pingInterval"` // control-frame ping cadence
	WriteTimeout string `yaml:"writeTimeout"` // per-delivery write deadline
}

type Broker struct {
	HeartbeatThreshold string `yaml:"heartbeatThreshold"` // staleness cutoff for the sweep
	SweepInterval      string `yaml:"sweepInterval"`      // how often the sweep runs
	SendTimeout        string `yaml:"sendTimeout"`        // per-delivery bound inside the broker
}

type Auth struct {
	PublicKeyPath string `yaml:"publicKeyPath"` // RSA public key (PEM) for RS256 verification
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	ClockSkew     string `yaml:"clockSkew"`
	Insecure      bool   `yaml:"insecure"` // dev only: skip signature verification
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // push-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	WS      WS      `yaml:"ws"`
	Broker  Broker  `yaml:"broker"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
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
	if c.Auth.PublicKeyPath == "" && !c.Auth.Insecure {
		return errors.New("auth.publicKeyPath is required unless auth.insecure is set")
	}
	if c.WS.ReadLimit <= 0 {
		c.WS.ReadLimit = 1 << 20
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "push-service"
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
	return nil
}

func (c *Config) PingInterval() time.Duration {
	return parseDurationOr(15*time.Second, c.WS.PingInterval)
}

func (c *Config) WriteTimeout() time.Duration {
	return parseDurationOr(5*time.Second, c.WS.WriteTimeout)
}

func (c *Config) HeartbeatThreshold() time.Duration {
	return parseDurationOr(90*time.Second, c.Broker.HeartbeatThreshold)
}

func (c *Config) SweepInterval() time.Duration {
	return parseDurationOr(30*time.Second, c.Broker.SweepInterval)
}

func (c *Config) SendTimeout() time.Duration {
	return parseDurationOr(5*time.Second, c.Broker.SendTimeout)
}

func (c *Config) ClockSkew() time.Duration {
	return parseDurationOr(30*time.Second, c.Auth.ClockSkew)
}

// helper for parsing timeouts
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
