package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CUBECHASE_"

const (
	ModeWeb      = "web"
	ModeTerminal = "terminal"
)

type Config struct {
	Mode    string        `yaml:"mode"`
	Listen  ListenConfig  `yaml:"listen"`
	Court   CourtConfig   `yaml:"court"`
	Game    GameConfig    `yaml:"game"`
	Network NetworkConfig `yaml:"network"`
	Logging LoggingConfig `yaml:"logging"`
}

type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CourtConfig is used when the front end does not report a viewport size.
type CourtConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type GameConfig struct {
	Seed        int64         `yaml:"seed"`         // 0 picks a time-based seed
	IdleTimeout time.Duration `yaml:"idle_timeout"` // unjoined web rooms close after this; 0 never
}

type NetworkConfig struct {
	ReadLimit    int64         `yaml:"read_limit"`
	PongWait     time.Duration `yaml:"pong_wait"`
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteWait    time.Duration `yaml:"write_wait"`
	SendBuffer   int           `yaml:"send_buffer"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
	File   string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Mode:   ModeWeb,
		Listen: ListenConfig{Host: "0.0.0.0", Port: 8080},
		Court:  CourtConfig{Width: 800, Height: 600},
		Game:   GameConfig{IdleTimeout: 2 * time.Minute},
		Network: NetworkConfig{
			ReadLimit:    1 << 20,
			PongWait:     60 * time.Second,
			PingInterval: 25 * time.Second,
			WriteWait:    10 * time.Second,
			SendBuffer:   256,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Host, c.Listen.Port)
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then CUBECHASE_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set are left alone.
func InitEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil

}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, err := GetEnvVariable(envPrefix + key); err == nil {
			*dst = v
		}
	}
	str("MODE", &c.Mode)
	str("LISTEN_HOST", &c.Listen.Host)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_FILE", &c.Logging.File)

	if v, err := GetEnvVariable(envPrefix + "LISTEN_PORT"); err == nil {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLISTEN_PORT: %w", envPrefix, err)
		}
		c.Listen.Port = port
	}
	if v, err := GetEnvVariable(envPrefix + "SEED"); err == nil {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		c.Game.Seed = seed
	}
	for key, dst := range map[string]*float64{"COURT_WIDTH": &c.Court.Width, "COURT_HEIGHT": &c.Court.Height} {
		if v, err := GetEnvVariable(envPrefix + key); err == nil {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = f
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeWeb, ModeTerminal:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Mode == ModeWeb && (c.Listen.Port <= 0 || c.Listen.Port > 65535) {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	if c.Court.Width <= 40 || c.Court.Height <= 40 {
		return fmt.Errorf("court %.0fx%.0f too small", c.Court.Width, c.Court.Height)
	}
	if c.Game.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout %s is negative", c.Game.IdleTimeout)
	}
	if c.Network.PingInterval >= c.Network.PongWait {
		return fmt.Errorf("ping interval %s must be shorter than pong wait %s", c.Network.PingInterval, c.Network.PongWait)
	}
	return nil
}
