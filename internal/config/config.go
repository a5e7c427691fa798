package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"thaipool/internal/schedule"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"api"`
	Payment struct {
		WindowSeconds       int `yaml:"window_seconds"`
		TickIntervalSeconds int `yaml:"tick_interval_seconds"`
	} `yaml:"payment"`
	Pools []PoolConfig `yaml:"pools"`
}

type PoolConfig struct {
	PoolID          string         `yaml:"pool_id"`
	Name            string         `yaml:"name"`
	FestivalEnabled bool           `yaml:"festival_enabled"`
	Windows         []WindowConfig `yaml:"windows"`
	FestivalWindow  *WindowConfig  `yaml:"festival_window"`
}

type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}
	if cfg.Payment.WindowSeconds <= 0 {
		cfg.Payment.WindowSeconds = 900
	}
	if cfg.Payment.TickIntervalSeconds <= 0 {
		cfg.Payment.TickIntervalSeconds = 1
	}
	if _, err := cfg.Schedules(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Schedules converts the configured pools into resolver inputs, validating
// every HH:MM value. Resolver inputs are always well-formed after Load.
func (c *Config) Schedules() ([]schedule.Pool, error) {
	pools := make([]schedule.Pool, 0, len(c.Pools))
	for _, pc := range c.Pools {
		pool := schedule.Pool{
			PoolID:          pc.PoolID,
			Name:            pc.Name,
			FestivalEnabled: pc.FestivalEnabled,
		}
		for i, wc := range pc.Windows {
			w, err := parseWindow(wc)
			if err != nil {
				return nil, fmt.Errorf("pool %s window %d: %w", pc.PoolID, i, err)
			}
			pool.Windows = append(pool.Windows, w)
		}
		if pc.FestivalWindow != nil {
			w, err := parseWindow(*pc.FestivalWindow)
			if err != nil {
				return nil, fmt.Errorf("pool %s festival window: %w", pc.PoolID, err)
			}
			pool.Festival = &w
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func parseWindow(wc WindowConfig) (schedule.TimeWindow, error) {
	start, err := schedule.ParseClock(wc.Start)
	if err != nil {
		return schedule.TimeWindow{}, err
	}
	end, err := schedule.ParseClock(wc.End)
	if err != nil {
		return schedule.TimeWindow{}, err
	}
	return schedule.TimeWindow{Start: start, End: end}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("PAYMENT_WINDOW_SECONDS"); v != "" {
		cfg.Payment.WindowSeconds = atoiOr(cfg.Payment.WindowSeconds, v)
	}
	if v := os.Getenv("PAYMENT_TICK_INTERVAL_SECONDS"); v != "" {
		cfg.Payment.TickIntervalSeconds = atoiOr(cfg.Payment.TickIntervalSeconds, v)
	}
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
