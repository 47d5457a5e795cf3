package utils

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ArenaConfig struct {
	Width, Height float64
}

type BattleConfig struct {
	Bots            int
	TickInterval    Duration
	HistoryCapacity int
	GunCoolingRate  float64
}

type ServerConfig struct {
	Address        string
	OriginPatterns []string
}

type ReplayConfig struct {
	Dir        string
	FlushTurns int
}

type LogConfig struct {
	Level string
}

type Config struct {
	Arena  ArenaConfig
	Battle BattleConfig
	Server ServerConfig
	Replay ReplayConfig
	Log    LogConfig
}

// Duration reads TOML strings such as "16ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{Width: 800, Height: 600},
		Battle: BattleConfig{
			Bots:            4,
			TickInterval:    Duration{17 * time.Millisecond},
			HistoryCapacity: 256,
			GunCoolingRate:  0.1,
		},
		Server: ServerConfig{Address: "localhost:4242"},
		Replay: ReplayConfig{FlushTurns: 1000},
		Log:    LogConfig{Level: "info"},
	}
}

// ReadTOML reads fileName over the defaults. A missing file yields the
// defaults unchanged.
func ReadTOML(fileName string) (*Config, error) {
	config := DefaultConfig()
	file, err := os.ReadFile(fileName)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Arena.Width <= 0 || c.Arena.Height <= 0:
		return fmt.Errorf("arena must be positive, got %vx%v", c.Arena.Width, c.Arena.Height)
	case c.Battle.Bots < 1:
		return fmt.Errorf("battle needs at least one bot, got %d", c.Battle.Bots)
	case c.Battle.TickInterval.Duration <= 0:
		return fmt.Errorf("tick interval must be positive, got %v", c.Battle.TickInterval)
	case c.Battle.HistoryCapacity < 1:
		return fmt.Errorf("history capacity must be positive, got %d", c.Battle.HistoryCapacity)
	case !(c.Battle.GunCoolingRate > 0):
		return fmt.Errorf("gun cooling rate must be positive, got %v", c.Battle.GunCoolingRate)
	case c.Replay.Dir != "" && c.Replay.FlushTurns < 1:
		return fmt.Errorf("replay flush turns must be positive, got %d", c.Replay.FlushTurns)
	}
	return nil
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
