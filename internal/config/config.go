// Package config loads process-level startup configuration. Everything
// here is read once before the tick loop starts and never mutated by
// gameplay.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"run-and-gun/server/internal/phys"
)

// Rect is an axis-aligned XZ footprint used for walls.
type Rect struct {
	MinX float32 `yaml:"min_x"`
	MaxX float32 `yaml:"max_x"`
	MinZ float32 `yaml:"min_z"`
	MaxZ float32 `yaml:"max_z"`
}

// PlatformRect adds a walkable top surface height to a footprint.
type PlatformRect struct {
	Rect   `yaml:",inline"`
	Height float32 `yaml:"height"`
}

// Weapon describes one hitscan weapon slot.
type Weapon struct {
	Name          string  `yaml:"name"`
	MaxDamage     float32 `yaml:"max_damage"`
	MinDamage     float32 `yaml:"min_damage"`
	CooldownTicks uint32  `yaml:"cooldown_ticks"`
	Range         float32 `yaml:"range"`
	Spread        float32 `yaml:"spread"`
	Pellets       int     `yaml:"pellets"`
}

// Config is the full startup configuration.
type Config struct {
	TickRate        int     `yaml:"tick_rate_hz"`
	MaxPlayers      int     `yaml:"max_players"`
	WorldHalfExtent float32 `yaml:"world_half_extent"`
	BotCount        int     `yaml:"bot_count"`
	SpiderCount     int     `yaml:"spider_count"`

	InputQueueCapacity int    `yaml:"input_queue_capacity"`
	IdleTimeoutTicks   uint32 `yaml:"idle_timeout_ticks"`
	RespawnDelayTicks  uint32 `yaml:"respawn_delay_ticks"`

	Seed int64 `yaml:"seed"`

	Weapons   []Weapon       `yaml:"weapons"`
	Walls     []Rect         `yaml:"walls"`
	Platforms []PlatformRect `yaml:"platforms"`
}

// Defaults returns the configuration used when no file is supplied:
// a 64-player arena bounded by perimeter walls, with the pump shotgun
// in slot 0.
func Defaults() Config {
	return Config{
		TickRate:           60,
		MaxPlayers:         64,
		WorldHalfExtent:    24,
		BotCount:           0,
		SpiderCount:        0,
		InputQueueCapacity: 4096,
		IdleTimeoutTicks:   600,
		RespawnDelayTicks:  180,
		Seed:               0,
		Weapons: []Weapon{
			{
				Name:          "Pump Shotgun",
				MaxDamage:     84,
				MinDamage:     12,
				CooldownTicks: 16,
				Range:         22,
				Spread:        0.07,
				Pellets:       8,
			},
		},
	}
}

// Load reads a YAML config file, filling unset fields from Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", c.TickRate)
	}
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("max_players must be positive, got %d", c.MaxPlayers)
	}
	if c.WorldHalfExtent <= 2 {
		return fmt.Errorf("world_half_extent too small: %f", c.WorldHalfExtent)
	}
	if len(c.Weapons) == 0 {
		return fmt.Errorf("at least one weapon slot is required")
	}
	for i, w := range c.Weapons {
		if w.Pellets <= 0 || w.Range <= 0 || w.CooldownTicks == 0 {
			return fmt.Errorf("weapon %d (%s) has invalid parameters", i, w.Name)
		}
	}
	return nil
}

// PerimeterWalls builds the four boundary walls enclosing a square arena
// of the given half extent, one unit thick.
func PerimeterWalls(h float32) []Rect {
	return []Rect{
		{MinX: -h, MaxX: h, MinZ: h - 1, MaxZ: h},
		{MinX: -h, MaxX: h, MinZ: -h, MaxZ: -h + 1},
		{MinX: -h, MaxX: -h + 1, MinZ: -h, MaxZ: h},
		{MinX: h - 1, MaxX: h, MinZ: -h, MaxZ: h},
	}
}

// Arena materializes the immutable static geometry: configured interior
// walls and platforms plus the perimeter.
func (c Config) Arena() *phys.Arena {
	walls := make([]phys.Wall, 0, len(c.Walls)+4)
	for _, w := range PerimeterWalls(c.WorldHalfExtent) {
		walls = append(walls, phys.Wall{MinX: w.MinX, MaxX: w.MaxX, MinZ: w.MinZ, MaxZ: w.MaxZ})
	}
	for _, w := range c.Walls {
		walls = append(walls, phys.Wall{MinX: w.MinX, MaxX: w.MaxX, MinZ: w.MinZ, MaxZ: w.MaxZ})
	}
	platforms := make([]phys.Platform, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		platforms = append(platforms, phys.Platform{
			MinX: p.MinX, MaxX: p.MaxX, MinZ: p.MinZ, MaxZ: p.MaxZ, Height: p.Height,
		})
	}
	return &phys.Arena{
		HalfExtent: c.WorldHalfExtent,
		Walls:      walls,
		Platforms:  platforms,
	}
}
