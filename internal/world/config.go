package world

import "strings"

const (
	DefaultSeed        = "roadrunner"
	DefaultDogSpeed    = 1.0
	DefaultTickWorkers = 4
)

type Config struct {
	DefaultDogSpeed float64 `json:"defaultDogSpeed"`
	RandomizeSpawn  bool    `json:"randomizeSpawn"`
	TickWorkers     int     `json:"tickWorkers"`
	Seed            string  `json:"seed"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.DefaultDogSpeed <= 0 {
		normalized.DefaultDogSpeed = DefaultDogSpeed
	}
	if normalized.TickWorkers <= 0 {
		normalized.TickWorkers = DefaultTickWorkers
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		DefaultDogSpeed: DefaultDogSpeed,
		RandomizeSpawn:  false,
		TickWorkers:     DefaultTickWorkers,
		Seed:            DefaultSeed,
	}
}
