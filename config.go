package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// envConfig is read from the environment. Tile settings use the
// TRACKPLAYER_ prefix, provider keys keep their usual names.
type envConfig struct {
	TileCache   string        `mapstructure:"TILE_CACHE"`
	TileRPS     float64       `mapstructure:"TILE_RPS"`
	TileBurst   int           `mapstructure:"TILE_BURST"`
	TileTimeout time.Duration `mapstructure:"TILE_TIMEOUT"`

	MapboxToken string `mapstructure:"MAPBOX_TOKEN"`
	MapTilerKey string `mapstructure:"MAPTILER_KEY"`
	StadiaKey   string `mapstructure:"STADIA_KEY"`
}

func loadEnv() (envConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKPLAYER")
	v.AutomaticEnv()
	v.SetDefault("TILE_CACHE", ".tile-cache")
	v.SetDefault("TILE_RPS", 4.0)
	v.SetDefault("TILE_BURST", 2)
	v.SetDefault("TILE_TIMEOUT", "20s")
	for _, k := range []string{"MAPBOX_TOKEN", "MAPTILER_KEY", "STADIA_KEY"} {
		_ = v.BindEnv(k, k)
	}

	var cfg envConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("env config: %w", err)
	}
	return cfg, nil
}

// tileKeys are the ${KEY} values substituted into tile preset URLs.
func (c envConfig) tileKeys() map[string]string {
	keys := map[string]string{}
	if c.MapboxToken != "" {
		keys["MAPBOX_TOKEN"] = c.MapboxToken
	}
	if c.MapTilerKey != "" {
		keys["MAPTILER_KEY"] = c.MapTilerKey
	}
	if c.StadiaKey != "" {
		keys["STADIA_KEY"] = c.StadiaKey
	}
	return keys
}
