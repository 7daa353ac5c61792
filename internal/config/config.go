// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for every simulation and server
// setting.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the construction-time parameters a new simulation run
// needs beyond a bare seed.
type SimConfig struct {
	Seed        int64
	WorldWidth  float64 // feet
	WorldHeight float64 // feet
	MaxUnits    int
	TickRate    int // ticks per second; advance() is driven at this cadence by the server loop
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		Seed:        1,
		WorldWidth:  1000,
		WorldHeight: 1000,
		MaxUnits:    64,
		TickRate:    60,
	}
}

// SimFromEnv returns simulation configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if seed := getEnvInt64("SIM_SEED", 0); seed != 0 {
		cfg.Seed = seed
	}
	if w := getEnvFloat("SIM_WORLD_WIDTH", 0); w > 0 {
		cfg.WorldWidth = w
	}
	if h := getEnvFloat("SIM_WORLD_HEIGHT", 0); h > 0 {
		cfg.WorldHeight = h
	}
	if mu := getEnvInt("SIM_MAX_UNITS", 0); mu > 0 {
		cfg.MaxUnits = mu
	}
	if tr := getEnvInt("SIM_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and performance limits on the
// command intake surface.
type ResourceLimits struct {
	MaxTotalUnits    int // hard cap on live entities
	MaxPendingEvents int // soft cap surfaced via Scheduler.Stats() for observability
	MaxCommandQueue  int // capacity of the per-connection command queue
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxTotalUnits:    200,
		MaxPendingEvents: 10_000,
		MaxCommandQueue:  256,
	}
}

// =============================================================================
// RATE LIMIT CONFIGURATION
// =============================================================================

// RateLimitConfig holds the per-actor command throttle settings consumed
// by internal/command.
type RateLimitConfig struct {
	CommandsPerWindow int
	WindowSeconds     int
	CooldownSeconds   int
}

// DefaultRateLimit returns the default rate limit configuration.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		CommandsPerWindow: 20,
		WindowSeconds:     5,
		CooldownSeconds:   2,
	}
}

// RateLimitFromEnv returns rate limit configuration with environment
// variable overrides.
func RateLimitFromEnv() RateLimitConfig {
	cfg := DefaultRateLimit()

	if c := getEnvInt("COMMAND_RATE_LIMIT", 0); c > 0 {
		cfg.CommandsPerWindow = c
	}
	if w := getEnvInt("COMMAND_RATE_WINDOW_SECONDS", 0); w > 0 {
		cfg.WindowSeconds = w
	}
	if cd := getEnvInt("COMMAND_RATE_COOLDOWN_SECONDS", 0); cd > 0 {
		cfg.CooldownSeconds = cd
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Port         int
	ReadTimeoutS int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		ReadTimeoutS: 10,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if rt := getEnvInt("SERVER_READ_TIMEOUT_SECONDS", 0); rt > 0 {
		cfg.ReadTimeoutS = rt
	}

	return cfg
}

// =============================================================================
// SPATIAL CONFIGURATION
// =============================================================================

// SpatialConfig holds spatial indexing settings for the broad-phase grid.
type SpatialConfig struct {
	GridCellFeet float64 // spatial grid cell size, in feet
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{GridCellFeet: 150}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim       SimConfig
	Limits    ResourceLimits
	RateLimit RateLimitConfig
	Server    ServerConfig
	Spatial   SpatialConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:       SimFromEnv(),
		Limits:    DefaultLimits(),
		RateLimit: RateLimitFromEnv(),
		Server:    ServerFromEnv(),
		Spatial:   DefaultSpatial(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
