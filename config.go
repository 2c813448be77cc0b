package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LayoutMode selects the obstacle generator
type LayoutMode string

const (
	LayoutMaze   LayoutMode = "maze"
	LayoutRandom LayoutMode = "random"
)

// ThrowMode selects how a throw event's direction is read
type ThrowMode string

const (
	ThrowAngle    ThrowMode = "angle"    // direction from the event's angle
	ThrowVelocity ThrowMode = "velocity" // direction from the event's dx/dy
)

// Config holds the static game constants
type Config struct {
	WorldWidth       float64
	WorldHeight      float64
	CellSize         float64
	WallThickness    float64
	StripThickness   float64 // thin obstacles in random layout
	RandomWallChance float64
	Layout           LayoutMode

	BulletSpeed    float64 // units per tick
	BulletRadius   float64
	BulletDamage   int
	MaxBounces     int
	MaxBulletTicks int
	MaxBullets     int
	WallMaxHealth  int

	PlayerRadius float64
	MaxHealth    int
	GunLength    float64
	ThrowMode    ThrowMode

	TickRate      int
	RespawnDelay  time.Duration
	SpawnAttempts int
}

// DefaultConfig returns the stock arena settings
func DefaultConfig() Config {
	return Config{
		WorldWidth:       3000,
		WorldHeight:      3000,
		CellSize:         100,
		WallThickness:    1,
		StripThickness:   10,
		RandomWallChance: 0.3,
		Layout:           LayoutMaze,
		BulletSpeed:      10,
		BulletRadius:     5,
		BulletDamage:     10,
		MaxBounces:       3,
		MaxBulletTicks:   600,
		MaxBullets:       500,
		WallMaxHealth:    3,
		PlayerRadius:     12,
		MaxHealth:        100,
		GunLength:        30,
		ThrowMode:        ThrowAngle,
		TickRate:         60,
		RespawnDelay:     3 * time.Second,
		SpawnAttempts:    1000,
	}
}

// TickDuration is the interval between simulation steps
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// GridSize returns the logical grid dimensions in cells
func (c Config) GridSize() (cols, rows int) {
	return int(c.WorldWidth / c.CellSize), int(c.WorldHeight / c.CellSize)
}

// Validate rejects configurations the generator or simulation cannot run
func (c Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return errors.New("world dimensions must be positive")
	}
	if c.CellSize <= 0 {
		return errors.New("cell size must be positive")
	}
	if cols, rows := c.GridSize(); cols < 3 || rows < 3 {
		return fmt.Errorf("cell size %.0f leaves a %dx%d grid, need at least 3x3", c.CellSize, cols, rows)
	}
	if c.Layout != LayoutMaze && c.Layout != LayoutRandom {
		return fmt.Errorf("unknown layout %q", c.Layout)
	}
	if c.ThrowMode != ThrowAngle && c.ThrowMode != ThrowVelocity {
		return fmt.Errorf("unknown throw mode %q", c.ThrowMode)
	}
	if c.TickRate <= 0 {
		return errors.New("tick rate must be positive")
	}
	if c.MaxHealth <= 0 || c.WallMaxHealth <= 0 {
		return errors.New("health values must be positive")
	}
	if c.MaxBounces <= 0 {
		return errors.New("bounce cap must be positive")
	}
	if c.BulletSpeed <= 0 || c.BulletRadius <= 0 {
		return errors.New("bullet speed and radius must be positive")
	}
	if c.BulletDamage <= 0 {
		return errors.New("bullet damage must be positive")
	}
	if c.MaxBullets <= 0 || c.MaxBulletTicks <= 0 {
		return errors.New("bullet limits must be positive")
	}
	if c.WallThickness <= 0 {
		return errors.New("wall thickness must be positive")
	}
	if c.GunLength < 0 {
		return errors.New("gun length must not be negative")
	}
	if c.SpawnAttempts < 0 {
		return errors.New("spawn attempts must not be negative")
	}
	if c.PlayerRadius <= 0 || c.PlayerRadius*2 >= c.CellSize {
		return errors.New("player radius must be positive and fit inside one cell")
	}
	return nil
}

// ServerConfig holds process and transport settings
type ServerConfig struct {
	Addr              string
	StaticDir         string
	DBPath            string
	AdminPassword     string
	JWTSecret         string
	PublicURL         string
	LogLevel          string
	LogFormat         string
	MaxConnsPerIP     int
	MaxTotalConns     int
	MaxMessagesPerSec int
	DefaultCodec      string
}

// DefaultServerConfig returns the stock server settings
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8000",
		DBPath:            "arena.db",
		LogLevel:          "info",
		LogFormat:         "console",
		MaxConnsPerIP:     5,
		MaxTotalConns:     1000,
		MaxMessagesPerSec: 120,
		DefaultCodec:      "json",
	}
}

// LoadConfig reads .env, ARENA_* environment variables and command-line flags,
// in increasing order of precedence.
func LoadConfig(args []string) (Config, ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, ServerConfig{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	srv := DefaultServerConfig()

	fs := flag.NewFlagSet("arena-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&srv.Addr, "addr", envString("ARENA_ADDR", srv.Addr), "HTTP listen address")
	fs.StringVar(&srv.StaticDir, "static", envString("ARENA_STATIC_DIR", srv.StaticDir), "directory with the HTML shell and assets (empty disables)")
	fs.StringVar(&srv.DBPath, "db", envString("ARENA_DB", srv.DBPath), "sqlite database path (empty disables analytics)")
	fs.StringVar(&srv.AdminPassword, "admin-password", envString("ARENA_ADMIN_PASSWORD", srv.AdminPassword), "admin password (empty disables admin API)")
	fs.StringVar(&srv.JWTSecret, "jwt-secret", envString("ARENA_JWT_SECRET", srv.JWTSecret), "JWT signing secret (default: generated and stored in the database)")
	fs.StringVar(&srv.PublicURL, "public-url", envString("ARENA_PUBLIC_URL", srv.PublicURL), "public join URL rendered by /qr.png")
	fs.StringVar(&srv.LogLevel, "log-level", envString("ARENA_LOG_LEVEL", srv.LogLevel), "log level")
	fs.StringVar(&srv.LogFormat, "log-format", envString("ARENA_LOG_FORMAT", srv.LogFormat), "log format: console or json")
	fs.IntVar(&srv.MaxConnsPerIP, "max-conns-per-ip", envInt("ARENA_MAX_CONNS_PER_IP", srv.MaxConnsPerIP), "connections allowed per remote IP")
	fs.IntVar(&srv.MaxTotalConns, "max-conns", envInt("ARENA_MAX_CONNS", srv.MaxTotalConns), "total connections allowed")
	fs.IntVar(&srv.MaxMessagesPerSec, "max-msgs", envInt("ARENA_MAX_MSGS", srv.MaxMessagesPerSec), "inbound messages per second before a client is dropped")
	fs.StringVar(&srv.DefaultCodec, "codec", envString("ARENA_CODEC", srv.DefaultCodec), "wire codec when the handshake names none: json or msgpack")

	layout := fs.String("layout", envString("ARENA_LAYOUT", string(cfg.Layout)), "obstacle layout: maze or random")
	throwMode := fs.String("throw", envString("ARENA_THROW_MODE", string(cfg.ThrowMode)), "throw direction source: angle or velocity")
	fs.Float64Var(&cfg.WorldWidth, "world-width", envFloat("ARENA_WORLD_WIDTH", cfg.WorldWidth), "world width")
	fs.Float64Var(&cfg.WorldHeight, "world-height", envFloat("ARENA_WORLD_HEIGHT", cfg.WorldHeight), "world height")
	fs.Float64Var(&cfg.CellSize, "cell-size", envFloat("ARENA_CELL_SIZE", cfg.CellSize), "grid cell size")
	fs.Float64Var(&cfg.WallThickness, "wall-thickness", envFloat("ARENA_WALL_THICKNESS", cfg.WallThickness), "border wall thickness")
	fs.Float64Var(&cfg.BulletSpeed, "bullet-speed", envFloat("ARENA_BULLET_SPEED", cfg.BulletSpeed), "projectile speed per tick")
	fs.IntVar(&cfg.BulletDamage, "bullet-damage", envInt("ARENA_BULLET_DAMAGE", cfg.BulletDamage), "damage per projectile hit")
	fs.Float64Var(&cfg.BulletRadius, "bullet-radius", envFloat("ARENA_BULLET_RADIUS", cfg.BulletRadius), "projectile radius")
	fs.IntVar(&cfg.MaxBounces, "max-bounces", envInt("ARENA_MAX_BOUNCES", cfg.MaxBounces), "bounces before a projectile is removed")
	fs.IntVar(&cfg.MaxBulletTicks, "max-bullet-ticks", envInt("ARENA_MAX_BULLET_TICKS", cfg.MaxBulletTicks), "ticks a projectile may live")
	fs.IntVar(&cfg.MaxBullets, "max-bullets", envInt("ARENA_MAX_BULLETS", cfg.MaxBullets), "active projectiles allowed")
	fs.Float64Var(&cfg.PlayerRadius, "player-radius", envFloat("ARENA_PLAYER_RADIUS", cfg.PlayerRadius), "player body radius")
	fs.Float64Var(&cfg.GunLength, "gun-length", envFloat("ARENA_GUN_LENGTH", cfg.GunLength), "distance from player centre to the throw origin")
	fs.IntVar(&cfg.SpawnAttempts, "spawn-attempts", envInt("ARENA_SPAWN_ATTEMPTS", cfg.SpawnAttempts), "random samples before the spawn scan fallback")
	fs.IntVar(&cfg.WallMaxHealth, "wall-health", envInt("ARENA_WALL_HEALTH", cfg.WallMaxHealth), "hits an obstacle absorbs")
	fs.IntVar(&cfg.MaxHealth, "max-health", envInt("ARENA_MAX_HEALTH", cfg.MaxHealth), "player health")
	fs.IntVar(&cfg.TickRate, "tick-rate", envInt("ARENA_TICK_RATE", cfg.TickRate), "simulation ticks per second")
	fs.DurationVar(&cfg.RespawnDelay, "respawn-delay", envDuration("ARENA_RESPAWN_DELAY", cfg.RespawnDelay), "delay before a defeated player respawns")

	if err := fs.Parse(args); err != nil {
		return Config{}, ServerConfig{}, fmt.Errorf("parse flags: %w", err)
	}
	cfg.Layout = LayoutMode(*layout)
	cfg.ThrowMode = ThrowMode(*throwMode)

	if err := cfg.Validate(); err != nil {
		return Config{}, ServerConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, srv, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}
