package main

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// EventTracker records gameplay events for analytics
type EventTracker interface {
	Track(evtType, clientID, data string)
}

type noopTracker struct{}

func (noopTracker) Track(string, string, string) {}

// Game is the authoritative arena: one world, its sessions, the simulation
// loop and the respawn scheduler. Every state change is serialized through
// world.mu; outbound frames are queued on client sinks while it is held and
// written to sockets by each client's write pump.
type Game struct {
	cfg      Config
	log      *zap.Logger
	clock    Clock
	rng      *rand.Rand
	tracker  EventTracker
	world    *World
	sessions *SessionManager
	respawns *Respawner
}

// GameOption customises a Game
type GameOption func(*Game)

// WithClock replaces the wall clock used for respawn delays
func WithClock(c Clock) GameOption {
	return func(g *Game) { g.clock = c }
}

// WithRand seeds world generation and placement
func WithRand(r *rand.Rand) GameOption {
	return func(g *Game) { g.rng = r }
}

// WithTracker attaches an analytics sink
func WithTracker(t EventTracker) GameOption {
	return func(g *Game) { g.tracker = t }
}

// NewGame creates the world and generates its layout
func NewGame(cfg Config, log *zap.Logger, opts ...GameOption) *Game {
	g := &Game{
		cfg:      cfg,
		log:      log.Named("game"),
		clock:    realClock{},
		tracker:  noopTracker{},
		sessions: NewSessionManager(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.world = NewWorld(cfg, g.rng)
	g.respawns = NewRespawner(g.clock, cfg.RespawnDelay, g.respawn)
	g.log.Info("world generated",
		zap.String("layout", string(cfg.Layout)),
		zap.Float64("width", cfg.WorldWidth),
		zap.Float64("height", cfg.WorldHeight),
		zap.Int("walls", len(g.world.obstacles)))
	return g
}

// Run steps the simulation at the configured tick rate until ctx is done
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Step()
		case <-ctx.Done():
			g.respawns.Stop()
			return
		}
	}
}

// Regenerate replaces the obstacle layout, clears projectiles, moves every
// active player to a free cell and re-sends init to all clients.
func (g *Game) Regenerate() {
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Regenerate()
	roster := append([]string(nil), w.roster...)
	for _, id := range roster {
		p := w.players[id]
		x, y, err := w.FreePosition()
		if err != nil {
			w.RemovePlayer(id)
			w.MarkPending(id)
			g.respawns.Schedule(id)
			continue
		}
		p.X, p.Y = x, y
	}
	g.sessions.Broadcast(NewFrame(initMsg(w.Snapshot())))

	g.log.Info("world regenerated", zap.Int("walls", len(w.obstacles)), zap.Int("players", len(w.players)))
	g.tracker.Track(EvtRegenerate, "", "")
}

// Stats is a point-in-time summary of the arena
type Stats struct {
	Clients         int    `json:"clients"`
	Players         int    `json:"players"`
	PendingRespawns int    `json:"pending_respawns"`
	Bullets         int    `json:"bullets"`
	Walls           int    `json:"walls"`
	Tick            uint64 `json:"tick"`
}

// Stats reports live counts
func (g *Game) Stats() Stats {
	g.world.mu.Lock()
	defer g.world.mu.Unlock()
	return Stats{
		Clients:         g.sessions.Count(),
		Players:         len(g.world.players),
		PendingRespawns: len(g.world.pending),
		Bullets:         len(g.world.projectiles),
		Walls:           len(g.world.obstacles),
		Tick:            g.world.tick,
	}
}

// Snapshot returns a copy of the world
func (g *Game) Snapshot() Snapshot {
	g.world.mu.Lock()
	defer g.world.mu.Unlock()
	return g.world.Snapshot()
}
