package main

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrWorldFull is returned when no obstacle-free cell can be found
var ErrWorldFull = errors.New("no free position in world")

// Obstacle is a destructible wall segment
type Obstacle struct {
	Rect
	Health int `json:"health"`
}

func newObstacle(r Rect, health int) *Obstacle {
	return &Obstacle{Rect: r, Health: health}
}

// World is the single source of truth for players, projectiles and
// obstacles. Every method expects the caller to hold mu; a lock is taken
// for one discrete operation and never across a network write.
type World struct {
	mu sync.Mutex

	cfg         Config
	rng         *rand.Rand
	obstacles   []*Obstacle // insertion order
	projectiles []*Projectile
	players     map[string]*Player
	roster      []string        // active player ids in collision-test order
	pending     map[string]bool // defeated players awaiting respawn
	tick        uint64

	grid      *SpatialGrid
	gridDirty bool
	queryBuf  []int
}

// NewWorld creates a world and generates its obstacle layout
func NewWorld(cfg Config, rng *rand.Rand) *World {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	w := &World{
		cfg:     cfg,
		rng:     rng,
		players: make(map[string]*Player),
		pending: make(map[string]bool),
		grid:    NewSpatialGrid(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize),
	}
	w.SetObstacles(GenerateObstacles(cfg, rng))
	return w
}

// SetObstacles replaces the obstacle set
func (w *World) SetObstacles(obs []*Obstacle) {
	w.obstacles = obs
	w.gridDirty = true
}

// Regenerate builds a fresh layout and clears all projectiles
func (w *World) Regenerate() {
	w.SetObstacles(GenerateObstacles(w.cfg, w.rng))
	w.projectiles = nil
}

func (w *World) index() *SpatialGrid {
	if w.gridDirty {
		w.grid.Clear()
		for i, o := range w.obstacles {
			w.grid.Insert(o.Rect, i)
		}
		w.gridDirty = false
	}
	return w.grid
}

// ObstacleAt returns the index of the first obstacle, in insertion order,
// strictly containing (x,y), or -1.
func (w *World) ObstacleAt(x, y float64) int {
	for _, i := range w.index().QueryPoint(x, y) {
		if PointInRect(x, y, w.obstacles[i].Rect) {
			return i
		}
	}
	return -1
}

// Blocked reports whether a circle of radius r at (x,y) overlaps any
// obstacle under the radius-margin test.
func (w *World) Blocked(x, y, r float64) bool {
	w.queryBuf = w.index().QueryBuf(x, y, r, w.queryBuf[:0])
	for _, i := range w.queryBuf {
		if PointInRectMargin(x, y, r, w.obstacles[i].Rect) {
			return true
		}
	}
	return false
}

// DamageObstacle removes one health point from obstacle i and deletes it
// when health reaches zero. It reports whether the obstacle was destroyed.
func (w *World) DamageObstacle(i int) bool {
	o := w.obstacles[i]
	o.Health--
	if o.Health > 0 {
		return false
	}
	w.obstacles = append(w.obstacles[:i], w.obstacles[i+1:]...)
	w.gridDirty = true
	return true
}

// FreePosition samples a position whose player-sized body overlaps no
// obstacle. Sampling is bounded by SpawnAttempts and falls back to a scan
// of grid-cell centres.
func (w *World) FreePosition() (float64, float64, error) {
	r := w.cfg.PlayerRadius
	cs := w.cfg.CellSize
	for i := 0; i < w.cfg.SpawnAttempts; i++ {
		x := cs + w.rng.Float64()*(w.cfg.WorldWidth-2*cs)
		y := cs + w.rng.Float64()*(w.cfg.WorldHeight-2*cs)
		if !w.Blocked(x, y, r) {
			return x, y, nil
		}
	}
	cols, rows := w.cfg.GridSize()
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			x := (float64(cx) + 0.5) * cs
			y := (float64(cy) + 0.5) * cs
			if x < r || y < r || x > w.cfg.WorldWidth-r || y > w.cfg.WorldHeight-r {
				continue
			}
			if !w.Blocked(x, y, r) {
				return x, y, nil
			}
		}
	}
	return 0, 0, ErrWorldFull
}

// AddPlayer inserts p at the end of the roster
func (w *World) AddPlayer(p *Player) {
	if _, ok := w.players[p.ID]; ok {
		w.removeFromRoster(p.ID)
	}
	w.players[p.ID] = p
	w.roster = append(w.roster, p.ID)
	delete(w.pending, p.ID)
}

// RemovePlayer deletes a player from the active roster
func (w *World) RemovePlayer(id string) {
	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)
	w.removeFromRoster(id)
}

func (w *World) removeFromRoster(id string) {
	for i, rid := range w.roster {
		if rid == id {
			w.roster = append(w.roster[:i], w.roster[i+1:]...)
			return
		}
	}
}

// Player returns the active player with the given id
func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// MarkPending records a defeated player awaiting respawn
func (w *World) MarkPending(id string) { w.pending[id] = true }

// Forget drops every trace of a departed client
func (w *World) Forget(id string) {
	w.RemovePlayer(id)
	delete(w.pending, id)
}

// IsPending reports whether id is waiting for a respawn
func (w *World) IsPending(id string) bool { return w.pending[id] }

// AddProjectile inserts p unless the active set is at capacity
func (w *World) AddProjectile(p *Projectile) bool {
	if len(w.projectiles) >= w.cfg.MaxBullets {
		return false
	}
	w.projectiles = append(w.projectiles, p)
	return true
}

// InBounds reports whether (x,y) lies strictly inside the world
func (w *World) InBounds(x, y float64) bool {
	return 0 < x && x < w.cfg.WorldWidth && 0 < y && y < w.cfg.WorldHeight
}

// Snapshot is a read-only copy of the world sufficient for an init message
type Snapshot struct {
	Players         map[string]PlayerState
	Walls           []Obstacle
	Bullets         []ProjectileState
	Width           float64
	Height          float64
	Tick            uint64
	PendingRespawns int
}

// Snapshot copies the current state
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Players:         make(map[string]PlayerState, len(w.players)),
		Walls:           w.Walls(),
		Bullets:         w.Bullets(),
		Width:           w.cfg.WorldWidth,
		Height:          w.cfg.WorldHeight,
		Tick:            w.tick,
		PendingRespawns: len(w.pending),
	}
	for id, p := range w.players {
		s.Players[id] = p.ToState()
	}
	return s
}

// Walls copies the obstacle list
func (w *World) Walls() []Obstacle {
	out := make([]Obstacle, len(w.obstacles))
	for i, o := range w.obstacles {
		out[i] = *o
	}
	return out
}

// Bullets copies the projectile list
func (w *World) Bullets() []ProjectileState {
	out := make([]ProjectileState, len(w.projectiles))
	for i, p := range w.projectiles {
		out[i] = p.ToState()
	}
	return out
}
