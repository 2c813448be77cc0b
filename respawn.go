package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Respawner runs one independent timer per defeated player. Each schedule
// bumps the id's generation so a callback from an earlier timer that fired
// late is recognised as stale.
type Respawner struct {
	mu     sync.Mutex
	clock  Clock
	delay  time.Duration
	timers map[string]respawnTimer
	gen    uint64
	fire   func(id string, gen uint64)
}

type respawnTimer struct {
	timer Timer
	gen   uint64
}

// NewRespawner creates a scheduler calling fire(id, gen) after delay
func NewRespawner(clock Clock, delay time.Duration, fire func(id string, gen uint64)) *Respawner {
	return &Respawner{
		clock:  clock,
		delay:  delay,
		timers: make(map[string]respawnTimer),
		fire:   fire,
	}
}

// Schedule starts (or restarts) the respawn timer for id
func (r *Respawner) Schedule(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.timer.Stop()
	}
	r.gen++
	gen := r.gen
	r.timers[id] = respawnTimer{
		timer: r.clock.AfterFunc(r.delay, func() { r.fire(id, gen) }),
		gen:   gen,
	}
}

// Cancel stops a pending respawn
func (r *Respawner) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.timer.Stop()
		delete(r.timers, id)
	}
}

// Pending returns the number of scheduled respawns
func (r *Respawner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every pending respawn
func (r *Respawner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.timer.Stop()
		delete(r.timers, id)
	}
}

// generation returns the generation of id's armed timer, 0 if none
func (r *Respawner) generation(id string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[id].gen
}

// done retires the timer for id if gen is still current. It reports false
// for a callback whose timer was cancelled or replaced.
func (r *Respawner) done(id string, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[id]
	if !ok || t.gen != gen {
		return false
	}
	delete(r.timers, id)
	return true
}

// respawn returns a defeated player to the arena at a free cell with full
// health. It does nothing if the client left in the meantime or gen belongs
// to an earlier death.
func (g *Game) respawn(id string, gen uint64) {
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	if !g.respawns.done(id, gen) {
		return
	}
	if !w.IsPending(id) || !g.sessions.Has(id) {
		return
	}
	x, y, err := w.FreePosition()
	if err != nil {
		g.log.Warn("respawn postponed", zap.String("client_id", id), zap.Error(err))
		g.respawns.Schedule(id)
		return
	}
	w.AddPlayer(NewPlayer(id, x, y, g.cfg.MaxHealth))
	g.sessions.Broadcast(NewFrame(RespawnMsg{
		Type:     MsgRespawn,
		ClientID: id,
		X:        x,
		Y:        y,
		Health:   g.cfg.MaxHealth,
	}))

	g.log.Info("player respawned", zap.String("client_id", id), zap.Float64("x", x), zap.Float64("y", y))
	g.tracker.Track(EvtRespawn, id, "")
}
