package main

import (
	"go.uber.org/zap"
)

// Step advances the simulation by one tick and broadcasts the resulting
// projectile and wall sets. Each projectile moves, then is tested against
// obstacles in insertion order and, only if no obstacle was struck, against
// players in roster order; the first match wins.
func (g *Game) Step() {
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	kept := w.projectiles[:0]
	for _, p := range w.projectiles {
		p.Advance()

		hitPlayer := false
		if i := w.ObstacleAt(p.X, p.Y); i >= 0 {
			o := w.obstacles[i]
			p.Bounce(o.Rect)
			if w.DamageObstacle(i) {
				g.log.Debug("wall destroyed", zap.Float64("x", o.X), zap.Float64("y", o.Y))
				g.tracker.Track(EvtWallDestroyed, "", "")
			}
		} else if target := g.playerHitBy(p); target != nil {
			hitPlayer = true
			g.damagePlayer(target, p.OwnerID)
		}

		if hitPlayer ||
			p.Bounces >= g.cfg.MaxBounces ||
			p.Ticks >= g.cfg.MaxBulletTicks ||
			!w.InBounds(p.X, p.Y) {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(w.projectiles); i++ {
		w.projectiles[i] = nil
	}
	w.projectiles = kept

	g.sessions.Broadcast(NewFrame(UpdateBulletsMsg{Type: MsgUpdateBullets, Bullets: w.Bullets()}))
	g.sessions.Broadcast(NewFrame(UpdateWallsMsg{Type: MsgUpdateWalls, Walls: w.Walls()}))
}

// playerHitBy returns the first player in roster order whose body the
// projectile overlaps
func (g *Game) playerHitBy(p *Projectile) *Player {
	w := g.world
	for _, id := range w.roster {
		if !p.CanHit(id) {
			continue
		}
		pl := w.players[id]
		if CheckCollision(p.X, p.Y, g.cfg.BulletRadius, pl.X, pl.Y, g.cfg.PlayerRadius) {
			return pl
		}
	}
	return nil
}

// damagePlayer applies one projectile hit, announces it immediately, and on
// defeat removes the player from the roster and schedules its respawn.
func (g *Game) damagePlayer(pl *Player, throwerID string) {
	died := pl.TakeDamage(g.cfg.BulletDamage)
	g.sessions.Broadcast(NewFrame(HitMsg{Type: MsgHit, ClientID: pl.ID, Health: pl.Health}))
	g.tracker.Track(EvtHit, pl.ID, throwerID)
	if !died {
		return
	}

	g.world.RemovePlayer(pl.ID)
	g.world.MarkPending(pl.ID)
	g.respawns.Schedule(pl.ID)

	g.log.Info("player defeated", zap.String("client_id", pl.ID), zap.String("by", throwerID))
	g.tracker.Track(EvtDeath, pl.ID, throwerID)
}
