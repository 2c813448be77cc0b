package main

import "math"

// Projectile is a thrown object bouncing through the arena
type Projectile struct {
	OwnerID string
	X, Y    float64
	DX, DY  float64 // displacement per tick
	Bounces int
	Ticks   int
}

// NewProjectile launches from (x,y) at speed along angle
func NewProjectile(ownerID string, x, y, angle, speed float64) *Projectile {
	return &Projectile{
		OwnerID: ownerID,
		X:       x,
		Y:       y,
		DX:      math.Cos(angle) * speed,
		DY:      math.Sin(angle) * speed,
	}
}

// Advance moves the projectile one tick
func (p *Projectile) Advance() {
	p.X += p.DX
	p.Y += p.DY
	p.Ticks++
}

// Bounce reflects off r and counts the bounce
func (p *Projectile) Bounce(r Rect) {
	if reflectAxis(p.X, p.Y, r) {
		p.DX = -p.DX
	} else {
		p.DY = -p.DY
	}
	p.Bounces++
}

// CanHit reports whether the projectile may damage the given player.
// A thrower is immune to its own projectile until the first bounce.
func (p *Projectile) CanHit(playerID string) bool {
	return p.Bounces > 0 || p.OwnerID != playerID
}

// ToState converts to protocol state
func (p *Projectile) ToState() ProjectileState {
	return ProjectileState{
		X:       p.X,
		Y:       p.Y,
		DX:      p.DX,
		DY:      p.DY,
		Bounces: p.Bounces,
	}
}
