package main

// Player is an avatar owned by one connected client
type Player struct {
	ID     string
	X, Y   float64
	Angle  float64 // facing, radians
	Health int
}

// NewPlayer creates a player at full health facing angle 0
func NewPlayer(id string, x, y float64, maxHealth int) *Player {
	return &Player{
		ID:     id,
		X:      x,
		Y:      y,
		Health: maxHealth,
	}
}

// TakeDamage reduces health, floored at zero, and returns true if the
// player was defeated by this hit. Non-positive damage is ignored.
func (p *Player) TakeDamage(dmg int) bool {
	if dmg <= 0 || p.Health <= 0 {
		return false
	}
	p.Health -= dmg
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		X:      p.X,
		Y:      p.Y,
		Angle:  p.Angle,
		Health: p.Health,
	}
}
