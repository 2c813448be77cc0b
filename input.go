package main

import (
	"encoding/json"
	"math"

	"go.uber.org/zap"
)

// HandleMessage decodes one inbound event from client id and applies it.
// Malformed, unknown and invalid events are dropped without a reply.
func (g *Game) HandleMessage(id string, codec Codec, raw []byte) {
	ev, err := decodeEvent(codec, raw)
	if err != nil {
		g.log.Debug("dropping malformed event", zap.String("client_id", id), zap.Error(err))
		return
	}

	switch ev.Type {
	case MsgMove:
		g.handleMove(id, ev)
	case MsgThrow:
		g.handleThrow(id, ev)
	case MsgEmote:
		g.handleEmote(id, ev)
	}
}

// handleMove clamps the proposed position into the world, rejects it if the
// player's body would overlap an obstacle, and otherwise commits and
// broadcasts it.
func (g *Game) handleMove(id string, ev InEvent) {
	if ev.X == nil || ev.Y == nil || ev.Angle == nil || !finite(*ev.X, *ev.Y, *ev.Angle) {
		return
	}
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.Player(id)
	if !ok {
		return
	}
	r := g.cfg.PlayerRadius
	x := Clamp(*ev.X, r, g.cfg.WorldWidth-r)
	y := Clamp(*ev.Y, r, g.cfg.WorldHeight-r)
	if w.Blocked(x, y, r) {
		return
	}
	p.X, p.Y, p.Angle = x, y, *ev.Angle

	g.sessions.Broadcast(NewFrame(MoveMsg{
		Type:     MsgMove,
		ClientID: id,
		X:        x,
		Y:        y,
		Angle:    p.Angle,
	}))
}

// handleThrow launches a projectile at the configured speed. The direction
// comes from the event (angle or dx/dy depending on ThrowMode); the stated
// origin is used only when it is in the world and within reach of the
// thrower, otherwise the projectile starts at the thrower's gun tip.
func (g *Game) handleThrow(id string, ev InEvent) {
	var angle float64
	switch g.cfg.ThrowMode {
	case ThrowVelocity:
		if ev.DX == nil || ev.DY == nil || !finite(*ev.DX, *ev.DY) || (*ev.DX == 0 && *ev.DY == 0) {
			return
		}
		angle = math.Atan2(*ev.DY, *ev.DX)
	default:
		if ev.Angle == nil || !finite(*ev.Angle) {
			return
		}
		angle = *ev.Angle
	}

	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.Player(id)
	if !ok {
		return
	}
	ox := p.X + math.Cos(angle)*g.cfg.GunLength
	oy := p.Y + math.Sin(angle)*g.cfg.GunLength
	if ev.X != nil && ev.Y != nil && finite(*ev.X, *ev.Y) &&
		w.InBounds(*ev.X, *ev.Y) &&
		Distance(p.X, p.Y, *ev.X, *ev.Y) <= g.cfg.GunLength+g.cfg.PlayerRadius {
		ox, oy = *ev.X, *ev.Y
	}

	proj := NewProjectile(id, ox, oy, angle, g.cfg.BulletSpeed)
	if !w.AddProjectile(proj) {
		return
	}
	g.sessions.Broadcast(NewFrame(ThrowMsg{
		Type:     MsgThrow,
		ClientID: id,
		Bullet:   proj.ToState(),
	}))
	g.tracker.Track(EvtThrow, id, "")
}

// handleEmote relays an opaque emote to everyone; no state changes
func (g *Game) handleEmote(id string, ev InEvent) {
	if len(ev.Emote) == 0 || len(ev.Emote) > maxEmoteSize {
		return
	}
	var emote any
	if err := json.Unmarshal(ev.Emote, &emote); err != nil {
		return
	}
	g.world.mu.Lock()
	defer g.world.mu.Unlock()
	if !g.sessions.Has(id) {
		return
	}
	g.sessions.Broadcast(NewFrame(EmoteMsg{
		Type:     MsgEmote,
		ClientID: id,
		Emote:    emote,
	}))
}
