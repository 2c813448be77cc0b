package main

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDuplicateClient is returned when a client id is already connected
var ErrDuplicateClient = errors.New("client id already connected")

// Sink accepts outbound frames for one client. Deliver must not block; it
// returns false when the frame could not be queued.
type Sink interface {
	Deliver(f *Frame) bool
}

// SessionManager maps client ids to their outbound sinks
type SessionManager struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewSessionManager creates a new SessionManager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sinks: make(map[string]Sink),
	}
}

// Has reports whether id is connected
func (sm *SessionManager) Has(id string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.sinks[id]
	return ok
}

// Count returns the number of connected clients
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sinks)
}

// Send delivers f to one client
func (sm *SessionManager) Send(id string, f *Frame) bool {
	sm.mu.RLock()
	sink, ok := sm.sinks[id]
	sm.mu.RUnlock()
	if !ok {
		return false
	}
	return sink.Deliver(f)
}

// Broadcast delivers f to every connected client. A peer that cannot take
// the frame does not affect delivery to the others.
func (sm *SessionManager) Broadcast(f *Frame) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, sink := range sm.sinks {
		sink.Deliver(f)
	}
}

func (sm *SessionManager) add(id string, sink Sink) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sinks[id]; ok {
		return false
	}
	sm.sinks[id] = sink
	return true
}

func (sm *SessionManager) remove(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sinks[id]; !ok {
		return false
	}
	delete(sm.sinks, id)
	return true
}

// Join places a new player for id on a free cell at full health and sends
// the client its init message. Other clients are not told; they learn of the
// player from its first move.
func (g *Game) Join(id string, sink Sink) error {
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	if g.sessions.Has(id) {
		return ErrDuplicateClient
	}
	x, y, err := w.FreePosition()
	if err != nil {
		return fmt.Errorf("join %s: %w", id, err)
	}
	if !g.sessions.add(id, sink) {
		return ErrDuplicateClient
	}
	w.AddPlayer(NewPlayer(id, x, y, g.cfg.MaxHealth))
	sink.Deliver(NewFrame(initMsg(w.Snapshot())))

	g.log.Info("client joined",
		zap.String("client_id", id),
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.Int("clients", g.sessions.Count()))
	g.tracker.Track(EvtJoin, id, "")
	return nil
}

// Leave removes the client's player and session and tells every remaining
// client to drop it. Projectiles it threw stay in flight.
func (g *Game) Leave(id string) {
	w := g.world
	w.mu.Lock()
	defer w.mu.Unlock()

	if !g.sessions.remove(id) {
		return
	}
	g.respawns.Cancel(id)
	w.Forget(id)
	g.sessions.Broadcast(NewFrame(DisconnectMsg{Type: MsgDisconnect, ClientID: id}))

	g.log.Info("client left", zap.String("client_id", id), zap.Int("clients", g.sessions.Count()))
	g.tracker.Track(EvtLeave, id, "")
}

func initMsg(s Snapshot) InitMsg {
	return InitMsg{
		Type:        MsgInit,
		Players:     s.Players,
		Walls:       s.Walls,
		WorldWidth:  s.Width,
		WorldHeight: s.Height,
	}
}
