package main

import (
	"errors"
	"testing"
)

func TestJoinSendsInit(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	other := joinAt(t, g, "other", 500, 500)

	sink := &recordingSink{}
	if err := g.Join("me", sink); err != nil {
		t.Fatalf("join: %v", err)
	}

	inits := messagesOf[InitMsg](sink)
	if len(inits) != 1 {
		t.Fatalf("expected 1 init message, got %d", len(inits))
	}
	init := inits[0]
	if init.Type != MsgInit {
		t.Errorf("type = %q", init.Type)
	}
	me, ok := init.Players["me"]
	if !ok {
		t.Fatal("init should include the joining player")
	}
	if me.Health != g.cfg.MaxHealth {
		t.Errorf("new player health = %d, want %d", me.Health, g.cfg.MaxHealth)
	}
	if _, ok := init.Players["other"]; !ok {
		t.Error("init should include existing players")
	}
	if len(init.Walls) != len(g.Snapshot().Walls) {
		t.Error("init should carry the full obstacle list")
	}
	if init.WorldWidth != g.cfg.WorldWidth || init.WorldHeight != g.cfg.WorldHeight {
		t.Errorf("world size = %vx%v", init.WorldWidth, init.WorldHeight)
	}

	g.world.mu.Lock()
	blocked := g.world.Blocked(me.X, me.Y, g.cfg.PlayerRadius)
	g.world.mu.Unlock()
	if blocked {
		t.Errorf("spawned at (%v,%v) overlapping an obstacle", me.X, me.Y)
	}

	if other.count() != 0 {
		t.Errorf("existing clients should not be told about a join, got %d messages", other.count())
	}
}

func TestJoinDuplicateRejected(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	joinAt(t, g, "a", 500, 500)

	err := g.Join("a", &recordingSink{})
	if !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("expected ErrDuplicateClient, got %v", err)
	}
	if st, _ := playerState(g, "a"); st.X != 500 {
		t.Error("duplicate join must not reset the existing player")
	}
}

func TestJoinWorldFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpawnAttempts = 5
	g, _ := newTestGame(t, cfg)
	setWalls(g, newObstacle(Rect{X: 0, Y: 0, Width: cfg.WorldWidth, Height: cfg.WorldHeight}, 3))

	err := g.Join("a", &recordingSink{})
	if !errors.Is(err, ErrWorldFull) {
		t.Fatalf("expected ErrWorldFull, got %v", err)
	}
	if g.sessions.Has("a") {
		t.Error("failed join should not register a session")
	}
}

func TestLeaveBroadcastsDisconnect(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	setWalls(g)
	a := joinAt(t, g, "a", 500, 500)
	joinAt(t, g, "b", 1000, 1000)
	addProjectile(g, &Projectile{OwnerID: "b", X: 2000, Y: 2000, DX: 1})

	g.Leave("b")

	d := messagesOf[DisconnectMsg](a)
	if len(d) != 1 || d[0].ClientID != "b" {
		t.Fatalf("expected disconnect for b, got %+v", d)
	}
	if _, ok := playerState(g, "b"); ok {
		t.Error("departed player still in world")
	}
	if g.sessions.Has("b") {
		t.Error("departed session still registered")
	}
	if len(g.Snapshot().Bullets) != 1 {
		t.Error("projectiles of a departed player stay in flight")
	}

	// Leaving twice is a no-op
	g.Leave("b")
	if got := len(messagesOf[DisconnectMsg](a)); got != 1 {
		t.Errorf("second leave broadcast again (%d)", got)
	}
}

func TestSessionManagerBroadcast(t *testing.T) {
	sm := NewSessionManager()
	a, b := &recordingSink{}, &recordingSink{}
	if !sm.add("a", a) || !sm.add("b", b) {
		t.Fatal("add failed")
	}
	if sm.add("a", &recordingSink{}) {
		t.Error("duplicate add should fail")
	}

	sm.Broadcast(NewFrame(DisconnectMsg{Type: MsgDisconnect, ClientID: "x"}))
	sm.Send("b", NewFrame(HitMsg{Type: MsgHit, ClientID: "b", Health: 50}))

	if a.count() != 1 || b.count() != 2 {
		t.Errorf("counts a=%d b=%d, want 1 and 2", a.count(), b.count())
	}
	if sm.Send("missing", NewFrame(nil)) {
		t.Error("send to unknown id should report false")
	}
	if !sm.remove("a") || sm.remove("a") {
		t.Error("remove should succeed exactly once")
	}
	if sm.Count() != 1 {
		t.Errorf("count = %d, want 1", sm.Count())
	}
}
