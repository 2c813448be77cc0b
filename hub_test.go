package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestHubUnregisterAfterShutdown(t *testing.T) {
	g, _ := newTestGame(t, DefaultConfig())
	hub := NewHub(g, DefaultServerConfig(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		// More departures than the unregister buffer holds
		for i := 0; i < 3*cap(hub.unregister); i++ {
			hub.Unregister(&Client{id: fmt.Sprintf("c%d", i)})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
}
