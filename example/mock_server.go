package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockRouter holds the values the fake router reports.
type mockRouter struct {
	mu       sync.Mutex
	count    int
	strength int
}

// step drifts the signal by at most one bar and occasionally adds a
// notification, so the dashboard has something to show.
func (m *mockRouter) step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strength += rand.Intn(3) - 1
	if m.strength < 0 {
		m.strength = 0
	}
	if m.strength > 5 {
		m.strength = 5
	}

	if rand.Intn(10) == 0 {
		m.count++
		slog.Info("new notification", "count", m.count)
	}
}

// StartMockRouter runs a fake router backend serving /api/notifications
// and /api/signal-strength. Values change every second.
// Call this in a goroutine before creating the board.
func StartMockRouter(addr string) {
	router := &mockRouter{count: 2, strength: 3}

	go func() {
		for range time.Tick(time.Second) {
			router.step()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		router.mu.Lock()
		count := router.count
		router.mu.Unlock()
		writeJSON(w, map[string]int{"count": count})
	})
	mux.HandleFunc("/api/signal-strength", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		router.mu.Lock()
		strength := router.strength
		router.mu.Unlock()
		writeJSON(w, map[string]int{"strength": strength})
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock router error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
