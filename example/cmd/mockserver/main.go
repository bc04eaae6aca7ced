// Standalone mock router for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/signalboard serve -c example/signalboard.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	addr := flag.String("addr", ":5001", "listen address")
	failRate := flag.Int("fail", 0, "percentage of requests answered with 503")
	flag.Parse()

	fmt.Printf("Mock router starting on %s\n", *addr)
	fmt.Println("Serving /api/notifications and /api/signal-strength")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu       sync.Mutex
		count    = 2
		strength = 3
	)

	go func() {
		for range time.Tick(time.Second) {
			mu.Lock()
			strength = min(max(strength+rand.Intn(3)-1, 0), 5)
			if rand.Intn(10) == 0 {
				count++
				slog.Info("new notification", "count", count)
			}
			mu.Unlock()
		}
	}()

	// flaky returns true when the request should fail, exercising the
	// board's keep-last-value behaviour
	flaky := func(w http.ResponseWriter) bool {
		if *failRate > 0 && rand.Intn(100) < *failRate {
			http.Error(w, "router busy", http.StatusServiceUnavailable)
			return true
		}
		return false
	}

	http.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		if flaky(w) {
			return
		}
		mu.Lock()
		n := count
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"count": n})
	})

	http.HandleFunc("/api/signal-strength", func(w http.ResponseWriter, r *http.Request) {
		if flaky(w) {
			return
		}
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)
		mu.Lock()
		s := strength
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"strength": s})
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
