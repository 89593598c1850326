package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessChecks maps a dependency name to its probe.
type readinessChecks map[string]func(ctx context.Context) error

const readinessTimeout = 3 * time.Second

func newHealthServer(addr string, checks readinessChecks, lastRefresh func() (time.Time, error)) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", readyHandler(checks, lastRefresh))
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// readyHandler reports 503 when any dependency probe fails. A failed cache
// refresh is reported but does not make the service unready.
func readyHandler(checks readinessChecks, lastRefresh func() (time.Time, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := map[string]interface{}{
			"status": "ready",
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		}
		if status != http.StatusOK {
			body["status"] = "not_ready"
		}
		if lastRefresh != nil {
			at, err := lastRefresh()
			refresh := map[string]interface{}{}
			if !at.IsZero() {
				refresh["lastRun"] = at.Format(time.RFC3339)
			}
			if err != nil {
				refresh["error"] = err.Error()
			}
			body["cacheRefresh"] = refresh
		}

		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
