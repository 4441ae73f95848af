package api

import (
	"context"
	"net/http"
	"time"

	syncpkg "github.com/twinbridge/twinbridge-core/internal/sync"
)

// healthCheckTimeout bounds each dependency probe so one hung dependency
// cannot stall the whole health response.
const healthCheckTimeout = 2 * time.Second

// checkResult is one dependency's health probe outcome.
type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth probes every registered dependency and reports overall
// health. Returns 503 when any dependency fails so load balancers can
// take the instance out of rotation.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make([]checkResult, 0, len(s.health))
	healthy := true

	for _, hc := range s.health {
		result := checkResult{Name: hc.Name, Status: "ok"}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		if err := hc.Check(ctx); err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			healthy = false
		}
		cancel()

		checks = append(checks, result)
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":  overall,
		"version": s.version,
		"checks":  checks,
	})
}

// syncResultView is the JSON shape of a sync cycle result.
type syncResultView struct {
	TypesChanged     int    `json:"types_changed"`
	InstancesChanged int    `json:"instances_changed"`
	DurationMs       int64  `json:"duration_ms"`
	CompletedAt      string `json:"completed_at,omitempty"`
	Error            string `json:"error,omitempty"`
}

func newSyncResultView(r syncpkg.Result) syncResultView {
	view := syncResultView{
		TypesChanged:     r.TypesChanged,
		InstancesChanged: r.InstancesChanged,
		DurationMs:       r.Duration.Milliseconds(),
	}
	if !r.CompletedAt.IsZero() {
		view.CompletedAt = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	if r.Err != nil {
		view.Error = r.Err.Error()
	}
	return view
}

// handleStatus returns a diagnostic snapshot of the sync loop, the
// stream receiver, and the resolver cache.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{}

	if s.sync != nil {
		status := s.sync.Status()
		body["sync"] = map[string]any{
			"cycles":                status.Cycles,
			"type_fingerprints":     status.TypeFingerprints,
			"instance_fingerprints": status.InstanceFingerprints,
			"last_result":           newSyncResultView(status.LastResult),
		}
	}

	if s.stream != nil {
		body["stream"] = s.stream.Stats()
	}

	if s.resolver != nil {
		body["resolver"] = map[string]any{
			"cache_size": s.resolver.CacheSize(),
		}
	}

	if s.hub != nil {
		body["websocket"] = map[string]any{
			"clients": s.hub.ClientCount(),
		}
	}

	writeJSON(w, http.StatusOK, body)
}

// handleCheckpoints returns the persisted per-partition stream cursors.
func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	if s.checkpoints == nil {
		writeNotFound(w, "checkpoint store not configured")
		return
	}

	positions, err := s.checkpoints.Positions(r.Context())
	if err != nil {
		s.logger.Error("listing checkpoints", "error", err)
		writeInternalError(w, "failed to list checkpoints")
		return
	}

	view := make(map[string]string, len(positions))
	for partition, position := range positions {
		view[partition] = position.UTC().Format(time.RFC3339Nano)
	}

	writeJSON(w, http.StatusOK, map[string]any{"checkpoints": view})
}

// handleSyncRun triggers an immediate sync cycle and returns its result.
// The cycle runs synchronously within the request.
func (s *Server) handleSyncRun(w http.ResponseWriter, r *http.Request) {
	if s.syncRunner == nil {
		writeNotFound(w, "sync trigger not available")
		return
	}

	result := s.syncRunner.RunCycle(r.Context())

	status := http.StatusOK
	if result.Err != nil {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, newSyncResultView(result))
}
