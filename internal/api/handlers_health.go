// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

// HealthLive handles GET /health/live. It answers whenever the process can
// serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, models.HealthStatus{Status: "alive"}, models.Metadata{})
}

// HealthReady handles GET /health/ready. The service is ready when the
// catalog is loaded, the index breaker is not open and the last index probe,
// if any, succeeded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:      "ready",
		CatalogSize: h.catalog.Len(),
		Checks:      map[string]string{"uptime": time.Since(h.startedAt).Round(time.Second).String()},
	}
	ready := true

	if status.CatalogSize == 0 {
		status.Checks["catalog"] = "empty"
		ready = false
	} else {
		status.Checks["catalog"] = "ok"
	}

	if h.index != nil {
		status.IndexBackend = h.index.Backend()
		state := h.index.BreakerState()
		status.Checks["index_breaker"] = state
		if state == "open" {
			ready = false
		}
	}

	if h.probe != nil {
		ok, at, err := h.probe.LastProbe()
		switch {
		case at.IsZero():
			status.Checks["index_probe"] = "pending"
		case ok:
			status.Checks["index_probe"] = "ok"
		default:
			status.Checks["index_probe"] = "failed: " + sanitizeLogValue(errString(err))
			ready = false
		}
	}

	if !ready {
		status.Status = "not_ready"
		respondJSON(w, r, http.StatusServiceUnavailable, &models.APIResponse{
			Status: models.StatusError,
			Data:   status,
			Error: &models.APIError{
				Code:    models.ErrCodeIndexUnavailable,
				Message: "Service is not ready",
			},
		})
		return
	}
	respondSuccess(w, r, status, models.Metadata{})
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
