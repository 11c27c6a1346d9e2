package service

import (
	"context"
	"time"
)

// Subsystem states reported by Health.
const (
	StateConnected     = "connected"
	StateDisconnected  = "disconnected"
	StateAvailable     = "available"
	StateUnavailable   = "unavailable"
	StateNotConfigured = "not_configured"
	StateDisabled      = "disabled"

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const healthCheckTimeout = 3 * time.Second

// HealthReport describes the availability of each subsystem.
type HealthReport struct {
	Status     string            `json:"status"`
	Subsystems map[string]string `json:"subsystems"`
	ActiveRuns int64             `json:"active_runs"`
}

// Healthy reports whether the service can accept runs.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

// Health checks persistence and the archive and reports which enrichment
// providers are configured. Only persistence decides overall health.
func (h *Harvester) Health(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	report := HealthReport{
		Status:     StatusHealthy,
		Subsystems: make(map[string]string, 6),
		ActiveRuns: h.ActiveRuns(),
	}

	if err := h.runs.Ping(ctx); err != nil {
		h.log(ctx).WithError(err).Warn("Persistence health check failed")
		report.Status = StatusUnhealthy
		report.Subsystems["persistence"] = StateDisconnected
	} else {
		report.Subsystems["persistence"] = StateConnected
	}

	report.Subsystems["classification"] = h.resolver.Taxonomy().Source()

	report.Subsystems["search_interest"] = configured(h.sources.Trends != nil)
	report.Subsystems["video_source"] = configured(h.sources.Videos != nil)
	report.Subsystems["news_source"] = configured(h.sources.News != nil)

	switch {
	case h.archive == nil:
		report.Subsystems["archive"] = StateDisabled
	case h.archive.Ping(ctx) != nil:
		report.Subsystems["archive"] = StateUnavailable
	default:
		report.Subsystems["archive"] = StateAvailable
	}

	return report
}

func configured(ok bool) string {
	if ok {
		return StateAvailable
	}
	return StateNotConfigured
}
