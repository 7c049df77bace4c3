package services

import (
	"context"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger is anything with a reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is the result of one dependency check.
type HealthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport aggregates all checks. Status is unhealthy if any check is.
type HealthReport struct {
	Status    string                 `json:"status"`
	Checks    map[string]HealthCheck `json:"checks"`
	CheckedAt time.Time              `json:"checked_at"`
}

// CheckHealth pings every named dependency.
func CheckHealth(ctx context.Context, deps map[string]Pinger) HealthReport {
	report := HealthReport{
		Status:    StatusHealthy,
		Checks:    make(map[string]HealthCheck, len(deps)),
		CheckedAt: time.Now().UTC(),
	}
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			report.Checks[name] = HealthCheck{Status: StatusUnhealthy, Error: err.Error()}
			report.Status = StatusUnhealthy
			continue
		}
		report.Checks[name] = HealthCheck{Status: StatusHealthy}
	}
	return report
}
