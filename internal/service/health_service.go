package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Health statuses.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

type databaseProbe interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// HealthReport is the body of GET /health.
type HealthReport struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
	Version   string    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthService probes the database.
type HealthService struct {
	db      databaseProbe
	version string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewHealthService constructs a HealthService.
func NewHealthService(db databaseProbe, version string, logger *zap.Logger) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthService{db: db, version: version, timeout: 2 * time.Second, logger: logger, now: time.Now}
}

// Check runs SELECT 1 and reports whether the service is healthy.
func (s *HealthService) Check(ctx context.Context) (HealthReport, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		return HealthReport{
			Status:    HealthUnhealthy,
			Timestamp: s.now().UTC(),
			Error:     "database unreachable",
		}, false
	}
	return HealthReport{
		Status:    HealthHealthy,
		Timestamp: s.now().UTC(),
		Database:  "connected",
		Version:   s.version,
	}, true
}
