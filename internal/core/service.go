package core

import (
	"context"
	"errors"
	"time"

	"github.com/sitestock/supplytrack/internal/config"
	"github.com/sitestock/supplytrack/internal/store"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the import size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnauthorized is returned when a request carries no known credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Service provides the business operations of the inventory service.
type Service struct {
	store   store.Store
	limiter *ImportLimiter
	cfg     config.ImportConfig
	now     func() time.Time
}

// NewService creates a Service backed by st.
func NewService(st store.Store, cfg *config.Config) *Service {
	return &Service{
		store:   st,
		limiter: NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		cfg:     cfg.Import,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Limiter returns the import limiter, for health reporting and shutdown
// draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
