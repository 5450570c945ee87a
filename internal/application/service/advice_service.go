package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/trip-approval/internal/application/port"
)

// ErrAdvisorDisabled is returned when no trip advisor is configured
var ErrAdvisorDisabled = errors.New("trip advisor is not configured")

// AdviceService asks the configured advisor to review a request
type AdviceService interface {
	Advise(ctx context.Context, requestID int64) (*port.TripAdvice, error)
}

type adviceServiceImpl struct {
	store   port.RequestStore
	advisor port.TripAdvisor
	logger  Logger
}

// NewAdviceService creates a new AdviceService. advisor may be nil.
func NewAdviceService(store port.RequestStore, advisor port.TripAdvisor, logger Logger) AdviceService {
	return &adviceServiceImpl{store: store, advisor: advisor, logger: logger}
}

// Advise reviews one request
func (s *adviceServiceImpl) Advise(ctx context.Context, requestID int64) (*port.TripAdvice, error) {
	if s.advisor == nil {
		return nil, ErrAdvisorDisabled
	}

	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", requestID, err)
	}

	advice, err := s.advisor.Review(ctx, req)
	if err != nil {
		s.logger.Error("Failed to review request", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("review request %d: %w", requestID, err)
	}

	s.logger.Info("Request reviewed",
		"request_id", requestID,
		"reasonable", advice.Reasonable,
		"concerns", len(advice.Concerns),
	)
	return advice, nil
}
