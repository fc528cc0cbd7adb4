package controller

import (
	"context"
	"fmt"

	"github.com/earnlift/ledger/internal/ledger/db"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/fees"
	"github.com/earnlift/ledger/internal/ledger/models"
)

// SetFeeConfig overwrites the active fee configuration after validating
// that the three shares sum to at most 100%.
func (s *Service) SetFeeConfig(ctx context.Context, caller models.Identity, cfg *models.FeeConfig) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := fees.Validate(cfg); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		return tx.SaveFeeConfig(ctx, cfg)
	})
	if err != nil {
		return fmt.Errorf("failed to store fee configuration: %w", err)
	}

	s.producer.Produce(events.FeeConfigUpdated, &events.Notification{
		Amount: cfg.FeeBps,
	})
	return nil
}

// FeeConfig returns the active fee configuration.
func (s *Service) FeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	return s.repo.GetFeeConfig(ctx)
}
