package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"go.uber.org/zap"
)

var (
	errMissingAuthorization = errors.New("authorization header required")
	errInvalidAuthorization = errors.New("invalid authorization format")
)

// AdminStore is the slice of the repository the access-control service needs.
type AdminStore interface {
	AddAdmin(ctx context.Context, identity models.Identity) error
	RemoveAdmin(ctx context.Context, identity models.Identity) error
	IsAdmin(ctx context.Context, identity models.Identity) (bool, error)
}

var _ AdminStore = (*db.Repository)(nil)

// Service is the access-control collaborator: admin capability is a row in
// the admin registry, ownership is identity equality (a company's or
// employee's id is its owner identity).
type Service struct {
	store  AdminStore
	logger *zap.Logger
}

func NewService(store AdminStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("access_control"),
	}
}

func (s *Service) IsAdmin(ctx context.Context, identity models.Identity) (bool, error) {
	if identity.Zero() {
		return false, nil
	}
	return s.store.IsAdmin(ctx, identity)
}

func (s *Service) IsCompanyOwner(identity, companyID models.Identity) bool {
	return !identity.Zero() && identity == companyID
}

func (s *Service) IsEmployeeOwner(identity, employeeID models.Identity) bool {
	return !identity.Zero() && identity == employeeID
}

// AddAdmin grants the admin capability. Idempotent.
func (s *Service) AddAdmin(ctx context.Context, caller, identity models.Identity) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if identity.Zero() {
		return fmt.Errorf("cannot grant admin to the zero identity")
	}
	if err := s.store.AddAdmin(ctx, identity); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	s.logger.Info("Admin added",
		zap.String("caller", string(caller)),
		zap.String("identity", string(identity)),
	)
	return nil
}

// RemoveAdmin revokes the admin capability.
func (s *Service) RemoveAdmin(ctx context.Context, caller, identity models.Identity) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.store.RemoveAdmin(ctx, identity); err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	s.logger.Info("Admin removed",
		zap.String("caller", string(caller)),
		zap.String("identity", string(identity)),
	)
	return nil
}

// Bootstrap grants the admin capability without a caller check; main uses it
// to seed the first admin from configuration.
func (s *Service) Bootstrap(ctx context.Context, identity models.Identity) error {
	if identity.Zero() {
		return nil
	}
	return s.store.AddAdmin(ctx, identity)
}

func (s *Service) requireAdmin(ctx context.Context, caller models.Identity) error {
	ok, err := s.store.IsAdmin(ctx, caller)
	if err != nil {
		return fmt.Errorf("failed to check admin capability: %w", err)
	}
	if !ok {
		return e.ErrUnauthorized
	}
	return nil
}
