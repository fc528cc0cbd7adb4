// Package controller implements the accounting core of the advance ledger:
// the identity registry, the liquidity ledger, the fee engine glue, and the
// withdrawal engine. Every mutating operation is one atomic unit — all of
// its ledger mutations and external delegations succeed, or none of them
// are observed.
package controller

import (
	"context"
	"sync/atomic"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/earnlift/ledger/internal/ledger/payout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository defines the storage surface the ledger core mutates. Ownership
// of all balances is exclusive to this layer; nothing else writes them.
type Repository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id models.Identity) (*models.Company, error)
	CompanyExists(ctx context.Context, id models.Identity) (bool, error)
	SaveCompany(ctx context.Context, company *models.Company) error
	MigrateCompanyIdentity(ctx context.Context, oldID, newID models.Identity) error

	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id models.Identity) (*models.Employee, error)
	EmployeeExists(ctx context.Context, id models.Identity) (bool, error)
	SaveEmployee(ctx context.Context, employee *models.Employee) error

	CreateInvestor(ctx context.Context, investor *models.Investor) error
	GetInvestor(ctx context.Context, id models.Identity) (*models.Investor, error)
	SaveInvestor(ctx context.Context, investor *models.Investor) error

	GetPool(ctx context.Context) (*models.Pool, error)
	SavePool(ctx context.Context, pool *models.Pool) error
	AddPoolLiquidity(ctx context.Context, amount int64) error
	SubtractPoolLiquidity(ctx context.Context, amount int64) error

	GetFeeConfig(ctx context.Context) (*models.FeeConfig, error)
	SaveFeeConfig(ctx context.Context, cfg *models.FeeConfig) error

	ListReceipts(ctx context.Context, to models.Identity) ([]models.Receipt, error)

	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// EventProducer publishes a notification for a completed operation.
type EventProducer interface {
	Produce(eventType events.EventType, notification *events.Notification)
}

// AccessControl answers capability questions before mutating entry points.
type AccessControl interface {
	IsAdmin(ctx context.Context, identity models.Identity) (bool, error)
	IsCompanyOwner(identity, companyID models.Identity) bool
	IsEmployeeOwner(identity, employeeID models.Identity) bool
}

// ReceiptSink mints the audit receipt for a value movement, inside the
// operation's transaction.
type ReceiptSink interface {
	Record(ctx context.Context, tx *db.Repository, to models.Identity, kind models.TransactionKind, amount int64, externalRef string) (uuid.UUID, error)
}

// Service is the ledger core. The payout gateway and receipt sink are
// injected capabilities, not overridable hooks.
type Service struct {
	repo     Repository
	producer EventProducer
	access   AccessControl
	gateway  payout.Gateway
	receipts ReceiptSink
	logger   *zap.Logger

	// entry is the reentrancy guard: a held flag that rejects nested or
	// overlapping mutating entry instead of deadlocking. The payout gateway
	// may call back into the ledger before returning; it must observe either
	// the committed state or this guard, never a half-applied operation.
	entry atomic.Bool
}

func NewService(
	repo Repository,
	producer EventProducer,
	access AccessControl,
	gateway payout.Gateway,
	receipts ReceiptSink,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		producer: producer,
		access:   access,
		gateway:  gateway,
		receipts: receipts,
		logger:   logger.Named("ledger_service"),
	}
}

func (s *Service) acquire() error {
	if !s.entry.CompareAndSwap(false, true) {
		return e.ErrOperationInFlight
	}
	return nil
}

func (s *Service) release() {
	s.entry.Store(false)
}

func (s *Service) requireAdmin(ctx context.Context, caller models.Identity) error {
	ok, err := s.access.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return e.ErrUnauthorized
	}
	return nil
}

// requireAdminOr authorizes either the admin capability or the given owner.
func (s *Service) requireAdminOr(ctx context.Context, caller models.Identity, owner bool) error {
	if owner {
		return nil
	}
	return s.requireAdmin(ctx, caller)
}
