package controller

import (
	"context"
	"fmt"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/models"
	"go.uber.org/zap"
)

// RegisterCompany creates a company record. Re-registering an existing
// identity is a successful no-op: identical state, no second notification.
func (s *Service) RegisterCompany(ctx context.Context, caller, id models.Identity, name string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if id.Zero() {
		return fmt.Errorf("%w: company id", e.ErrZeroIdentity)
	}

	created := false
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExists(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check company existence: %w", err)
		}
		if exists {
			return nil
		}
		created = true
		return tx.CreateCompany(ctx, &models.Company{
			ID:     id,
			Name:   name,
			Status: models.CompanyEnabled,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to register company: %w", err)
	}

	if created {
		s.producer.Produce(events.CompanyRegistered, &events.Notification{Company: id})
	}
	return nil
}

// RegisterEmployee creates an employee under an existing, enabled company.
// Monthly salary is immutable after creation. Idempotent on employee id.
func (s *Service) RegisterEmployee(ctx context.Context, caller, id, companyID models.Identity, name string, monthlySalary int64) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdminOr(ctx, caller, s.access.IsCompanyOwner(caller, companyID)); err != nil {
		return err
	}
	if id.Zero() {
		return fmt.Errorf("%w: employee id", e.ErrZeroIdentity)
	}
	if monthlySalary < 0 {
		return fmt.Errorf("%w: negative salary", e.ErrInvalidAmount)
	}
	if monthlySalary > maxMonthlySalary {
		return fmt.Errorf("%w: salary above %d", e.ErrInvalidAmount, maxMonthlySalary)
	}

	created := false
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		if company.Status == models.CompanyDisabled {
			return fmt.Errorf("%w: %s", e.ErrCompanyDisabled, companyID)
		}
		exists, err := tx.EmployeeExists(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check employee existence: %w", err)
		}
		if exists {
			return nil
		}
		created = true
		return tx.CreateEmployee(ctx, &models.Employee{
			ID:            id,
			CompanyID:     companyID,
			Name:          name,
			MonthlySalary: monthlySalary,
		})
	})
	if err != nil {
		return err
	}

	if created {
		s.producer.Produce(events.EmployeeAdded, &events.Notification{
			Company:  companyID,
			Employee: id,
			Amount:   monthlySalary,
		})
	}
	return nil
}

// SetCompanyStatus flips a company between Enabled and Disabled. A disabled
// company keeps its balances and employees; it only stops gaining new
// liquidity and new employees.
func (s *Service) SetCompanyStatus(ctx context.Context, caller, id models.Identity, status models.CompanyStatus) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if status != models.CompanyEnabled && status != models.CompanyDisabled {
		return fmt.Errorf("invalid company status %q", status)
	}

	return s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		company.Status = status
		return tx.SaveCompany(ctx, company)
	})
}

// MigrateCompanyIdentity re-keys a company to a new identity and repoints
// every employee back-reference, leaving exactly one live record.
func (s *Service) MigrateCompanyIdentity(ctx context.Context, caller, oldID, newID models.Identity) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if oldID.Zero() || newID.Zero() {
		return fmt.Errorf("%w: migration endpoint", e.ErrZeroIdentity)
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		exists, err := tx.CompanyExists(ctx, newID)
		if err != nil {
			return fmt.Errorf("failed to check target identity: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", e.ErrCompanyExists, newID)
		}
		return tx.MigrateCompanyIdentity(ctx, oldID, newID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Company identity migrated",
		zap.String("old_id", string(oldID)),
		zap.String("new_id", string(newID)),
	)
	return nil
}

// UpdateDaysWorked overwrites the employee's cumulative days for the period.
// The value is externally asserted, absolute, not a delta.
func (s *Service) UpdateDaysWorked(ctx context.Context, caller, employeeID models.Identity, days int64) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if days < 0 {
		return fmt.Errorf("%w: negative days", e.ErrInvalidAmount)
	}

	return s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		employee, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		employee.DaysWorked = days
		return tx.SaveEmployee(ctx, employee)
	})
}

// SetSettlementPreference records how the employee wants advances settled.
// The value is opaque here; the payout gateway interprets it.
func (s *Service) SetSettlementPreference(ctx context.Context, caller, employeeID models.Identity, preference string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if !s.access.IsEmployeeOwner(caller, employeeID) {
		if err := s.requireAdmin(ctx, caller); err != nil {
			return err
		}
	}

	return s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		employee, err := tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		employee.SettlementPreference = preference
		return tx.SaveEmployee(ctx, employee)
	})
}

// GetCompany returns a company record.
func (s *Service) GetCompany(ctx context.Context, id models.Identity) (*models.Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// GetEmployee returns an employee record.
func (s *Service) GetEmployee(ctx context.Context, id models.Identity) (*models.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// Receipts lists the audit receipts minted for an identity.
func (s *Service) Receipts(ctx context.Context, to models.Identity) ([]models.Receipt, error) {
	return s.repo.ListReceipts(ctx, to)
}
