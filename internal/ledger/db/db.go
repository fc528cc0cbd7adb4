// Package db implements the persistent store for the advance ledger on top
// of GORM. Every mutating ledger operation runs inside WithTransaction so a
// failure anywhere rolls back all mutations of the operation.
package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// poolID is the primary key of the singleton pool row.
const poolID = 1

// feeConfigID is the primary key of the singleton fee configuration row.
const feeConfigID = 1

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) migrate() error {
	err := r.db.AutoMigrate(
		&models.Company{},
		&models.Employee{},
		&models.Investor{},
		&models.Pool{},
		&models.FeeConfig{},
		&models.Admin{},
		&models.Receipt{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// WithTransaction runs fn against a transactional repository; any error
// returned by fn rolls back every mutation fn made.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// --- companies ---

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrCompanyExists
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id models.Identity) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).First(&company, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrCompanyNotFound
		}
		return nil, result.Error
	}
	return &company, nil
}

func (r *Repository) CompanyExists(ctx context.Context, id models.Identity) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) SaveCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", company.ID).
		Updates(map[string]interface{}{
			"name":              company.Name,
			"status":            company.Status,
			"locked_liquidity":  company.LockedLiquidity,
			"reward_balance":    company.RewardBalance,
			"withdrawn_rewards": company.WithdrawnRewards,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrCompanyNotFound
	}
	return nil
}

// MigrateCompanyIdentity re-keys a company and repoints every employee that
// referenced the old identity. Both statements hit indexed columns, so the
// re-key is O(1) amortized rather than a table scan.
func (r *Repository) MigrateCompanyIdentity(ctx context.Context, oldID, newID models.Identity) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", oldID).
		Update("id", newID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrCompanyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrCompanyNotFound
	}

	result = r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("company_id = ?", oldID).
		Update("company_id", newID)
	return result.Error
}

// --- employees ---

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *Repository) GetEmployee(ctx context.Context, id models.Identity) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).First(&employee, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrEmployeeNotFound
		}
		return nil, result.Error
	}
	return &employee, nil
}

func (r *Repository) EmployeeExists(ctx context.Context, id models.Identity) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) SaveEmployee(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", employee.ID).
		Updates(map[string]interface{}{
			"days_worked":           employee.DaysWorked,
			"withdrawn_amount":      employee.WithdrawnAmount,
			"settlement_preference": employee.SettlementPreference,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEmployeeNotFound
	}
	return nil
}

// --- investors ---

func (r *Repository) CreateInvestor(ctx context.Context, investor *models.Investor) error {
	return r.db.WithContext(ctx).Create(investor).Error
}

func (r *Repository) GetInvestor(ctx context.Context, id models.Identity) (*models.Investor, error) {
	var investor models.Investor
	result := r.db.WithContext(ctx).First(&investor, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrInvestorNotFound
		}
		return nil, result.Error
	}
	return &investor, nil
}

func (r *Repository) SaveInvestor(ctx context.Context, investor *models.Investor) error {
	result := r.db.WithContext(ctx).Model(&models.Investor{}).
		Where("id = ?", investor.ID).
		Updates(map[string]interface{}{
			"deposited":         investor.Deposited,
			"reward_balance":    investor.RewardBalance,
			"withdrawn_rewards": investor.WithdrawnRewards,
			"reward_checkpoint": investor.RewardCheckpoint,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrInvestorNotFound
	}
	return nil
}
