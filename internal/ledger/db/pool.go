package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"gorm.io/gorm"
)

// GetPool returns the singleton pool row, creating it on first use.
func (r *Repository) GetPool(ctx context.Context) (*models.Pool, error) {
	var pool models.Pool
	result := r.db.WithContext(ctx).First(&pool, "id = ?", poolID)
	if result.Error == nil {
		return &pool, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}
	pool = models.Pool{ID: poolID}
	if err := r.db.WithContext(ctx).Create(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

// SavePool persists every pool field except total_liquidity, which may only
// move through AddPoolLiquidity / SubtractPoolLiquidity.
func (r *Repository) SavePool(ctx context.Context, pool *models.Pool) error {
	result := r.db.WithContext(ctx).Model(&models.Pool{}).
		Where("id = ?", poolID).
		Updates(map[string]interface{}{
			"total_investor_liquidity": pool.TotalInvestorLiquidity,
			"platform_fee_balance":     pool.PlatformFeeBalance,
			"reward_reserve":           pool.RewardReserve,
			"custodied":                pool.Custodied,
			"reward_per_unit":          pool.RewardPerUnit,
			"dust_carry":               pool.DustCarry,
		})
	return result.Error
}

// AddPoolLiquidity is the designated primitive that grows total_liquidity.
// The pool row must already exist (GetPool creates it); an addition that
// matches no row would silently drop value, so it is an error.
func (r *Repository) AddPoolLiquidity(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: non-positive addition", e.ErrInvalidAmount)
	}
	result := r.db.WithContext(ctx).Model(&models.Pool{}).
		Where("id = ?", poolID).
		Update("total_liquidity", gorm.Expr("total_liquidity + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pool ledger row not initialized")
	}
	return nil
}

// SubtractPoolLiquidity is the designated primitive that shrinks
// total_liquidity; the sufficiency check happens in the same statement so
// the balance can never go negative.
func (r *Repository) SubtractPoolLiquidity(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: non-positive subtraction", e.ErrInvalidAmount)
	}
	result := r.db.WithContext(ctx).Model(&models.Pool{}).
		Where("id = ? AND total_liquidity >= ?", poolID, amount).
		Update("total_liquidity", gorm.Expr("total_liquidity - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrInsufficientLiquidity
	}
	return nil
}

// --- fee configuration ---

// GetFeeConfig returns the active fee configuration, creating an all-zero
// row on first use (no fees until an admin configures them).
func (r *Repository) GetFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	var cfg models.FeeConfig
	result := r.db.WithContext(ctx).First(&cfg, "id = ?", feeConfigID)
	if result.Error == nil {
		return &cfg, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}
	cfg = models.FeeConfig{ID: feeConfigID}
	if err := r.db.WithContext(ctx).Create(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Repository) SaveFeeConfig(ctx context.Context, cfg *models.FeeConfig) error {
	if _, err := r.GetFeeConfig(ctx); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&models.FeeConfig{}).
		Where("id = ?", feeConfigID).
		Updates(map[string]interface{}{
			"platform_share": cfg.PlatformShare,
			"company_share":  cfg.CompanyShare,
			"investor_share": cfg.InvestorShare,
			"fee_bps":        cfg.FeeBps,
		})
	return result.Error
}

// --- admins ---

func (r *Repository) AddAdmin(ctx context.Context, identity models.Identity) error {
	admin := models.Admin{Identity: identity}
	result := r.db.WithContext(ctx).Where(admin).FirstOrCreate(&admin)
	return result.Error
}

func (r *Repository) RemoveAdmin(ctx context.Context, identity models.Identity) error {
	return r.db.WithContext(ctx).Delete(&models.Admin{}, "identity = ?", identity).Error
}

func (r *Repository) IsAdmin(ctx context.Context, identity models.Identity) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Admin{}).
		Where("identity = ?", identity).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// --- receipts ---

func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *Repository) ListReceipts(ctx context.Context, to models.Identity) ([]models.Receipt, error) {
	var receipts []models.Receipt
	result := r.db.WithContext(ctx).
		Where("\"to\" = ?", to).
		Order("created_at").
		Find(&receipts)
	return receipts, result.Error
}
