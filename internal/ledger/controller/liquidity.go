package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/earnlift/ledger/internal/ledger/payout"
)

// AddCompanyLiquidity locks company capital into the pool.
func (s *Service) AddCompanyLiquidity(ctx context.Context, caller, companyID models.Identity, amount int64, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdminOr(ctx, caller, s.access.IsCompanyOwner(caller, companyID)); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: liquidity lock must be positive", e.ErrInvalidAmount)
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		if company.Status == models.CompanyDisabled {
			return fmt.Errorf("%w: %s", e.ErrCompanyDisabled, companyID)
		}

		// GetPool first so the singleton row exists before the liquidity
		// primitive runs against it.
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}

		company.LockedLiquidity += amount
		if err := tx.SaveCompany(ctx, company); err != nil {
			return err
		}
		if err := tx.AddPoolLiquidity(ctx, amount); err != nil {
			return err
		}
		pool.Custodied += amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}

		_, err = s.receipts.Record(ctx, tx, companyID, models.KindCompanyLiquidityLock, amount, externalRef)
		return err
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.CompanyLiquidityLocked, &events.Notification{
		Company: companyID,
		Amount:  amount,
	})
	return nil
}

// RemoveCompanyLiquidity unlocks previously locked company capital and pays
// it back out through the gateway.
func (s *Service) RemoveCompanyLiquidity(ctx context.Context, caller, companyID models.Identity, amount int64, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdminOr(ctx, caller, s.access.IsCompanyOwner(caller, companyID)); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: liquidity unlock must be positive", e.ErrInvalidAmount)
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		if company.LockedLiquidity < amount {
			return fmt.Errorf("%w: locked %d, requested %d", e.ErrInsufficientBalance, company.LockedLiquidity, amount)
		}

		company.LockedLiquidity -= amount
		if err := tx.SaveCompany(ctx, company); err != nil {
			return err
		}
		if err := tx.SubtractPoolLiquidity(ctx, amount); err != nil {
			return err
		}
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}
		pool.Custodied -= amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, companyID, models.KindCompanyLiquidityUnlock, amount, externalRef); err != nil {
			return err
		}
		// External delegation last: all ledger state is already final.
		return s.gateway.Pay(ctx, payout.Request{To: companyID, Amount: amount})
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.CompanyLiquidityUnlocked, &events.Notification{
		Company: companyID,
		Amount:  amount,
	})
	return nil
}

// AddInvestorLiquidity deposits investor principal into the pool, lazily
// creating the investor record on first deposit. Pending rewards are
// settled before the deposit so the new principal does not claim past fees.
func (s *Service) AddInvestorLiquidity(ctx context.Context, caller, investorID models.Identity, amount int64, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if investorID.Zero() {
		return fmt.Errorf("%w: investor id", e.ErrZeroIdentity)
	}
	if caller != investorID {
		if err := s.requireAdmin(ctx, caller); err != nil {
			return err
		}
	}
	if amount <= 0 {
		return fmt.Errorf("%w: deposit must be positive", e.ErrInvalidAmount)
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}

		investor, err := tx.GetInvestor(ctx, investorID)
		switch {
		case err == nil:
			settleInvestorReward(pool, investor)
			investor.Deposited += amount
			if err := tx.SaveInvestor(ctx, investor); err != nil {
				return err
			}
		case errors.Is(err, e.ErrInvestorNotFound):
			investor = &models.Investor{
				ID:               investorID,
				Deposited:        amount,
				RewardCheckpoint: pool.RewardPerUnit,
			}
			if err := tx.CreateInvestor(ctx, investor); err != nil {
				return err
			}
		default:
			return err
		}

		pool.TotalInvestorLiquidity += amount
		pool.Custodied += amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}
		if err := tx.AddPoolLiquidity(ctx, amount); err != nil {
			return err
		}

		_, err = s.receipts.Record(ctx, tx, investorID, models.KindInvestorDeposit, amount, externalRef)
		return err
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.InvestorDeposited, &events.Notification{
		Investor: investorID,
		Amount:   amount,
	})
	return nil
}

// RemoveInvestorLiquidity withdraws investor principal. Rewards are settled
// first but stay untouched: principal and reward are independent balances.
func (s *Service) RemoveInvestorLiquidity(ctx context.Context, caller, investorID models.Identity, amount int64, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if caller != investorID {
		if err := s.requireAdmin(ctx, caller); err != nil {
			return err
		}
	}
	if amount <= 0 {
		return fmt.Errorf("%w: withdrawal must be positive", e.ErrInvalidAmount)
	}

	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}
		investor, err := tx.GetInvestor(ctx, investorID)
		if err != nil {
			return err
		}
		settleInvestorReward(pool, investor)

		if investor.Deposited < amount {
			return fmt.Errorf("%w: deposited %d, requested %d", e.ErrInsufficientBalance, investor.Deposited, amount)
		}
		// Defensive double-check against the pool-level aggregate.
		if pool.TotalInvestorLiquidity < amount {
			return fmt.Errorf("%w: investor liquidity %d, requested %d", e.ErrInsufficientLiquidity, pool.TotalInvestorLiquidity, amount)
		}

		investor.Deposited -= amount
		if err := tx.SaveInvestor(ctx, investor); err != nil {
			return err
		}
		pool.TotalInvestorLiquidity -= amount
		pool.Custodied -= amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}
		if err := tx.SubtractPoolLiquidity(ctx, amount); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, investorID, models.KindInvestorWithdraw, amount, externalRef); err != nil {
			return err
		}
		return s.gateway.Pay(ctx, payout.Request{To: investorID, Amount: amount})
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.InvestorWithdrawn, &events.Notification{
		Investor: investorID,
		Amount:   amount,
	})
	return nil
}

// WithdrawCompanyReward pays out the company's entire accrued fee share.
func (s *Service) WithdrawCompanyReward(ctx context.Context, caller, companyID models.Identity, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdminOr(ctx, caller, s.access.IsCompanyOwner(caller, companyID)); err != nil {
		return err
	}

	var amount int64
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}
		amount = company.RewardBalance
		if amount <= 0 {
			return fmt.Errorf("%w: no accrued company reward", e.ErrInsufficientBalance)
		}

		company.RewardBalance = 0
		company.WithdrawnRewards += amount
		if err := tx.SaveCompany(ctx, company); err != nil {
			return err
		}
		if err := s.releaseReserve(ctx, tx, amount); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, companyID, models.KindCompanyRewardWithdraw, amount, externalRef); err != nil {
			return err
		}
		return s.gateway.Pay(ctx, payout.Request{To: companyID, Amount: amount})
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.CompanyRewardWithdrawn, &events.Notification{
		Company: companyID,
		Amount:  amount,
	})
	return nil
}

// WithdrawInvestorReward settles and pays out the investor's entire accrued
// fee share, leaving the deposited principal untouched.
func (s *Service) WithdrawInvestorReward(ctx context.Context, caller, investorID models.Identity, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if caller != investorID {
		if err := s.requireAdmin(ctx, caller); err != nil {
			return err
		}
	}

	var amount int64
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}
		investor, err := tx.GetInvestor(ctx, investorID)
		if err != nil {
			return err
		}
		settleInvestorReward(pool, investor)

		amount = investor.RewardBalance
		if amount <= 0 {
			return fmt.Errorf("%w: no accrued investor reward", e.ErrInsufficientBalance)
		}

		investor.RewardBalance = 0
		investor.WithdrawnRewards += amount
		if err := tx.SaveInvestor(ctx, investor); err != nil {
			return err
		}
		pool.RewardReserve -= amount
		pool.Custodied -= amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, investorID, models.KindInvestorRewardWithdraw, amount, externalRef); err != nil {
			return err
		}
		return s.gateway.Pay(ctx, payout.Request{To: investorID, Amount: amount})
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.InvestorRewardWithdrawn, &events.Notification{
		Investor: investorID,
		Amount:   amount,
	})
	return nil
}

// WithdrawPlatformFee pays the accrued platform fee balance (including
// routed fee dust) to the given recipient.
func (s *Service) WithdrawPlatformFee(ctx context.Context, caller, to models.Identity, externalRef string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if to.Zero() {
		return fmt.Errorf("%w: recipient", e.ErrZeroIdentity)
	}

	var amount int64
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}
		amount = pool.PlatformFeeBalance
		if amount <= 0 {
			return fmt.Errorf("%w: no accrued platform fee", e.ErrInsufficientBalance)
		}

		pool.PlatformFeeBalance = 0
		pool.RewardReserve -= amount
		pool.Custodied -= amount
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, to, models.KindPlatformFeeWithdraw, amount, externalRef); err != nil {
			return err
		}
		return s.gateway.Pay(ctx, payout.Request{To: to, Amount: amount})
	})
	if err != nil {
		return err
	}

	s.producer.Produce(events.PlatformFeeWithdrawn, &events.Notification{
		To:     to,
		Amount: amount,
	})
	return nil
}

// releaseReserve reduces the outstanding reward liability and the custodied
// total by an amount leaving custody through a reward payout.
func (s *Service) releaseReserve(ctx context.Context, tx *db.Repository, amount int64) error {
	pool, err := tx.GetPool(ctx)
	if err != nil {
		return err
	}
	pool.RewardReserve -= amount
	pool.Custodied -= amount
	return tx.SavePool(ctx, pool)
}

// PendingInvestorReward is the investor's settled reward balance plus the
// lazily accrued share since its last checkpoint. Pure query.
func (s *Service) PendingInvestorReward(ctx context.Context, investorID models.Identity) (int64, error) {
	pool, err := s.repo.GetPool(ctx)
	if err != nil {
		return 0, err
	}
	investor, err := s.repo.GetInvestor(ctx, investorID)
	if err != nil {
		return 0, err
	}
	pending := investor.RewardBalance
	if delta := pool.RewardPerUnit - investor.RewardCheckpoint; delta > 0 {
		pending += pendingReward(investor.Deposited, delta)
	}
	return pending, nil
}

// GetInvestor returns an investor record.
func (s *Service) GetInvestor(ctx context.Context, id models.Identity) (*models.Investor, error) {
	return s.repo.GetInvestor(ctx, id)
}

// PoolStats returns the singleton pool ledger row.
func (s *Service) PoolStats(ctx context.Context) (*models.Pool, error) {
	return s.repo.GetPool(ctx)
}
