package controller

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/earnlift/ledger/internal/ledger/db"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/events"
	"github.com/earnlift/ledger/internal/ledger/fees"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/earnlift/ledger/internal/ledger/payout"
	"go.uber.org/zap"
)

const (
	// daysPerMonth bounds the per-day salary accrual.
	daysPerMonth = 30
	// maxAdvanceBps caps an advance at 30% of the monthly salary.
	maxAdvanceBps = 3000
	// maxMonthlySalary keeps the basis-point product in eligibleAdvance
	// inside int64 range.
	maxMonthlySalary = math.MaxInt64 / fees.BpsDenominator
)

// eligibleAdvance computes how much of earned-but-unpaid salary the
// employee may still draw: per-day accrual times days worked, capped at 30%
// of the monthly salary, minus what was already withdrawn.
func eligibleAdvance(employee *models.Employee) int64 {
	perDay := employee.MonthlySalary / daysPerMonth
	byDays := perDay * employee.DaysWorked
	capped := employee.MonthlySalary * maxAdvanceBps / fees.BpsDenominator
	gross := byDays
	if capped < gross {
		gross = capped
	}
	remaining := gross - employee.WithdrawnAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EligibleAdvance is the pure eligibility query; calling it any number of
// times has no side effects.
func (s *Service) EligibleAdvance(ctx context.Context, employeeID models.Identity) (int64, error) {
	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	return eligibleAdvance(employee), nil
}

// WithdrawalRequest parameterizes WithdrawSalary. MinAcceptableOutput and
// Deadline are forwarded to the payout gateway for the value-conversion
// step when the employee's settlement preference requires one.
type WithdrawalRequest struct {
	EmployeeID          models.Identity
	ExternalRef         string
	MinAcceptableOutput int64
	Deadline            time.Time
}

// WithdrawalResult reports the completed advance.
type WithdrawalResult struct {
	Eligible int64 `json:"eligible"`
	Fee      int64 `json:"fee"`
	Net      int64 `json:"net"`
}

// WithdrawSalary draws the employee's full eligible advance: the pool is
// debited, the fee is split between platform, sponsoring company and the
// investor pool, and the net amount is settled through the payout gateway.
// The whole sequence is one transaction: a failure at any step, including
// the final external payout, reverts every ledger mutation.
func (s *Service) WithdrawSalary(ctx context.Context, caller models.Identity, req WithdrawalRequest) (*WithdrawalResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	if !s.access.IsEmployeeOwner(caller, req.EmployeeID) {
		if err := s.requireAdmin(ctx, caller); err != nil {
			return nil, err
		}
	}

	var result WithdrawalResult
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		employee, err := tx.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		eligible := eligibleAdvance(employee)
		if eligible <= 0 {
			return fmt.Errorf("%w: no eligible advance", e.ErrInvalidAmount)
		}

		cfg, err := tx.GetFeeConfig(ctx)
		if err != nil {
			return err
		}
		split := fees.Compute(eligible, cfg)
		net := eligible - split.Total

		pool, err := tx.GetPool(ctx)
		if err != nil {
			return err
		}
		if pool.TotalLiquidity < eligible {
			return fmt.Errorf("%w: pool %d, advance %d", e.ErrInsufficientLiquidity, pool.TotalLiquidity, eligible)
		}
		if err := tx.SubtractPoolLiquidity(ctx, eligible); err != nil {
			return err
		}

		// Fee-split dust goes to the platform so no value is dropped.
		pool.PlatformFeeBalance += split.Platform + split.Dust()
		pool.RewardReserve += split.Total
		pool.Custodied -= net

		if split.Company > 0 {
			company, err := tx.GetCompany(ctx, employee.CompanyID)
			if err != nil {
				return err
			}
			company.RewardBalance += split.Company
			if err := tx.SaveCompany(ctx, company); err != nil {
				return err
			}
		}

		if split.Investor > 0 {
			if pool.TotalInvestorLiquidity > 0 {
				delta := accumulatorDelta(split.Investor, pool.TotalInvestorLiquidity)
				pool.RewardPerUnit += delta
				pool.DustCarry += split.Investor - pendingReward(pool.TotalInvestorLiquidity, delta)
			} else {
				// No investor capital to attribute the share to; route it to
				// the platform instead of leaving it unassigned.
				pool.PlatformFeeBalance += split.Investor
			}
		}

		employee.WithdrawnAmount += net
		if err := tx.SaveEmployee(ctx, employee); err != nil {
			return err
		}
		if err := tx.SavePool(ctx, pool); err != nil {
			return err
		}

		if _, err := s.receipts.Record(ctx, tx, req.EmployeeID, models.KindEmployeeWithdrawSalary, net, req.ExternalRef); err != nil {
			return err
		}

		result = WithdrawalResult{Eligible: eligible, Fee: split.Total, Net: net}

		// All internal ledger state is final; the potentially re-entrant
		// payout call comes last and its failure rolls everything back.
		return s.gateway.Pay(ctx, payout.Request{
			To:                   req.EmployeeID,
			Amount:               net,
			SettlementPreference: employee.SettlementPreference,
			MinAcceptableOutput:  req.MinAcceptableOutput,
			Deadline:             req.Deadline,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Salary advance settled",
		zap.String("employee_id", string(req.EmployeeID)),
		zap.Int64("eligible", result.Eligible),
		zap.Int64("fee", result.Fee),
		zap.Int64("net", result.Net),
	)
	s.producer.Produce(events.EmployeeSalaryWithdrawn, &events.Notification{
		Employee: req.EmployeeID,
		Amount:   result.Eligible,
		Fee:      result.Fee,
		Net:      result.Net,
	})
	return &result, nil
}
