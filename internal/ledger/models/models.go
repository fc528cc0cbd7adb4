// Package models defines the core domain entities of the advance ledger:
// companies locking capital, employees drawing advances, investors funding
// the shared pool, and the pool/fee records that tie them together.
// The structs double as GORM models; all monetary amounts are int64 base
// units and all percentages are basis points (10,000 = 100%).
package models

import (
	"time"
)

// Identity is an opaque unique account identity. The zero value is the
// null identity and is never a valid key.
type Identity string

// Zero reports whether the identity is the null identity.
func (i Identity) Zero() bool { return i == "" }

// CompanyStatus gates whether a company may gain new liquidity or employees.
type CompanyStatus string

const (
	CompanyEnabled  CompanyStatus = "ENABLED"
	CompanyDisabled CompanyStatus = "DISABLED"
)

// Company sponsors employees and locks capital into the pool. Its identity
// is also its owner identity.
type Company struct {
	ID               Identity      `gorm:"primaryKey;size:64" json:"id"`
	Name             string        `gorm:"size:128" json:"name"`
	Status           CompanyStatus `gorm:"size:16" json:"status"`
	LockedLiquidity  int64         `gorm:"not null;default:0;check:locked_liquidity >= 0" json:"locked_liquidity"`
	RewardBalance    int64         `gorm:"not null;default:0;check:reward_balance >= 0" json:"reward_balance"`
	WithdrawnRewards int64         `gorm:"not null;default:0" json:"withdrawn_rewards"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Employee draws advances against earned-but-unpaid salary. MonthlySalary is
// immutable after creation; DaysWorked is asserted by an admin each period,
// never self-reported.
type Employee struct {
	ID              Identity `gorm:"primaryKey;size:64" json:"id"`
	CompanyID       Identity `gorm:"size:64;index" json:"company_id"`
	Name            string   `gorm:"size:128" json:"name"`
	MonthlySalary   int64    `gorm:"not null;check:monthly_salary >= 0" json:"monthly_salary"`
	DaysWorked      int64    `gorm:"not null;default:0" json:"days_worked"`
	WithdrawnAmount int64    `gorm:"not null;default:0" json:"withdrawn_amount"`
	// SettlementPreference is opaque to the ledger; it is handed to the
	// payout gateway which may run a value-conversion step.
	SettlementPreference string    `gorm:"size:64;default:''" json:"settlement_preference"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Investor holds two independent balances: Deposited principal and an
// accrued RewardBalance. Principal withdrawal never touches rewards and
// vice versa. RewardCheckpoint is the reward-per-unit accumulator value
// last settled for this investor (see pool.RewardPerUnit).
type Investor struct {
	ID               Identity  `gorm:"primaryKey;size:64" json:"id"`
	Deposited        int64     `gorm:"not null;default:0;check:deposited >= 0" json:"deposited"`
	RewardBalance    int64     `gorm:"not null;default:0;check:reward_balance >= 0" json:"reward_balance"`
	WithdrawnRewards int64     `gorm:"not null;default:0" json:"withdrawn_rewards"`
	RewardCheckpoint int64     `gorm:"not null;default:0" json:"reward_checkpoint"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RewardScale is the fixed-point scale of Pool.RewardPerUnit and
// Investor.RewardCheckpoint.
const RewardScale = 1_000_000_000_000

// Pool is the singleton liquidity ledger row. TotalLiquidity is the capital
// currently available to fund advances; RewardReserve is the outstanding
// reward + platform-fee liability, conceptually backed by value already
// removed from TotalLiquidity. Custodied is all value ever received minus
// all value ever paid out, so totalLiquidity + rewardReserve == custodied
// holds after every completed operation.
type Pool struct {
	ID                     uint  `gorm:"primaryKey" json:"id"`
	TotalLiquidity         int64 `gorm:"not null;default:0;check:total_liquidity >= 0" json:"total_liquidity"`
	TotalInvestorLiquidity int64 `gorm:"not null;default:0;check:total_investor_liquidity >= 0" json:"total_investor_liquidity"`
	PlatformFeeBalance     int64 `gorm:"not null;default:0;check:platform_fee_balance >= 0" json:"platform_fee_balance"`
	RewardReserve          int64 `gorm:"not null;default:0" json:"reward_reserve"`
	Custodied              int64 `gorm:"not null;default:0" json:"custodied"`
	// RewardPerUnit is the global reward accumulator, scaled by RewardScale.
	RewardPerUnit int64 `gorm:"not null;default:0" json:"reward_per_unit"`
	// DustCarry audits fee residue left unassigned by accumulator rounding.
	DustCarry int64     `gorm:"not null;default:0" json:"dust_carry"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeeConfig is the singleton active fee configuration. The three shares
// split the fee taken from each advance and must sum to at most 10,000 bps.
type FeeConfig struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlatformShare int64     `gorm:"not null;default:0" json:"platform_share"`
	CompanyShare  int64     `gorm:"not null;default:0" json:"company_share"`
	InvestorShare int64     `gorm:"not null;default:0" json:"investor_share"`
	FeeBps        int64     `gorm:"not null;default:0" json:"fee_bps"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Admin is a row in the explicit admin registry consumed by access control.
type Admin struct {
	Identity  Identity  `gorm:"primaryKey;size:64" json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}
