package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind classifies the value movement a receipt records.
type TransactionKind string

const (
	KindCompanyLiquidityLock   TransactionKind = "COMPANY_LIQUIDITY_LOCK"
	KindCompanyLiquidityUnlock TransactionKind = "COMPANY_LIQUIDITY_UNLOCK"
	KindInvestorDeposit        TransactionKind = "INVESTOR_DEPOSIT"
	KindInvestorWithdraw       TransactionKind = "INVESTOR_WITHDRAW"
	KindEmployeeWithdrawSalary TransactionKind = "EMPLOYEE_WITHDRAW_SALARY"
	KindCompanyRewardWithdraw  TransactionKind = "COMPANY_REWARD_WITHDRAW"
	KindInvestorRewardWithdraw TransactionKind = "INVESTOR_REWARD_WITHDRAW"
	KindPlatformFeeWithdraw    TransactionKind = "PLATFORM_FEE_WITHDRAW"
)

// Receipt is the immutable audit record minted once per ledger transaction.
// ExternalRef is an opaque caller-supplied correlation id (e.g. a document
// hash); the ledger never interprets it.
type Receipt struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	To          Identity        `gorm:"size:64;index" json:"to"`
	Kind        TransactionKind `gorm:"size:32" json:"kind"`
	Amount      int64           `gorm:"not null" json:"amount"`
	ExternalRef string          `gorm:"size:256" json:"external_ref"`
	CreatedAt   time.Time       `json:"created_at"`
}
