// Package fees implements the fee-split calculation applied to every
// advance. All rates are basis points (parts per 10,000) and every division
// floors, so the three split parts may sum to strictly less than the total
// fee; the caller decides where that residue goes.
package fees

import (
	"fmt"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
)

// BpsDenominator is the basis-point scale: 10,000 bps = 100%.
const BpsDenominator = 10000

// Split is the outcome of applying the active fee configuration to a
// withdrawal amount. Invariant: Platform + Company + Investor <= Total.
type Split struct {
	Total    int64
	Platform int64
	Company  int64
	Investor int64
}

// Dust is the fee residue left unassigned by the independent flooring of
// the three parts.
func (s Split) Dust() int64 {
	return s.Total - s.Platform - s.Company - s.Investor
}

// Validate checks a fee configuration: the three shares must not sum above
// 100% and no rate may be negative.
func Validate(cfg *models.FeeConfig) error {
	if cfg.PlatformShare < 0 || cfg.CompanyShare < 0 || cfg.InvestorShare < 0 || cfg.FeeBps < 0 {
		return fmt.Errorf("%w: negative rate", e.ErrInvalidFeeConfig)
	}
	if cfg.FeeBps > BpsDenominator {
		return fmt.Errorf("%w: fee rate above 100%%", e.ErrInvalidFeeConfig)
	}
	if cfg.PlatformShare+cfg.CompanyShare+cfg.InvestorShare > BpsDenominator {
		return fmt.Errorf("%w: shares sum above 100%%", e.ErrInvalidFeeConfig)
	}
	return nil
}

// Compute applies cfg to amount. It is pure: the net amount and the fate of
// the dust are the caller's concern.
func Compute(amount int64, cfg *models.FeeConfig) Split {
	total := amount * cfg.FeeBps / BpsDenominator
	return Split{
		Total:    total,
		Platform: total * cfg.PlatformShare / BpsDenominator,
		Company:  total * cfg.CompanyShare / BpsDenominator,
		Investor: total * cfg.InvestorShare / BpsDenominator,
	}
}
