package fees

import (
	"testing"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         models.FeeConfig
		expectError bool
	}{
		{
			name: "valid configuration",
			cfg:  models.FeeConfig{PlatformShare: 8000, CompanyShare: 1500, InvestorShare: 500, FeeBps: 100},
		},
		{
			name: "shares sum to exactly 100%",
			cfg:  models.FeeConfig{PlatformShare: 5000, CompanyShare: 3000, InvestorShare: 2000, FeeBps: 250},
		},
		{
			name:        "shares sum above 100%",
			cfg:         models.FeeConfig{PlatformShare: 8000, CompanyShare: 2000, InvestorShare: 1, FeeBps: 100},
			expectError: true,
		},
		{
			name:        "negative share",
			cfg:         models.FeeConfig{PlatformShare: -1, FeeBps: 100},
			expectError: true,
		},
		{
			name:        "fee rate above 100%",
			cfg:         models.FeeConfig{FeeBps: 10001},
			expectError: true,
		},
		{
			name: "zero configuration",
			cfg:  models.FeeConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.expectError {
				assert.ErrorIs(t, err, e.ErrInvalidFeeConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	// feeBps=100 on 900 gives a 9 unit fee; 80%/20%/0% split floors to
	// 7/1/0 with 1 unit of dust.
	cfg := &models.FeeConfig{PlatformShare: 8000, CompanyShare: 2000, InvestorShare: 0, FeeBps: 100}
	split := Compute(900, cfg)

	assert.Equal(t, int64(9), split.Total)
	assert.Equal(t, int64(7), split.Platform)
	assert.Equal(t, int64(1), split.Company)
	assert.Equal(t, int64(0), split.Investor)
	assert.Equal(t, int64(1), split.Dust())
	assert.Equal(t, int64(891), int64(900)-split.Total)
}

func TestComputeSplitBound(t *testing.T) {
	cfgs := []*models.FeeConfig{
		{PlatformShare: 3333, CompanyShare: 3333, InvestorShare: 3333, FeeBps: 777},
		{PlatformShare: 1, CompanyShare: 9998, InvestorShare: 1, FeeBps: 10000},
		{PlatformShare: 10000, CompanyShare: 0, InvestorShare: 0, FeeBps: 1},
	}
	amounts := []int64{0, 1, 7, 99, 900, 12345, 1_000_000_007}

	for _, cfg := range cfgs {
		for _, amount := range amounts {
			split := Compute(amount, cfg)
			assert.LessOrEqual(t, split.Platform+split.Company+split.Investor, split.Total,
				"parts must not exceed the total fee")
			assert.LessOrEqual(t, split.Total, amount*cfg.FeeBps/BpsDenominator)
			assert.GreaterOrEqual(t, split.Dust(), int64(0))
		}
	}
}

func TestComputeZeroFee(t *testing.T) {
	split := Compute(1_000_000, &models.FeeConfig{})
	assert.Zero(t, split.Total)
	assert.Zero(t, split.Dust())
}
