package controller

import (
	"context"
	"testing"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorDelta(t *testing.T) {
	// 40 split over 400 units is exactly 0.1 per unit.
	delta := accumulatorDelta(40, 400)
	assert.Equal(t, int64(models.RewardScale)/10, delta)

	assert.Equal(t, int64(10), pendingReward(100, delta))
	assert.Equal(t, int64(30), pendingReward(300, delta))
}

func TestAccumulatorDeltaTruncation(t *testing.T) {
	delta := accumulatorDelta(41, 400)

	// Per-unit truncation loses at most one unit across the pool.
	distributed := pendingReward(100, delta) + pendingReward(300, delta)
	assert.Equal(t, int64(10), pendingReward(100, delta))
	assert.Equal(t, int64(30), pendingReward(300, delta))
	assert.Equal(t, int64(40), distributed)
}

func TestAccumulatorLargePoolNoOverflow(t *testing.T) {
	// Deposits near the int64 range must survive the scaled multiply.
	const total = int64(1) << 50
	delta := accumulatorDelta(1_000_000, total)
	got := pendingReward(total, delta)
	assert.LessOrEqual(t, got, int64(1_000_000))
	// Truncating the per-unit rate loses at most total/RewardScale units.
	assert.GreaterOrEqual(t, got, int64(1_000_000)-total/models.RewardScale-1)
}

func TestPendingRewardGuards(t *testing.T) {
	assert.Zero(t, pendingReward(0, models.RewardScale))
	assert.Zero(t, pendingReward(-5, models.RewardScale))
	assert.Zero(t, pendingReward(100, 0))
	assert.Zero(t, pendingReward(100, -1))
}

func TestSettleInvestorReward(t *testing.T) {
	pool := &models.Pool{RewardPerUnit: models.RewardScale / 10}
	investor := &models.Investor{Deposited: 300}

	settleInvestorReward(pool, investor)
	assert.Equal(t, int64(30), investor.RewardBalance)
	assert.Equal(t, pool.RewardPerUnit, investor.RewardCheckpoint)

	// Settling again at the same accumulator is a no-op.
	settleInvestorReward(pool, investor)
	assert.Equal(t, int64(30), investor.RewardBalance)
}

func TestSetFeeConfig(t *testing.T) {
	svc, repo, producer, _ := setupService(t)
	ctx := context.Background()

	err := svc.SetFeeConfig(ctx, admin, &models.FeeConfig{FeeBps: 20000})
	assert.ErrorIs(t, err, e.ErrInvalidFeeConfig)
	assert.Empty(t, producer.produced)

	err = svc.SetFeeConfig(ctx, "mallory", &models.FeeConfig{FeeBps: 100})
	assert.ErrorIs(t, err, e.ErrUnauthorized)

	require.NoError(t, svc.SetFeeConfig(ctx, admin, &models.FeeConfig{
		FeeBps:        100,
		PlatformShare: 8000,
		CompanyShare:  2000,
	}))
	cfg, err := repo.GetFeeConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), cfg.FeeBps)
	assert.Equal(t, int64(8000), cfg.PlatformShare)
}
