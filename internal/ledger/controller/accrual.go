package controller

import (
	"math/big"

	"github.com/earnlift/ledger/internal/ledger/models"
)

// The investor fee share is distributed through a reward-per-unit-liquidity
// accumulator: each fee event bumps the global accumulator in O(1) and an
// investor's accrued share is settled lazily, as
// deposited * (accumulator - checkpoint) / RewardScale, whenever the
// investor deposits, withdraws, or is queried. The intermediate products
// overflow int64 for large pools, so they go through big.Int.

var rewardScale = big.NewInt(models.RewardScale)

// accumulatorDelta converts an investor fee part into a scaled per-unit
// accumulator increment. totalInvestorLiquidity must be positive.
func accumulatorDelta(investorPart, totalInvestorLiquidity int64) int64 {
	d := new(big.Int).Mul(big.NewInt(investorPart), rewardScale)
	d.Quo(d, big.NewInt(totalInvestorLiquidity))
	return d.Int64()
}

// pendingReward is the share a deposit earns over an accumulator delta.
func pendingReward(deposited, delta int64) int64 {
	if deposited <= 0 || delta <= 0 {
		return 0
	}
	p := new(big.Int).Mul(big.NewInt(deposited), big.NewInt(delta))
	p.Quo(p, rewardScale)
	return p.Int64()
}

// settleInvestorReward moves the investor's lazily accrued share into its
// reward balance and advances the checkpoint to the current accumulator.
func settleInvestorReward(pool *models.Pool, investor *models.Investor) {
	delta := pool.RewardPerUnit - investor.RewardCheckpoint
	if delta > 0 {
		investor.RewardBalance += pendingReward(investor.Deposited, delta)
	}
	investor.RewardCheckpoint = pool.RewardPerUnit
}
