package quoter

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/novasamatech/hydra-route-engine/internal/common"
)

// StableSwap invariant math. All amounts are raw integer balances; Newton
// iterations converge within a unit, and every trader-facing result rounds
// against the trader.

const maxNewtonIterations = 255

var errNoConvergence = fmt.Errorf("%w: stableswap invariant did not converge", common.ErrDataCorruption)

// stableswapD solves the invariant D for the given balances and
// amplification: Ann*S + D = Ann*D + D^(n+1) / (n^n * prod).
func stableswapD(balances []*uint256.Int, amplification uint64) (*uint256.Int, error) {
	n := uint64(len(balances))
	if n == 0 {
		return nil, fmt.Errorf("%w: empty stableswap pool", common.ErrDataCorruption)
	}

	sum := new(uint256.Int)
	for _, balance := range balances {
		if balance.IsZero() {
			return nil, fmt.Errorf("%w: drained stableswap reserve", common.ErrInsufficientLiquidity)
		}
		sum.Add(sum, balance)
	}

	ann := uint256.NewInt(amplification)
	for i := uint64(0); i < n; i++ {
		ann.Mul(ann, uint256.NewInt(n))
	}
	nU := uint256.NewInt(n)

	d := new(uint256.Int).Set(sum)
	for iter := 0; iter < maxNewtonIterations; iter++ {
		dp := new(uint256.Int).Set(d)
		for _, balance := range balances {
			dp = mulDivFloor(dp, d, new(uint256.Int).Mul(balance, nU))
		}

		prev := new(uint256.Int).Set(d)

		// d = (Ann*sum + n*dp) * d / ((Ann-1)*d + (n+1)*dp)
		numer := new(uint256.Int).Mul(ann, sum)
		numer.Add(numer, new(uint256.Int).Mul(nU, dp))

		denom := new(uint256.Int).Mul(new(uint256.Int).SubUint64(ann.Clone(), 1), d)
		denom.Add(denom, new(uint256.Int).Mul(new(uint256.Int).AddUint64(nU.Clone(), 1), dp))

		d = mulDivFloor(numer, d, denom)

		if withinOne(d, prev) {
			return d, nil
		}
	}
	return nil, errNoConvergence
}

// stableswapY solves for the balance of one asset given every other balance
// and the invariant D.
func stableswapY(otherBalances []*uint256.Int, d *uint256.Int, amplification uint64, n uint64) (*uint256.Int, error) {
	if n < 2 || uint64(len(otherBalances)) != n-1 {
		return nil, fmt.Errorf("%w: stableswap balance count mismatch", common.ErrDataCorruption)
	}

	ann := uint256.NewInt(amplification)
	for i := uint64(0); i < n; i++ {
		ann.Mul(ann, uint256.NewInt(n))
	}
	nU := uint256.NewInt(n)

	// c = D^(n+1) / (n^n * prod * Ann), built incrementally
	c := new(uint256.Int).Set(d)
	sum := new(uint256.Int)
	for _, balance := range otherBalances {
		if balance.IsZero() {
			return nil, fmt.Errorf("%w: drained stableswap reserve", common.ErrInsufficientLiquidity)
		}
		sum.Add(sum, balance)
		c = mulDivFloor(c, d, new(uint256.Int).Mul(balance, nU))
	}
	c = mulDivFloor(c, d, new(uint256.Int).Mul(ann, nU))

	// b = S + D/Ann
	b := new(uint256.Int).Add(sum, new(uint256.Int).Div(d, ann))

	y := new(uint256.Int).Set(d)
	for iter := 0; iter < maxNewtonIterations; iter++ {
		prev := new(uint256.Int).Set(y)

		// y = (y^2 + c) / (2y + b - D)
		numer := new(uint256.Int).Mul(y, y)
		numer.Add(numer, c)

		denom := new(uint256.Int).Add(y, y)
		denom.Add(denom, b)
		denom.Sub(denom, d)

		y.Div(numer, denom)

		if withinOne(y, prev) {
			return y, nil
		}
	}
	return nil, errNoConvergence
}

func withinOne(a, b *uint256.Int) bool {
	diff := new(uint256.Int)
	if a.Cmp(b) >= 0 {
		diff.Sub(a, b)
	} else {
		diff.Sub(b, a)
	}
	return diff.CmpUint64(1) <= 0
}
