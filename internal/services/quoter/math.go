package quoter

import (
	"github.com/holiman/uint256"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
)

var u256PermillDenom = uint256.NewInt(chain.PermillDenominator)

// mulDivFloor computes a*b/d rounded down. Operands are u128-scale reserves,
// so the product never overflows 256 bits.
func mulDivFloor(a, b, d *uint256.Int) *uint256.Int {
	result := new(uint256.Int).Mul(a, b)
	return result.Div(result, d)
}

// mulDivCeil computes a*b/d rounded up.
func mulDivCeil(a, b, d *uint256.Int) *uint256.Int {
	result := new(uint256.Int).Mul(a, b)
	rem := new(uint256.Int)
	result.DivMod(result, d, rem)
	if !rem.IsZero() {
		result.AddUint64(result, 1)
	}
	return result
}

// permillFloor is the fee amount: amount * fee / 1e6, rounded down.
func permillFloor(amount *uint256.Int, fee chain.Permill) *uint256.Int {
	return mulDivFloor(amount, uint256.NewInt(uint64(fee)), u256PermillDenom)
}

// permillCeil is the fee amount rounded up, used when the fee is charged on
// top of a trader-owed amount.
func permillCeil(amount *uint256.Int, fee chain.Permill) *uint256.Int {
	return mulDivCeil(amount, uint256.NewInt(uint64(fee)), u256PermillDenom)
}

// permillGrossUp computes the gross amount whose net after fee covers
// amount: ceil(amount * 1e6 / (1e6 - fee)).
func permillGrossUp(amount *uint256.Int, fee chain.Permill) *uint256.Int {
	denom := uint256.NewInt(chain.PermillDenominator - uint64(fee))
	return mulDivCeil(amount, u256PermillDenom, denom)
}
