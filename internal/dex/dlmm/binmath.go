// =============================
// File: internal/dex/dlmm/binmath.go
// =============================
package dlmm

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"lukechampine.com/uint128"
)

const (
	// BasisPointMax is the denominator for bin-step basis points.
	BasisPointMax = 10000

	// ScaleOffset is the Q64.64 fixed-point shift used by the program.
	ScaleOffset = 64

	// MaxBinPerArray is the number of bins stored in one bin-array account.
	MaxBinPerArray = 70

	// MaxBinPerPosition is the widest range a single position can cover.
	MaxBinPerPosition = 70

	// MaxBinPerWeightInstruction caps how many per-bin weights fit into one
	// add-liquidity-by-weight instruction.
	MaxBinPerWeightInstruction = 26

	// weightTotal is the exact sum every distribution must normalize to.
	weightTotal = 10000
)

// ErrInvalidInput marks bad numeric inputs to the curve math. Callers must
// never retry these.
var ErrInvalidInput = errors.New("invalid curve input")

// PriceToBin converts a continuous price into the discretized bin id for the
// given step size. Monotonic non-decreasing in price.
func PriceToBin(price float64, binStep uint16) (int32, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: price %v", ErrInvalidInput, price)
	}
	if binStep == 0 || binStep >= BasisPointMax {
		return 0, fmt.Errorf("%w: bin step %d", ErrInvalidInput, binStep)
	}
	base := 1.0 + float64(binStep)/BasisPointMax
	id := math.Round(math.Log(price) / math.Log(base))
	if id > math.MaxInt32 || id < math.MinInt32 {
		return 0, fmt.Errorf("%w: price %v out of bin range", ErrInvalidInput, price)
	}
	return int32(id), nil
}

// BinPrice returns the Q64.64 fixed-point price of a bin, mirroring the
// program's own price/bin conversion: (1 + binStep/10000)^id << 64.
func BinPrice(id int32, binStep uint16) (uint128.Uint128, error) {
	if binStep == 0 || binStep >= BasisPointMax {
		return uint128.Zero, fmt.Errorf("%w: bin step %d", ErrInvalidInput, binStep)
	}

	one := new(big.Int).Lsh(big.NewInt(1), ScaleOffset)
	bps := new(big.Int).Lsh(big.NewInt(int64(binStep)), ScaleOffset)
	bps.Div(bps, big.NewInt(BasisPointMax))
	base := new(big.Int).Add(one, bps)

	exp := int64(id)
	neg := exp < 0
	if neg {
		exp = -exp
	}

	// Fixed-point pow: multiply in Q64.64, shifting back after each step.
	result := new(big.Int).Set(one)
	for i := int64(0); i < exp; i++ {
		result.Mul(result, base)
		result.Rsh(result, ScaleOffset)
	}
	if neg {
		// Q64.64 inverse: (1 << 128) / x.
		num := new(big.Int).Lsh(big.NewInt(1), 2*ScaleOffset)
		result = num.Div(num, result)
	}
	if result.BitLen() > 128 {
		return uint128.Zero, fmt.Errorf("%w: bin %d price overflows u128", ErrInvalidInput, id)
	}
	return uint128.FromBig(result), nil
}

// BinIDToArrayIndex maps a bin id to its bin-array index, flooring toward
// negative infinity for negative ids.
func BinIDToArrayIndex(binID int32) int64 {
	quotient := binID / MaxBinPerArray
	remainder := binID % MaxBinPerArray
	if binID < 0 && remainder != 0 {
		quotient--
	}
	return int64(quotient)
}

// ArrayIndexRange enumerates every bin-array index spanned by [lower, upper].
func ArrayIndexRange(lower, upper int32) []int64 {
	if lower > upper {
		lower, upper = upper, lower
	}
	first := BinIDToArrayIndex(lower)
	last := BinIDToArrayIndex(upper)
	out := make([]int64, 0, last-first+1)
	for idx := first; idx <= last; idx++ {
		out = append(out, idx)
	}
	return out
}

// BinWeight assigns an integer liquidity weight to one bin.
type BinWeight struct {
	BinID  int32
	Weight uint16
}

// DistributeLiquidity spreads 10000 units of weight across [lower, upper],
// concentrating around center. Curvature 0 is near-uniform, 1 maximally
// peaked; out-of-range curvature is clamped silently. Weights always sum to
// exactly 10000 and every bin in range receives at least 1.
func DistributeLiquidity(center, lower, upper int32, curvature float64) ([]BinWeight, error) {
	if math.IsNaN(curvature) {
		return nil, fmt.Errorf("%w: curvature is NaN", ErrInvalidInput)
	}
	if curvature < 0 {
		curvature = 0
	} else if curvature > 1 {
		curvature = 1
	}

	if lower > upper {
		return []BinWeight{{BinID: center, Weight: weightTotal}}, nil
	}
	n := int(upper-lower) + 1
	if n == 1 {
		return []BinWeight{{BinID: lower, Weight: weightTotal}}, nil
	}

	alpha := 1 + 12*curvature
	maxDist := math.Max(float64(center-lower), float64(upper-center))
	if maxDist <= 0 {
		maxDist = 1
	}

	raw := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		d := math.Abs(float64(lower + int32(i) - center))
		raw[i] = math.Exp(-alpha * d / maxDist)
		sum += raw[i]
	}

	out := make([]BinWeight, n)
	total := 0
	for i := 0; i < n; i++ {
		w := int(math.Floor(raw[i] / sum * weightTotal))
		if w < 1 {
			w = 1
		}
		out[i] = BinWeight{BinID: lower + int32(i), Weight: uint16(w)}
		total += w
	}

	// Rounding remainder lands on the last bin. If the minimum-weight floor
	// overshot the budget, take the excess back from the heaviest bin.
	diff := weightTotal - total
	last := n - 1
	if int(out[last].Weight)+diff >= 1 {
		out[last].Weight = uint16(int(out[last].Weight) + diff)
	} else {
		heaviest := 0
		for i := 1; i < n; i++ {
			if out[i].Weight > out[heaviest].Weight {
				heaviest = i
			}
		}
		out[heaviest].Weight = uint16(int(out[heaviest].Weight) + diff)
	}
	return out, nil
}
