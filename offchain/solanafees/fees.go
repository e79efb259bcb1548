package solanafees

import (
	"errors"
	"fmt"
	"math/bits"
)

// DefaultLamportsPerSignature is the base fee charged by current clusters.
const DefaultLamportsPerSignature uint64 = 5000

var ErrOverflow = errors.New("overflow")

type TxFeeEstimate struct {
	LamportsPerSignature uint64 `json:"lamports_per_signature"`
	Signatures           uint64 `json:"signatures"`
	BaseFeeLamports      uint64 `json:"base_fee_lamports"`

	ComputeUnitLimit    uint32 `json:"compute_unit_limit"`
	MicroLamportsPerCU  uint64 `json:"micro_lamports_per_cu"`
	PriorityFeeLamports uint64 `json:"priority_fee_lamports"`

	TotalLamports uint64 `json:"total_lamports"`
}

func PriorityFeeLamports(computeUnitLimit uint32, microLamportsPerCU uint64) (uint64, error) {
	if computeUnitLimit == 0 || microLamportsPerCU == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(uint64(computeUnitLimit), microLamportsPerCU)
	if hi != 0 {
		return 0, ErrOverflow
	}
	const denom = uint64(1_000_000)
	sum, carry := bits.Add64(lo, denom-1, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum / denom, nil
}

func BaseFeeLamports(lamportsPerSignature uint64, signatures uint64) (uint64, error) {
	hi, lo := bits.Mul64(lamportsPerSignature, signatures)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

func Estimate(lamportsPerSignature, signatures uint64, computeUnitLimit uint32, microLamportsPerCU uint64) (TxFeeEstimate, error) {
	base, err := BaseFeeLamports(lamportsPerSignature, signatures)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	priority, err := PriorityFeeLamports(computeUnitLimit, microLamportsPerCU)
	if err != nil {
		return TxFeeEstimate{}, err
	}
	total, carry := bits.Add64(base, priority, 0)
	if carry != 0 {
		return TxFeeEstimate{}, ErrOverflow
	}
	return TxFeeEstimate{
		LamportsPerSignature: lamportsPerSignature,
		Signatures:           signatures,
		BaseFeeLamports:      base,
		ComputeUnitLimit:     computeUnitLimit,
		MicroLamportsPerCU:   microLamportsPerCU,
		PriorityFeeLamports:  priority,
		TotalLamports:        total,
	}, nil
}

// CreateUserAccountCost is what the payer must hold for the transaction to
// land: the fee plus the lamports moved into the new account.
func CreateUserAccountCost(e TxFeeEstimate, allocationLamports uint64) (uint64, error) {
	total, carry := bits.Add64(e.TotalLamports, allocationLamports, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return total, nil
}

func (e TxFeeEstimate) String() string {
	return fmt.Sprintf("total=%d lamports (base=%d, priority=%d @ %d microLamports/CU, limit=%d)",
		e.TotalLamports,
		e.BaseFeeLamports,
		e.PriorityFeeLamports,
		e.MicroLamportsPerCU,
		e.ComputeUnitLimit,
	)
}
