package model

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PoolID uniquely identifies a pool. It is the keccak256 hash of the
// pool key, following the v4 singleton convention.
type PoolID = common.Hash

// Fee configuration flag bits. A pool's fee word is a uint24 fee in ppm
// with capability flags in the high bits.
const (
	// DynamicFeeFlag marks a pool whose fee may be overridden per trade
	// by an external fee controller.
	DynamicFeeFlag uint32 = 1 << 23

	// OverrideFeeFlag marks a fee value passed to the execution engine
	// as an override for the trade currently being processed, as
	// opposed to a new static default.
	OverrideFeeFlag uint32 = 1 << 22

	// FeeMask extracts the ppm value from a fee word.
	FeeMask uint32 = ((1 << 24) - 1) &^ (DynamicFeeFlag | OverrideFeeFlag)
)

// PoolKey describes a pool's immutable parameters.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	FeeConfig   uint32         `json:"fee_config"`
	TickSpacing int32          `json:"tick_spacing"`
}

// ID derives the pool identifier from the key.
func (k PoolKey) ID() PoolID {
	var buf [48]byte
	copy(buf[0:20], k.Currency0.Bytes())
	copy(buf[20:40], k.Currency1.Bytes())
	binary.BigEndian.PutUint32(buf[40:44], k.FeeConfig)
	binary.BigEndian.PutUint32(buf[44:48], uint32(k.TickSpacing))
	return crypto.Keccak256Hash(buf[:])
}

// IsDynamicFee reports whether the pool accepts externally-overridden fees.
func (k PoolKey) IsDynamicFee() bool {
	return k.FeeConfig&DynamicFeeFlag != 0
}

// StaticFeePpm returns the pool's static default fee in ppm.
func (k PoolKey) StaticFeePpm() uint32 {
	return k.FeeConfig & FeeMask
}
