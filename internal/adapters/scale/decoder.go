// Package scale decodes the fixed-width storage encodings the engine reads.
package scale

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/novasamatech/hydra-route-engine/internal/chain"
	"github.com/novasamatech/hydra-route-engine/internal/domain"
)

// Decoder maps raw storage bytes to typed values per type tag. It covers the
// subset of encodings the engine consumes; anything else is a decode error.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(raw []byte, typeTag string) (any, error) {
	r := &reader{data: raw}

	var (
		value any
		err   error
	)
	switch typeTag {
	case chain.TypeBalance:
		value, err = r.u128()
	case chain.TypeFeeCurrency:
		var id uint32
		id, err = r.u32()
		value = domain.RemoteAssetID(id)
	case chain.TypeAssetIDList:
		value, err = r.assetList()
	case chain.TypeOmnipoolAssetState:
		value, err = r.omnipoolAssetState()
	case chain.TypeOmnipoolFeeParams:
		value, err = r.omnipoolFeeParams()
	case chain.TypeStableswapPools:
		value, err = r.stableswapPools()
	case chain.TypeStableswapReserves:
		value, err = r.stableswapReserves()
	case chain.TypeXykPools:
		value, err = r.xykPools()
	case chain.TypeAavePairs:
		value, err = r.aavePairs()
	case chain.TypeReferralLink:
		value, err = r.bool()
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", chain.ErrDecode, typeTag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", chain.ErrDecode, typeTag, err)
	}
	if !r.done() {
		return nil, fmt.Errorf("%w: %s: %d trailing bytes", chain.ErrDecode, typeTag, r.remaining())
	}
	return value, nil
}

func (r *reader) assetList() ([]domain.RemoteAssetID, error) {
	count, err := r.compact()
	if err != nil {
		return nil, err
	}
	assets := make([]domain.RemoteAssetID, 0, count)
	for i := uint64(0); i < count; i++ {
		id, err := r.u32()
		if err != nil {
			return nil, err
		}
		assets = append(assets, domain.RemoteAssetID(id))
	}
	return assets, nil
}

func (r *reader) omnipoolAssetState() (*chain.OmnipoolAssetState, error) {
	hubReserve, err := r.u128()
	if err != nil {
		return nil, err
	}
	shares, err := r.u128()
	if err != nil {
		return nil, err
	}
	tradable, err := r.bool()
	if err != nil {
		return nil, err
	}
	return &chain.OmnipoolAssetState{HubReserve: hubReserve, Shares: shares, Tradable: tradable}, nil
}

func (r *reader) omnipoolFeeParams() (*chain.OmnipoolFeeParams, error) {
	assetFee, err := r.u32()
	if err != nil {
		return nil, err
	}
	protocolFee, err := r.u32()
	if err != nil {
		return nil, err
	}
	return &chain.OmnipoolFeeParams{
		AssetFee:    chain.Permill(assetFee),
		ProtocolFee: chain.Permill(protocolFee),
	}, nil
}

func (r *reader) stableswapPools() (map[domain.RemoteAssetID]*chain.StableswapPool, error) {
	count, err := r.compact()
	if err != nil {
		return nil, err
	}
	pools := make(map[domain.RemoteAssetID]*chain.StableswapPool, count)
	for i := uint64(0); i < count; i++ {
		poolAsset, err := r.u32()
		if err != nil {
			return nil, err
		}
		assets, err := r.assetList()
		if err != nil {
			return nil, err
		}
		amplification, err := r.u64()
		if err != nil {
			return nil, err
		}
		fee, err := r.u32()
		if err != nil {
			return nil, err
		}
		totalShares, err := r.u128()
		if err != nil {
			return nil, err
		}
		pools[domain.RemoteAssetID(poolAsset)] = &chain.StableswapPool{
			Assets:        assets,
			Amplification: amplification,
			Fee:           chain.Permill(fee),
			TotalShares:   totalShares,
		}
	}
	return pools, nil
}

func (r *reader) stableswapReserves() (map[domain.RemoteAssetID]*big.Int, error) {
	count, err := r.compact()
	if err != nil {
		return nil, err
	}
	reserves := make(map[domain.RemoteAssetID]*big.Int, count)
	for i := uint64(0); i < count; i++ {
		asset, err := r.u32()
		if err != nil {
			return nil, err
		}
		balance, err := r.u128()
		if err != nil {
			return nil, err
		}
		reserves[domain.RemoteAssetID(asset)] = balance
	}
	return reserves, nil
}

func (r *reader) xykPools() ([]*chain.XykPool, error) {
	count, err := r.compact()
	if err != nil {
		return nil, err
	}
	pools := make([]*chain.XykPool, 0, count)
	for i := uint64(0); i < count; i++ {
		assetA, err := r.u32()
		if err != nil {
			return nil, err
		}
		assetB, err := r.u32()
		if err != nil {
			return nil, err
		}
		reserveA, err := r.u128()
		if err != nil {
			return nil, err
		}
		reserveB, err := r.u128()
		if err != nil {
			return nil, err
		}
		fee, err := r.u32()
		if err != nil {
			return nil, err
		}
		pools = append(pools, &chain.XykPool{
			AssetA:   domain.RemoteAssetID(assetA),
			AssetB:   domain.RemoteAssetID(assetB),
			ReserveA: reserveA,
			ReserveB: reserveB,
			Fee:      chain.Permill(fee),
		})
	}
	return pools, nil
}

func (r *reader) aavePairs() ([]*chain.AavePair, error) {
	count, err := r.compact()
	if err != nil {
		return nil, err
	}
	pairs := make([]*chain.AavePair, 0, count)
	for i := uint64(0); i < count; i++ {
		reserve, err := r.u32()
		if err != nil {
			return nil, err
		}
		atoken, err := r.u32()
		if err != nil {
			return nil, err
		}
		liquidity, err := r.u128()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, &chain.AavePair{
			Reserve:   domain.RemoteAssetID(reserve),
			AToken:    domain.RemoteAssetID(atoken),
			Liquidity: liquidity,
		})
	}
	return pairs, nil
}

// reader walks raw bytes little-endian, the chain's integer byte order.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) done() bool {
	return r.pos == len(r.data)
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.u8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool byte %#x", b)
	}
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) u128() (*big.Int, error) {
	b, err := r.take(16)
	if err != nil {
		return nil, err
	}
	be := make([]byte, 16)
	for i := range b {
		be[15-i] = b[i]
	}
	return new(big.Int).SetBytes(be), nil
}

// compact decodes the chain's variable-length unsigned integer prefix.
func (r *reader) compact() (uint64, error) {
	first, err := r.u8()
	if err != nil {
		return 0, err
	}

	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2), nil
	case 0b01:
		second, err := r.u8()
		if err != nil {
			return 0, err
		}
		return (uint64(first) | uint64(second)<<8) >> 2, nil
	case 0b10:
		rest, err := r.take(3)
		if err != nil {
			return 0, err
		}
		v := uint64(first) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24
		return v >> 2, nil
	default:
		byteCount := int(first>>2) + 4
		if byteCount > 8 {
			return 0, fmt.Errorf("compact length %d bytes unsupported", byteCount)
		}
		rest, err := r.take(byteCount)
		if err != nil {
			return 0, err
		}
		var v uint64
		for i, b := range rest {
			v |= uint64(b) << (8 * i)
		}
		return v, nil
	}
}
