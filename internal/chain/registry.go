package chain

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
)

// registryFile is the on-disk shape of a wallet asset registry export.
type registryFile struct {
	ChainID string          `json:"chainId"`
	Assets  []registryAsset `json:"assets"`
}

type registryAsset struct {
	LocalIndex   uint32 `json:"localIndex"`
	Symbol       string `json:"symbol"`
	Storage      string `json:"storage"`
	CurrencyID   string `json:"currencyId,omitempty"`
	CurrencyType string `json:"currencyType,omitempty"`
}

// LoadRegistry reads a registry export from disk and returns the chain
// snapshot it describes. Unrecognized storage kinds load as untradable
// entries rather than failing the whole registry.
func LoadRegistry(path string) (*Chain, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset registry: %w", err)
	}

	var file registryFile
	if err := sonic.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse asset registry %s: %w", path, err)
	}
	if file.ChainID == "" {
		return nil, fmt.Errorf("asset registry %s: missing chainId", path)
	}

	assets := make([]AssetDescriptor, 0, len(file.Assets))
	seen := make(map[uint32]struct{}, len(file.Assets))
	for _, entry := range file.Assets {
		if _, dup := seen[entry.LocalIndex]; dup {
			return nil, fmt.Errorf("asset registry %s: duplicate local index %d", path, entry.LocalIndex)
		}
		seen[entry.LocalIndex] = struct{}{}

		descriptor := AssetDescriptor{
			LocalIndex: entry.LocalIndex,
			Symbol:     entry.Symbol,
		}
		switch entry.Storage {
		case "native":
			descriptor.Kind = StorageNative
		case "orml":
			descriptor.Kind = StorageOrml
			currencyID, err := decodeHex(entry.CurrencyID)
			if err != nil {
				return nil, fmt.Errorf("asset registry %s: asset %d: %w", path, entry.LocalIndex, err)
			}
			descriptor.CurrencyID = currencyID
			descriptor.CurrencyTypeTag = entry.CurrencyType
			if descriptor.CurrencyTypeTag == "" {
				descriptor.CurrencyTypeTag = TypeFeeCurrency
			}
		default:
			descriptor.Kind = StorageOther
		}
		assets = append(assets, descriptor)
	}

	return &Chain{ID: file.ChainID, Assets: assets}, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("missing currency id")
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid currency id %q: %w", s, err)
	}
	return decoded, nil
}
