package chain

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"chainId": "hydration",
		"assets": [
			{"localIndex": 0, "symbol": "HDX", "storage": "native"},
			{"localIndex": 1, "symbol": "USDT", "storage": "orml", "currencyId": "0x0a000000", "currencyType": "AssetId"},
			{"localIndex": 2, "symbol": "NFT", "storage": "uniques"}
		]
	}`)

	chainModel, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if chainModel.ID != "hydration" {
		t.Fatalf("chain id = %q, want hydration", chainModel.ID)
	}
	if len(chainModel.Assets) != 3 {
		t.Fatalf("assets = %d, want 3", len(chainModel.Assets))
	}

	native, ok := chainModel.UtilityAsset()
	if !ok || native.LocalIndex != 0 {
		t.Fatalf("utility asset = %+v ok=%v", native, ok)
	}

	usdt, ok := chainModel.Asset(1)
	if !ok {
		t.Fatal("asset 1 missing")
	}
	if usdt.Kind != StorageOrml {
		t.Fatalf("asset 1 kind = %d, want orml", usdt.Kind)
	}
	if len(usdt.CurrencyID) != 4 || usdt.CurrencyID[0] != 0x0a {
		t.Fatalf("currency id = %x", usdt.CurrencyID)
	}
	if usdt.CurrencyTypeTag != "AssetId" {
		t.Fatalf("currency type = %q", usdt.CurrencyTypeTag)
	}

	other, _ := chainModel.Asset(2)
	if other.Kind != StorageOther {
		t.Fatalf("asset 2 kind = %d, want other", other.Kind)
	}
}

func TestLoadRegistryDefaultsCurrencyType(t *testing.T) {
	path := writeRegistry(t, `{
		"chainId": "hydration",
		"assets": [{"localIndex": 5, "symbol": "DAI", "storage": "orml", "currencyId": "0x02000000"}]
	}`)

	chainModel, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	asset, _ := chainModel.Asset(5)
	if asset.CurrencyTypeTag != TypeFeeCurrency {
		t.Fatalf("currency type = %q, want %q", asset.CurrencyTypeTag, TypeFeeCurrency)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing chain id", `{"assets": []}`},
		{"duplicate index", `{"chainId": "hydration", "assets": [
			{"localIndex": 1, "symbol": "A", "storage": "native"},
			{"localIndex": 1, "symbol": "B", "storage": "native"}
		]}`},
		{"orml without currency id", `{"chainId": "hydration", "assets": [
			{"localIndex": 1, "symbol": "A", "storage": "orml"}
		]}`},
		{"bad currency hex", `{"chainId": "hydration", "assets": [
			{"localIndex": 1, "symbol": "A", "storage": "orml", "currencyId": "0xzz"}
		]}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRegistry(t, tt.content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}
