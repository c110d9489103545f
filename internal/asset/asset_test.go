package asset_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/amm-quoter/internal/asset"
)

func TestAsset_UnitIsACopy(t *testing.T) {
	usd6 := asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x06"), "USD6", "", 6)

	u := usd6.Unit()
	if u.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("unit = %s, want 1000000", u)
	}
	u.SetInt64(0)
	if usd6.Unit().Sign() == 0 {
		t.Fatal("mutating Unit() changed the asset")
	}
	if usd6.Name() != "USD6" {
		t.Errorf("name = %q, want symbol fallback", usd6.Name())
	}
}

func TestRegistry_EnsureKeepsFirstInstance(t *testing.T) {
	r := asset.DefaultRegistry()
	addr := common.HexToAddress("0x0a")

	first := r.Ensure(asset.MustNewToken(asset.ChainIDSepolia, addr, "TKA", "Token A", 18))
	again := r.Ensure(asset.MustNewToken(asset.ChainIDSepolia, addr, "TKA", "Token A", 18))
	if first != again {
		t.Fatal("Ensure returned a second instance for the same ID")
	}

	got, ok := r.GetToken(asset.ChainIDSepolia, addr)
	if !ok || got != first {
		t.Fatalf("GetToken = %v, %v", got, ok)
	}
	if _, ok := r.GetToken(asset.ChainIDLocal, addr); ok {
		t.Error("same address on another chain must not match")
	}

	eth, ok := r.Get(asset.NativeID(asset.ChainIDSepolia))
	if !ok || !eth.IsNative() {
		t.Fatalf("Get(native sepolia) = %v, %v", eth, ok)
	}
}

func TestTokenID_PanicsOnZeroAddress(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	asset.TokenID(asset.ChainIDSepolia, common.Address{})
}
