package tokens

import (
	"errors"
	"math/big"
	"testing"
)

func TestIntegratorInfoCheckConfig(t *testing.T) {
	good := &IntegratorInfo{IsIntegrator: true, TokenFee: 3000, PlatformTokenShare: 500000, PlatformFixedCryptoShare: 1000000}
	if err := good.CheckConfig(); err != nil {
		t.Fatalf("check config expected nil, but %v got", err)
	}
	bads := []*IntegratorInfo{
		{TokenFee: 1000001},
		{PlatformTokenShare: 2000000},
		{PlatformFixedCryptoShare: 1000001},
		{FixedCryptoFee: big.NewInt(-1)},
	}
	for i, bad := range bads {
		if err := bad.CheckConfig(); !errors.Is(err, ErrInvalidFeeConfig) {
			t.Fatalf("case %v expected %v, but %v got", i, ErrInvalidFeeConfig, err)
		}
	}
}

func TestTokenBoundsCheck(t *testing.T) {
	var unbounded *TokenBounds
	if err := unbounded.Check(big.NewInt(1)); err != nil {
		t.Fatalf("unbounded expected nil, but %v got", err)
	}
	bounds := &TokenBounds{Min: big.NewInt(100), Max: big.NewInt(1000)}
	cases := []struct {
		amount int64
		want   error
	}{
		{99, ErrAmountTooSmall},
		{100, nil},
		{1000, nil},
		{1001, ErrAmountTooLarge},
	}
	for _, c := range cases {
		err := bounds.Check(big.NewInt(c.amount))
		if !errors.Is(err, c.want) && !(err == nil && c.want == nil) {
			t.Fatalf("amount %v expected %v, but %v got", c.amount, c.want, err)
		}
	}
	onlyMax := &TokenBounds{Max: big.NewInt(10)}
	if err := onlyMax.Check(big.NewInt(0)); err != nil {
		t.Fatalf("no min expected nil, but %v got", err)
	}
	if err := (&TokenBounds{Min: big.NewInt(5), Max: big.NewInt(1)}).CheckConfig(); err == nil {
		t.Fatal("min greater than max expected error, but nil got")
	}
}
