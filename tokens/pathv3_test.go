package tokens

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func TestEncodeV3Path(t *testing.T) {
	packed, err := EncodeV3Path([]common.Address{tokenA, tokenB}, []uint32{3000})
	if err != nil {
		t.Fatalf("encode v3 path failed: %v", err)
	}
	want := tokenA.Hex()[2:] + "000bb8" + tokenB.Hex()[2:]
	if got := hex.EncodeToString(packed); got != lower(want) {
		t.Fatalf("v3 path expected %v, but %v got", want, got)
	}

	path, fees, err := DecodeV3Path(packed)
	if err != nil {
		t.Fatalf("decode v3 path failed: %v", err)
	}
	if len(path) != 2 || path[0] != tokenA || path[1] != tokenB || len(fees) != 1 || fees[0] != 3000 {
		t.Fatalf("decode v3 path expected [%v %v] [3000], but %v %v got", tokenA, tokenB, path, fees)
	}
}

func TestDecodeV3PathRejectsTruncated(t *testing.T) {
	packed, _ := EncodeV3Path([]common.Address{tokenA, tokenB, tokenC}, []uint32{500, 10000})
	for _, n := range []int{0, 20, 23, 42, len(packed) - 1} {
		if _, _, err := DecodeV3Path(packed[:n]); err == nil {
			t.Fatalf("decode truncated v3 path of length %v expected error, but nil got", n)
		}
	}
	first, last, ok := V3PathEnds(packed)
	if !ok || first != tokenA || last != tokenC {
		t.Fatalf("v3 path ends expected %v %v, but %v %v got", tokenA, tokenC, first, last)
	}
}

func TestEncodeV3PathWrongArgs(t *testing.T) {
	if _, err := EncodeV3Path([]common.Address{tokenA}, nil); err == nil {
		t.Fatal("single token v3 path expected error, but nil got")
	}
	if _, err := EncodeV3Path([]common.Address{tokenA, tokenB}, []uint32{1 << 24}); err == nil {
		t.Fatal("fee overflow expected error, but nil got")
	}
}

func lower(s string) string {
	return string(bytes.ToLower([]byte(s)))
}
