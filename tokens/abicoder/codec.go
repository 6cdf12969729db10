// Package abicoder encodes destination instructions into the transport
// payload and derives request IDs.
package abicoder

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// field names follow abi.ToCamelCase of the tuple component names
type wireNFT struct {
	MarketId *big.Int
	Value    *big.Int
	Data     []byte
}

type wireInstructions struct {
	Dex              common.Address
	NativeOut        bool
	Receiver         common.Address
	Integrator       common.Address
	Version          uint8
	Path             []common.Address
	PathV3           []byte
	Deadline         *big.Int
	AmountOutMinimum *big.Int
	Nft              wireNFT
}

var (
	instructionsType abi.Type
	uint256Type      abi.Type

	instructionsArgs abi.Arguments
	messageArgs      abi.Arguments
)

func init() {
	var err error
	instructionsType, err = abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "dex", Type: "address"},
		{Name: "nativeOut", Type: "bool"},
		{Name: "receiver", Type: "address"},
		{Name: "integrator", Type: "address"},
		{Name: "version", Type: "uint8"},
		{Name: "path", Type: "address[]"},
		{Name: "pathV3", Type: "bytes"},
		{Name: "deadline", Type: "uint256"},
		{Name: "amountOutMinimum", Type: "uint256"},
		{Name: "nft", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "marketId", Type: "uint256"},
			{Name: "value", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		}},
	})
	if err != nil {
		panic(err)
	}
	uint256Type, err = abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	instructionsArgs = abi.Arguments{{Name: "instructions", Type: instructionsType}}
	messageArgs = abi.Arguments{
		{Name: "instructions", Type: instructionsType},
		{Name: "nonce", Type: uint256Type},
		{Name: "dstChainID", Type: uint256Type},
	}
}

func toWire(instr *tokens.DestinationInstructions) *wireInstructions {
	path := instr.Path
	if path == nil {
		path = []common.Address{}
	}
	pathV3 := []byte(instr.PathV3)
	if pathV3 == nil {
		pathV3 = []byte{}
	}
	nftData := []byte(instr.NFT.Data)
	if nftData == nil {
		nftData = []byte{}
	}
	return &wireInstructions{
		Dex:              instr.Dex,
		NativeOut:        instr.NativeOut,
		Receiver:         instr.Receiver,
		Integrator:       instr.Integrator,
		Version:          uint8(instr.Version),
		Path:             path,
		PathV3:           pathV3,
		Deadline:         new(big.Int).SetUint64(instr.Deadline),
		AmountOutMinimum: bigOrZero(instr.AmountOutMinimum),
		Nft: wireNFT{
			MarketId: new(big.Int).SetUint64(instr.NFT.MarketID),
			Value:    bigOrZero(instr.NFT.Value),
			Data:     nftData,
		},
	}
}

func fromWire(w *wireInstructions) (*tokens.DestinationInstructions, error) {
	if !w.Deadline.IsUint64() {
		return nil, fmt.Errorf("%w: deadline overflows", tokens.ErrMalformedMessage)
	}
	if !w.Nft.MarketId.IsUint64() {
		return nil, fmt.Errorf("%w: market id overflows", tokens.ErrMalformedMessage)
	}
	instr := &tokens.DestinationInstructions{
		Dex:              w.Dex,
		NativeOut:        w.NativeOut,
		Receiver:         w.Receiver,
		Integrator:       w.Integrator,
		Version:          tokens.SwapVersion(w.Version),
		Deadline:         w.Deadline.Uint64(),
		AmountOutMinimum: w.AmountOutMinimum,
		NFT: tokens.NFTPurchaseInfo{
			MarketID: w.Nft.MarketId.Uint64(),
			Value:    w.Nft.Value,
		},
	}
	if len(w.Path) > 0 {
		instr.Path = w.Path
	}
	if len(w.PathV3) > 0 {
		instr.PathV3 = w.PathV3
	}
	if len(w.Nft.Data) > 0 {
		instr.NFT.Data = w.Nft.Data
	}
	return instr, nil
}

// ValidateInstructions structural check shared by encoder and decoder
func ValidateInstructions(instr *tokens.DestinationInstructions) error {
	if instr == nil {
		return fmt.Errorf("%w: nil instructions", tokens.ErrInvalidInstructions)
	}
	if !instr.Version.IsValid() {
		return fmt.Errorf("%w: unknown version %v", tokens.ErrInvalidInstructions, instr.Version)
	}
	if instr.Receiver == (common.Address{}) {
		return fmt.Errorf("%w: zero receiver", tokens.ErrInvalidInstructions)
	}
	switch instr.Version {
	case tokens.SwapV2:
		if len(instr.Path) < 2 {
			return fmt.Errorf("%w: v2 path length %v", tokens.ErrInvalidInstructions, len(instr.Path))
		}
	case tokens.SwapV3:
		if !tokens.IsValidV3Path(instr.PathV3) {
			return fmt.Errorf("%w: v3 path length %v", tokens.ErrInvalidInstructions, len(instr.PathV3))
		}
	case tokens.BridgeOnly:
		if len(instr.Path) == 0 {
			return fmt.Errorf("%w: empty bridge path", tokens.ErrInvalidInstructions)
		}
	}
	if instr.AmountOutMinimum != nil && instr.AmountOutMinimum.Sign() < 0 {
		return fmt.Errorf("%w: negative amountOutMinimum", tokens.ErrInvalidInstructions)
	}
	if instr.NFT.Value != nil && instr.NFT.Value.Sign() < 0 {
		return fmt.Errorf("%w: negative nft value", tokens.ErrInvalidInstructions)
	}
	return nil
}

// EncodeInstructions canonical abi encoding of destination instructions
func EncodeInstructions(instr *tokens.DestinationInstructions) ([]byte, error) {
	if err := ValidateInstructions(instr); err != nil {
		return nil, err
	}
	return instructionsArgs.Pack(*toWire(instr))
}

// EncodeMessage transport payload of instructions, nonce and destination chain
func EncodeMessage(instr *tokens.DestinationInstructions, nonce, dstChainID uint64) ([]byte, error) {
	if err := ValidateInstructions(instr); err != nil {
		return nil, err
	}
	return messageArgs.Pack(
		*toWire(instr),
		new(big.Int).SetUint64(nonce),
		new(big.Int).SetUint64(dstChainID),
	)
}

// DecodeInstructions reverse of EncodeInstructions
func DecodeInstructions(data []byte) (*tokens.DestinationInstructions, error) {
	values, err := instructionsArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tokens.ErrMalformedMessage, err)
	}
	if len(values) != len(instructionsArgs) {
		return nil, fmt.Errorf("%w: wrong number of values %v", tokens.ErrMalformedMessage, len(values))
	}
	instr, err := decodeInstructionsValue(values[0])
	if err != nil {
		return nil, err
	}
	repacked, err := instructionsArgs.Pack(*toWire(instr))
	if err = checkCanonical(data, repacked, err); err != nil {
		return nil, err
	}
	return instr, nil
}

// DecodeMessage reverse of EncodeMessage
func DecodeMessage(data []byte) (*tokens.Message, error) {
	values, err := messageArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tokens.ErrMalformedMessage, err)
	}
	if len(values) != len(messageArgs) {
		return nil, fmt.Errorf("%w: wrong number of values %v", tokens.ErrMalformedMessage, len(values))
	}
	instr, err := decodeInstructionsValue(values[0])
	if err != nil {
		return nil, err
	}
	nonce, ok := values[1].(*big.Int)
	if !ok || !nonce.IsUint64() {
		return nil, fmt.Errorf("%w: wrong nonce", tokens.ErrMalformedMessage)
	}
	dstChainID, ok := values[2].(*big.Int)
	if !ok || !dstChainID.IsUint64() {
		return nil, fmt.Errorf("%w: wrong dst chain id", tokens.ErrMalformedMessage)
	}
	repacked, err := messageArgs.Pack(*toWire(instr), nonce, dstChainID)
	if err = checkCanonical(data, repacked, err); err != nil {
		return nil, err
	}
	return &tokens.Message{
		Instructions: instr,
		Nonce:        nonce.Uint64(),
		DstChainID:   dstChainID.Uint64(),
	}, nil
}

// checkCanonical abi.Unpack ignores dirty padding and trailing bytes,
// so the decoded value must pack back to exactly the input
func checkCanonical(data, repacked []byte, packErr error) error {
	if packErr != nil {
		return fmt.Errorf("%w: %v", tokens.ErrMalformedMessage, packErr)
	}
	if !bytes.Equal(data, repacked) {
		return fmt.Errorf("%w: non canonical encoding", tokens.ErrMalformedMessage)
	}
	return nil
}

func decodeInstructionsValue(value interface{}) (instr *tokens.DestinationInstructions, err error) {
	defer func() {
		if r := recover(); r != nil {
			instr, err = nil, fmt.Errorf("%w: %v", tokens.ErrMalformedMessage, r)
		}
	}()
	w, ok := abi.ConvertType(value, new(wireInstructions)).(*wireInstructions)
	if !ok {
		return nil, fmt.Errorf("%w: wrong instructions type", tokens.ErrMalformedMessage)
	}
	instr, err = fromWire(w)
	if err != nil {
		return nil, err
	}
	if err = ValidateInstructions(instr); err != nil {
		return nil, fmt.Errorf("%w: %v", tokens.ErrMalformedMessage, err)
	}
	return instr, nil
}

// DeriveID keccak256(receiver ++ uint256(src) ++ uint256(dst) ++ encoded ++ uint256(nonce))
func DeriveID(receiver common.Address, srcChainID, dstChainID uint64, encodedInstructions []byte, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(
		receiver.Bytes(),
		common.LeftPadBytes(new(big.Int).SetUint64(srcChainID).Bytes(), 32),
		common.LeftPadBytes(new(big.Int).SetUint64(dstChainID).Bytes(), 32),
		encodedInstructions,
		common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32),
	)
}

// MessageID derive request id directly from a decoded message
func MessageID(msg *tokens.Message, srcChainID uint64) (common.Hash, error) {
	encoded, err := EncodeInstructions(msg.Instructions)
	if err != nil {
		return common.Hash{}, err
	}
	return DeriveID(msg.Instructions.Receiver, srcChainID, msg.DstChainID, encoded, msg.Nonce), nil
}

func bigOrZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
