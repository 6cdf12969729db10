package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/abicoder"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var (
	encodeCommand = &cli.Command{
		Name:   "encode",
		Usage:  "encode destination instructions and transport message",
		Action: encodeMessage,
		Flags: append([]cli.Flag{
			versionFlag,
			dexFlag,
			receiverFlag,
			integratorFlag,
			pathFlag,
			pathV3Flag,
			deadlineFlag,
			minOutFlag,
			nativeOutFlag,
			nftMarketFlag,
			nftValueFlag,
			nftDataFlag,
			nonceFlag,
			dstChainIDFlag,
		}, utils.CommonLogFlags...),
	}

	deriveIDCommand = &cli.Command{
		Name:   "derive-id",
		Usage:  "derive request id",
		Action: deriveID,
		Flags: append([]cli.Flag{
			receiverFlag,
			srcChainIDFlag,
			dstChainIDFlag,
			nonceFlag,
			instructionsFlag,
		}, utils.CommonLogFlags...),
	}

	quoteCommand = &cli.Command{
		Name:   "quote",
		Usage:  "quote destination fee split and source crypto fee with a config",
		Action: quoteFee,
		Flags: append([]cli.Flag{
			utils.ConfigFileFlag,
			integratorFlag,
			srcChainIDFlag,
			dstChainIDFlag,
			amountFlag,
		}, utils.CommonLogFlags...),
	}

	versionFlag = &cli.StringFlag{
		Name:  "version",
		Usage: "swap version (v2|v3|bridge)",
		Value: "v2",
	}
	dexFlag = &cli.StringFlag{
		Name:  "dex",
		Usage: "dex router address",
	}
	receiverFlag = &cli.StringFlag{
		Name:  "receiver",
		Usage: "receiver address",
	}
	integratorFlag = &cli.StringFlag{
		Name:  "integrator",
		Usage: "integrator address",
	}
	pathFlag = &cli.StringSliceFlag{
		Name:  "path",
		Usage: "v2 or bridge path token address, repeat in order",
	}
	pathV3Flag = &cli.StringFlag{
		Name:  "pathv3",
		Usage: "v3 packed path in hex",
	}
	deadlineFlag = &cli.Uint64Flag{
		Name:  "deadline",
		Usage: "swap deadline (unix seconds)",
	}
	minOutFlag = &cli.StringFlag{
		Name:  "minout",
		Usage: "minimum amount out",
		Value: "0",
	}
	nativeOutFlag = &cli.BoolFlag{
		Name:  "nativeout",
		Usage: "unwrap output to native currency",
	}
	nftMarketFlag = &cli.Uint64Flag{
		Name:  "nftmarket",
		Usage: "nft marketplace id",
	}
	nftValueFlag = &cli.StringFlag{
		Name:  "nftvalue",
		Usage: "nft purchase value in native currency",
	}
	nftDataFlag = &cli.StringFlag{
		Name:  "nftdata",
		Usage: "nft purchase call data in hex",
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "request nonce",
	}
	srcChainIDFlag = &cli.Uint64Flag{
		Name:  "src",
		Usage: "source chain id",
	}
	dstChainIDFlag = &cli.Uint64Flag{
		Name:  "dst",
		Usage: "destination chain id",
	}
	instructionsFlag = &cli.StringFlag{
		Name:  "instructions",
		Usage: "encoded destination instructions in hex",
	}
	amountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "gross amount arriving on destination",
	}
)

func parseSwapVersion(s string) (tokens.SwapVersion, error) {
	switch strings.ToLower(s) {
	case "v2":
		return tokens.SwapV2, nil
	case "v3":
		return tokens.SwapV3, nil
	case "bridge":
		return tokens.BridgeOnly, nil
	default:
		return 0, fmt.Errorf("unknown swap version '%v'", s)
	}
}

func getAddressFlag(ctx *cli.Context, flag *cli.StringFlag, required bool) (ethcommon.Address, error) {
	value := ctx.String(flag.Name)
	if value == "" && !required {
		return ethcommon.Address{}, nil
	}
	if !ethcommon.IsHexAddress(value) {
		return ethcommon.Address{}, fmt.Errorf("wrong address '%v' of flag '%v'", value, flag.Name)
	}
	return ethcommon.HexToAddress(value), nil
}

func getHexFlag(ctx *cli.Context, flag *cli.StringFlag) ([]byte, error) {
	value := ctx.String(flag.Name)
	if value == "" {
		return nil, nil
	}
	data, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("wrong hex of flag '%v': %w", flag.Name, err)
	}
	return data, nil
}

func instructionsFromFlags(ctx *cli.Context) (*tokens.DestinationInstructions, error) {
	version, err := parseSwapVersion(ctx.String(versionFlag.Name))
	if err != nil {
		return nil, err
	}
	instr := &tokens.DestinationInstructions{
		Version:   version,
		NativeOut: ctx.Bool(nativeOutFlag.Name),
		Deadline:  ctx.Uint64(deadlineFlag.Name),
	}
	if instr.Dex, err = getAddressFlag(ctx, dexFlag, false); err != nil {
		return nil, err
	}
	if instr.Receiver, err = getAddressFlag(ctx, receiverFlag, true); err != nil {
		return nil, err
	}
	if instr.Integrator, err = getAddressFlag(ctx, integratorFlag, false); err != nil {
		return nil, err
	}
	for _, token := range ctx.StringSlice(pathFlag.Name) {
		if !ethcommon.IsHexAddress(token) {
			return nil, fmt.Errorf("wrong path token '%v'", token)
		}
		instr.Path = append(instr.Path, ethcommon.HexToAddress(token))
	}
	if instr.PathV3, err = getHexFlag(ctx, pathV3Flag); err != nil {
		return nil, err
	}
	if instr.AmountOutMinimum, err = common.GetBigIntFromStr(ctx.String(minOutFlag.Name)); err != nil {
		return nil, err
	}
	if nftValue := ctx.String(nftValueFlag.Name); nftValue != "" {
		instr.NFT.MarketID = ctx.Uint64(nftMarketFlag.Name)
		if instr.NFT.Value, err = common.GetBigIntFromStr(nftValue); err != nil {
			return nil, err
		}
		if instr.NFT.Data, err = getHexFlag(ctx, nftDataFlag); err != nil {
			return nil, err
		}
	}
	return instr, nil
}

func encodeMessage(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	instr, err := instructionsFromFlags(ctx)
	if err != nil {
		return err
	}
	encoded, err := abicoder.EncodeInstructions(instr)
	if err != nil {
		return err
	}
	fmt.Println("route kind:", instr.Kind())
	fmt.Println("instructions:", hexutil.Encode(encoded))
	if dstChainID := ctx.Uint64(dstChainIDFlag.Name); dstChainID != 0 {
		message, err := abicoder.EncodeMessage(instr, ctx.Uint64(nonceFlag.Name), dstChainID)
		if err != nil {
			return err
		}
		fmt.Println("message:", hexutil.Encode(message))
	}
	return nil
}

func deriveID(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	receiver, err := getAddressFlag(ctx, receiverFlag, true)
	if err != nil {
		return err
	}
	encoded, err := getHexFlag(ctx, instructionsFlag)
	if err != nil {
		return err
	}
	if _, err = abicoder.DecodeInstructions(encoded); err != nil {
		return err
	}
	id := abicoder.DeriveID(receiver,
		ctx.Uint64(srcChainIDFlag.Name),
		ctx.Uint64(dstChainIDFlag.Name),
		encoded,
		ctx.Uint64(nonceFlag.Name),
	)
	fmt.Println(id.Hex())
	return nil
}

func quoteFee(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	cfg, err := params.DecodeConfigFile(utils.GetConfigFilePath(ctx), true)
	if err != nil {
		return err
	}
	registry, err := router.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	contract := settle.NewContract(&settle.Options{ChainID: cfg.ChainID}, registry, nil)

	integrator, err := getAddressFlag(ctx, integratorFlag, false)
	if err != nil {
		return err
	}
	result := make(map[string]interface{})
	if amountStr := ctx.String(amountFlag.Name); amountStr != "" {
		amount, errf := common.GetBigIntFromStr(amountStr)
		if errf != nil {
			return errf
		}
		settlement, errf := contract.CalcFee(integrator, ctx.Uint64(srcChainIDFlag.Name), amount)
		if errf != nil {
			return errf
		}
		result["settlement"] = settlement
	}
	if dstChainID := ctx.Uint64(dstChainIDFlag.Name); dstChainID != 0 {
		quote, errf := contract.QuoteCryptoFee(dstChainID, integrator)
		if errf != nil {
			return errf
		}
		result["cryptoFee"] = quote
		result["cryptoFeeTotal"] = quote.Total()
	}
	jsdata, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsdata))
	return nil
}
