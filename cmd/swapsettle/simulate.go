package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/worker"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

const (
	simSrcChainID uint64 = 1
	simDstChainID uint64 = 56
)

var (
	simulateCommand = &cli.Command{
		Name:   "simulate",
		Usage:  "run one cross chain transfer between two in process chains",
		Action: simulate,
		Flags: append([]cli.Flag{
			amountFlag,
			simSwapFlag,
			simFailSwapFlag,
			simIntegratorFeeFlag,
			simTokenFeeFlag,
		}, utils.CommonLogFlags...),
	}

	simSwapFlag = &cli.BoolFlag{
		Name:  "swap",
		Usage: "swap the bridged token to wrapped native on destination instead of bridge only",
	}
	simFailSwapFlag = &cli.BoolFlag{
		Name:  "failswap",
		Usage: "let the destination dex fail to exercise the fallback",
	}
	simIntegratorFeeFlag = &cli.Uint64Flag{
		Name:  "integratorfee",
		Usage: "register an integrator with this token fee (parts per million)",
	}
	simTokenFeeFlag = &cli.Uint64Flag{
		Name:  "tokenfee",
		Usage: "default token fee (parts per million)",
		Value: 3000,
	}

	simOwner      = ethcommon.HexToAddress("0x00000000000000000000000000000000000000f1")
	simBus        = ethcommon.HexToAddress("0x00000000000000000000000000000000000000b1")
	simUser       = ethcommon.HexToAddress("0x0000000000000000000000000000000000000a11")
	simReceiver   = ethcommon.HexToAddress("0x00000000000000000000000000000000000000ee")
	simIntegrator = ethcommon.HexToAddress("0x0000000000000000000000000000000000001234")
	simUSDC       = ethcommon.HexToAddress("0x00000000000000000000000000000000000000a1")
	simWETH       = ethcommon.HexToAddress("0x00000000000000000000000000000000000000b2")
	simDex        = ethcommon.HexToAddress("0x000000000000000000000000000000000000de11")
	simSrc        = ethcommon.HexToAddress("0x0000000000000000000000000000000000c0de01")
	simDst        = ethcommon.HexToAddress("0x0000000000000000000000000000000000c0de56")
	simSrcTrans   = ethcommon.HexToAddress("0x0000000000000000000000000000000000007701")
	simDstTrans   = ethcommon.HexToAddress("0x0000000000000000000000000000000000007756")
)

// fixedRateDex swaps at numerator/denominator
type fixedRateDex struct {
	numerator   int64
	denominator int64
	fail        bool
}

func (d *fixedRateDex) SwapExactIn(_ context.Context, route *tokens.SwapRoute) (*big.Int, error) {
	if d.fail {
		return nil, fmt.Errorf("simulated dex failure")
	}
	out := new(big.Int).Mul(route.AmountIn, big.NewInt(d.numerator))
	return out.Div(out, big.NewInt(d.denominator)), nil
}

func newSimRegistry(ctx *cli.Context, peerChainID uint64, peer ethcommon.Address) (*router.Registry, error) {
	r := router.NewRegistry(simOwner, simBus)
	if err := r.SetDefaultTokenFee(simOwner, ctx.Uint64(simTokenFeeFlag.Name)); err != nil {
		return nil, err
	}
	if err := r.SetSupportedRouters(simOwner, []ethcommon.Address{simDex}, true); err != nil {
		return nil, err
	}
	if err := r.SetPeer(simOwner, peerChainID, peer); err != nil {
		return nil, err
	}
	if fee := ctx.Uint64(simIntegratorFeeFlag.Name); fee > 0 {
		err := r.SetIntegratorInfo(simOwner, simIntegrator, &tokens.IntegratorInfo{
			IsIntegrator:       true,
			TokenFee:           fee,
			PlatformTokenShare: tokens.FeeDecimals / 2,
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func simulate(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	amount := big.NewInt(1000000)
	if amountStr := ctx.String(amountFlag.Name); amountStr != "" {
		var err error
		if amount, err = common.GetBigIntFromStr(amountStr); err != nil {
			return err
		}
	}

	srcRegistry, err := newSimRegistry(ctx, simDstChainID, simDst)
	if err != nil {
		return err
	}
	dstRegistry, err := newSimRegistry(ctx, simSrcChainID, simSrc)
	if err != nil {
		return err
	}

	relay := worker.NewRelay(simBus, &params.RelayConfig{Enable: true}, nil)
	src := settle.NewContract(&settle.Options{
		ChainID:          simSrcChainID,
		Address:          simSrc,
		TransportAccount: simSrcTrans,
		WrappedNative:    simWETH,
	}, srcRegistry, &settle.Capabilities{Transport: relay})
	dst := settle.NewContract(&settle.Options{
		ChainID:          simDstChainID,
		Address:          simDst,
		TransportAccount: simDstTrans,
		WrappedNative:    simWETH,
	}, dstRegistry, &settle.Capabilities{
		Dexes: map[ethcommon.Address]tokens.IDexRouter{
			simDex: &fixedRateDex{numerator: 2, denominator: 1, fail: ctx.Bool(simFailSwapFlag.Name)},
		},
	})
	relay.AddDestination(dst)

	settled := make(chan *tokens.SettlementOutcome, 1)
	relay.OnSettled = func(outcome *tokens.SettlementOutcome) { settled <- outcome }
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(runCtx)

	instr := tokens.DestinationInstructions{
		Version: tokens.BridgeOnly,
		Path:    []ethcommon.Address{simUSDC},
	}
	if ctx.Bool(simSwapFlag.Name) {
		instr = tokens.DestinationInstructions{
			Dex:       simDex,
			Version:   tokens.SwapV2,
			Path:      []ethcommon.Address{simUSDC, simWETH},
			Deadline:  uint64(time.Now().Add(time.Hour).Unix()),
			NativeOut: true,
		}
	}
	if ctx.Uint64(simIntegratorFeeFlag.Name) > 0 {
		instr.Integrator = simIntegrator
	}

	if err = src.Deposit(simUSDC, simUser, amount); err != nil {
		return err
	}
	requestID, err := src.TransferWithSwap(context.Background(), &settle.InitiateArgs{
		Caller:     simUser,
		Receiver:   simReceiver,
		AmountIn:   amount,
		DstChainID: simDstChainID,
		SrcSwap:    tokens.SourceSwapRequest{Version: tokens.SwapV2, Path: []ethcommon.Address{simUSDC}},
		DstSwap:    instr,
	})
	if err != nil {
		return err
	}
	log.Info("simulate request sent", "requestID", requestID.Hex(), "nonce", src.Nonce())

	var outcome *tokens.SettlementOutcome
	select {
	case outcome = <-settled:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("wait settlement of %v timeout", requestID.Hex())
	}

	jsdata, err := json.MarshalIndent(map[string]interface{}{
		"outcome":   outcome,
		"feeLedger": dst.FeeLedger(),
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsdata))
	return nil
}
