package settle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/abicoder"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeOnlySkipsSwap(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	id, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	require.NoError(t, err)
	require.Len(t, env.transport.packets, 1)
	packet := env.transport.packets[0]
	assert.Equal(t, id, packet.RequestID)
	assert.Equal(t, dstContract, packet.Receiver)
	assert.Equal(t, uint64(1), env.src.Nonce())
	requireBalance(t, env.src, usdc, user, 0)
	requireBalance(t, env.src, usdc, srcTransport, 1000)

	outcome, err := env.relay(t)
	require.NoError(t, err)
	assert.Equal(t, id, outcome.RequestID)
	assert.Equal(t, tokens.BranchBridgeOnly, outcome.Branch)
	assert.Equal(t, usdc, outcome.Token)
	assert.Equal(t, int64(997), outcome.FinalAmount.Int64())
	assert.Equal(t, int64(3), outcome.PlatformFee.Int64())
	assert.Equal(t, int64(0), outcome.IntegratorFee.Int64())
	assert.Equal(t, 0, env.dex.calls)

	requireBalance(t, env.dst, usdc, receiver, 997)
	requireBalance(t, env.dst, usdc, dstContract, 3)
	assert.Equal(t, int64(3), env.dst.CollectedFee(usdc, tokens.PlatformBeneficiary).Int64())
	assert.True(t, env.dst.IsSettled(id))

	assert.Equal(t, []string{tokens.RequestSentEventName}, env.srcSink.names())
	assert.Equal(t, []string{tokens.RequestSettledEventName}, env.dstSink.names())
}

func TestIntegratorFeeSplit(t *testing.T) {
	env := newTestEnv(t)
	info := &tokens.IntegratorInfo{IsIntegrator: true, TokenFee: 3000, PlatformTokenShare: 500000}
	require.NoError(t, env.registries[1].SetIntegratorInfo(owner, integrator, info))
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	instr := bridgeOnlyInstructions(usdc)
	instr.Integrator = integrator
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, instr))
	require.NoError(t, err)

	outcome, err := env.relay(t)
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.PlatformFee.Int64())
	assert.Equal(t, int64(2), outcome.IntegratorFee.Int64())
	assert.Equal(t, int64(997), outcome.NetAmount.Int64())
	assert.Equal(t, int64(1), env.dst.CollectedFee(usdc, tokens.PlatformBeneficiary).Int64())
	assert.Equal(t, int64(2), env.dst.CollectedFee(usdc, integrator).Int64())
}

func TestSwapFailedPaysBridgingToken(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	// unreachable minimum
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, swapInstructions(1000000)))
	require.NoError(t, err)

	outcome, err := env.relay(t)
	require.NoError(t, err)
	assert.Equal(t, tokens.BranchSwapFailed, outcome.Branch)
	assert.Equal(t, usdc, outcome.Token)
	assert.Equal(t, int64(997), outcome.FinalAmount.Int64())
	assert.Equal(t, 1, env.dex.calls)

	requireBalance(t, env.dst, usdc, receiver, 997)
	requireBalance(t, env.dst, weth, receiver, 0)
	requireBalance(t, env.dst, weth, dstContract, 0)
	assert.Equal(t, int64(3), env.dst.CollectedFee(usdc, tokens.PlatformBeneficiary).Int64())
}

func TestSwapFailureCausesFallback(t *testing.T) {
	cases := map[string]func(env *testEnv, instr *tokens.DestinationInstructions){
		"dex error": func(env *testEnv, _ *tokens.DestinationInstructions) { env.dex.fail = errDexDown },
		"deadline": func(_ *testEnv, instr *tokens.DestinationInstructions) {
			instr.Deadline = uint64(testNow.Unix()) - 1
		},
		"unsupported dex": func(env *testEnv, _ *tokens.DestinationInstructions) {
			_ = env.registries[1].SetSupportedRouters(owner, []common.Address{dexAddr}, false)
		},
		"wrong first token": func(_ *testEnv, instr *tokens.DestinationInstructions) {
			instr.Path = []common.Address{weth, usdc}
		},
	}
	for name, setup := range cases {
		env := newTestEnv(t)
		require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
		instr := swapInstructions(1)
		setup(env, &instr)
		_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, instr))
		require.NoError(t, err, name)

		outcome, err := env.relay(t)
		require.NoError(t, err, name)
		if outcome.Branch != tokens.BranchSwapFailed {
			t.Fatalf("%v expected branch %v, but %v got", name, tokens.BranchSwapFailed, outcome.Branch)
		}
		requireBalance(t, env.dst, usdc, receiver, 997)
	}
}

func TestDestinationSwapNativeOut(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	instr := swapInstructions(1900)
	instr.NativeOut = true
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, instr))
	require.NoError(t, err)

	outcome, err := env.relay(t)
	require.NoError(t, err)
	assert.Equal(t, tokens.BranchSwapSucceeded, outcome.Branch)
	assert.Equal(t, tokens.NativeToken, outcome.Token)
	assert.Equal(t, int64(1994), outcome.FinalAmount.Int64())
	requireBalance(t, env.dst, tokens.NativeToken, receiver, 1994)
	requireBalance(t, env.dst, usdc, receiver, 0)
	requireBalance(t, env.dst, usdc, dstContract, 3)
}

func TestAmountTooSmallConsumesNoNonce(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registries[0].SetMinTokenAmount(owner, usdc, big.NewInt(2000)))
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	if !errors.Is(err, tokens.ErrAmountTooSmall) {
		t.Fatalf("initiate expected %v, but %v got", tokens.ErrAmountTooSmall, err)
	}
	assert.Equal(t, uint64(0), env.src.Nonce())
	requireBalance(t, env.src, usdc, user, 1000)
	requireBalance(t, env.src, usdc, srcTransport, 0)
	assert.Empty(t, env.transport.packets)
	assert.Empty(t, env.srcSink.names())
}

func TestNonceHasNoGaps(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(10000)))
	require.NoError(t, env.registries[0].SetMaxTokenAmount(owner, usdc, big.NewInt(5000)))

	amounts := []int64{1000, 6000, 1000, 1000}
	for _, amount := range amounts {
		_, _ = env.src.TransferWithSwap(context.Background(), bridgeArgs(amount, bridgeOnlyInstructions(usdc)))
	}
	require.Len(t, env.transport.packets, 3)
	for i, packet := range env.transport.packets {
		if packet.Nonce != uint64(i) {
			t.Fatalf("packet %v expected nonce %v, but %v got", i, i, packet.Nonce)
		}
	}
	assert.Equal(t, uint64(3), env.src.Nonce())
}

func TestInsufficientValue(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registries[0].SetCryptoFeeOfBlockchain(owner, dstChainID, big.NewInt(100)))
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	require.NoError(t, env.src.Deposit(tokens.NativeToken, user, big.NewInt(1000)))

	args := bridgeArgs(1000, bridgeOnlyInstructions(usdc))
	args.Value = big.NewInt(99)
	_, err := env.src.TransferWithSwap(context.Background(), args)
	if !errors.Is(err, tokens.ErrInsufficientValue) {
		t.Fatalf("initiate expected %v, but %v got", tokens.ErrInsufficientValue, err)
	}
	requireBalance(t, env.src, tokens.NativeToken, user, 1000)
	requireBalance(t, env.src, usdc, user, 1000)
}

func TestCryptoFeeCollectedAndExcessRefunded(t *testing.T) {
	env := newTestEnv(t)
	r := env.registries[0]
	require.NoError(t, r.SetCryptoFeeOfBlockchain(owner, dstChainID, big.NewInt(100)))
	require.NoError(t, r.SetIntegratorInfo(owner, integrator, &tokens.IntegratorInfo{
		IsIntegrator:             true,
		TokenFee:                 3000,
		PlatformTokenShare:       500000,
		PlatformFixedCryptoShare: 250000,
		FixedCryptoFee:           big.NewInt(40),
	}))
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	require.NoError(t, env.src.Deposit(tokens.NativeToken, user, big.NewInt(1000)))

	instr := bridgeOnlyInstructions(usdc)
	instr.Integrator = integrator
	args := bridgeArgs(1000, instr)
	args.Value = big.NewInt(200)
	_, err := env.src.TransferWithSwap(context.Background(), args)
	require.NoError(t, err)

	// 100 transport fee, 10 platform, 30 integrator, 60 refunded
	requireBalance(t, env.src, tokens.NativeToken, user, 860)
	requireBalance(t, env.src, tokens.NativeToken, srcTransport, 100)
	requireBalance(t, env.src, tokens.NativeToken, srcContract, 40)
	assert.Equal(t, int64(10), env.src.CollectedFee(tokens.NativeToken, tokens.PlatformBeneficiary).Int64())
	assert.Equal(t, int64(30), env.src.CollectedFee(tokens.NativeToken, integrator).Int64())
	assert.Equal(t, int64(100), env.transport.packets[0].Fee.Int64())
}

func TestTransferWithSwapNative(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(tokens.NativeToken, user, big.NewInt(5000)))

	args := bridgeArgs(1000, swapInstructions(1))
	args.SrcSwap = tokens.SourceSwapRequest{
		Dex:              dexAddr,
		Version:          tokens.SwapV2,
		Path:             []common.Address{weth, usdc},
		Deadline:         uint64(testNow.Unix()) + 60,
		AmountOutMinimum: big.NewInt(1500),
	}
	args.Value = big.NewInt(1000)
	_, err := env.src.TransferWithSwapNative(context.Background(), args)
	require.NoError(t, err)

	requireBalance(t, env.src, tokens.NativeToken, user, 4000)
	requireBalance(t, env.src, weth, srcContract, 0)
	requireBalance(t, env.src, usdc, srcTransport, 2000)
	packet := env.transport.packets[0]
	assert.Equal(t, usdc, packet.Token)
	assert.Equal(t, int64(2000), packet.Amount.Int64())

	ev, ok := env.srcSink.events[0].(*tokens.RequestSentEvent)
	require.True(t, ok)
	assert.Equal(t, weth, ev.SrcToken)
	assert.Equal(t, usdc, ev.BridgingToken)
	assert.Equal(t, int64(2000), ev.BridgedAmount.Int64())
}

func TestSourceSwapErrors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	args := bridgeArgs(1000, bridgeOnlyInstructions(weth))
	args.SrcSwap = tokens.SourceSwapRequest{
		Dex:              dexAddr,
		Version:          tokens.SwapV2,
		Path:             []common.Address{usdc, weth},
		Deadline:         uint64(testNow.Unix()) + 60,
		AmountOutMinimum: big.NewInt(5000),
	}
	_, err := env.src.TransferWithSwap(context.Background(), args)
	if !errors.Is(err, tokens.ErrSwapFailed) {
		t.Fatalf("under delivery expected %v, but %v got", tokens.ErrSwapFailed, err)
	}

	args.SrcSwap.Dex = common.HexToAddress("0xbad")
	_, err = env.src.TransferWithSwap(context.Background(), args)
	if !errors.Is(err, tokens.ErrRouterNotSupported) {
		t.Fatalf("unknown dex expected %v, but %v got", tokens.ErrRouterNotSupported, err)
	}
	requireBalance(t, env.src, usdc, user, 1000)
	assert.Equal(t, uint64(0), env.src.Nonce())
}

func TestTransportFailureReverts(t *testing.T) {
	env := newTestEnv(t)
	env.transport.fail = errors.New("bus offline")
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	if !errors.Is(err, tokens.ErrTransportFailed) {
		t.Fatalf("initiate expected %v, but %v got", tokens.ErrTransportFailed, err)
	}
	requireBalance(t, env.src, usdc, user, 1000)
	requireBalance(t, env.src, usdc, srcTransport, 0)
	assert.Equal(t, uint64(0), env.src.Nonce())
	assert.Empty(t, env.srcSink.names())
}

func TestInitiateRejectsBadArgs(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))

	sameChain := bridgeArgs(1000, bridgeOnlyInstructions(usdc))
	sameChain.DstChainID = srcChainID
	zeroAmount := bridgeArgs(0, bridgeOnlyInstructions(usdc))
	badInstr := bridgeArgs(1000, tokens.DestinationInstructions{Version: tokens.SwapV2, Path: []common.Address{usdc}})

	cases := []struct {
		args *InitiateArgs
		want error
	}{
		{sameChain, tokens.ErrSameChain},
		{zeroAmount, tokens.ErrInvalidAmount},
		{badInstr, tokens.ErrInvalidInstructions},
	}
	for i, tc := range cases {
		_, err := env.src.TransferWithSwap(context.Background(), tc.args)
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %v expected %v, but %v got", i, tc.want, err)
		}
	}
}

func TestExecuteRejectsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	require.NoError(t, err)
	packet := env.transport.packets[0]
	require.NoError(t, env.dst.Deposit(usdc, dstTransport, packet.Amount))

	_, err = env.dst.ExecuteMessageWithTransfer(context.Background(), user, deliveryOf(packet))
	if !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("wrong caller expected %v, but %v got", tokens.ErrUnauthorized, err)
	}

	forged := deliveryOf(packet)
	forged.SourceSender = user
	_, err = env.dst.ExecuteMessageWithTransfer(context.Background(), bus, forged)
	if !errors.Is(err, tokens.ErrUnauthorized) {
		t.Fatalf("wrong source sender expected %v, but %v got", tokens.ErrUnauthorized, err)
	}
	requireBalance(t, env.dst, usdc, dstTransport, 1000)
	assert.Empty(t, env.dstSink.names())
}

func TestExecuteMalformedMessage(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.dst.Deposit(usdc, dstTransport, big.NewInt(1000)))

	delivery := &Delivery{
		SourceSender: srcContract,
		Token:        usdc,
		Amount:       big.NewInt(1000),
		SrcChainID:   srcChainID,
		Message:      []byte{0x01, 0x02},
	}
	_, err := env.dst.ExecuteMessageWithTransfer(context.Background(), bus, delivery)
	if !errors.Is(err, tokens.ErrMalformedMessage) {
		t.Fatalf("garbage expected %v, but %v got", tokens.ErrMalformedMessage, err)
	}

	instr := bridgeOnlyInstructions(usdc)
	instr.Receiver = receiver
	delivery.Message, err = abicoder.EncodeMessage(&instr, 0, 137)
	require.NoError(t, err)
	_, err = env.dst.ExecuteMessageWithTransfer(context.Background(), bus, delivery)
	if !errors.Is(err, tokens.ErrMalformedMessage) {
		t.Fatalf("wrong chain expected %v, but %v got", tokens.ErrMalformedMessage, err)
	}
	requireBalance(t, env.dst, usdc, dstTransport, 1000)
}

func TestExecuteBridgeTokenMismatch(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(weth)))
	require.NoError(t, err)

	_, err = env.relay(t)
	if !errors.Is(err, tokens.ErrBridgeTokenMismatch) {
		t.Fatalf("execute expected %v, but %v got", tokens.ErrBridgeTokenMismatch, err)
	}
	requireBalance(t, env.dst, usdc, dstTransport, 1000)
	assert.Equal(t, int64(0), env.dst.CollectedFee(usdc, tokens.PlatformBeneficiary).Int64())
	assert.True(t, tokens.NeedManualIntervention(err))
}

func TestReplayIsNoop(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	require.NoError(t, err)

	first, err := env.relay(t)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := env.dst.ExecuteMessageWithTransfer(context.Background(), bus, deliveryOf(env.transport.packets[0]))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, 0, first.FinalAmount.Cmp(second.FinalAmount))

	requireBalance(t, env.dst, usdc, receiver, 997)
	assert.Equal(t, int64(3), env.dst.CollectedFee(usdc, tokens.PlatformBeneficiary).Int64())
	assert.Len(t, env.dstSink.names(), 1)
	assert.False(t, env.dst.GetSettlement(first.RequestID).Replayed)
}

func nftInstructions(value int64) tokens.DestinationInstructions {
	instr := tokens.DestinationInstructions{
		Dex:              dexAddr,
		Version:          tokens.SwapV2,
		Path:             []common.Address{usdc, weth},
		Deadline:         uint64(testNow.Unix()) + 600,
		AmountOutMinimum: big.NewInt(1),
	}
	instr.NFT = tokens.NFTPurchaseInfo{
		MarketID: 3,
		Value:    big.NewInt(value),
		Data:     []byte{0x01},
	}
	return instr
}

func TestNFTPurchase(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, nftInstructions(1500)))
	require.NoError(t, err)

	outcome, err := env.relay(t)
	require.NoError(t, err)
	assert.Equal(t, tokens.BranchSwapSucceeded, outcome.Branch)
	require.Len(t, env.market.purchases, 1)
	assert.Equal(t, int64(1500), env.market.purchases[0].Int64())
	assert.Equal(t, receiver, env.market.receivers[0])

	// 997 swapped to 1994, 1500 spent, 494 left
	requireBalance(t, env.dst, tokens.NativeToken, marketAddr, 1500)
	requireBalance(t, env.dst, tokens.NativeToken, receiver, 494)
	assert.Equal(t, int64(494), outcome.FinalAmount.Int64())
	assert.Equal(t, []string{tokens.NFTPurchasedEventName, tokens.RequestSettledEventName}, env.dstSink.names())
}

func TestNFTPurchaseFallback(t *testing.T) {
	cases := map[string]func(env *testEnv, instr *tokens.DestinationInstructions){
		"market error":   func(env *testEnv, _ *tokens.DestinationInstructions) { env.market.fail = errors.New("sold out") },
		"unknown market": func(_ *testEnv, instr *tokens.DestinationInstructions) { instr.NFT.MarketID = 99 },
		"value too high": func(_ *testEnv, instr *tokens.DestinationInstructions) { instr.NFT.Value = big.NewInt(5000) },
	}
	for name, setup := range cases {
		env := newTestEnv(t)
		require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
		instr := nftInstructions(1500)
		setup(env, &instr)
		_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, instr))
		require.NoError(t, err, name)

		outcome, err := env.relay(t)
		require.NoError(t, err, name)
		if outcome.Branch != tokens.BranchSwapFailed {
			t.Fatalf("%v expected branch %v, but %v got", name, tokens.BranchSwapFailed, outcome.Branch)
		}
		requireBalance(t, env.dst, usdc, receiver, 997)
		requireBalance(t, env.dst, tokens.NativeToken, marketAddr, 0)
		requireBalance(t, env.dst, weth, dstContract, 0)
		assert.Equal(t, []string{tokens.RequestSettledEventName}, env.dstSink.names(), name)
	}
}

func TestReentrantDexCallbackRejected(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, swapInstructions(1)))
	require.NoError(t, err)

	var reentryErr error
	env.dex.onSwap = func(ctx context.Context) {
		packet := env.transport.packets[0]
		_, reentryErr = env.dst.ExecuteMessageWithTransfer(ctx, bus, deliveryOf(packet))
	}
	outcome, err := env.relay(t)
	require.NoError(t, err)
	if !errors.Is(reentryErr, tokens.ErrReentrantCall) {
		t.Fatalf("reentrant call expected %v, but %v got", tokens.ErrReentrantCall, reentryErr)
	}
	assert.Equal(t, tokens.BranchSwapSucceeded, outcome.Branch)
	requireBalance(t, env.dst, weth, receiver, 1994)
}

func TestReentryWithoutMarkedContextRejected(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, swapInstructions(1)))
	require.NoError(t, err)

	var executeErr, depositErr, withdrawErr error
	env.dex.onSwap = func(context.Context) {
		packet := env.transport.packets[0]
		_, executeErr = env.dst.ExecuteMessageWithTransfer(context.Background(), bus, deliveryOf(packet))
		depositErr = env.dst.Deposit(usdc, user, big.NewInt(1))
		withdrawErr = env.dst.Withdraw(usdc, dstContract, big.NewInt(1))
	}

	packet := env.transport.packets[0]
	require.NoError(t, env.dst.Deposit(packet.Token, dstTransport, packet.Amount))
	done := make(chan struct{})
	var outcome *tokens.SettlementOutcome
	go func() {
		defer close(done)
		outcome, err = env.dst.ExecuteMessageWithTransfer(context.Background(), bus, deliveryOf(packet))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reentry from dex callback blocked the contract")
	}

	require.NoError(t, err)
	assert.ErrorIs(t, executeErr, tokens.ErrReentrantCall)
	assert.ErrorIs(t, depositErr, tokens.ErrReentrantCall)
	assert.ErrorIs(t, withdrawErr, tokens.ErrReentrantCall)
	assert.Equal(t, tokens.BranchSwapSucceeded, outcome.Branch)
	requireBalance(t, env.dst, weth, receiver, 1994)
	requireBalance(t, env.dst, usdc, user, 0)

	// the guard is lowered once the call returns
	require.NoError(t, env.dst.Deposit(usdc, user, big.NewInt(1)))
}

func TestCommitNotifiesSinkAndBalancesRestore(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.src.Deposit(usdc, user, big.NewInt(1000)))
	assert.Equal(t, 1, env.srcSink.commitCount())

	err := env.src.Withdraw(usdc, user, big.NewInt(1001))
	assert.ErrorIs(t, err, tokens.ErrInsufficientBalance)
	assert.Equal(t, 1, env.srcSink.commitCount())

	_, err = env.src.TransferWithSwap(context.Background(), bridgeArgs(1000, bridgeOnlyInstructions(usdc)))
	require.NoError(t, err)
	assert.Equal(t, 2, env.srcSink.commitCount())

	_, err = env.relay(t)
	require.NoError(t, err)
	balances := env.dst.Balances()
	require.NotEmpty(t, balances)

	restarted := newTestEnv(t)
	restarted.dst.RestoreBalances(balances)
	requireBalance(t, restarted.dst, usdc, receiver, 997)
	requireBalance(t, restarted.dst, usdc, dstContract, 3)
	requireBalance(t, restarted.dst, usdc, dstTransport, 0)
}

func TestCalcFeeIsPure(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.dst.CalcFee(common.Address{}, srcChainID, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalFee.Int64())
	assert.Empty(t, env.dst.FeeLedger())
}
