package worker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner        = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	bus          = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	user         = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	receiver     = common.HexToAddress("0x00000000000000000000000000000000000000Ee")
	usdc         = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	weth         = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	srcContract  = common.HexToAddress("0x0000000000000000000000000000000000c0de01")
	dstContract  = common.HexToAddress("0x0000000000000000000000000000000000c0de56")
	srcTransport = common.HexToAddress("0x0000000000000000000000000000000000007701")
	dstTransport = common.HexToAddress("0x0000000000000000000000000000000000007756")
)

// flakyDestination fails the first failures deliveries with a transient error
type flakyDestination struct {
	*settle.Contract
	lock     sync.Mutex
	failures int
	calls    int
}

func (d *flakyDestination) ExecuteMessageWithTransfer(ctx context.Context, caller common.Address, delivery *settle.Delivery) (*tokens.SettlementOutcome, error) {
	d.lock.Lock()
	d.calls++
	fail := d.calls <= d.failures
	d.lock.Unlock()
	if fail {
		return nil, errors.New("destination node timeout")
	}
	return d.Contract.ExecuteMessageWithTransfer(ctx, caller, delivery)
}

// teeTransport records packets before handing them to next
type teeTransport struct {
	next    tokens.ITransport
	packets []*tokens.TransferPacket
}

func (tt *teeTransport) SendMessageWithTransfer(ctx context.Context, packet *tokens.TransferPacket) error {
	tt.packets = append(tt.packets, packet)
	return tt.next.SendMessageWithTransfer(ctx, packet)
}

func newContracts(t *testing.T, transport tokens.ITransport) (src, dst *settle.Contract) {
	srcRegistry := router.NewRegistry(owner, bus)
	require.NoError(t, srcRegistry.SetPeer(owner, 56, dstContract))
	dstRegistry := router.NewRegistry(owner, bus)
	require.NoError(t, dstRegistry.SetDefaultTokenFee(owner, 3000))
	require.NoError(t, dstRegistry.SetPeer(owner, 1, srcContract))

	src = settle.NewContract(&settle.Options{
		ChainID:          1,
		Address:          srcContract,
		TransportAccount: srcTransport,
		WrappedNative:    weth,
	}, srcRegistry, &settle.Capabilities{Transport: transport})
	dst = settle.NewContract(&settle.Options{
		ChainID:          56,
		Address:          dstContract,
		TransportAccount: dstTransport,
		WrappedNative:    weth,
	}, dstRegistry, nil)
	return src, dst
}

func initiate(t *testing.T, src *settle.Contract, amount int64) common.Hash {
	require.NoError(t, src.Deposit(usdc, user, big.NewInt(amount)))
	id, err := src.TransferWithSwap(context.Background(), &settle.InitiateArgs{
		Caller:     user,
		Receiver:   receiver,
		AmountIn:   big.NewInt(amount),
		DstChainID: 56,
		SrcSwap:    tokens.SourceSwapRequest{Version: tokens.SwapV2, Path: []common.Address{usdc}},
		DstSwap:    tokens.DestinationInstructions{Version: tokens.BridgeOnly, Path: []common.Address{usdc}},
	})
	require.NoError(t, err)
	return id
}

func runRelay(t *testing.T, relay *Relay) (settled chan *tokens.SettlementOutcome, stop func()) {
	settled = make(chan *tokens.SettlementOutcome, 10)
	relay.OnSettled = func(outcome *tokens.SettlementOutcome) { settled <- outcome }
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	return settled, func() {
		cancel()
		<-done
	}
}

func waitSettled(t *testing.T, settled chan *tokens.SettlementOutcome) *tokens.SettlementOutcome {
	select {
	case outcome := <-settled:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("wait settlement timeout")
	}
	return nil
}

func TestRelayDeliversPacket(t *testing.T) {
	relay := NewRelay(bus, &params.RelayConfig{RetryInterval: 1}, nil)
	src, dst := newContracts(t, relay)
	relay.AddDestination(dst)
	settled, stop := runRelay(t, relay)
	defer stop()

	id := initiate(t, src, 1000)
	outcome := waitSettled(t, settled)
	assert.Equal(t, id, outcome.RequestID)
	assert.Equal(t, tokens.BranchBridgeOnly, outcome.Branch)
	assert.True(t, dst.IsSettled(id))
	assert.Equal(t, int64(997), dst.BalanceOf(usdc, receiver).Int64())
	assert.Equal(t, int64(0), dst.BalanceOf(usdc, dstTransport).Int64())
}

func TestRelayRetriesTransientFailure(t *testing.T) {
	relay := NewRelay(bus, &params.RelayConfig{RetryInterval: 1, MaxRetries: 5}, nil)
	src, dst := newContracts(t, relay)
	flaky := &flakyDestination{Contract: dst, failures: 2}
	relay.AddDestination(flaky)
	settled, stop := runRelay(t, relay)
	defer stop()

	id := initiate(t, src, 1000)
	outcome := waitSettled(t, settled)
	assert.Equal(t, id, outcome.RequestID)
	assert.Equal(t, 3, flaky.calls)
	// funds deposited once in spite of retries
	assert.Equal(t, int64(997), dst.BalanceOf(usdc, receiver).Int64())
	assert.Equal(t, int64(3), dst.BalanceOf(usdc, dstContract).Int64())
}

func TestRelayRedeliveryIsHarmless(t *testing.T) {
	relay := NewRelay(bus, &params.RelayConfig{RetryInterval: 1}, nil)
	tee := &teeTransport{next: relay}
	src, dst := newContracts(t, tee)
	relay.AddDestination(dst)
	settled, stop := runRelay(t, relay)
	defer stop()

	id := initiate(t, src, 1000)
	first := waitSettled(t, settled)
	require.False(t, first.Replayed)

	require.Len(t, tee.packets, 1)
	require.NoError(t, relay.Redeliver(tee.packets[0]))
	second := waitSettled(t, settled)
	assert.Equal(t, id, second.RequestID)
	assert.True(t, second.Replayed)
	assert.Equal(t, int64(997), dst.BalanceOf(usdc, receiver).Int64())
	assert.Equal(t, int64(0), dst.BalanceOf(usdc, dstTransport).Int64())
}

func TestRelayRejectsUnknownDestination(t *testing.T) {
	relay := NewRelay(bus, nil, nil)
	src, _ := newContracts(t, relay)
	require.NoError(t, src.Deposit(usdc, user, big.NewInt(1000)))
	_, err := src.TransferWithSwap(context.Background(), &settle.InitiateArgs{
		Caller:     user,
		Receiver:   receiver,
		AmountIn:   big.NewInt(1000),
		DstChainID: 56,
		SrcSwap:    tokens.SourceSwapRequest{Version: tokens.SwapV2, Path: []common.Address{usdc}},
		DstSwap:    tokens.DestinationInstructions{Version: tokens.BridgeOnly, Path: []common.Address{usdc}},
	})
	if !errors.Is(err, tokens.ErrTransportFailed) {
		t.Fatalf("initiate expected %v, but %v got", tokens.ErrTransportFailed, err)
	}
	assert.Equal(t, uint64(0), src.Nonce())
	assert.Equal(t, int64(1000), src.BalanceOf(usdc, user).Int64())
}
