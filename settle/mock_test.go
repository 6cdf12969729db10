package settle

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	srcChainID uint64 = 1
	dstChainID uint64 = 56
)

var (
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	bus        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	user       = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	receiver   = common.HexToAddress("0x00000000000000000000000000000000000000Ee")
	integrator = common.HexToAddress("0x0000000000000000000000000000000000001234")
	usdc       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	weth       = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	dexAddr    = common.HexToAddress("0x000000000000000000000000000000000000dE11")
	marketAddr = common.HexToAddress("0x000000000000000000000000000000000000aa01")

	srcContract  = common.HexToAddress("0x0000000000000000000000000000000000c0de01")
	dstContract  = common.HexToAddress("0x0000000000000000000000000000000000c0de56")
	srcTransport = common.HexToAddress("0x0000000000000000000000000000000000007701")
	dstTransport = common.HexToAddress("0x0000000000000000000000000000000000007756")

	testNow = time.Unix(1700000000, 0)
)

var errDexDown = errors.New("dex is down")

// mockDex swaps at a fixed ratio of numerator/1000
type mockDex struct {
	numerator int64
	fail      error
	calls     int
	onSwap    func(ctx context.Context)
}

func (d *mockDex) SwapExactIn(ctx context.Context, route *tokens.SwapRoute) (*big.Int, error) {
	d.calls++
	if d.onSwap != nil {
		d.onSwap(ctx)
	}
	if d.fail != nil {
		return nil, d.fail
	}
	out := new(big.Int).Mul(route.AmountIn, big.NewInt(d.numerator))
	return out.Div(out, big.NewInt(1000)), nil
}

type mockMarket struct {
	fail      error
	purchases []*big.Int
	receivers []common.Address
}

func (m *mockMarket) Purchase(_ context.Context, value *big.Int, _ []byte, to common.Address) error {
	if m.fail != nil {
		return m.fail
	}
	m.purchases = append(m.purchases, value)
	m.receivers = append(m.receivers, to)
	return nil
}

type mockTransport struct {
	fail    error
	packets []*tokens.TransferPacket
}

func (m *mockTransport) SendMessageWithTransfer(_ context.Context, packet *tokens.TransferPacket) error {
	if m.fail != nil {
		return m.fail
	}
	m.packets = append(m.packets, packet)
	return nil
}

type recordSink struct {
	lock    sync.Mutex
	events  []tokens.Event
	commits int
}

func (s *recordSink) OnCommit() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.commits++
}

func (s *recordSink) commitCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.commits
}

func (s *recordSink) HandleEvent(ev tokens.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) names() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	names := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		names = append(names, ev.EventName())
	}
	return names
}

type testEnv struct {
	src, dst   *Contract
	dex        *mockDex
	market     *mockMarket
	transport  *mockTransport
	srcSink    *recordSink
	dstSink    *recordSink
	registries [2]*router.Registry
}

func newRegistry(t *testing.T, peerChain uint64, peer common.Address) *router.Registry {
	r := router.NewRegistry(owner, bus)
	require.NoError(t, r.SetDefaultTokenFee(owner, 3000))
	require.NoError(t, r.SetSupportedRouters(owner, []common.Address{dexAddr}, true))
	require.NoError(t, r.SetMPRegistry(owner, 3, marketAddr))
	require.NoError(t, r.SetPeer(owner, peerChain, peer))
	return r
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		dex:       &mockDex{numerator: 2000},
		market:    &mockMarket{},
		transport: &mockTransport{},
		srcSink:   &recordSink{},
		dstSink:   &recordSink{},
	}
	clock := clockwork.NewFakeClockAt(testNow)
	caps := func() *Capabilities {
		return &Capabilities{
			Dexes:     map[common.Address]tokens.IDexRouter{dexAddr: env.dex},
			Markets:   map[common.Address]tokens.INFTMarket{marketAddr: env.market},
			Transport: env.transport,
		}
	}
	env.registries[0] = newRegistry(t, dstChainID, dstContract)
	env.registries[1] = newRegistry(t, srcChainID, srcContract)
	env.src = NewContract(&Options{
		ChainID:          srcChainID,
		Address:          srcContract,
		TransportAccount: srcTransport,
		WrappedNative:    weth,
		Clock:            clock,
		Sink:             env.srcSink,
	}, env.registries[0], caps())
	env.dst = NewContract(&Options{
		ChainID:          dstChainID,
		Address:          dstContract,
		TransportAccount: dstTransport,
		WrappedNative:    weth,
		Clock:            clock,
		Sink:             env.dstSink,
	}, env.registries[1], caps())
	return env
}

func bridgeOnlyInstructions(token common.Address) tokens.DestinationInstructions {
	return tokens.DestinationInstructions{
		Version: tokens.BridgeOnly,
		Path:    []common.Address{token},
	}
}

func swapInstructions(minOut int64) tokens.DestinationInstructions {
	return tokens.DestinationInstructions{
		Dex:              dexAddr,
		Version:          tokens.SwapV2,
		Path:             []common.Address{usdc, weth},
		Deadline:         uint64(testNow.Unix()) + 600,
		AmountOutMinimum: big.NewInt(minOut),
	}
}

func bridgeArgs(amount int64, dst tokens.DestinationInstructions) *InitiateArgs {
	return &InitiateArgs{
		Caller:     user,
		Receiver:   receiver,
		AmountIn:   big.NewInt(amount),
		DstChainID: dstChainID,
		SrcSwap: tokens.SourceSwapRequest{
			Version: tokens.SwapV2,
			Path:    []common.Address{usdc},
		},
		DstSwap:   dst,
		GasBudget: 300000,
	}
}

// relay delivers the last sent packet to the destination contract
func (env *testEnv) relay(t *testing.T) (*tokens.SettlementOutcome, error) {
	require.NotEmpty(t, env.transport.packets)
	packet := env.transport.packets[len(env.transport.packets)-1]
	require.NoError(t, env.dst.Deposit(packet.Token, dstTransport, packet.Amount))
	return env.dst.ExecuteMessageWithTransfer(context.Background(), bus, deliveryOf(packet))
}

func deliveryOf(packet *tokens.TransferPacket) *Delivery {
	return &Delivery{
		SourceSender: packet.Sender,
		Token:        packet.Token,
		Amount:       packet.Amount,
		SrcChainID:   packet.SrcChainID,
		Message:      packet.Message,
		Executor:     bus,
	}
}

func requireBalance(t *testing.T, c *Contract, token, account common.Address, want int64) {
	t.Helper()
	got := c.BalanceOf(token, account)
	require.Equal(t, 0, got.Cmp(big.NewInt(want)), "balance of %v token %v expected %v, but %v got", account.Hex(), token.Hex(), want, got)
}
