package worker

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/anyswap/CrossChain-Settlement/metrics"
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tools/retry"
	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

var (
	errUnknownDestination = errors.New("unknown destination chain")
	errRelayQueueFull     = errors.New("relay queue is full")
	errAlreadyInQueue     = errors.New("request is already in relay queue")
)

// Destination the receiving side of the loopback relay
type Destination interface {
	ChainID() uint64
	TransportAccount() common.Address
	IsSettled(id common.Hash) bool
	Deposit(token, account common.Address, amount *big.Int) error
	ExecuteMessageWithTransfer(ctx context.Context, caller common.Address, d *settle.Delivery) (*tokens.SettlementOutcome, error)
}

type relayTask struct {
	id     string
	packet *tokens.TransferPacket
}

// Relay loopback transport delivering packets to in process destinations
// with at-least-once semantics
type Relay struct {
	messageBus   common.Address
	destinations map[uint64]Destination
	queue        chan *relayTask
	inQueue      mapset.Set // of request id
	funded       mapset.Set // of request id, funds deposited on destination
	config       *params.RelayConfig
	clock        clockwork.Clock

	// OnSettled is called after each successful delivery
	OnSettled func(outcome *tokens.SettlementOutcome)
}

// NewRelay new relay, messageBus is the caller identity on destinations
func NewRelay(messageBus common.Address, config *params.RelayConfig, clock clockwork.Clock) *Relay {
	if config == nil {
		config = &params.RelayConfig{}
	}
	config.CheckConfig()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relay{
		messageBus:   messageBus,
		destinations: make(map[uint64]Destination),
		queue:        make(chan *relayTask, config.QueueBufferSize),
		inQueue:      mapset.NewSet(),
		funded:       mapset.NewSet(),
		config:       config,
		clock:        clock,
	}
}

// AddDestination register destination, not safe after Run
func (r *Relay) AddDestination(dst Destination) {
	r.destinations[dst.ChainID()] = dst
}

// SendMessageWithTransfer impl tokens.ITransport
func (r *Relay) SendMessageWithTransfer(_ context.Context, packet *tokens.TransferPacket) error {
	if _, exist := r.destinations[packet.DstChainID]; !exist {
		return fmt.Errorf("%w: %v", errUnknownDestination, packet.DstChainID)
	}
	if err := r.enqueue(packet); err != nil {
		return err
	}
	if mongodb.IsEnabled() {
		_ = mongodb.AddRequestSent(mongodb.ConvertFromPacket(packet))
	}
	return nil
}

// Redeliver enqueue a packet again, used by the replay job
func (r *Relay) Redeliver(packet *tokens.TransferPacket) error {
	if _, exist := r.destinations[packet.DstChainID]; !exist {
		return fmt.Errorf("%w: %v", errUnknownDestination, packet.DstChainID)
	}
	return r.enqueue(packet)
}

func (r *Relay) enqueue(packet *tokens.TransferPacket) error {
	key := packet.RequestID.Hex()
	if !r.inQueue.Add(key) {
		return errAlreadyInQueue
	}
	task := &relayTask{id: uuid.New(), packet: packet}
	select {
	case r.queue <- task:
		metrics.RelayQueueLength.Inc()
		logWorkerTrace("relay", "enqueue packet", "packetID", task.id, "requestID", key, "dstChainID", packet.DstChainID)
		return nil
	default:
		r.inQueue.Remove(key)
		return errRelayQueueFull
	}
}

// Run consume the queue until ctx is done
func (r *Relay) Run(ctx context.Context) {
	logWorker("relay", "start loopback relay", "queueSize", cap(r.queue), "maxRetries", r.config.MaxRetries)
	for {
		select {
		case <-ctx.Done():
			logWorker("relay", "stop loopback relay")
			return
		case task := <-r.queue:
			metrics.RelayQueueLength.Dec()
			r.inQueue.Remove(task.packet.RequestID.Hex())
			r.process(ctx, task)
		}
	}
}

// Pending number of packets waiting in queue
func (r *Relay) Pending() int {
	return len(r.queue)
}

func (r *Relay) process(ctx context.Context, task *relayTask) {
	packet := task.packet
	key := packet.RequestID.Hex()
	logCtx := []interface{}{"packetID", task.id, "requestID", key, "srcChainID", packet.SrcChainID, "dstChainID", packet.DstChainID, "nonce", packet.Nonce}

	if mongodb.IsEnabled() {
		_ = mongodb.UpdateRequestStatus(key, mongodb.Delivering, "")
	}

	start := r.clock.Now()
	outcome, err := r.deliver(ctx, task)
	metrics.RelayDeliveryDuration.Observe(r.clock.Since(start).Seconds())

	chainLabel := fmt.Sprintf("%v", packet.DstChainID)
	status := mongodb.GetRequestStatusByDeliveryError(err)
	if err != nil {
		metrics.RelayDeliveriesTotal.WithLabelValues(chainLabel, "failed").Inc()
		logWorkerError("relay", "deliver packet failed", err, append(logCtx, "status", status)...)
		if mongodb.IsEnabled() {
			_ = mongodb.UpdateRequestStatus(key, status, err.Error())
		}
		return
	}
	metrics.RelayDeliveriesTotal.WithLabelValues(chainLabel, "success").Inc()
	logWorker("relay", "deliver packet success", append(logCtx, "branch", outcome.Branch, "replayed", outcome.Replayed)...)
	if mongodb.IsEnabled() {
		_ = mongodb.UpdateRequestStatus(key, mongodb.Settled, "")
	}
	if r.OnSettled != nil {
		r.OnSettled(outcome)
	}
}

func (r *Relay) deliver(ctx context.Context, task *relayTask) (outcome *tokens.SettlementOutcome, err error) {
	packet := task.packet
	dst, exist := r.destinations[packet.DstChainID]
	if !exist {
		return nil, errUnknownDestination
	}
	key := packet.RequestID.Hex()

	opts := retry.Options{
		RetryAfter:  time.Duration(r.config.RetryInterval) * time.Millisecond,
		MaxAttempts: r.config.MaxRetries,
		Clock:       r.clock,
		OnRetry: func(attempt int, err error) {
			logWorkerWarn("relay", "retry deliver packet", "packetID", task.id, "requestID", key, "attempt", attempt, "err", err)
		},
	}
	err = retry.Do(ctx, opts, func() error {
		if !r.funded.Contains(key) && !dst.IsSettled(packet.RequestID) {
			if errf := dst.Deposit(packet.Token, dst.TransportAccount(), packet.Amount); errf != nil {
				return errf
			}
			r.funded.Add(key)
		}
		var errf error
		outcome, errf = dst.ExecuteMessageWithTransfer(ctx, r.messageBus, deliveryOf(packet, r.messageBus))
		if errf == nil {
			return nil
		}
		if isPermanentDeliveryError(errf) {
			return errf
		}
		return retry.Retryable(errf)
	})
	return outcome, err
}

func isPermanentDeliveryError(err error) bool {
	return tokens.NeedManualIntervention(err) ||
		tokens.IsUserCorrectableError(err) ||
		errors.Is(err, tokens.ErrUnauthorized)
}

func deliveryOf(packet *tokens.TransferPacket, executor common.Address) *settle.Delivery {
	return &settle.Delivery{
		SourceSender: packet.Sender,
		Token:        packet.Token,
		Amount:       packet.Amount,
		SrcChainID:   packet.SrcChainID,
		Message:      packet.Message,
		Executor:     executor,
	}
}
