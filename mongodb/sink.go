package mongodb

import (
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/state"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/fee"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// StateReader contract state persisted along with events
type StateReader interface {
	ChainID() uint64
	Nonce() uint64
	FeeLedger() []*fee.LedgerEntry
	Balances() []*state.Balance
	GetSettlement(id ethcommon.Hash) *tokens.SettlementOutcome
}

// EventSink persists committed events of one contract
type EventSink struct {
	reader StateReader
}

// NewEventSink new event sink
func NewEventSink(reader StateReader) *EventSink {
	return &EventSink{reader: reader}
}

// HandleEvent impl tokens.IEventSink
func (s *EventSink) HandleEvent(ev tokens.Event) {
	if !IsEnabled() {
		return
	}
	chainID := s.reader.ChainID()
	switch e := ev.(type) {
	case *tokens.RequestSentEvent:
		_ = UpdateRequestSentInfo(e.RequestID.Hex(), e.Receiver.Hex(), e.Integrator.Hex(), e.SrcToken.Hex(), bigString(e.AmountIn))
		_ = UpdateNonce(chainID, s.reader.Nonce())
		s.storeFeeLedger(chainID)
	case *tokens.RequestSettledEvent:
		outcome := s.reader.GetSettlement(e.RequestID)
		_ = AddRequestSettled(ConvertFromSettledEvent(e, outcome))
		if outcome != nil {
			settled, err := ConvertToSettledRequest(chainID, outcome)
			if err == nil {
				err = AddSettledRequest(settled)
			}
			if err != nil {
				log.Warn("store settled request failed", "chainID", chainID, "requestID", e.RequestID.Hex(), "err", err)
			}
		}
		s.storeFeeLedger(chainID)
	}
}

// OnCommit impl tokens.ICommitListener, stores the custody snapshot
func (s *EventSink) OnCommit() {
	if !IsEnabled() {
		return
	}
	chainID := s.reader.ChainID()
	balances := ConvertFromBalances(chainID, s.reader.Balances())
	if err := UpsertBalances(balances); err != nil {
		log.Warn("store custody balances failed", "chainID", chainID, "err", err)
	}
}

func (s *EventSink) storeFeeLedger(chainID uint64) {
	entries := ConvertFromLedgerEntries(chainID, s.reader.FeeLedger())
	if err := UpsertFeeEntries(entries); err != nil {
		log.Warn("store fee ledger failed", "chainID", chainID, "err", err)
	}
}

// LoadContractState stored nonce, fee ledger and settled set of chain
func LoadContractState(chainID uint64) (nonce uint64, ledger []*fee.LedgerEntry, settled []*tokens.SettlementOutcome, err error) {
	nonce, err = FindNonce(chainID)
	if err != nil && !errors.Is(err, tokens.ErrNotFound) {
		return 0, nil, nil, err
	}
	feeEntries, err := LoadFeeEntries(chainID)
	if err != nil {
		return 0, nil, nil, err
	}
	if ledger, err = ConvertToLedgerEntries(feeEntries); err != nil {
		return 0, nil, nil, err
	}
	settledRequests, err := LoadSettledRequests(chainID)
	if err != nil {
		return 0, nil, nil, err
	}
	settled = make([]*tokens.SettlementOutcome, 0, len(settledRequests))
	for _, mr := range settledRequests {
		outcome, errf := ConvertFromSettledRequest(mr)
		if errf != nil {
			log.Warn("skip wrong settled request", "key", mr.Key, "err", errf)
			continue
		}
		settled = append(settled, outcome)
	}
	return nonce, ledger, settled, nil
}

// LoadContractBalances stored custody balances of chain
func LoadContractBalances(chainID uint64) ([]*state.Balance, error) {
	stored, err := LoadBalances(chainID)
	if err != nil {
		return nil, err
	}
	return ConvertToBalances(stored)
}
