package main

import (
	"fmt"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/metrics"
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/anyswap/CrossChain-Settlement/settle"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/worker"
)

// node hosts the primary contract and in process peer contracts
// connected by the loopback relay
type node struct {
	primary   *settle.Contract
	contracts []*settle.Contract
	relay     *worker.Relay
}

func newChainContract(cfg *params.Config, transport tokens.ITransport) (*settle.Contract, error) {
	registry, err := router.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("chain %v: %w", cfg.ChainID, err)
	}
	contract := settle.NewContract(&settle.Options{
		ChainID:          cfg.ChainID,
		Address:          cfg.GetContractAddress(),
		TransportAccount: cfg.GetTransportAccount(),
		WrappedNative:    cfg.GetWrappedNative(),
	}, registry, &settle.Capabilities{Transport: transport})
	contract.SetEventSink(tokens.EventSinks{
		metrics.EventSink{},
		mongodb.NewEventSink(contract),
	})
	return contract, nil
}

func newNode(config *params.Config, peerConfigs []*params.Config) (*node, error) {
	relay := worker.NewRelay(config.GetMessageBus(), config.Relay, nil)
	n := &node{relay: relay}
	chainIDs := make(map[uint64]struct{}, len(peerConfigs)+1)
	for _, cfg := range append([]*params.Config{config}, peerConfigs...) {
		if _, exist := chainIDs[cfg.ChainID]; exist {
			return nil, fmt.Errorf("duplicate hosted chain id %v", cfg.ChainID)
		}
		chainIDs[cfg.ChainID] = struct{}{}
		if cfg.GetMessageBus() != config.GetMessageBus() {
			return nil, fmt.Errorf("chain %v: message bus %v differs from the relay identity %v",
				cfg.ChainID, cfg.MessageBus, config.MessageBus)
		}
		contract, err := newChainContract(cfg, relay)
		if err != nil {
			return nil, err
		}
		relay.AddDestination(contract)
		n.contracts = append(n.contracts, contract)
		log.Info("host settlement contract", "contract", contract)
	}
	n.primary = n.contracts[0]
	return n, nil
}

func (n *node) restoreState() error {
	if !mongodb.IsEnabled() {
		return nil
	}
	for _, contract := range n.contracts {
		nonce, ledger, settled, err := mongodb.LoadContractState(contract.ChainID())
		if err != nil {
			return fmt.Errorf("load state of chain %v: %w", contract.ChainID(), err)
		}
		contract.RestoreState(nonce, ledger, settled)
		balances, err := mongodb.LoadContractBalances(contract.ChainID())
		if err != nil {
			return fmt.Errorf("load balances of chain %v: %w", contract.ChainID(), err)
		}
		contract.RestoreBalances(balances)
	}
	return nil
}

// applyConfig re-applies the owner managed tables of the primary contract
func (n *node) applyConfig(cfg *params.Config) {
	registry := n.primary.Registry()
	if err := registry.ApplyConfig(registry.Owner(), cfg); err != nil {
		log.Warn("apply reloaded config failed", "chainID", cfg.ChainID, "err", err)
		return
	}
	log.Info("apply reloaded config success", "chainID", cfg.ChainID)
}
