package router

import (
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
)

// NewRegistryFromConfig new registry with tables of a checked config
func NewRegistryFromConfig(cfg *params.Config) (*Registry, error) {
	owner := cfg.GetOwner()
	r := NewRegistry(owner, cfg.GetMessageBus())
	if err := r.ApplyConfig(owner, cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// ApplyConfig replaces the owner managed tables with those of a checked config
func (r *Registry) ApplyConfig(caller common.Address, cfg *params.Config) error {
	integrators := make(map[common.Address]*tokens.IntegratorInfo, len(cfg.Integrators))
	for _, c := range cfg.Integrators {
		info := c.ToIntegratorInfo()
		if err := info.CheckConfig(); err != nil {
			return err
		}
		integrators[common.HexToAddress(c.Address)] = info
	}

	bounds := make(map[common.Address]*tokens.TokenBounds, len(cfg.TokenBounds))
	for _, c := range cfg.TokenBounds {
		b := c.ToTokenBounds()
		if err := b.CheckConfig(); err != nil {
			return err
		}
		bounds[common.HexToAddress(c.Token)] = b
	}

	routers := mapset.NewSet()
	for _, dex := range cfg.SupportedRouters {
		routers.Add(common.HexToAddress(dex))
	}

	markets := make(map[uint64]common.Address, len(cfg.Markets))
	for _, m := range cfg.Markets {
		markets[m.MarketID] = common.HexToAddress(m.Address)
	}

	peers := make(map[uint64]common.Address, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers[p.ChainID] = common.HexToAddress(p.Contract)
	}

	fees := cfg.Fees
	if fees == nil {
		fees = &params.FeesConfig{}
	}
	fixedCryptoFee := new(big.Int)
	if fee := fees.GetFixedCryptoFee(); fee != nil {
		fixedCryptoFee.Set(fee)
	}
	feeOfChain := make(map[uint64]uint64, len(fees.GetFeeAmountOfBlockchain()))
	for cid, fee := range fees.GetFeeAmountOfBlockchain() {
		feeOfChain[cid] = fee
	}
	cryptoFeeOf := make(map[uint64]*big.Int, len(fees.GetCryptoFeeOfBlockchain()))
	for cid, fee := range fees.GetCryptoFeeOfBlockchain() {
		if fee != nil {
			cryptoFeeOf[cid] = new(big.Int).Set(fee)
		}
	}

	unlock, err := r.lockOwner(caller)
	if err != nil {
		return err
	}
	defer unlock()

	r.defaultTokenFee = fees.DefaultTokenFee
	r.fixedCryptoFee = fixedCryptoFee
	r.feeAmountOfBlockchain = feeOfChain
	r.cryptoFeeOfBlockchain = cryptoFeeOf
	r.integrators = integrators
	r.tokenBounds = bounds
	r.supportedRouters = routers
	r.markets = markets
	r.peers = peers

	log.Info("apply registry config success", "integrators", len(integrators),
		"tokenBounds", len(bounds), "routers", routers.Cardinality(),
		"markets", len(markets), "peers", len(peers))
	return nil
}
