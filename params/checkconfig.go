package params

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

func checkAddress(name, addr string, allowEmpty bool) error {
	if addr == "" {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("must config '%v'", name)
	}
	if !ethcommon.IsHexAddress(addr) {
		return fmt.Errorf("wrong address '%v' of '%v'", addr, name)
	}
	return nil
}

func parseBigOpt(name, str string) (*big.Int, error) {
	if str == "" {
		return nil, nil
	}
	value, err := common.GetBigIntFromStr(str)
	if err != nil {
		return nil, fmt.Errorf("wrong '%v' value '%v'. %w", name, str, err)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative '%v' value '%v'", name, str)
	}
	return value, nil
}

// CheckConfig check settle config
//
//nolint:gocyclo // ok
func (c *Config) CheckConfig() (err error) {
	if !strings.HasPrefix(c.Identifier, SettlePrefixID) {
		return fmt.Errorf("wrong identifier '%v', missing prefix '%v'", c.Identifier, SettlePrefixID)
	}
	if c.ChainID == 0 {
		return errors.New("must config nonzero 'ChainID'")
	}
	for name, addr := range map[string]string{
		"ContractAddress":  c.ContractAddress,
		"Owner":            c.Owner,
		"MessageBus":       c.MessageBus,
		"TransportAccount": c.TransportAccount,
		"WrappedNative":    c.WrappedNative,
	} {
		if err = checkAddress(name, addr, false); err != nil {
			return err
		}
	}
	log.Info("check identifier pass", "identifier", c.Identifier, "chainID", c.ChainID)

	if c.Fees == nil {
		c.Fees = &FeesConfig{}
	}
	if err = c.Fees.CheckConfig(); err != nil {
		return err
	}

	integrators := make(map[string]struct{}, len(c.Integrators))
	for _, integrator := range c.Integrators {
		if err = integrator.CheckConfig(); err != nil {
			return err
		}
		key := strings.ToLower(integrator.Address)
		if _, exist := integrators[key]; exist {
			return fmt.Errorf("duplicate integrator '%v'", integrator.Address)
		}
		integrators[key] = struct{}{}
	}

	bounds := make(map[string]struct{}, len(c.TokenBounds))
	for _, tb := range c.TokenBounds {
		if err = tb.CheckConfig(); err != nil {
			return err
		}
		key := strings.ToLower(tb.Token)
		if _, exist := bounds[key]; exist {
			return fmt.Errorf("duplicate token bounds '%v'", tb.Token)
		}
		bounds[key] = struct{}{}
	}

	for _, r := range c.SupportedRouters {
		if err = checkAddress("SupportedRouters", r, false); err != nil {
			return err
		}
	}

	markets := make(map[uint64]struct{}, len(c.Markets))
	for _, m := range c.Markets {
		if err = checkAddress("Markets.Address", m.Address, false); err != nil {
			return err
		}
		if _, exist := markets[m.MarketID]; exist {
			return fmt.Errorf("duplicate market id %v", m.MarketID)
		}
		markets[m.MarketID] = struct{}{}
	}

	for _, p := range c.Peers {
		if p.ChainID == 0 || p.ChainID == c.ChainID {
			return fmt.Errorf("wrong peer chain id %v", p.ChainID)
		}
		if err = checkAddress("Peers.Contract", p.Contract, false); err != nil {
			return err
		}
	}

	if c.APIServer != nil {
		if err = c.APIServer.CheckConfig(); err != nil {
			return err
		}
	}
	if c.MongoDB != nil {
		if err = c.MongoDB.CheckConfig(); err != nil {
			return err
		}
	}
	if c.Relay != nil {
		c.Relay.CheckConfig()
	}
	return nil
}

// CheckConfig check fees config
func (c *FeesConfig) CheckConfig() (err error) {
	if err = tokens.CheckFeeRate("DefaultTokenFee", c.DefaultTokenFee); err != nil {
		return err
	}
	if c.fixedCryptoFee, err = parseBigOpt("FixedCryptoFee", c.FixedCryptoFee); err != nil {
		return err
	}
	c.feeOfChain = make(map[uint64]uint64, len(c.FeeAmountOfBlockchain))
	for cid, fee := range c.FeeAmountOfBlockchain {
		chainID, errf := strconv.ParseUint(cid, 10, 64)
		if errf != nil {
			return fmt.Errorf("wrong chain id '%v' in 'FeeAmountOfBlockchain'", cid)
		}
		if err = tokens.CheckFeeRate("FeeAmountOfBlockchain", fee); err != nil {
			return err
		}
		c.feeOfChain[chainID] = fee
	}
	c.cryptoFeeOf = make(map[uint64]*big.Int, len(c.CryptoFeeOfBlockchain))
	for cid, feeStr := range c.CryptoFeeOfBlockchain {
		chainID, errf := strconv.ParseUint(cid, 10, 64)
		if errf != nil {
			return fmt.Errorf("wrong chain id '%v' in 'CryptoFeeOfBlockchain'", cid)
		}
		fee, errf := parseBigOpt("CryptoFeeOfBlockchain", feeStr)
		if errf != nil {
			return errf
		}
		c.cryptoFeeOf[chainID] = fee
	}
	return nil
}

// CheckConfig check integrator config
func (c *IntegratorConfig) CheckConfig() (err error) {
	if err = checkAddress("Integrators.Address", c.Address, false); err != nil {
		return err
	}
	if c.fixedCryptoFee, err = parseBigOpt("Integrators.FixedCryptoFee", c.FixedCryptoFee); err != nil {
		return err
	}
	return c.ToIntegratorInfo().CheckConfig()
}

// ToIntegratorInfo convert to domain type
func (c *IntegratorConfig) ToIntegratorInfo() *tokens.IntegratorInfo {
	return &tokens.IntegratorInfo{
		IsIntegrator:             c.IsIntegrator,
		TokenFee:                 c.TokenFee,
		PlatformTokenShare:       c.PlatformTokenShare,
		PlatformFixedCryptoShare: c.PlatformFixedCryptoShare,
		FixedCryptoFee:           c.fixedCryptoFee,
	}
}

// CheckConfig check token bounds config
func (c *TokenBoundsConfig) CheckConfig() (err error) {
	if err = checkAddress("TokenBounds.Token", c.Token, false); err != nil {
		return err
	}
	if c.min, err = parseBigOpt("TokenBounds.MinAmount", c.MinAmount); err != nil {
		return err
	}
	if c.max, err = parseBigOpt("TokenBounds.MaxAmount", c.MaxAmount); err != nil {
		return err
	}
	return c.ToTokenBounds().CheckConfig()
}

// ToTokenBounds convert to domain type
func (c *TokenBoundsConfig) ToTokenBounds() *tokens.TokenBounds {
	return &tokens.TokenBounds{Min: c.min, Max: c.max}
}

// CheckConfig check api server config
func (c *APIServerConfig) CheckConfig() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("wrong api server port %v", c.Port)
	}
	if c.MaxRequestsPer < 0 {
		return errors.New("negative api server 'MaxRequestsPer'")
	}
	return nil
}

// CheckConfig check mongodb config
func (c *MongoDBConfig) CheckConfig() error {
	if c.DBURL == "" && len(c.DBURLs) == 0 {
		return errors.New("mongodb must config 'DBURL' or 'DBURLs'")
	}
	if c.DBName == "" {
		return errors.New("mongodb must config 'DBName'")
	}
	return nil
}

// GetURLs all configured db urls
func (c *MongoDBConfig) GetURLs() []string {
	if len(c.DBURLs) > 0 {
		return c.DBURLs
	}
	return []string{c.DBURL}
}

// GetPassword configured password, or env MONGODB_PASSWORD if empty
func (c *MongoDBConfig) GetPassword() string {
	if c.Password != "" {
		return c.Password
	}
	return os.Getenv(MongoDBPasswordEnv)
}

// CheckConfig fill relay defaults
func (c *RelayConfig) CheckConfig() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 500
	}
	if c.ReplayInterval == 0 {
		c.ReplayInterval = 60
	}
	if c.QueueBufferSize <= 0 {
		c.QueueBufferSize = 1000
	}
}
