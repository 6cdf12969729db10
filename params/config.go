// Package params loads and checks the settlement node config.
package params

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// settle node constants
const (
	SettlePrefixID = "swapsettle"

	MongoDBPasswordEnv = "MONGODB_PASSWORD"
)

var (
	config     = &Config{}
	configLock sync.RWMutex
	locDataDir string
)

// Config settle node config
type Config struct {
	Identifier string

	ChainID          uint64
	ContractAddress  string
	Owner            string
	MessageBus       string
	TransportAccount string
	WrappedNative    string

	Fees             *FeesConfig
	Integrators      []*IntegratorConfig  `toml:",omitempty" json:",omitempty"`
	TokenBounds      []*TokenBoundsConfig `toml:",omitempty" json:",omitempty"`
	SupportedRouters []string             `toml:",omitempty" json:",omitempty"`
	Markets          []*MarketConfig      `toml:",omitempty" json:",omitempty"`
	Peers            []*PeerConfig        `toml:",omitempty" json:",omitempty"`

	MongoDB   *MongoDBConfig   `toml:",omitempty" json:",omitempty"`
	APIServer *APIServerConfig `toml:",omitempty" json:",omitempty"`
	Relay     *RelayConfig     `toml:",omitempty" json:",omitempty"`
}

// FeesConfig default fee tiers
type FeesConfig struct {
	DefaultTokenFee       uint64            // parts per million
	FixedCryptoFee        string            `toml:",omitempty" json:",omitempty"`
	FeeAmountOfBlockchain map[string]uint64 `toml:",omitempty" json:",omitempty"` // key is source chain ID
	CryptoFeeOfBlockchain map[string]string `toml:",omitempty" json:",omitempty"` // key is destination chain ID

	// cached values
	fixedCryptoFee *big.Int
	feeOfChain     map[uint64]uint64
	cryptoFeeOf    map[uint64]*big.Int
}

// IntegratorConfig integrator fee config
type IntegratorConfig struct {
	Address                  string
	IsIntegrator             bool
	TokenFee                 uint64
	PlatformTokenShare       uint64
	PlatformFixedCryptoShare uint64
	FixedCryptoFee           string `toml:",omitempty" json:",omitempty"`

	fixedCryptoFee *big.Int
}

// TokenBoundsConfig per token min and max amount
type TokenBoundsConfig struct {
	Token     string
	MinAmount string `toml:",omitempty" json:",omitempty"`
	MaxAmount string `toml:",omitempty" json:",omitempty"`

	min *big.Int
	max *big.Int
}

// MarketConfig nft marketplace registry entry
type MarketConfig struct {
	MarketID uint64
	Address  string
}

// PeerConfig settlement contract on another chain
type PeerConfig struct {
	ChainID  uint64
	Contract string
}

// APIServerConfig api service config
type APIServerConfig struct {
	Port           int
	AllowedOrigins []string
	MaxRequestsPer float64 `toml:",omitempty" json:",omitempty"` // per second, 0 is unlimited
}

// MongoDBConfig mongodb config
type MongoDBConfig struct {
	DBURL    string
	DBURLs   []string `toml:",omitempty" json:",omitempty"`
	DBName   string
	UserName string `json:"-"`
	Password string `json:"-"`
}

// RelayConfig loopback relay worker config
type RelayConfig struct {
	Enable          bool
	MaxRetries      int    `toml:",omitempty" json:",omitempty"`
	RetryInterval   uint64 `toml:",omitempty" json:",omitempty"` // milliseconds
	ReplayInterval  uint64 `toml:",omitempty" json:",omitempty"` // seconds
	QueueBufferSize int    `toml:",omitempty" json:",omitempty"`
}

// GetConfig get config
func GetConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	return config
}

// SetConfig set config
func SetConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	config = cfg
}

// GetIdentifier get identifier
func GetIdentifier() string {
	return GetConfig().Identifier
}

// GetChainID get own chain id
func GetChainID() uint64 {
	return GetConfig().ChainID
}

// LoadConfig load config, fatal on error
func LoadConfig(configFile string, check bool) *Config {
	if configFile == "" {
		log.Fatal("must specify config file")
	}
	log.Info("load settle config file", "configFile", configFile, "check", check)
	cfg, err := DecodeConfigFile(configFile, check)
	if err != nil {
		log.Fatalf("LoadConfig error: %v", err)
	}
	SetConfig(cfg)

	var bs []byte
	if log.JSONFormat {
		bs, _ = json.Marshal(cfg)
	} else {
		bs, _ = json.MarshalIndent(cfg, "", "  ")
	}
	log.Println("LoadConfig finished.", string(bs))
	return cfg
}

// DecodeConfigFile decode and optionally check config file
func DecodeConfigFile(configFile string, check bool) (*Config, error) {
	if !common.FileExist(configFile) {
		return nil, fmt.Errorf("config file '%v' not exist", configFile)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(configFile, cfg); err != nil {
		return nil, fmt.Errorf("toml DecodeFile: %w", err)
	}
	if check {
		if err := cfg.CheckConfig(); err != nil {
			return nil, fmt.Errorf("check config failed. %w", err)
		}
	}
	return cfg, nil
}

// SetDataDir set data dir
func SetDataDir(dir string) {
	if dir == "" {
		return
	}
	currDir, err := common.CurrentDir()
	if err != nil {
		log.Fatal("get current dir failed", "err", err)
	}
	locDataDir = common.AbsolutePath(currDir, dir)
	log.Info("set data dir success", "datadir", locDataDir)
}

// GetDataDir get data dir
func GetDataDir() string {
	return locDataDir
}

// GetFixedCryptoFee cached fixed crypto fee
func (c *FeesConfig) GetFixedCryptoFee() *big.Int {
	return c.fixedCryptoFee
}

// GetFeeAmountOfBlockchain cached per source chain token fees
func (c *FeesConfig) GetFeeAmountOfBlockchain() map[uint64]uint64 {
	return c.feeOfChain
}

// GetCryptoFeeOfBlockchain cached per destination chain crypto fees
func (c *FeesConfig) GetCryptoFeeOfBlockchain() map[uint64]*big.Int {
	return c.cryptoFeeOf
}

// GetFixedCryptoFee cached fixed crypto fee
func (c *IntegratorConfig) GetFixedCryptoFee() *big.Int {
	return c.fixedCryptoFee
}

// GetMin cached min amount
func (c *TokenBoundsConfig) GetMin() *big.Int {
	return c.min
}

// GetMax cached max amount
func (c *TokenBoundsConfig) GetMax() *big.Int {
	return c.max
}

// GetContractAddress own settlement contract
func (c *Config) GetContractAddress() ethcommon.Address {
	return ethcommon.HexToAddress(c.ContractAddress)
}

// GetOwner owner of the contract
func (c *Config) GetOwner() ethcommon.Address {
	return ethcommon.HexToAddress(c.Owner)
}

// GetMessageBus authenticated transport caller
func (c *Config) GetMessageBus() ethcommon.Address {
	return ethcommon.HexToAddress(c.MessageBus)
}

// GetTransportAccount custody account of the transport
func (c *Config) GetTransportAccount() ethcommon.Address {
	return ethcommon.HexToAddress(c.TransportAccount)
}

// GetWrappedNative wrapped native token
func (c *Config) GetWrappedNative() ethcommon.Address {
	return ethcommon.HexToAddress(c.WrappedNative)
}
