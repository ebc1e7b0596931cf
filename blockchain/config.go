package blockchain

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexandrut83/alerimpool/clarity"
)

// Network is the tier a dashboard session talks to.
type Network string

const (
	// Mainnet is the production chain
	Mainnet Network = "mainnet"

	// Testnet is the public test chain
	Testnet Network = "testnet"

	// Mocknet is a local development node
	Mocknet Network = "mocknet"
)

const (
	// AddressVersionMainnet is the single-sig address version on mainnet ("SP")
	AddressVersionMainnet byte = 22

	// AddressVersionTestnet is the single-sig address version on testnet and mocknet ("ST")
	AddressVersionTestnet byte = 26

	// DefaultTimeout bounds a single node request
	DefaultTimeout = 30 * time.Second
)

// ParseNetwork maps a configured network name onto a tier. "devnet",
// "local" and "mocknet" all select the local tier.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "mocknet", "devnet", "local":
		return Mocknet, nil
	}
	return "", fmt.Errorf("unknown network %q", name)
}

// NetworkParams holds the chain constants of a tier.
type NetworkParams struct {
	APIURL         string
	TxVersion      byte
	ChainID        uint32
	AddressVersion byte
}

// DefaultParams are the well-known endpoints and constants per tier.
var DefaultParams = map[Network]NetworkParams{
	Mainnet: {
		APIURL:         "https://stacks-node-api.mainnet.stacks.co",
		TxVersion:      0x00,
		ChainID:        0x00000001,
		AddressVersion: AddressVersionMainnet,
	},
	Testnet: {
		APIURL:         "https://stacks-node-api.testnet.stacks.co",
		TxVersion:      0x80,
		ChainID:        0x80000000,
		AddressVersion: AddressVersionTestnet,
	},
	Mocknet: {
		APIURL:         "http://localhost:3999",
		TxVersion:      0x80,
		ChainID:        0x80000000,
		AddressVersion: AddressVersionTestnet,
	},
}

// ContractMapping locates the deployed pool contract on a tier.
type ContractMapping struct {
	ContractAddress string
	ContractName    string
	// Owner is the sender used for read-only calls when nobody is signed in.
	// Empty defaults to ContractAddress.
	Owner string
}

// ID returns the fully qualified contract identifier.
func (m ContractMapping) ID() string {
	return m.ContractAddress + "." + m.ContractName
}

// Config is the process-wide network configuration. It is built once at
// start and never modified.
type Config struct {
	network  Network
	params   NetworkParams
	contract ContractMapping
	timeout  time.Duration
}

// NewConfig validates and freezes the configuration for one tier.
// An empty params.APIURL falls back to DefaultParams.
func NewConfig(network Network, params NetworkParams, contract ContractMapping, timeout time.Duration) (*Config, error) {
	def, ok := DefaultParams[network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", network)
	}
	if params.APIURL == "" {
		params.APIURL = def.APIURL
	}
	if params.AddressVersion == 0 {
		params.TxVersion = def.TxVersion
		params.ChainID = def.ChainID
		params.AddressVersion = def.AddressVersion
	}
	params.APIURL = strings.TrimRight(params.APIURL, "/")
	if _, _, err := clarity.ParseC32Address(contract.ContractAddress); err != nil {
		return nil, fmt.Errorf("contract address: %v", err)
	}
	if contract.ContractName == "" {
		return nil, fmt.Errorf("contract name is required")
	}
	if contract.Owner == "" {
		contract.Owner = contract.ContractAddress
	} else if _, _, err := clarity.ParseC32Address(contract.Owner); err != nil {
		return nil, fmt.Errorf("owner address: %v", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Config{network: network, params: params, contract: contract, timeout: timeout}, nil
}

// Network returns the configured tier.
func (c *Config) Network() Network { return c.network }

// Params returns the chain constants.
func (c *Config) Params() NetworkParams { return c.params }

// Contract returns the contract mapping.
func (c *Config) Contract() ContractMapping { return c.contract }

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration { return c.timeout }

// IsMainnet reports whether the configuration targets mainnet.
func (c *Config) IsMainnet() bool { return c.network == Mainnet }
