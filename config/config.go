package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/log"
)

// EnvPrefix prefixes every environment override, e.g. ALERIMPOOL_NETWORK.
const EnvPrefix = "alerimpool"

// DevnetDeployer is the well-known deployer of a local development chain.
const DevnetDeployer = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

// Config is the dashboard configuration, read from a YAML file, the
// environment and command line flags.
type Config struct {
	Network  string                   `mapstructure:"network" yaml:"network"`
	Timeout  time.Duration            `mapstructure:"timeout" yaml:"timeout"`
	Networks map[string]NetworkConfig `mapstructure:"networks" yaml:"networks"`
	Fetch    FetchConfig              `mapstructure:"fetch" yaml:"fetch"`
	Cache    CacheConfig              `mapstructure:"cache" yaml:"cache"`
	Wallet   WalletConfig             `mapstructure:"wallet" yaml:"wallet"`
	Tx       TxConfig                 `mapstructure:"tx" yaml:"tx"`
	Server   ServerConfig             `mapstructure:"server" yaml:"server"`
	Log      log.Config               `mapstructure:"log" yaml:"log"`
}

// NetworkConfig overrides the node endpoint and contract location of a tier.
type NetworkConfig struct {
	APIURL          string `mapstructure:"api_url" yaml:"api_url"`
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`
	ContractName    string `mapstructure:"contract_name" yaml:"contract_name"`
	Owner           string `mapstructure:"owner" yaml:"owner"`
}

// FetchConfig tunes the list fetchers.
type FetchConfig struct {
	BatchSize   int    `mapstructure:"batch_size" yaml:"batch_size"`
	Policy      string `mapstructure:"policy" yaml:"policy"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// CacheConfig controls the read-only result cache. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// WalletConfig locates the signing key.
type WalletConfig struct {
	Keystore      string `mapstructure:"keystore" yaml:"keystore"`
	PassphraseEnv string `mapstructure:"passphrase_env" yaml:"passphrase_env"`
}

// TxConfig holds transaction parameters.
type TxConfig struct {
	Fee uint64 `mapstructure:"fee" yaml:"fee"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	Token           string        `mapstructure:"token" yaml:"token"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Dir returns the default configuration directory, ~/.alerimpool.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".alerimpool"), nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	dir, err := Dir()
	if err != nil {
		dir = ".alerimpool"
	}
	v.SetDefault("network", string(blockchain.Testnet))
	v.SetDefault("timeout", blockchain.DefaultTimeout)
	v.SetDefault("networks.mocknet.contract_address", DevnetDeployer)
	v.SetDefault("networks.mocknet.owner", DevnetDeployer)
	for _, n := range []blockchain.Network{blockchain.Mainnet, blockchain.Testnet, blockchain.Mocknet} {
		v.SetDefault("networks."+string(n)+".api_url", blockchain.DefaultParams[n].APIURL)
		v.SetDefault("networks."+string(n)+".contract_name", "mining-pool")
	}
	v.SetDefault("fetch.batch_size", 100)
	v.SetDefault("fetch.policy", "best-effort")
	v.SetDefault("fetch.concurrency", 1)
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("wallet.keystore", filepath.Join(dir, "keystore.json"))
	v.SetDefault("wallet.passphrase_env", "ALERIMPOOL_PASSPHRASE")
	v.SetDefault("tx.fee", 2000)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.refresh_interval", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.backend", log.BackendLogrus)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration into v. An empty path looks for
// config.yaml in the default directory; a missing default file is not an
// error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

// Chain builds the immutable network configuration of the selected tier.
func (c *Config) Chain() (*blockchain.Config, error) {
	network, err := blockchain.ParseNetwork(c.Network)
	if err != nil {
		return nil, err
	}
	nc := c.Networks[string(network)]
	return blockchain.NewConfig(network,
		blockchain.NetworkParams{APIURL: nc.APIURL},
		blockchain.ContractMapping{
			ContractAddress: nc.ContractAddress,
			ContractName:    nc.ContractName,
			Owner:           nc.Owner,
		},
		c.Timeout)
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Config) String() string {
	return fmt.Sprintf("network: %s, listen: %s, batch: %d", c.Network, c.Server.Listen, c.Fetch.BatchSize)
}
