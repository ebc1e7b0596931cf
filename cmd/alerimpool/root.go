package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/config"
	"github.com/alexandrut83/alerimpool/log"
	"github.com/alexandrut83/alerimpool/pool"
	"github.com/alexandrut83/alerimpool/wallet"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  = log.NewLogger("cmd")
)

// rootCmd is the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alerimpool",
	Short: "Mining pool contract dashboard",
	Long: `alerimpool reads the state of the mining pool contract on a Stacks
node and renders it as tables, either on the command line or as a web
dashboard.`,
	Example: `
1. serve the web dashboard
  ./alerimpool serve --listen :8080
2. list the miners in the pool
  ./alerimpool miners
3. show your membership status
  ./alerimpool status
4. call any read-only function
  ./alerimpool call get-balance "'SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7"`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ~/.alerimpool/config.yaml)")

	flags.StringP("network", "n", "testnet", "network tier [mainnet|testnet|mocknet]")
	v.BindPFlag("network", flags.Lookup("network"))

	flags.String("log-level", "info", "log level [debug|info|warn|error]")
	v.BindPFlag("log.level", flags.Lookup("log-level"))

	flags.String("log-backend", log.BackendLogrus, "log backend [logrus|zap]")
	v.BindPFlag("log.backend", flags.Lookup("log-backend"))

	flags.Int("batch-size", pool.DefaultBatchSize, "principals per data call, 1 fetches one by one")
	v.BindPFlag("fetch.batch_size", flags.Lookup("batch-size"))

	flags.String("policy", pool.BestEffort.String(), "batch failure policy [best-effort|fail-fast]")
	v.BindPFlag("fetch.policy", flags.Lookup("policy"))

	flags.Int("concurrency", 1, "data calls in flight")
	v.BindPFlag("fetch.concurrency", flags.Lookup("concurrency"))

	flags.Duration("timeout", blockchain.DefaultTimeout, "node request timeout")
	v.BindPFlag("timeout", flags.Lookup("timeout"))
}

// initConfig reads in the config file and ENV variables if set.
func initConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := log.Setup(c.Log); err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debugf("Using config file: %s", used)
	}
	cfg = c
	return nil
}

// app bundles everything a command needs to talk to the contract.
type app struct {
	chain   *blockchain.Config
	client  *blockchain.Client
	d       *pool.Dispatcher
	fetcher *pool.Fetcher
}

func newApp() (*app, error) {
	chain, err := cfg.Chain()
	if err != nil {
		return nil, err
	}
	client := blockchain.NewClient(chain, nil)
	session, err := openSession(chain, client)
	if err != nil {
		return nil, err
	}
	policy, err := pool.ParsePolicy(cfg.Fetch.Policy)
	if err != nil {
		return nil, err
	}
	d := pool.NewDispatcher(chain, client, session, pool.WithCache(cfg.Cache.TTL))
	fetcher := pool.NewFetcher(d, pool.FetchOptions{
		BatchSize:   cfg.Fetch.BatchSize,
		Policy:      policy,
		Concurrency: cfg.Fetch.Concurrency,
	})
	return &app{chain: chain, client: client, d: d, fetcher: fetcher}, nil
}

// openSession unlocks the configured keystore when its passphrase is set in
// the environment. Otherwise the session is anonymous.
func openSession(chain *blockchain.Config, client *blockchain.Client) (wallet.Session, error) {
	p := os.Getenv(cfg.Wallet.PassphraseEnv)
	if p == "" {
		return wallet.AnonymousSession{}, nil
	}
	if _, err := os.Stat(cfg.Wallet.Keystore); os.IsNotExist(err) {
		logger.Warnf("%s is set but keystore %s does not exist", cfg.Wallet.PassphraseEnv, cfg.Wallet.Keystore)
		return wallet.AnonymousSession{}, nil
	}
	key, err := keystore().Unlock(p)
	if err != nil {
		return nil, fmt.Errorf("unlock keystore %s: %v", cfg.Wallet.Keystore, err)
	}
	return wallet.NewKeySession(key, client, chain.Params(), cfg.Tx.Fee), nil
}

// commandContext bounds a one-shot command.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 5*time.Minute)
}
