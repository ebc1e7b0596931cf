package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/wallet"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage the encrypted signing key",
	Long: `Manage the encrypted signing key. The passphrase is read from the
environment variable named by wallet.passphrase_env (ALERIMPOOL_PASSPHRASE
by default).`,
}

func init() {
	rootCmd.AddCommand(keystoreCmd)
	keystoreCmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Generate a new key",
			Args:  cobra.NoArgs,
			RunE:  keystoreCreateCmdFunc,
		},
		&cobra.Command{
			Use:   "import [privatekey]",
			Short: "Import a hex encoded private key",
			Args:  cobra.ExactArgs(1),
			RunE:  keystoreImportCmdFunc,
		},
		&cobra.Command{
			Use:   "address",
			Short: "Show the addresses of the stored key",
			Args:  cobra.NoArgs,
			RunE:  keystoreAddressCmdFunc,
		},
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "propose-removal [address]",
		Short: "Propose the removal of a miner from the pool",
		Args:  cobra.ExactArgs(1),
		RunE:  proposeRemovalCmdFunc,
	})
}

func passphrase() (string, error) {
	p := os.Getenv(cfg.Wallet.PassphraseEnv)
	if p == "" {
		return "", fmt.Errorf("set %s to the keystore passphrase", cfg.Wallet.PassphraseEnv)
	}
	return p, nil
}

func keystore() *wallet.Keystore {
	return &wallet.Keystore{Path: cfg.Wallet.Keystore}
}

func printAddresses(cmd *cobra.Command, key *btcec.PrivateKey) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mainnet:\t%s\n", blockchain.AddressFromPublicKey(blockchain.AddressVersionMainnet, key.PubKey()))
	fmt.Fprintf(out, "testnet:\t%s\n", blockchain.AddressFromPublicKey(blockchain.AddressVersionTestnet, key.PubKey()))
}

func keystoreCreateCmdFunc(cmd *cobra.Command, args []string) error {
	p, err := passphrase()
	if err != nil {
		return err
	}
	ks := keystore()
	if _, err := os.Stat(ks.Path); err == nil {
		return fmt.Errorf("keystore %s already exists", ks.Path)
	}
	key, err := ks.Create(p)
	if err != nil {
		return err
	}
	logger.Infof("Created keystore %s", ks.Path)
	printAddresses(cmd, key)
	return nil
}

func keystoreImportCmdFunc(cmd *cobra.Command, args []string) error {
	p, err := passphrase()
	if err != nil {
		return err
	}
	ks := keystore()
	key, err := ks.Import(args[0], p)
	if err != nil {
		return err
	}
	logger.Infof("Imported key into %s", ks.Path)
	printAddresses(cmd, key)
	return nil
}

// keystoreAddressCmdFunc prints both addresses when the key can be
// unlocked, otherwise the testnet address stored beside it.
func keystoreAddressCmdFunc(cmd *cobra.Command, args []string) error {
	ks := keystore()
	if p, err := passphrase(); err == nil {
		key, err := ks.Unlock(p)
		if err != nil {
			return err
		}
		printAddresses(cmd, key)
		return nil
	}
	addr, err := ks.Address()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "testnet:\t%s\n", addr)
	return nil
}

func proposeRemovalCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	txid, err := a.d.ProposeRemoval(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), txid)
	return nil
}
