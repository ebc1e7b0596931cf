package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexandrut83/alerimpool/clarity"
)

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "status [address]",
			Short: "Show the pool membership of an address, default the signed-in user",
			Args:  cobra.MaximumNArgs(1),
			RunE:  statusCmdFunc,
		},
		&cobra.Command{
			Use:   "notifier",
			Short: "Show the notifier and its election",
			Args:  cobra.NoArgs,
			RunE:  notifierCmdFunc,
		},
		&cobra.Command{
			Use:   "remaining-blocks",
			Short: "Show the blocks left until waiting miners may join",
			Args:  cobra.NoArgs,
			RunE:  remainingBlocksCmdFunc,
		},
		&cobra.Command{
			Use:   "block-claimed [height]",
			Short: "Check whether the reward of a block was claimed",
			Args:  cobra.ExactArgs(1),
			RunE:  blockClaimedCmdFunc,
		},
		&cobra.Command{
			Use:   "balance [address]",
			Short: "Show the pool balance of a miner",
			Args:  cobra.ExactArgs(1),
			RunE:  balanceCmdFunc,
		},
		&cobra.Command{
			Use:   "call [function] [args...]",
			Short: "Call any read-only function of the contract",
			Long: `Call any read-only function of the contract and print its result as JSON.
Arguments: u12 (uint), 12 or -3 (int), true, false, none, 0xbeef (buffer),
'SP... or SP... (principal), "text" (string-ascii), u"text" (string-utf8).`,
			Args: cobra.MinimumNArgs(1),
			RunE: callCmdFunc,
		},
	)
}

func statusCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var address string
	if len(args) > 0 {
		address = args[0]
	} else if a.d.Session().IsUserSignedIn() {
		if address, err = a.d.Sender(); err != nil {
			return err
		}
	}
	if address == "" {
		return fmt.Errorf("no address given and no user signed in")
	}
	status, err := a.d.AddressStatus(ctx, address)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", address, statusColor(status)("%s", status))
	return nil
}

func notifierCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	notifier, err := a.d.Notifier(ctx)
	if err != nil {
		return err
	}
	k, err := a.d.K(ctx)
	if err != nil {
		return err
	}
	election, err := a.d.NotifierElection(ctx)
	if err != nil {
		return err
	}
	leader, err := a.d.MaxVotedNotifier(ctx)
	if err != nil {
		return err
	}
	votes, err := a.d.MaxVotesNotifier(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Notifier:\t%s\n", notifier)
	fmt.Fprintf(out, "K:\t%d\n", k)
	fmt.Fprintf(out, "Vote open:\t%t\n", election.VoteStatus)
	fmt.Fprintf(out, "Blocks left:\t%d\n", election.BlocksRemaining)
	if leader != "" {
		fmt.Fprintf(out, "Leading:\t%s (%d votes)\n", leader, votes)
	}
	return nil
}

func remainingBlocksCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	blocks, err := a.d.RemainingBlocksUntilJoin(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), blocks)
	return nil
}

func blockClaimedCmdFunc(cmd *cobra.Command, args []string) error {
	height, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block height %q", args[0])
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	claimed, err := a.d.WasBlockClaimed(ctx, height)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), claimed)
	return nil
}

func balanceCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	balance, err := a.d.Balance(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), balance)
	return nil
}

// parseArgs converts command line arguments into contract values.
func parseArgs(args []string) ([]clarity.Value, error) {
	values := make([]clarity.Value, len(args))
	for i, arg := range args {
		value, err := clarity.ParseArg(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %v", i+1, err)
		}
		values[i] = value
	}
	return values, nil
}

func callCmdFunc(cmd *cobra.Command, args []string) error {
	values, err := parseArgs(args[1:])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := a.d.ReadOnly(ctx, args[0], values...)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), clarity.ToJSON(result))
}
