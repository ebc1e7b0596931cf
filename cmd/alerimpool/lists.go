package main

import (
	"github.com/spf13/cobra"

	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/dashboard"
)

var listJSON bool

func init() {
	for _, table := range dashboard.Tables {
		table := table
		cmd := &cobra.Command{
			Use:   table.Name,
			Short: "List " + table.Title,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listCmdFunc(cmd, table)
			},
		}
		cmd.Flags().BoolVar(&listJSON, "json", false, "print the raw records as JSON")
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "pool-data",
		Short: "Print get-miners-list as JSON",
		Args:  cobra.NoArgs,
		RunE:  poolDataCmdFunc,
	})
}

func listCmdFunc(cmd *cobra.Command, table dashboard.Table) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := a.fetcher.Fetch(ctx, table.Query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if listJSON {
		items := make([]interface{}, len(res.Items))
		for i, item := range res.Items {
			items[i] = clarity.ToJSON(item)
		}
		if err := writeJSON(out, items); err != nil {
			return err
		}
	} else {
		rows := dashboard.BuildRows(res.Items)
		if table.Decorate != nil {
			table.Decorate(rows)
		}
		if err := writeTable(out, table, rows); err != nil {
			return err
		}
	}
	writeFailures(cmd.ErrOrStderr(), res.Failures)
	return nil
}

func poolDataCmdFunc(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	data, err := a.d.MinersList(ctx)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), data)
}
