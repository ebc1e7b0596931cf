package dashboard

import (
	"fmt"
	"math/big"
)

const shareKey = "share"

// addBalanceShares fills each row's share of the summed pool balance.
// Rows with an unreadable balance count as zero.
func addBalanceShares(rows []Row) {
	balances := make([]*big.Int, len(rows))
	total := new(big.Int)
	for i, row := range rows {
		balance, ok := new(big.Int).SetString(row["balance"], 10)
		if !ok {
			balance = new(big.Int)
		}
		balances[i] = balance
		total.Add(total, balance)
	}

	if total.Sign() == 0 {
		for _, row := range rows {
			row[shareKey] = "0.00%"
		}
		return
	}

	for i, row := range rows {
		share := new(big.Float).Quo(
			new(big.Float).SetInt(new(big.Int).Mul(balances[i], big.NewInt(100))),
			new(big.Float).SetInt(total),
		)
		percent, _ := share.Float64()
		row[shareKey] = fmt.Sprintf("%.2f%%", percent)
	}
}
