package dashboard

import (
	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/pool"
)

const addressKey = "address"

func column(key, label string) Column {
	align := "right"
	if key == addressKey {
		align = "left"
	}
	return Column{DataKey: key, Label: label, Align: align}
}

func actionColumn(action, label string) Column {
	return Column{DataKey: action, Label: label, Align: "right", Action: action}
}

// Tables is every table the dashboard renders.
var Tables = []Table{
	{
		Name:  pool.PoolMiners.Name,
		Title: "Miners in pool",
		Query: pool.PoolMiners,
		Columns: []Column{
			column(addressKey, "Address"),
			column("blocks-as-miner", "Blocks as miner"),
			column("was-blacklist", "Was blacklisted"),
			column("warnings", "Warnings"),
			column("balance", "Balance"),
			column("total-withdraw", "Total withdrawals"),
			actionColumn(ActionProposeRemoval, "Propose removal"),
			actionColumn(ActionInfo, "Info"),
		},
	},
	{
		Name:  pool.WaitingMiners.Name,
		Title: "Waiting miners",
		Query: pool.WaitingMiners,
		Columns: []Column{
			column(addressKey, "Address"),
			column("pos-votes", "Positive votes"),
			column("pos-thr", "Positive threshold"),
			column("neg-votes", "Negative votes"),
			column("neg-thr", "Negative threshold"),
			column("was-blacklist", "Was blacklisted"),
		},
	},
	{
		Name:  pool.RemovalMiners.Name,
		Title: "Proposed for removal",
		Query: pool.RemovalMiners,
		Columns: []Column{
			column(addressKey, "Address"),
			column("vts-for", "Votes for"),
			column("vts-against", "Votes against"),
			column("pos-thr", "Positive threshold"),
			column("neg-thr", "Negative threshold"),
		},
	},
	{
		Name:  pool.PendingMiners.Name,
		Title: "Pending accept",
		Query: pool.PendingMiners,
		Columns: []Column{
			column(addressKey, "Address"),
			column("remaining-blocks-until-join", "Blocks until join"),
		},
	},
	{
		Name:  pool.MinerBalances.Name,
		Title: "Balances",
		Query: pool.MinerBalances,
		Columns: []Column{
			column(addressKey, "Address"),
			column("balance", "Balance"),
			column(shareKey, "Share"),
		},
		Decorate: addBalanceShares,
	},
	{
		Name:  pool.NotifierVoters.Name,
		Title: "Notifier votes",
		Query: pool.NotifierVoters,
		Columns: []Column{
			column(addressKey, "Address"),
			column("voted-notifier", "Voted notifier"),
		},
	},
}

// LookupTable finds a table by name.
func LookupTable(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// BuildRows turns fetched records into display rows. Tuple fields become
// display strings keyed by field name; a bare principal becomes a row with
// only an address. A tuple without an address takes it from its miner
// field.
func BuildRows(items []clarity.Value) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		switch v := clarity.Unwrap(item).(type) {
		case clarity.Tuple:
			row := make(Row, len(v))
			for key, field := range v {
				row[key] = clarity.Display(field)
			}
			if _, ok := row[addressKey]; !ok {
				if miner, ok := row["miner"]; ok {
					row[addressKey] = miner
				}
			}
			rows = append(rows, row)
		case nil:
		default:
			rows = append(rows, Row{addressKey: clarity.Display(v)})
		}
	}
	return rows
}
