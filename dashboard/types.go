package dashboard

import (
	"time"

	"github.com/alexandrut83/alerimpool/pool"
)

// Row actions
const (
	ActionProposeRemoval = "proposeRemoval"
	ActionInfo           = "generalInfo"
)

// Column describes one table column
type Column struct {
	DataKey string `json:"data_key"`
	Label   string `json:"label"`
	Align   string `json:"align"`
	Action  string `json:"action,omitempty"`
}

// Row is one displayed record keyed by column data key
type Row map[string]string

// Table binds a list fetch to its column schema
type Table struct {
	Name     string
	Title    string
	Query    pool.ListQuery
	Columns  []Column
	Decorate func([]Row)
}

// Snapshot is the last fetched state of a table
type Snapshot struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Columns   []Column  `json:"columns"`
	Rows      []Row     `json:"rows"`
	Failures  []string  `json:"failures,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Duration  string    `json:"duration"`
}

// Info is the dashboard header
type Info struct {
	Network         string `json:"network"`
	Contract        string `json:"contract"`
	Sender          string `json:"sender,omitempty"`
	SignedIn        bool   `json:"signed_in"`
	StacksTipHeight uint64 `json:"stacks_tip_height,omitempty"`
	BurnBlockHeight uint64 `json:"burn_block_height,omitempty"`
	ServerVersion   string `json:"server_version,omitempty"`
	NodeError       string `json:"node_error,omitempty"`
}
