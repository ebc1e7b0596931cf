package blockchain

// ChainInfo is the chain tip as reported by GET /v2/info.
type ChainInfo struct {
	PeerVersion      uint32 `json:"peer_version"`
	BurnBlockHeight  uint64 `json:"burn_block_height"`
	StacksTipHeight  uint64 `json:"stacks_tip_height"`
	StacksTip        string `json:"stacks_tip"`
	NetworkID        uint32 `json:"network_id"`
	ParentNetworkID  uint32 `json:"parent_network_id"`
	ServerVersion    string `json:"server_version"`
	StableBurnHeight uint64 `json:"stable_burn_block_height"`
}
