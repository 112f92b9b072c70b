package wallet

type Token struct {
	Address  string
	Symbol   string
	Decimals int
}

type BalanceResponse struct {
	Address  string `json:"address"`
	Token    string `json:"token"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals"`
	// Balance is the raw base-unit amount as a decimal string.
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
	Cached    bool   `json:"cached"`
}
