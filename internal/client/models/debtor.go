package models

// Debtor is a single debt-ledger record, display fields only.
type Debtor struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	TotalDebt float64 `json:"totalDebt"`
}
