package domain

// Internal accounts a transfer can move money between.
const (
	AccountCash = "cash"
	AccountBank = "bank"
)

type Transfer struct {
	ID           int64   `db:"id" json:"id"`
	Amount       float64 `db:"amount" json:"amount"`
	TransferDate string  `db:"transfer_date" json:"transfer_date"`
	FromAccount  string  `db:"from_account" json:"from_account"`
	ToAccount    string  `db:"to_account" json:"to_account"`
	Notes        string  `db:"notes" json:"notes"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}
