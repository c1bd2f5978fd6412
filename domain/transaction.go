package domain

// Transaction kinds and payment methods.
const (
	TxnIncome  = "income"
	TxnExpense = "expense"
)

var PaymentMethods = []string{"cash", "cheque", "card", "transfer"}

type Transaction struct {
	ID         int64   `db:"id" json:"id"`
	TxnType    string  `db:"txn_type" json:"txn_type"`
	Amount     float64 `db:"amount" json:"amount"`
	TxnDate    string  `db:"txn_date" json:"txn_date"`
	Method     string  `db:"method" json:"method"`
	Cashed     bool    `db:"cashed" json:"cashed"`
	Banked     bool    `db:"banked" json:"banked"`
	DocumentID *int64  `db:"document_id" json:"document_id,omitempty"`
	Notes      string  `db:"notes" json:"notes"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
}
