package domain

// Contact kinds.
const (
	ContactClient   = "client"
	ContactSupplier = "supplier"
)

type Contact struct {
	ID        int64  `db:"id" json:"id"`
	Kind      string `db:"kind" json:"kind"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
	TaxID     string `db:"tax_id" json:"tax_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
