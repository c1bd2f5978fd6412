package domain

// Document kinds.
const (
	DocInvoice       = "invoice"
	DocQuote         = "quote"
	DocPurchaseOrder = "purchase_order"
)

type Document struct {
	ID          int64   `db:"id" json:"id"`
	DocType     string  `db:"doc_type" json:"doc_type"`
	Number      string  `db:"number" json:"number"`
	DocDate     string  `db:"doc_date" json:"doc_date"`
	ContactID   *int64  `db:"contact_id" json:"contact_id,omitempty"`
	ContactName string  `db:"contact_name" json:"contact_name"`
	Items       string  `db:"items" json:"-"`
	Subtotal    float64 `db:"subtotal" json:"subtotal"`
	Tax         float64 `db:"tax" json:"tax"`
	Total       float64 `db:"total" json:"total"`
	Notes       string  `db:"notes" json:"notes"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`
}

// LineItem is one row of a document's serialized item list. Items are stored
// as a JSON blob on the document rather than as child rows; order is
// significant and must survive a round trip.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ServiceFee  float64 `json:"service_fee,omitempty"`
}

// Total returns quantity x (unit price + per-unit service fee).
func (li LineItem) Total() float64 {
	return li.Quantity * (li.UnitPrice + li.ServiceFee)
}
