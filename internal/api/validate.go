package api

import (
	"math"
	"strconv"
	"strings"
	"time"

	"facturo/m/domain"
)

// The validation gate: every mutating payload is checked here before any
// store access, so a rejected request leaves no partial writes behind.

// totalsTolerance is the absolute slack allowed between client-computed
// totals and the server's own sum of line totals.
const totalsTolerance = 0.01

type fieldErrors map[string]string

func (fe fieldErrors) ok() bool { return len(fe) == 0 }

func validDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

type documentPayload struct {
	DocType     string            `json:"doc_type"`
	Number      string            `json:"number,omitempty"`
	DocDate     string            `json:"doc_date"`
	ContactID   *int64            `json:"contact_id,omitempty"`
	ContactName string            `json:"contact_name,omitempty"`
	Items       []domain.LineItem `json:"items"`
	Subtotal    float64           `json:"subtotal"`
	Tax         float64           `json:"tax"`
	Total       float64           `json:"total"`
	Notes       string            `json:"notes,omitempty"`
}

func (p *documentPayload) validate() fieldErrors {
	fe := fieldErrors{}
	if !oneOf(p.DocType, domain.DocInvoice, domain.DocQuote, domain.DocPurchaseOrder) {
		fe["doc_type"] = "must be invoice, quote or purchase_order"
	}
	if p.DocDate == "" {
		fe["doc_date"] = "is required"
	} else if !validDate(p.DocDate) {
		fe["doc_date"] = "must be in YYYY-MM-DD format"
	}
	if len(p.Items) == 0 {
		fe["items"] = "at least one line item is required"
	}
	lineSum := 0.0
	for i, item := range p.Items {
		prefix := "items." + strconv.Itoa(i) + "."
		if strings.TrimSpace(item.Description) == "" {
			fe[prefix+"description"] = "is required"
		}
		if item.Quantity <= 0 {
			fe[prefix+"quantity"] = "must be greater than zero"
		}
		if item.UnitPrice < 0 {
			fe[prefix+"unit_price"] = "must not be negative"
		}
		if item.ServiceFee < 0 {
			fe[prefix+"service_fee"] = "must not be negative"
		}
		lineSum += item.Total()
	}
	if p.Subtotal < 0 {
		fe["subtotal"] = "must not be negative"
	}
	if p.Total < 0 {
		fe["total"] = "must not be negative"
	}
	// Totals integrity: the client computes subtotal/tax/total, the server
	// refuses to persist figures that disagree with the line items.
	if fe.ok() {
		if math.Abs(p.Subtotal-lineSum) > totalsTolerance {
			fe["subtotal"] = "does not match the sum of line totals"
		}
		if math.Abs(p.Total-(p.Subtotal+p.Tax)) > totalsTolerance {
			fe["total"] = "does not match subtotal plus tax"
		}
	}
	return fe
}

type transactionPayload struct {
	TxnType    string  `json:"txn_type"`
	Amount     float64 `json:"amount"`
	TxnDate    string  `json:"txn_date"`
	Method     string  `json:"method"`
	Cashed     bool    `json:"cashed"`
	Banked     bool    `json:"banked"`
	DocumentID *int64  `json:"document_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

func (p *transactionPayload) validate() fieldErrors {
	fe := fieldErrors{}
	if !oneOf(p.TxnType, domain.TxnIncome, domain.TxnExpense) {
		fe["txn_type"] = "must be income or expense"
	}
	if p.Amount <= 0 {
		fe["amount"] = "must be greater than zero"
	}
	if p.TxnDate == "" {
		fe["txn_date"] = "is required"
	} else if !validDate(p.TxnDate) {
		fe["txn_date"] = "must be in YYYY-MM-DD format"
	}
	if !oneOf(p.Method, domain.PaymentMethods...) {
		fe["method"] = "must be cash, cheque, card or transfer"
	}
	return fe
}

type transferPayload struct {
	Amount       float64 `json:"amount"`
	TransferDate string  `json:"transfer_date"`
	FromAccount  string  `json:"from_account"`
	ToAccount    string  `json:"to_account"`
	Notes        string  `json:"notes,omitempty"`
}

func (p *transferPayload) validate() fieldErrors {
	fe := fieldErrors{}
	if p.Amount <= 0 {
		fe["amount"] = "must be greater than zero"
	}
	if p.TransferDate == "" {
		fe["transfer_date"] = "is required"
	} else if !validDate(p.TransferDate) {
		fe["transfer_date"] = "must be in YYYY-MM-DD format"
	}
	if !oneOf(p.FromAccount, domain.AccountCash, domain.AccountBank) {
		fe["from_account"] = "must be cash or bank"
	}
	if !oneOf(p.ToAccount, domain.AccountCash, domain.AccountBank) {
		fe["to_account"] = "must be cash or bank"
	}
	if fe.ok() && p.FromAccount == p.ToAccount {
		fe["to_account"] = "must differ from from_account"
	}
	return fe
}

type contactPayload struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

func (p *contactPayload) validate() fieldErrors {
	fe := fieldErrors{}
	if !oneOf(p.Kind, domain.ContactClient, domain.ContactSupplier) {
		fe["kind"] = "must be client or supplier"
	}
	if strings.TrimSpace(p.Name) == "" {
		fe["name"] = "is required"
	}
	return fe
}
