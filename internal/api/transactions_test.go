package api

import (
	"net/http"
	"testing"

	"facturo/m/domain"
)

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		mutate func(*transactionPayload)
		field  string
	}{
		{"zero amount", func(p *transactionPayload) { p.Amount = 0 }, "amount"},
		{"negative amount", func(p *transactionPayload) { p.Amount = -10 }, "amount"},
		{"bad type", func(p *transactionPayload) { p.TxnType = "refund" }, "txn_type"},
		{"bad method", func(p *transactionPayload) { p.Method = "bitcoin" }, "method"},
		{"bad date", func(p *transactionPayload) { p.TxnDate = "10/03/2025" }, "txn_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := transactionPayload{
				TxnType: domain.TxnIncome, Amount: 100, TxnDate: "2025-03-10", Method: "cash",
			}
			tt.mutate(&payload)
			rec := env.do(t, http.MethodPost, "/transactions/", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			resp := decodeBody[struct {
				Fields map[string]string `json:"fields"`
			}](t, rec)
			if _, ok := resp.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want entry for %q", resp.Fields, tt.field)
			}
			var count int64
			if err := env.db.Get(&count, `SELECT COUNT(*) FROM transactions`); err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != 0 {
				t.Errorf("transactions persisted after rejection = %d, want 0", count)
			}
		})
	}
}

func TestTransactionReferentialChecks(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createDocument(t, invoicePayload("2025-03-01", 100))
	quote := invoicePayload("2025-03-02", 50)
	quote.DocType = domain.DocQuote
	quoteDoc := env.createDocument(t, quote)
	po := documentPayload{
		DocType:     domain.DocPurchaseOrder,
		DocDate:     "2025-03-03",
		ContactName: "Fournisseur SA",
		Items:       []domain.LineItem{{Description: "Stock", Quantity: 1, UnitPrice: 30}},
		Subtotal:    30,
		Total:       30,
	}
	poDoc := env.createDocument(t, po)
	missing := int64(999)

	tests := []struct {
		name       string
		txnType    string
		documentID *int64
		wantStatus int
	}{
		{"income against invoice", domain.TxnIncome, &invoice.ID, http.StatusCreated},
		{"expense against purchase order", domain.TxnExpense, &poDoc.ID, http.StatusCreated},
		{"income against purchase order", domain.TxnIncome, &poDoc.ID, http.StatusUnprocessableEntity},
		{"expense against invoice", domain.TxnExpense, &invoice.ID, http.StatusUnprocessableEntity},
		{"income against quote", domain.TxnIncome, &quoteDoc.ID, http.StatusUnprocessableEntity},
		{"missing document", domain.TxnIncome, &missing, http.StatusUnprocessableEntity},
		{"no reference", domain.TxnExpense, nil, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/transactions/", transactionPayload{
				TxnType: tt.txnType, Amount: 10, TxnDate: "2025-03-15",
				Method: "cheque", DocumentID: tt.documentID,
			})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestTransactionListFilters(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createDocument(t, invoicePayload("2025-03-01", 100))

	seed := []transactionPayload{
		{TxnType: domain.TxnIncome, Amount: 40, TxnDate: "2025-03-05", Method: "cash", DocumentID: &invoice.ID},
		{TxnType: domain.TxnIncome, Amount: 60, TxnDate: "2025-04-05", Method: "transfer", Banked: true},
		{TxnType: domain.TxnExpense, Amount: 20, TxnDate: "2025-04-10", Method: "card"},
	}
	for _, p := range seed {
		if rec := env.do(t, http.MethodPost, "/transactions/", p); rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction: status %d, body %s", rec.Code, rec.Body.String())
		}
	}

	type listResponse struct {
		Data       []domain.Transaction `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}

	rec := env.do(t, http.MethodGet, "/transactions/?type=income", nil)
	list := decodeBody[listResponse](t, rec)
	if list.Pagination.Total != 2 {
		t.Errorf("income filter total = %d, want 2", list.Pagination.Total)
	}

	rec = env.do(t, http.MethodGet, "/transactions/?document_id=1", nil)
	list = decodeBody[listResponse](t, rec)
	if list.Pagination.Total != 1 || list.Data[0].Amount != 40 {
		t.Errorf("document filter = %+v, want the 40 payment", list.Data)
	}

	rec = env.do(t, http.MethodGet, "/transactions/?from=2025-04-01&to=2025-04-30", nil)
	list = decodeBody[listResponse](t, rec)
	if list.Pagination.Total != 2 {
		t.Errorf("date range total = %d, want 2", list.Pagination.Total)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/transactions/", transactionPayload{
		TxnType: domain.TxnIncome, Amount: 100, TxnDate: "2025-03-10", Method: "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/transactions/1", transactionPayload{
		TxnType: domain.TxnIncome, Amount: 120, TxnDate: "2025-03-11", Method: "cheque", Cashed: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[domain.Transaction](t, rec)
	if updated.Amount != 120 || !updated.Cashed {
		t.Errorf("updated = %+v, want amount 120 cashed", updated)
	}

	rec = env.do(t, http.MethodDelete, "/transactions/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/transactions/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}
