package api

import (
	"net/http"
	"reflect"
	"testing"

	"facturo/m/domain"
)

func TestCreateDocumentAssignsSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)

	first := env.createDocument(t, invoicePayload("2025-03-01", 100))
	if first.Number != "001/2025" {
		t.Errorf("first invoice number = %q, want 001/2025", first.Number)
	}
	second := env.createDocument(t, invoicePayload("2025-04-15", 200))
	if second.Number != "002/2025" {
		t.Errorf("second invoice number = %q, want 002/2025", second.Number)
	}

	quote := invoicePayload("2025-05-01", 80)
	quote.DocType = domain.DocQuote
	third := env.createDocument(t, quote)
	if third.Number != "003/2025" {
		t.Errorf("quote number = %q, want 003/2025 (shared counter)", third.Number)
	}

	po := documentPayload{
		DocType:     domain.DocPurchaseOrder,
		DocDate:     "2025-03-01",
		ContactName: "Fournisseur SA",
		Items:       []domain.LineItem{{Description: "Supplies", Quantity: 2, UnitPrice: 25}},
		Subtotal:    50,
		Total:       50,
	}
	bc := env.createDocument(t, po)
	if bc.Number != "BC-001/2025" {
		t.Errorf("purchase order number = %q, want BC-001/2025", bc.Number)
	}

	nextYear := env.createDocument(t, invoicePayload("2026-01-05", 10))
	if nextYear.Number != "001/2026" {
		t.Errorf("new year invoice number = %q, want 001/2026", nextYear.Number)
	}
}

func TestCreateDocumentExplicitNumber(t *testing.T) {
	env := newTestEnv(t)

	payload := invoicePayload("2025-03-01", 100)
	payload.Number = "SPECIAL-7"
	doc := env.createDocument(t, payload)
	if doc.Number != "SPECIAL-7" {
		t.Errorf("number = %q, want SPECIAL-7 verbatim", doc.Number)
	}

	dup := invoicePayload("2025-03-02", 50)
	dup.Number = "SPECIAL-7"
	rec := env.do(t, http.MethodPost, "/documents/", dup)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate explicit number: status = %d, want 409", rec.Code)
	}

	// Auto-numbering keeps working alongside free-form numbers.
	auto := env.createDocument(t, invoicePayload("2025-03-03", 60))
	if auto.Number != "001/2025" {
		t.Errorf("auto number = %q, want 001/2025", auto.Number)
	}
}

func TestNumberImmutableOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, invoicePayload("2025-03-01", 100))

	update := invoicePayload("2025-03-05", 100)
	update.Number = "999/2025"
	rec := env.do(t, http.MethodPut, "/documents/1", update)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("number change: status = %d, want 400", rec.Code)
	}

	// Same number (or none) is accepted and the number survives.
	update.Number = ""
	rec = env.do(t, http.MethodPut, "/documents/1", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[documentResponse](t, rec)
	if updated.Number != doc.Number {
		t.Errorf("number after update = %q, want %q", updated.Number, doc.Number)
	}
	if updated.DocDate != "2025-03-05" {
		t.Errorf("doc_date after update = %q, want 2025-03-05", updated.DocDate)
	}
}

func TestAmountPaidDerivedFromLedger(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, invoicePayload("2025-03-01", 1000))

	if doc.AmountPaid != 0 {
		t.Errorf("amount_paid on creation = %v, want 0", doc.AmountPaid)
	}

	for _, amount := range []float64{300, 250.50} {
		rec := env.do(t, http.MethodPost, "/transactions/", transactionPayload{
			TxnType: domain.TxnIncome, Amount: amount, TxnDate: "2025-03-10",
			Method: "cash", DocumentID: &doc.ID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: status %d, body %s", rec.Code, rec.Body.String())
		}
	}
	// An unlinked transaction must not count.
	rec := env.do(t, http.MethodPost, "/transactions/", transactionPayload{
		TxnType: domain.TxnIncome, Amount: 999, TxnDate: "2025-03-11", Method: "cash",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create unlinked transaction: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/documents/1", nil)
	got := decodeBody[documentResponse](t, rec)
	if got.AmountPaid != 550.50 {
		t.Errorf("amount_paid = %v, want 550.50", got.AmountPaid)
	}

	rec = env.do(t, http.MethodGet, "/documents/", nil)
	list := decodeBody[struct {
		Data []documentResponse `json:"data"`
	}](t, rec)
	if len(list.Data) != 1 || list.Data[0].AmountPaid != 550.50 {
		t.Errorf("list amount_paid = %+v, want one row at 550.50", list.Data)
	}

	rec = env.do(t, http.MethodGet, "/documents/1/payments", nil)
	payments := decodeBody[[]domain.Transaction](t, rec)
	if len(payments) != 2 {
		t.Errorf("payments count = %d, want 2", len(payments))
	}
}

func TestDeleteDocumentCascadesToTransactions(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, invoicePayload("2025-03-01", 500))
	rec := env.do(t, http.MethodPost, "/transactions/", transactionPayload{
		TxnType: domain.TxnIncome, Amount: 200, TxnDate: "2025-03-10",
		Method: "transfer", Banked: true, DocumentID: &doc.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/documents/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/documents/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted document: status = %d, want 404", rec.Code)
	}

	var orphans int64
	if err := env.db.Get(&orphans, `SELECT COUNT(*) FROM transactions WHERE document_id = 1`); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphan transactions = %d, want 0", orphans)
	}
}

func TestBulkDeleteIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	env.createDocument(t, invoicePayload("2025-03-01", 100))
	env.createDocument(t, invoicePayload("2025-03-02", 200))

	// One missing id fails the whole batch; nothing is deleted.
	rec := env.do(t, http.MethodPost, "/documents/bulk-delete", map[string]any{"ids": []int64{1, 99}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("bulk delete with missing id: status = %d, want 404", rec.Code)
	}
	var remaining int64
	if err := env.db.Get(&remaining, `SELECT COUNT(*) FROM documents`); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if remaining != 2 {
		t.Errorf("documents after failed bulk delete = %d, want 2", remaining)
	}

	rec = env.do(t, http.MethodPost, "/documents/bulk-delete", map[string]any{"ids": []int64{1, 2}})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk delete: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := env.db.Get(&remaining, `SELECT COUNT(*) FROM documents`); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if remaining != 0 {
		t.Errorf("documents after bulk delete = %d, want 0", remaining)
	}
}

func TestLineItemsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	items := []domain.LineItem{
		{Description: "Install", Quantity: 3, UnitPrice: 40, ServiceFee: 5},
		{Description: "Cabling", Quantity: 10.5, UnitPrice: 2},
		{Description: "Callout", Quantity: 1, UnitPrice: 80},
	}
	payload := documentPayload{
		DocType:     domain.DocInvoice,
		DocDate:     "2025-06-01",
		ContactName: "Martin et Fils",
		Items:       items,
		Subtotal:    236,
		Tax:         47.2,
		Total:       283.2,
	}
	env.createDocument(t, payload)

	rec := env.do(t, http.MethodGet, "/documents/1", nil)
	got := decodeBody[documentResponse](t, rec)
	if !reflect.DeepEqual(got.Items, items) {
		t.Errorf("items round trip:\n got %+v\nwant %+v", got.Items, items)
	}
}

func TestDocumentValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name    string
		mutate  func(*documentPayload)
		field   string
	}{
		{"bad type", func(p *documentPayload) { p.DocType = "receipt" }, "doc_type"},
		{"missing date", func(p *documentPayload) { p.DocDate = "" }, "doc_date"},
		{"malformed date", func(p *documentPayload) { p.DocDate = "01/03/2025" }, "doc_date"},
		{"no items", func(p *documentPayload) { p.Items = nil }, "items"},
		{"zero quantity", func(p *documentPayload) { p.Items[0].Quantity = 0 }, "items.0.quantity"},
		{"subtotal mismatch", func(p *documentPayload) { p.Subtotal = 90; p.Total = 90 }, "subtotal"},
		{"total ignores tax", func(p *documentPayload) { p.Tax = 20 }, "total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := invoicePayload("2025-03-01", 100)
			tt.mutate(&payload)
			rec := env.do(t, http.MethodPost, "/documents/", payload)
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
			if err := env.db.Get(&count, `SELECT COUNT(*) FROM documents`); err != nil {
				t.Fatalf("count: %v", err)
			}
			if count != 0 {
				t.Errorf("documents persisted after rejection = %d, want 0", count)
			}
		})
	}
}

func TestTotalsWithinToleranceAccepted(t *testing.T) {
	env := newTestEnv(t)
	payload := invoicePayload("2025-03-01", 100)
	payload.Subtotal = 100.004
	payload.Total = 100.004
	rec := env.do(t, http.MethodPost, "/documents/", payload)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 within tolerance (body %s)", rec.Code, rec.Body.String())
	}
}

func TestListDocumentsFilters(t *testing.T) {
	env := newTestEnv(t)
	env.createDocument(t, invoicePayload("2024-11-01", 100))
	env.createDocument(t, invoicePayload("2025-03-01", 200))
	po := documentPayload{
		DocType:     domain.DocPurchaseOrder,
		DocDate:     "2025-03-10",
		ContactName: "Fournisseur SA",
		Items:       []domain.LineItem{{Description: "Stock", Quantity: 1, UnitPrice: 75}},
		Subtotal:    75,
		Total:       75,
	}
	env.createDocument(t, po)

	rec := env.do(t, http.MethodGet, "/documents/?type=invoice&year=2025", nil)
	list := decodeBody[struct {
		Data       []documentResponse `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}](t, rec)
	if list.Pagination.Total != 1 || len(list.Data) != 1 {
		t.Fatalf("filtered list = %+v, want exactly one 2025 invoice", list)
	}
	if list.Data[0].Number != "001/2025" {
		t.Errorf("filtered number = %q, want 001/2025", list.Data[0].Number)
	}

	rec = env.do(t, http.MethodGet, "/documents/?query=Fournisseur", nil)
	list = decodeBody[struct {
		Data       []documentResponse `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}](t, rec)
	if list.Pagination.Total != 1 || list.Data[0].DocType != domain.DocPurchaseOrder {
		t.Errorf("query filter = %+v, want the purchase order", list.Data)
	}
}
