package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"facturo/m/domain"
)

// checkDocumentRef enforces that a transaction references at most one
// document of the correct kind: income settles invoices, expense settles
// purchase orders.
func (h *Handler) checkDocumentRef(payload *transactionPayload) (int, string) {
	if payload.DocumentID == nil {
		return 0, ""
	}
	var docType string
	err := h.db.Get(&docType, `SELECT doc_type FROM documents WHERE id = ?`, *payload.DocumentID)
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusUnprocessableEntity, fmt.Sprintf("document %d does not exist", *payload.DocumentID)
	}
	if err != nil {
		return http.StatusInternalServerError, "unable to resolve document"
	}
	wanted := domain.DocInvoice
	if payload.TxnType == domain.TxnExpense {
		wanted = domain.DocPurchaseOrder
	}
	if docType != wanted {
		return http.StatusUnprocessableEntity, fmt.Sprintf("%s transactions must reference a %s, document %d is a %s",
			payload.TxnType, wanted, *payload.DocumentID, docType)
	}
	return 0, ""
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}
	if status, msg := h.checkDocumentRef(&payload); status != 0 {
		respondError(w, status, msg)
		return
	}

	res, err := h.db.Exec(`INSERT INTO transactions (txn_type, amount, txn_date, method, cashed, banked, document_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payload.TxnType, payload.Amount, payload.TxnDate, payload.Method,
		payload.Cashed, payload.Banked, payload.DocumentID, payload.Notes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create transaction")
		return
	}
	id, _ := res.LastInsertId()

	var txn domain.Transaction
	if err := h.db.Get(&txn, `SELECT * FROM transactions WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transaction")
		return
	}
	h.log.Info().Str("txn_type", txn.TxnType).Float64("amount", txn.Amount).Msg("transaction created")
	respondJSON(w, http.StatusCreated, txn)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)

	if txnType := strings.TrimSpace(r.URL.Query().Get("type")); txnType != "" {
		if !oneOf(txnType, domain.TxnIncome, domain.TxnExpense) {
			respondError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
		args = append(args, txnType)
		clauses = append(clauses, "txn_type = ?")
	}
	if docID := strings.TrimSpace(r.URL.Query().Get("document_id")); docID != "" {
		id, err := strconv.ParseInt(docID, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "document_id must be numeric")
			return
		}
		args = append(args, id)
		clauses = append(clauses, "document_id = ?")
	}
	if from := strings.TrimSpace(r.URL.Query().Get("from")); from != "" {
		if !validDate(from) {
			respondError(w, http.StatusBadRequest, "from must be in YYYY-MM-DD format")
			return
		}
		args = append(args, from)
		clauses = append(clauses, "txn_date >= ?")
	}
	if to := strings.TrimSpace(r.URL.Query().Get("to")); to != "" {
		if !validDate(to) {
			respondError(w, http.StatusBadRequest, "to must be in YYYY-MM-DD format")
			return
		}
		args = append(args, to)
		clauses = append(clauses, "txn_date <= ?")
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := h.db.Get(&total, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to count transactions")
		return
	}

	page, limit := pageParams(r)
	args = append(args, limit, (page-1)*limit)

	txns := []domain.Transaction{}
	query := `SELECT * FROM transactions` + where + ` ORDER BY txn_date DESC, id DESC LIMIT ? OFFSET ?`
	if err := h.db.Select(&txns, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data": txns,
		"pagination": map[string]any{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var payload transactionPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}
	if status, msg := h.checkDocumentRef(&payload); status != 0 {
		respondError(w, status, msg)
		return
	}

	res, err := h.db.Exec(`UPDATE transactions SET txn_type = ?, amount = ?, txn_date = ?, method = ?, cashed = ?, banked = ?, document_id = ?, notes = ? WHERE id = ?`,
		payload.TxnType, payload.Amount, payload.TxnDate, payload.Method,
		payload.Cashed, payload.Banked, payload.DocumentID, payload.Notes, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update transaction")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}

	var txn domain.Transaction
	if err := h.db.Get(&txn, `SELECT * FROM transactions WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transaction")
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete transaction")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "transaction not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
