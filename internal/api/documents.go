package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"facturo/m/domain"
	"facturo/m/internal/numbering"
)

// amountPaidExpr derives the settled amount from the transaction ledger at
// query time; it is never stored on the document.
const amountPaidExpr = `COALESCE((SELECT SUM(t.amount) FROM transactions t WHERE t.document_id = d.id), 0) AS amount_paid`

type documentRow struct {
	domain.Document
	AmountPaid float64 `db:"amount_paid"`
}

type documentResponse struct {
	domain.Document
	Items      []domain.LineItem `json:"items"`
	AmountPaid float64           `json:"amount_paid"`
}

func toResponse(row documentRow) (documentResponse, error) {
	items := []domain.LineItem{}
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return documentResponse{}, fmt.Errorf("corrupt line items on document %d: %w", row.ID, err)
	}
	return documentResponse{Document: row.Document, Items: items, AmountPaid: row.AmountPaid}, nil
}

// resolveContact denormalizes the contact name onto the document at creation
// time so deleting the contact later cannot orphan historical records.
func (h *Handler) resolveContact(tx *sqlx.Tx, payload *documentPayload) (string, error) {
	if payload.ContactID == nil {
		return strings.TrimSpace(payload.ContactName), nil
	}
	kind := domain.ContactClient
	if payload.DocType == domain.DocPurchaseOrder {
		kind = domain.ContactSupplier
	}
	var name string
	err := tx.Get(&name, `SELECT name FROM contacts WHERE id = ? AND kind = ?`, *payload.ContactID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("contact %d is not an existing %s: %w", *payload.ContactID, kind, sql.ErrNoRows)
	}
	return name, err
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var payload documentPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}

	items, err := json.Marshal(payload.Items)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to serialize line items")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	contactName, err := h.resolveContact(tx, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve contact")
		return
	}

	number := strings.TrimSpace(payload.Number)
	if number == "" {
		// The read-max-then-insert sequence stays inside this transaction so
		// two concurrent creations cannot be assigned the same number.
		date, _ := time.Parse("2006-01-02", payload.DocDate)
		number, err = numbering.Next(tx, payload.DocType, date.Year())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to compute document number")
			return
		}
	}

	res, err := tx.Exec(`INSERT INTO documents (doc_type, number, doc_date, contact_id, contact_name, items, subtotal, tax, total, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payload.DocType, number, payload.DocDate, payload.ContactID, contactName,
		string(items), payload.Subtotal, payload.Tax, payload.Total, payload.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, fmt.Sprintf("document number %s already exists", number))
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create document")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create document")
		return
	}

	var row documentRow
	if err := tx.Get(&row, `SELECT d.*, `+amountPaidExpr+` FROM documents d WHERE d.id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load document")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save document")
		return
	}

	resp, err := toResponse(row)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Info().Str("doc_type", payload.DocType).Str("number", number).Msg("document created")
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)

	if docType := strings.TrimSpace(r.URL.Query().Get("type")); docType != "" {
		if !oneOf(docType, domain.DocInvoice, domain.DocQuote, domain.DocPurchaseOrder) {
			respondError(w, http.StatusBadRequest, "type must be invoice, quote or purchase_order")
			return
		}
		args = append(args, docType)
		clauses = append(clauses, "d.doc_type = ?")
	}
	if year := strings.TrimSpace(r.URL.Query().Get("year")); year != "" {
		if _, err := strconv.Atoi(year); err != nil {
			respondError(w, http.StatusBadRequest, "year must be numeric")
			return
		}
		args = append(args, year+"-%")
		clauses = append(clauses, "d.doc_date LIKE ?")
	}
	if query := strings.TrimSpace(r.URL.Query().Get("query")); query != "" {
		like := "%" + query + "%"
		args = append(args, like, like)
		clauses = append(clauses, "(d.contact_name LIKE ? OR d.number LIKE ?)")
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := h.db.Get(&total, `SELECT COUNT(*) FROM documents d`+where, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to count documents")
		return
	}

	page, limit := pageParams(r)
	args = append(args, limit, (page-1)*limit)

	var rows []documentRow
	query := `SELECT d.*, ` + amountPaidExpr + ` FROM documents d` + where + ` ORDER BY d.doc_date DESC, d.id DESC LIMIT ? OFFSET ?`
	if err := h.db.Select(&rows, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list documents")
		return
	}

	data := make([]documentResponse, 0, len(rows))
	for _, row := range rows {
		resp, err := toResponse(row)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		data = append(data, resp)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	var row documentRow
	if err := h.db.Get(&row, `SELECT d.*, `+amountPaidExpr+` FROM documents d WHERE d.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load document")
		return
	}
	resp, err := toResponse(row)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	var payload documentPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}

	var existing domain.Document
	if err := h.db.Get(&existing, `SELECT * FROM documents WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load document")
		return
	}

	// A number never changes once assigned.
	if number := strings.TrimSpace(payload.Number); number != "" && number != existing.Number {
		respondValidation(w, fieldErrors{"number": "cannot be changed once assigned"})
		return
	}
	if payload.DocType != existing.DocType {
		respondValidation(w, fieldErrors{"doc_type": "cannot be changed"})
		return
	}

	items, err := json.Marshal(payload.Items)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to serialize line items")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	contactName, err := h.resolveContact(tx, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve contact")
		return
	}

	_, err = tx.Exec(`UPDATE documents SET doc_date = ?, contact_id = ?, contact_name = ?, items = ?, subtotal = ?, tax = ?, total = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		payload.DocDate, payload.ContactID, contactName, string(items),
		payload.Subtotal, payload.Tax, payload.Total, payload.Notes, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update document")
		return
	}

	var row documentRow
	if err := tx.Get(&row, `SELECT d.*, `+amountPaidExpr+` FROM documents d WHERE d.id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load document")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save document")
		return
	}

	resp, err := toResponse(row)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// cascadeDelete removes a document and every transaction referencing it.
// Callers own the surrounding transaction.
func cascadeDelete(tx *sqlx.Tx, id int64) error {
	if _, err := tx.Exec(`DELETE FROM transactions WHERE document_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	if err := cascadeDelete(tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to delete document")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete document")
		return
	}
	h.log.Info().Int64("id", id).Msg("document deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) bulkDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(payload.IDs) == 0 {
		respondValidation(w, fieldErrors{"ids": "at least one id is required"})
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start transaction")
		return
	}
	defer tx.Rollback()

	// All-or-nothing: one missing id rolls back every deletion.
	for _, id := range payload.IDs {
		if err := cascadeDelete(tx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondError(w, http.StatusNotFound, fmt.Sprintf("document %d not found", id))
				return
			}
			respondError(w, http.StatusInternalServerError, "unable to delete documents")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete documents")
		return
	}
	h.log.Info().Int("count", len(payload.IDs)).Msg("documents deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) documentPayments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = ?)`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load document")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}
	payments := []domain.Transaction{}
	if err := h.db.Select(&payments, `SELECT * FROM transactions WHERE document_id = ? ORDER BY txn_date, id`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load payments")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return page, limit
}
