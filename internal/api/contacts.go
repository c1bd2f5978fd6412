package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"facturo/m/domain"
)

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}

	res, err := h.db.Exec(`INSERT INTO contacts (kind, name, email, phone, address, tax_id) VALUES (?, ?, ?, ?, ?, ?)`,
		payload.Kind, strings.TrimSpace(payload.Name), payload.Email, payload.Phone, payload.Address, payload.TaxID)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "a "+payload.Kind+" with that name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create contact")
		return
	}
	id, _ := res.LastInsertId()

	var contact domain.Contact
	if err := h.db.Get(&contact, `SELECT * FROM contacts WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load contact")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)
	if kind := strings.TrimSpace(r.URL.Query().Get("kind")); kind != "" {
		if !oneOf(kind, domain.ContactClient, domain.ContactSupplier) {
			respondError(w, http.StatusBadRequest, "kind must be client or supplier")
			return
		}
		args = append(args, kind)
		clauses = append(clauses, "kind = ?")
	}
	if query := strings.TrimSpace(r.URL.Query().Get("query")); query != "" {
		args = append(args, "%"+query+"%")
		clauses = append(clauses, "name LIKE ?")
	}
	sqlQuery := `SELECT * FROM contacts`
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + strings.Join(clauses, " AND ")
	}
	sqlQuery += " ORDER BY name"

	contacts := []domain.Contact{}
	if err := h.db.Select(&contacts, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list contacts")
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	var payload contactPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}

	var existing domain.Contact
	if err := h.db.Get(&existing, `SELECT * FROM contacts WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "contact not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load contact")
		return
	}
	if payload.Kind != existing.Kind {
		respondValidation(w, fieldErrors{"kind": "cannot be changed"})
		return
	}

	_, err = h.db.Exec(`UPDATE contacts SET name = ?, email = ?, phone = ?, address = ?, tax_id = ? WHERE id = ?`,
		strings.TrimSpace(payload.Name), payload.Email, payload.Phone, payload.Address, payload.TaxID, id)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "a "+payload.Kind+" with that name already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update contact")
		return
	}

	var contact domain.Contact
	if err := h.db.Get(&contact, `SELECT * FROM contacts WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// deleteContact removes the contact only; historical documents keep the
// denormalized contact name and are never touched.
func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete contact")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "contact not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
