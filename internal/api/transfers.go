package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"facturo/m/domain"
)

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var payload transferPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fe := payload.validate(); !fe.ok() {
		respondValidation(w, fe)
		return
	}

	res, err := h.db.Exec(`INSERT INTO transfers (amount, transfer_date, from_account, to_account, notes) VALUES (?, ?, ?, ?, ?)`,
		payload.Amount, payload.TransferDate, payload.FromAccount, payload.ToAccount, payload.Notes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create transfer")
		return
	}
	id, _ := res.LastInsertId()

	var transfer domain.Transfer
	if err := h.db.Get(&transfer, `SELECT * FROM transfers WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transfer")
		return
	}
	respondJSON(w, http.StatusCreated, transfer)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	transfers := []domain.Transfer{}
	if err := h.db.Select(&transfers, `SELECT * FROM transfers ORDER BY transfer_date DESC, id DESC`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transfers")
		return
	}
	respondJSON(w, http.StatusOK, transfers)
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete transfer")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "transfer not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
