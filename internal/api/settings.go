package api

import (
	"encoding/json"
	"net/http"

	"facturo/m/domain"
)

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := h.db.Get(&settings, `SELECT * FROM settings WHERE id = 1`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

type settingsPayload struct {
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	CompanyEmail   string `json:"company_email"`
	CompanyPhone   string `json:"company_phone"`
	CompanyTaxID   string `json:"company_tax_id"`
	Currency       string `json:"currency"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Currency == "" {
		respondValidation(w, fieldErrors{"currency": "is required"})
		return
	}

	_, err := h.db.Exec(`UPDATE settings SET company_name = ?, company_address = ?, company_email = ?, company_phone = ?, company_tax_id = ?, currency = ? WHERE id = 1`,
		payload.CompanyName, payload.CompanyAddress, payload.CompanyEmail, payload.CompanyPhone, payload.CompanyTaxID, payload.Currency)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update settings")
		return
	}

	var settings domain.Settings
	if err := h.db.Get(&settings, `SELECT * FROM settings WHERE id = 1`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// The theme is an opaque JSON blob owned by the UI; the server only checks
// that it is well-formed JSON before storing it.

func (h *Handler) getTheme(w http.ResponseWriter, r *http.Request) {
	var theme string
	if err := h.db.Get(&theme, `SELECT theme FROM settings WHERE id = 1`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load theme")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(theme))
}

func (h *Handler) updateTheme(w http.ResponseWriter, r *http.Request) {
	var theme json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&theme); err != nil {
		respondError(w, http.StatusBadRequest, "theme must be valid JSON")
		return
	}
	if _, err := h.db.Exec(`UPDATE settings SET theme = ? WHERE id = 1`, string(theme)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update theme")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
