package api

import (
	"errors"
	"net/http"

	"facturo/m/internal/license"
)

func (h *Handler) activateLicense(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Key string `json:"key"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Key == "" {
		respondValidation(w, fieldErrors{"key": "is required"})
		return
	}

	status, err := h.licenses.Activate(r.Context(), payload.Key)
	if err != nil {
		switch {
		case errors.Is(err, license.ErrInvalidKey):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, license.ErrRevoked):
			respondError(w, http.StatusForbidden, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "unable to activate license")
		}
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) licenseStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.licenses.Current()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load license status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}
