package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"facturo/m/internal/license"
	"facturo/m/internal/logger"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db       *sqlx.DB
	secret   string
	licenses *license.Verifier
	log      zerolog.Logger
}

// New constructs a Handler.
func New(db *sqlx.DB, secret string, licenses *license.Verifier) *Handler {
	return &Handler{db: db, secret: secret, licenses: licenses, log: logger.WithComponent("api")}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // local UI only; the server binds to localhost
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/license", func(r chi.Router) {
			r.Post("/activate", h.activateLicense)
			r.Get("/status", h.licenseStatus)
		})

		pr.Group(func(gated chi.Router) {
			gated.Use(h.licenseMiddleware)

			gated.Route("/contacts", func(r chi.Router) {
				r.Post("/", h.createContact)
				r.Get("/", h.listContacts)
				r.Put("/{id}", h.updateContact)
				r.Delete("/{id}", h.deleteContact)
			})

			gated.Route("/documents", func(r chi.Router) {
				r.Post("/", h.createDocument)
				r.Get("/", h.listDocuments)
				r.Post("/bulk-delete", h.bulkDeleteDocuments)
				r.Get("/{id}", h.getDocument)
				r.Put("/{id}", h.updateDocument)
				r.Delete("/{id}", h.deleteDocument)
				r.Get("/{id}/payments", h.documentPayments)
			})

			gated.Route("/transactions", func(r chi.Router) {
				r.Post("/", h.createTransaction)
				r.Get("/", h.listTransactions)
				r.Put("/{id}", h.updateTransaction)
				r.Delete("/{id}", h.deleteTransaction)
			})

			gated.Route("/transfers", func(r chi.Router) {
				r.Post("/", h.createTransfer)
				r.Get("/", h.listTransfers)
				r.Delete("/{id}", h.deleteTransfer)
			})

			gated.Route("/settings", func(r chi.Router) {
				r.Get("/", h.getSettings)
				r.Put("/", h.updateSettings)
				r.Get("/theme", h.getTheme)
				r.Put("/theme", h.updateTheme)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64) (string, error) {
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// licenseMiddleware gates mutating operations on the cached license status.
// Reads stay available so an expired install can still consult its records.
func (h *Handler) licenseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !h.licenses.Allowed() {
			respondError(w, http.StatusForbidden, "a valid license is required for this operation")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helpers

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidation(w http.ResponseWriter, fields fieldErrors) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": fields,
	})
}
