// Package license verifies signed license keys and caches the activation
// status in the settings row so the application keeps working offline.
package license

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"facturo/m/internal/logger"
)

var (
	// ErrInvalidKey is returned when a license key fails signature or
	// expiry verification.
	ErrInvalidKey = errors.New("invalid license key")

	// ErrRevoked is returned when the licensing server reports the key as
	// revoked.
	ErrRevoked = errors.New("license key has been revoked")
)

// Claims is the payload of a signed license key.
type Claims struct {
	Licensee string `json:"licensee"`
	Plan     string `json:"plan"`
	jwt.RegisteredClaims
}

// Status is the cached license state exposed to the API.
type Status struct {
	Status    string `json:"status"`
	Licensee  string `json:"licensee,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	CheckedAt string `json:"checked_at,omitempty"`
}

// Verifier validates license keys and persists the resulting status.
type Verifier struct {
	db     *sqlx.DB
	secret string
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewVerifier constructs a Verifier. url may be empty, in which case the
// online confirmation step is skipped entirely.
func NewVerifier(db *sqlx.DB, secret, url string) *Verifier {
	return &Verifier{
		db:     db,
		secret: secret,
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    logger.WithComponent("license"),
	}
}

// Activate verifies key locally, best-effort confirms it with the licensing
// server, and caches the result. A network failure during confirmation falls
// back to the local verification result; this is the only deliberate
// graceful-degradation path in the system.
func (v *Verifier) Activate(ctx context.Context, key string) (Status, error) {
	claims, err := v.verify(key)
	if err != nil {
		return Status{}, err
	}

	if err := v.confirmOnline(ctx, key); err != nil {
		if errors.Is(err, ErrRevoked) {
			return Status{}, err
		}
		v.log.Warn().Err(err).Msg("license server unreachable, trusting local verification")
	}

	status := Status{
		Status:    "active",
		Licensee:  claims.Licensee,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if claims.ExpiresAt != nil {
		status.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}

	_, err = v.db.Exec(`UPDATE settings SET license_key = ?, license_status = ?, licensee = ?, license_expires_at = ?, license_checked_at = ? WHERE id = 1`,
		key, status.Status, status.Licensee, status.ExpiresAt, status.CheckedAt)
	if err != nil {
		return Status{}, err
	}
	v.log.Info().Str("licensee", status.Licensee).Msg("license activated")
	return status, nil
}

// Current returns the cached status, downgrading to "expired" when the
// stored expiry has passed.
func (v *Verifier) Current() (Status, error) {
	var row struct {
		Status    string `db:"license_status"`
		Licensee  string `db:"licensee"`
		ExpiresAt string `db:"license_expires_at"`
		CheckedAt string `db:"license_checked_at"`
	}
	if err := v.db.Get(&row, `SELECT license_status, licensee, license_expires_at, license_checked_at FROM settings WHERE id = 1`); err != nil {
		return Status{}, err
	}
	status := Status{Status: row.Status, Licensee: row.Licensee, ExpiresAt: row.ExpiresAt, CheckedAt: row.CheckedAt}
	if status.Status == "active" && status.ExpiresAt != "" {
		if expires, err := time.Parse(time.RFC3339, status.ExpiresAt); err == nil && time.Now().After(expires) {
			status.Status = "expired"
		}
	}
	return status, nil
}

// Allowed reports whether mutating operations are permitted under the
// cached status.
func (v *Verifier) Allowed() bool {
	status, err := v.Current()
	if err != nil {
		return false
	}
	return status.Status == "trial" || status.Status == "active"
}

func (v *Verifier) verify(key string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(key, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(v.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidKey
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Licensee == "" {
		return nil, ErrInvalidKey
	}
	return claims, nil
}

func (v *Verifier) confirmOnline(ctx context.Context, key string) error {
	if v.url == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"key": key})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Status == "revoked" {
		return ErrRevoked
	}
	return nil
}
