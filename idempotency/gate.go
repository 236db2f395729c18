package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"gorm.io/gorm"
)

// Header is the mandatory correlation token for checkout and
// payment-creation requests.
const Header = "Idempotency-Key"

// Retention is how long a committed record shields retries.
const Retention = 24 * time.Hour

// Result is a stored response replayed on a retry hit.
type Result struct {
	Status int
	Body   []byte
}

// HashRequest computes a stable hash of the canonical (decoded and
// re-marshaled) request body.
func HashRequest(body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Check looks up (userID, key) before any mutating work. A record with a
// matching hash is a hit and its stored response is returned unchanged; a
// differing hash is a conflict: the same key must never be reused for a
// different payload. Expired records count as absent.
func Check(db *gorm.DB, userID, key string, body any) (*Result, string, error) {
	hash, err := HashRequest(body)
	if err != nil {
		return nil, "", err
	}

	var rec models.IdempotencyRecord
	if err := db.Where("user_id = ? AND key = ?", userID, key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hash, nil
		}
		return nil, "", err
	}

	if time.Now().After(rec.ExpiresAt) {
		if err := db.Delete(&rec).Error; err != nil {
			return nil, "", err
		}
		return nil, hash, nil
	}

	if rec.RequestHash != hash {
		return nil, "", errs.Conflict("idempotency_key_reuse",
			"idempotency key was already used with a different request body")
	}
	return &Result{Status: rec.Status, Body: []byte(rec.Response)}, hash, nil
}

// Commit persists the outcome of a successfully completed operation. It
// must run only after the protected operation fully succeeds, so a crash
// mid-operation leaves no record and the retry re-executes.
func Commit(db *gorm.DB, userID, key, hash string, status int, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	rec := models.IdempotencyRecord{
		UserID:      userID,
		Key:         key,
		RequestHash: hash,
		Status:      status,
		Response:    string(data),
		ExpiresAt:   time.Now().Add(Retention),
	}
	return db.Create(&rec).Error
}
