// Package sessionkey reads the session-key environment variable once
// at startup and derives a MAC key for framing wire messages, per
// spec.md §6. It generalizes the original's lib/vistle/util/crypto.cpp
// (VISTLE_KEY env var, HMAC(SHA-256)) into the same env-seeded-secret
// shape the teacher's arxos-api/auth.go uses for its JWT secret,
// deriving the actual MAC key with golang.org/x/crypto/hkdf and
// framing each message as a compact HS256 JWT via golang-jwt/jwt/v5
// rather than a raw HMAC tag, so frame verification gets the same
// expiry/replay-claim machinery the teacher's auth layer already uses.
package sessionkey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/vistle-sys/vistle/internal/verrors"
)

const envVar = "VISTLE_KEY"

var (
	mu          sync.Mutex
	initialized bool
	rawKey      []byte
	macKey      []byte
)

// Initialize reads VISTLE_KEY from the environment, hex-decoding it as
// the session key; if unset, it generates secretSize random bytes and
// exports their hex encoding back into the environment for child
// processes, exactly as the original's crypto::initialize does.
// Idempotent: a second call is a no-op, matching the original's
// s_initialized guard.
func Initialize(secretSize int) error {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return nil
	}

	if hexKey, ok := os.LookupEnv(envVar); ok && hexKey != "" {
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return verrors.Wrap(verrors.ConsistencyError, "sessionkey", "Initialize", "could not decode "+envVar, err)
		}
		rawKey = key
	} else {
		key := make([]byte, secretSize)
		if _, err := rand.Read(key); err != nil {
			return verrors.Wrap(verrors.ConsistencyError, "sessionkey", "Initialize", "could not generate random session key", err)
		}
		rawKey = key
		os.Setenv(envVar, hex.EncodeToString(rawKey))
	}

	derived, err := deriveMACKey(rawKey)
	if err != nil {
		return err
	}
	macKey = derived
	initialized = true
	return nil
}

func deriveMACKey(secret []byte) ([]byte, error) {
	out := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("vistle-session-mac"))
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, verrors.Wrap(verrors.ConsistencyError, "sessionkey", "deriveMACKey", "hkdf expand failed", err)
	}
	return out, nil
}

// HexKey returns the hex representation of the raw session key, the
// original's get_session_key().
func HexKey() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return "", verrors.New(verrors.ConsistencyError, "sessionkey", "HexKey", "not initialized")
	}
	return hex.EncodeToString(rawKey), nil
}

// frameClaims binds one wire message to a signature without embedding
// the (possibly large) payload itself in the token.
type frameClaims struct {
	PayloadSHA256 string `json:"payload_sha256"`
	jwt.RegisteredClaims
}

// SignFrame returns a compact HS256 JWT binding payload's SHA-256 to
// the derived session MAC key, framing one wire message (spec.md §6).
func SignFrame(payload []byte) (string, error) {
	key, ready := currentMACKey()
	if !ready {
		return "", verrors.New(verrors.ConsistencyError, "sessionkey", "SignFrame", "not initialized")
	}
	sum := sha256.Sum256(payload)
	claims := frameClaims{PayloadSHA256: hex.EncodeToString(sum[:])}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// VerifyFrame checks that token was signed with the derived session
// MAC key and that its bound hash matches payload.
func VerifyFrame(token string, payload []byte) error {
	key, ready := currentMACKey()
	if !ready {
		return verrors.New(verrors.ConsistencyError, "sessionkey", "VerifyFrame", "not initialized")
	}

	claims := &frameClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, verrors.New(verrors.ConsistencyError, "sessionkey", "VerifyFrame", "unexpected signing method")
		}
		return key, nil
	})
	if err != nil || !parsed.Valid {
		return verrors.Wrap(verrors.ConsistencyError, "sessionkey", "VerifyFrame", "invalid frame signature", err)
	}

	sum := sha256.Sum256(payload)
	if claims.PayloadSHA256 != hex.EncodeToString(sum[:]) {
		return verrors.New(verrors.ConsistencyError, "sessionkey", "VerifyFrame", "payload hash mismatch")
	}
	return nil
}

func currentMACKey() ([]byte, bool) {
	mu.Lock()
	defer mu.Unlock()
	return macKey, initialized
}

func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	initialized = false
	rawKey = nil
	macKey = nil
}
