package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const secretKeyFile = ".secret_key"

// LoadOrCreateSecretKey reads the session secret from `dir`, generating it on first run.
func LoadOrCreateSecretKey(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating data dir")
	}
	path := filepath.Join(dir, secretKeyFile)

	data, err := os.ReadFile(path)
	if err == nil {
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "reading secret key")
	}

	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generating secret key")
	}
	key := hex.EncodeToString(buf)
	if err = os.WriteFile(path, []byte(key), 0o600); err != nil {
		return "", errors.Wrap(err, "writing secret key")
	}
	return key, nil
}

// HashSecret hashes a PIN or password with bcrypt.
func HashSecret(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", errors.Wrap(err, "hashing secret")
	}
	return string(hash), nil
}

// CheckSecret compares a secret with its stored hash.
// Hashes written before bcrypt was introduced are unsalted SHA-256 hex digests;
// they still match, and `legacy` tells the caller to rehash.
func CheckSecret(hash, secret string) (ok, legacy bool) {
	if hash == "" {
		return false, false
	}
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil, false
	}
	sum := sha256.Sum256([]byte(secret))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(digest)) == 1, true
}

// LegacyHash returns the unsalted SHA-256 digest older records carry. Only used by tests and fixtures.
func LegacyHash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
