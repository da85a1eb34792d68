// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"tradegate/config"
	"tradegate/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// chachaCipher implements the CipherService interface with XChaCha20-Poly1305.
// The AEAD construction makes every sealed token tamper-evident on its own,
// before any checksum inside the payload is even looked at.
type chachaCipher struct {
	key []byte
}

// NewCipherService builds the process-wide cipher from the configured
// hex-encoded 32-byte key. In development a missing key falls back to a fresh
// random one, which means sealed tokens do not survive a process restart.
func NewCipherService(cfg *config.Config, logger *slog.Logger) (service.CipherService, error) {
	keyHex, err := resolveSecret(cfg, logger, cfg.SecretKey.Encryption, chacha20poly1305.KeySize, "secretKey.encryption")
	if err != nil {
		return nil, err
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.Wrap(err, "encryption key must be hex encoded")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	return &chachaCipher{key: key}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The wire format is
// "nonce_hex:ciphertext_hex" so Decrypt can recover the nonce from the token.
func (c *chachaCipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", errors.WithStack(err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Malformed input, a wrong key or
// any corrupted byte yields an error, never a panic.
func (c *chachaCipher) Decrypt(token string) (string, error) {
	nonceHex, sealedHex, found := strings.Cut(token, ":")
	if !found {
		return "", errors.New("malformed cipher token")
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", errors.Wrap(err, "malformed nonce")
	}

	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", errors.Wrap(err, "malformed ciphertext")
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(nonce) != aead.NonceSize() {
		return "", errors.New("malformed cipher token")
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Wrap(err, "decryption failed")
	}

	return string(plaintext), nil
}

// resolveSecret returns the configured secret, or an ephemeral random one in
// development. Outside development a missing secret is a startup error; the
// config layer already enforces this, so the check here is a second gate for
// callers constructing services directly.
func resolveSecret(cfg *config.Config, logger *slog.Logger, value string, byteLen int, name string) (string, error) {
	if value != "" {
		return value, nil
	}

	if !cfg.IsDevelopment() {
		return "", errors.Errorf("secret %s is required outside %q environment", name, config.EnvDevelopment)
	}

	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrapf(err, "failed to generate ephemeral %s", name)
	}

	logger.Warn("Using ephemeral random secret; tokens will not survive a restart",
		slog.String("secret", name),
	)

	return hex.EncodeToString(buf), nil
}
