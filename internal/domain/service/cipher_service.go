package service

// CipherService encrypts and decrypts opaque payloads with a process-wide
// symmetric key. Each encryption uses a fresh random nonce encoded alongside
// the ciphertext, so Decrypt needs nothing beyond the token itself.
type CipherService interface {
	// Encrypt seals plaintext into a wire token.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens a wire token. Malformed input, a wrong key or corrupted
	// ciphertext all return an error; callers treat any failure as an invalid token.
	Decrypt(token string) (string, error)
}
