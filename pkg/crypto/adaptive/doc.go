// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// It picks AES-256-GCM when the platform has hardware AES support and
// falls back to ChaCha20-Poly1305 otherwise. Both are AEAD ciphers; the
// nonce is generated per message and prepended to the ciphertext.
//
// Usage:
//
//	cipher, err := adaptive.New(key)
//	encrypted, err := cipher.Encrypt(plaintext, aad)
//	plaintext, err := cipher.Decrypt(encrypted, aad)
package adaptive
