// Package wallet loads the encrypted keypair file and maintains the
// refresh-maintained wallet/blockhash state (C9/C11 glue), grounded on
// _examples/original_source/bin/arb/src/metadata.rs. The keypair file
// format and KDF are specified in SPEC_FULL §6: 16-byte salt, 12-byte
// nonce, then AES-256-GCM ciphertext, key derived via Argon2id
// (m=128MiB, t=3, p=4, 32-byte output) — stdlib crypto/aes+crypto/cipher
// paired with golang.org/x/crypto/argon2, since AES-GCM has no third-party
// alternative anywhere in the example corpus (see DESIGN.md).
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen  = 16
	nonceLen = 12

	argon2Memory  = 128 * 1024 // KiB
	argon2Time    = 3
	argon2Threads = 4
	argon2KeyLen  = 32
)

// LoadKeypair decrypts an on-disk keypair file with password, returning the
// private key it contains. The decrypted plaintext is the JSON-encoded
// 64-byte secret key array solana-go's Wallet format uses.
func LoadKeypair(path string, password []byte) (solana.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	if len(raw) < saltLen+nonceLen {
		return nil, fmt.Errorf("keypair file too short")
	}
	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+nonceLen]
	ciphertext := raw[saltLen+nonceLen:]

	key := argon2.IDKey(password, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("build aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("build gcm: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keypair: %w", err)
	}

	var secretKeyBytes []byte
	if err := json.Unmarshal(plaintext, &secretKeyBytes); err != nil {
		return nil, fmt.Errorf("parse decrypted keypair json: %w", err)
	}
	return solana.PrivateKey(secretKeyBytes), nil
}

// SaveKeypair encrypts priv to path with password, for operator tooling
// (not exercised by the engine itself, which only ever reads keypairs).
func SaveKeypair(path string, password []byte, priv solana.PrivateKey) error {
	plaintext, err := json.Marshal([]byte(priv))
	if err != nil {
		return fmt.Errorf("marshal keypair: %w", err)
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	key := argon2.IDKey(password, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("build aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("build gcm: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltLen+nonceLen+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return os.WriteFile(path, out, 0o600)
}
