// Package vault provides password-based authenticated encryption for
// memory fragments.
//
// Information Hiding:
// - Key derivation (PBKDF2-SHA256) and cipher construction hidden
// - On-disk blob layout (salt || nonce || ciphertext || tag) encapsulated
// - All decrypt failure modes collapsed into a single "absent" result so
//   callers cannot distinguish a wrong password from corrupted data

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

// Params holds the cryptographic parameters for a Protector.
// Changing any value breaks interoperability with blobs written under
// the previous values, so they are configuration, not tuning knobs.
type Params struct {
	// SaltSize is the salt length in bytes prepended to each blob.
	SaltSize int
	// Iterations is the PBKDF2 iteration count.
	Iterations int
	// KeySize is the derived key length in bytes (32 selects AES-256).
	KeySize int
	// NonceSize is the GCM nonce length in bytes.
	NonceSize int
}

// DefaultParams returns the parameters used for fragment files:
// 16-byte salt, 480,000 PBKDF2 iterations (OWASP recommendation),
// AES-256, 12-byte GCM nonce.
func DefaultParams() Params {
	return Params{
		SaltSize:   16,
		Iterations: 480000,
		KeySize:    32,
		NonceSize:  12,
	}
}

// gcmTagSize is fixed by AES-GCM.
const gcmTagSize = 16

// Protector performs symmetric authenticated encryption of byte buffers
// using a key derived from a passphrase.
type Protector struct {
	passphrase []byte
	params     Params
	logger     *zap.Logger
}

// New creates a Protector. The passphrase must be non-empty and the
// parameters must be positive; violations are construction-time errors.
func New(passphrase string, params Params, logger *zap.Logger) (*Protector, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("vault: passphrase cannot be empty")
	}
	if params.SaltSize <= 0 {
		return nil, fmt.Errorf("vault: salt size must be positive, got %d", params.SaltSize)
	}
	if params.Iterations <= 0 {
		return nil, fmt.Errorf("vault: iteration count must be positive, got %d", params.Iterations)
	}
	if params.KeySize != 16 && params.KeySize != 24 && params.KeySize != 32 {
		return nil, fmt.Errorf("vault: key size must be 16, 24 or 32 bytes, got %d", params.KeySize)
	}
	if params.NonceSize <= 0 {
		return nil, fmt.Errorf("vault: nonce size must be positive, got %d", params.NonceSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Protector{
		passphrase: []byte(passphrase),
		params:     params,
		logger:     logger,
	}, nil
}

// MinBlobSize returns the smallest valid encrypted blob length:
// salt, nonce and tag plus at least one ciphertext byte.
func (p *Protector) MinBlobSize() int {
	return p.params.SaltSize + p.params.NonceSize + gcmTagSize + 1
}

// deriveKey stretches the passphrase into a cipher key using
// PBKDF2-SHA256 with the given salt. Deterministic for a fixed
// (passphrase, salt) pair.
func (p *Protector) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(p.passphrase, salt, p.params.Iterations, p.params.KeySize, sha256.New)
}

// Encrypt encrypts plaintext with a fresh random salt and nonce and
// returns salt || nonce || ciphertext || tag. GCM has no padding, so
// the ciphertext section has exactly len(plaintext) bytes.
func (p *Protector) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, p.params.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: failed to generate salt: %w", err)
	}
	nonce := make([]byte, p.params.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("vault: failed to generate nonce: %w", err)
	}

	aead, err := p.newAEAD(p.deriveKey(salt))
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, p.params.SaltSize+p.params.NonceSize+len(plaintext)+gcmTagSize)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	// Seal appends ciphertext followed by the tag.
	blob = aead.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Decrypt parses salt, nonce and tag from their fixed offsets, derives
// the key and decrypts. It returns (plaintext, true) on success and
// (nil, false) for every failure mode: truncated blob, tag mismatch
// (wrong passphrase or tampered data) or any other cryptographic error.
// Failure causes are deliberately indistinguishable to the caller.
func (p *Protector) Decrypt(blob []byte) ([]byte, bool) {
	if len(blob) < p.MinBlobSize() {
		p.logger.Warn("decryption failed: blob too short",
			zap.Int("size", len(blob)),
			zap.Int("min_size", p.MinBlobSize()))
		return nil, false
	}

	salt := blob[:p.params.SaltSize]
	nonce := blob[p.params.SaltSize : p.params.SaltSize+p.params.NonceSize]
	sealed := blob[p.params.SaltSize+p.params.NonceSize:]

	aead, err := p.newAEAD(p.deriveKey(salt))
	if err != nil {
		p.logger.Warn("decryption failed: cipher construction", zap.Error(err))
		return nil, false
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Wrong passphrase and corrupted data both land here.
		p.logger.Warn("decryption failed: authentication", zap.Error(err))
		return nil, false
	}
	return plaintext, true
}

func (p *Protector) newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, p.params.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to create GCM: %w", err)
	}
	return aead, nil
}
