// Package cryptox implements the encrypted payload envelope carried by QR
// codes and wallet passes. The envelope proves the payload originated from
// this server; current validity must still be checked against the token
// store before any authorization decision.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Naimehossein77/gym-nfc/internal/common"
)

// Envelope is the compact claims set embedded in an encrypted payload.
// Exp is epoch seconds; nil means the token never expires.
type Envelope struct {
	Token    string `json:"t"`
	MemberID int64  `json:"mid"`
	Exp      *int64 `json:"exp"`
}

// Codec encrypts and decrypts payload envelopes with AES-256-GCM.
// A Codec with a nil key is valid and reports itself as disabled:
// the feature is optional and absent configuration is not an error.
type Codec struct {
	key []byte
}

// NewCodec builds a Codec from a base64-encoded 32-byte key. An empty
// string yields a disabled codec.
func NewCodec(encodedKey string) (*Codec, error) {
	if encodedKey == "" {
		return &Codec{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("payload key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("payload key must be 32 bytes, got %d", len(key))
	}
	return &Codec{key: key}, nil
}

// Enabled reports whether a key is configured.
func (c *Codec) Enabled() bool {
	return len(c.key) > 0
}

// Encode serializes the envelope to JSON and encrypts it. The random
// 12-byte nonce is prepended to the ciphertext and the whole blob is
// base64 URL encoded for transport.
//
// Returns common.ErrNoPayloadKey when no key is configured.
func (c *Codec) Encode(env *Envelope) (string, error) {
	if !c.Enabled() {
		return "", common.ErrNoPayloadKey
	}

	plaintext, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decode decrypts a payload produced by Encode and parses the envelope.
// Tampered, undecryptable, or structurally incomplete input returns
// common.ErrMalformedPayload; the concrete cause is wrapped for logs but
// the input is treated as untrusted either way.
func (c *Codec) Decode(payload string) (*Envelope, error) {
	if !c.Enabled() {
		return nil, common.ErrNoPayloadKey
	}

	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(raw) < aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: payload too short", common.ErrMalformedPayload)
	}
	nonce, ciphertext := raw[:aesgcm.NonceSize()], raw[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	env := &Envelope{}
	if err := json.Unmarshal(plaintext, env); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	if env.Token == "" || env.MemberID == 0 {
		return nil, fmt.Errorf("%w: missing required fields", common.ErrMalformedPayload)
	}

	return env, nil
}
