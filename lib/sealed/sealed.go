// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// ErrNoRecipients is returned by [Encrypt] when called with no keys.
var ErrNoRecipients = errors.New("at least one recipient is required")

// Keypair is an age X25519 keypair in its text encodings.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... identity.
	PrivateKey string
	// PublicKey is the age1... recipient.
	PublicKey string
}

// GenerateKeypair returns a fresh X25519 keypair.
func GenerateKeypair() (Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return Keypair{}, fmt.Errorf("generating age keypair: %w", err)
	}
	return Keypair{PrivateKey: identity.String(), PublicKey: identity.Recipient().String()}, nil
}

// ParseRecipients validates every public key.
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	if len(keys) == 0 {
		return nil, ErrNoRecipients
	}
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// Encrypt encrypts plaintext to every recipient key and returns the
// armored ciphertext ("-----BEGIN AGE ENCRYPTED FILE-----").
func Encrypt(plaintext []byte, recipientKeys []string) ([]byte, error) {
	recipients, err := ParseRecipients(recipientKeys)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	armored := armor.NewWriter(&buffer)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buffer.Bytes(), nil
}

// Decrypt opens armored ciphertext with privateKey.
func Decrypt(ciphertext []byte, privateKey string) ([]byte, error) {
	identity, err := age.ParseX25519Identity(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	reader, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}
