// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fernet/fernet-go"

	"github.com/stacklok/toolhive-core/httperr"

	"github.com/datastudies/coursekit/pkg/logger"
)

// DecoderType selects how ciphertext fields of the encrypted config are read.
type DecoderType string

const (
	// FernetDecoderType decrypts Fernet tokens with the configured key.
	FernetDecoderType DecoderType = "fernet"

	// Base64DecoderType treats each field as plain base64. It is a degraded
	// compatibility mode for configs written without encryption.
	Base64DecoderType DecoderType = "base64"
)

// fernetNoTTL disables the token age check; configs are long lived.
const fernetNoTTL = time.Duration(-1)

// ErrUnknownDecoderType is returned when an invalid DecoderType is specified.
var ErrUnknownDecoderType = httperr.WithCode(
	errors.New("unknown credential decoder type"),
	http.StatusBadRequest,
)

// ErrDecode is wrapped by every decoding failure.
var ErrDecode = errors.New("failed to decode credential")

// Decoder turns a stored ciphertext field back into plaintext.
type Decoder interface {
	Decode(ciphertext, key string) (string, error)
	Type() DecoderType
}

// NewDecoder creates the decoder for decoderType. An empty type means fernet.
func NewDecoder(decoderType DecoderType) (Decoder, error) {
	switch decoderType {
	case FernetDecoderType, "":
		return FernetDecoder{}, nil
	case Base64DecoderType:
		return &Base64Decoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid types: %s, %s)",
			ErrUnknownDecoderType, decoderType, FernetDecoderType, Base64DecoderType)
	}
}

// FernetDecoder decrypts Fernet tokens (AES-128-CBC + HMAC-SHA256).
type FernetDecoder struct{}

// Type implements Decoder.
func (FernetDecoder) Type() DecoderType {
	return FernetDecoderType
}

// Decode implements Decoder.
func (FernetDecoder) Decode(ciphertext, key string) (string, error) {
	k, err := fernet.DecodeKey(strings.TrimSpace(key))
	if err != nil {
		return "", fmt.Errorf("%w: invalid key: %w", ErrDecode, err)
	}

	msg := fernet.VerifyAndDecrypt([]byte(strings.TrimSpace(ciphertext)), fernetNoTTL, []*fernet.Key{k})
	if msg == nil {
		return "", fmt.Errorf("%w: token rejected", ErrDecode)
	}
	if !utf8.Valid(msg) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecode)
	}
	return string(msg), nil
}

// Base64Decoder ignores the key and base64-decodes the field.
type Base64Decoder struct {
	warnOnce sync.Once
}

// Type implements Decoder.
func (*Base64Decoder) Type() DecoderType {
	return Base64DecoderType
}

// Decode implements Decoder.
func (b *Base64Decoder) Decode(ciphertext, _ string) (string, error) {
	b.warnOnce.Do(func() {
		logger.Warnf("credential decoding is running in degraded %s mode; stored credentials are not encrypted",
			Base64DecoderType)
	})

	msg, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if !utf8.Valid(msg) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecode)
	}
	return string(msg), nil
}

// GenerateKey returns a new random Fernet key in its URL-safe base64 form.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return k.Encode(), nil
}

// Encrypt produces a Fernet token for plaintext under key.
func Encrypt(plaintext, key string) (string, error) {
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return "", fmt.Errorf("invalid key: %w", err)
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), k)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return string(tok), nil
}
