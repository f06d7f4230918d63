// Package keycodec converts the backend's URL-safe base64 public push key
// into the raw byte buffer the platform subscribe call requires.
package keycodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MinKeyLength is the smallest decoded key accepted. Undersized keys are a
// known platform failure mode, particularly on mobile, and must fail loudly
// rather than produce a subscription that silently never receives pushes.
const MinKeyLength = 8

var (
	ErrEmptyKey      = errors.New("KEY_EMPTY")
	ErrDecodeFailed  = errors.New("KEY_DECODE_FAILED")
	ErrUndersizedKey = errors.New("KEY_UNDERSIZED")
)

// DecodeApplicationKey decodes a web-safe base64 application server key,
// tolerating missing padding. Callers must not attempt to subscribe with a
// key that failed this contract.
func DecodeApplicationKey(key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: application server key is empty", ErrEmptyKey)
	}

	if pad := len(key) % 4; pad != 0 {
		key += strings.Repeat("=", 4-pad)
	}
	key = strings.ReplaceAll(key, "-", "+")
	key = strings.ReplaceAll(key, "_", "/")

	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	if len(raw) < MinKeyLength {
		return nil, fmt.Errorf("%w: decoded key is %d bytes, need at least %d",
			ErrUndersizedKey, len(raw), MinKeyLength)
	}

	return raw, nil
}
