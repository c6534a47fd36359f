package service

import (
	"crypto/rand"
	"encoding/hex"
)

// randomHex returns n random bytes encoded as lowercase hex.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
