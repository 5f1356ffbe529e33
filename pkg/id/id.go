package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewTxnRef returns a client-facing transaction reference: "TXN" followed by
// 16 uppercase hex characters.
func NewTxnRef() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "TXN" + strings.ToUpper(hex.EncodeToString(b))
}
