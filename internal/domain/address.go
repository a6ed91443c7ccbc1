package domain

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether address is a 0x-prefixed 20-byte hex string.
// Only syntax is checked.
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(strings.TrimSpace(address))
}

// NormalizeAddress returns the canonical lowercase key for an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ChecksumAddress renders an address in EIP-55 mixed-case form.
// Invalid input is returned normalized but otherwise untouched.
func ChecksumAddress(address string) string {
	addr := NormalizeAddress(address)
	if !IsValidAddress(addr) {
		return addr
	}

	hexPart := addr[2:]
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(hexPart))
	digest := hex.EncodeToString(hasher.Sum(nil))

	var sb strings.Builder
	sb.Grow(len(addr))
	sb.WriteString("0x")
	for i, ch := range hexPart {
		if ch >= 'a' && ch <= 'f' && digest[i] >= '8' {
			sb.WriteRune(ch - ('a' - 'A'))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}
