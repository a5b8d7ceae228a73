// Package idgen allocates entity IDs and computes the content hashes used
// for translation-memory exact lookup.
package idgen

import (
	"crypto/sha256"
	"math/big"
	"strings"
	"unicode"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// EncodeBase36 converts a byte slice to a base36 string of specified length,
// truncating to the least-significant digits or zero-padding on the left.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	var chars []byte
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// NormalizeSource folds a TM source string to the canonical form that
// SourceHash is computed over: trimmed, lower-cased, runs of whitespace
// collapsed to a single space.
func NormalizeSource(s string) string {
	var b strings.Builder
	lastSpace := true // treat leading whitespace as already collapsed
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		lastSpace = false
	}
	return b.String()
}

// SourceHash computes the deterministic hash of normalize(source) used to
// key TM entries for exact-match lookup (TMRepository.search_exact).
func SourceHash(source string) string {
	sum := sha256.Sum256([]byte(NormalizeSource(source)))
	return EncodeBase36(sum[:], 26)
}
