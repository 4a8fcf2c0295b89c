// Package chain builds mint transactions for the coinspace_nft Move module
// and talks to a Sui full node over JSON-RPC.
package chain

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Ed25519Flag is the signature scheme byte prefixed to public keys and
// signatures.
const Ed25519Flag byte = 0x00

var addressRE = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

func ValidAddress(addr string) bool {
	return addressRE.MatchString(addr)
}

// NormalizeAddress lowercases addr and left pads it to 32 bytes.
func NormalizeAddress(addr string) (string, error) {
	if !ValidAddress(addr) {
		return "", fmt.Errorf("invalid address %q", addr)
	}
	h := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	return "0x" + strings.Repeat("0", 64-len(h)) + h, nil
}

// AddressFromPublicKey derives the account address of an ed25519 key.
func AddressFromPublicKey(pub []byte) string {
	buf := make([]byte, 0, len(pub)+1)
	buf = append(buf, Ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}
