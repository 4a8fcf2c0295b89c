package storage

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Arweave transaction ids are 32 bytes in unpadded base64url.
var arweaveID = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

func ValidArweaveID(id string) bool {
	return arweaveID.MatchString(id)
}

// ContentID derives an Arweave-shaped id from the payload itself, so equal
// payloads share an id.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func ValidCID(id string) bool {
	_, err := cid.Decode(id)
	return err == nil
}

var rawPrefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   mh.SHA2_256,
	MhLength: -1,
}

// RawCID is the CIDv1 an IPFS node assigns to data stored as a single raw block.
func RawCID(data []byte) (cid.Cid, error) {
	return rawPrefix.Sum(data)
}
