package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerKey returns a storage-safe namespace for an owner ID so blob paths never
// carry raw user identifiers.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte("owner:" + ownerID))
	return hex.EncodeToString(sum[:])
}
