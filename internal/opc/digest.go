package opc

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var digestKey = []byte("deckmerge-part-digest-key-000000")

// Digest returns a hex fingerprint of a payload. It identifies identical
// payloads across packages in reports and tests; it is not a security hash.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(data, digestKey))
}
