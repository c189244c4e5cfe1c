// fingerprint.go generates stable keys for grouping identical failures.

package det

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint returns a 32-hex-char key derived from the category and the
// four identifiers of a record. Tracer ID, sequence and timestamp are ignored,
// so the same failure reported twice, or by two tracers, fingerprints equally.
func Fingerprint(category Category, rec Record) string {
	var buf [6]byte
	buf[0] = byte(category)
	binary.BigEndian.PutUint16(buf[1:3], rec.ModuleID)
	buf[3] = rec.InstanceID
	buf[4] = rec.APIID
	buf[5] = rec.ErrorID

	hash := sha256.Sum256(buf[:])
	return hex.EncodeToString(hash[:16])
}
