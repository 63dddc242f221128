package messagebus

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// SubjectKey derives the partition key for a subject person ident. Hashing
// keeps the raw ident off the bus while still routing all of one subject's
// records to the same partition.
func SubjectKey(subjectIdent string) []byte {
	sum := sha3.Sum256([]byte(subjectIdent))
	return []byte(hex.EncodeToString(sum[:]))
}
