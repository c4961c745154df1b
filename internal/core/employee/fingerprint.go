// Package employee contains the pure logic for employee fingerprints.
package employee

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/example/feecc/internal/apperr"
)

// Fingerprint returns the lowercase hex SHA-256 of the space-joined
// rfid card id, name and position. Terminals record this value in place
// of the card id.
func Fingerprint(rfidCardID, name, position string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{rfidCardID, name, position}, " ")))
	return hex.EncodeToString(sum[:])
}

// LooksLikeFingerprint reports whether s has the shape of a fingerprint.
func LooksLikeFingerprint(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ValidateFields checks the fields required to register an employee.
func ValidateFields(rfidCardID, name, position string) error {
	switch {
	case strings.TrimSpace(rfidCardID) == "":
		return apperr.Validation("rfid_card_id is required")
	case strings.TrimSpace(name) == "":
		return apperr.Validation("name is required")
	case strings.TrimSpace(position) == "":
		return apperr.Validation("position is required")
	}
	if strings.ContainsAny(rfidCardID, " \t\n") {
		return apperr.Validation("rfid_card_id %q must not contain whitespace", rfidCardID)
	}
	return nil
}
