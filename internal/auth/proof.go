package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// proofSchemeV1 domain-separates the proof digest so a future scheme change
// can coexist with stored v1 records.
const proofSchemeV1 = "voidrush.proof.v1"

// HashProofV1 binds a client-supplied proof value to the claimed player id.
// The digest, not the raw proof, is what identity records are derived from.
func HashProofV1(playerID, proof string) string {
	sum := sha256.Sum256([]byte(proofSchemeV1 + "|" + playerID + "|" + proof))
	return proofSchemeV1 + ":" + hex.EncodeToString(sum[:])
}

// bcryptInput condenses a proof digest to a fixed 32 bytes. bcrypt rejects
// passwords over 72 bytes, and the prefixed hex digest is 82.
func bcryptInput(proofDigest string) []byte {
	sum := sha256.Sum256([]byte(proofDigest))
	return sum[:]
}

// HashProofForStorage bcrypt-hashes a proof digest for the identity table.
func HashProofForStorage(proofDigest string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(proofDigest), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyProofRecord compares a proof digest against a stored bcrypt record.
func VerifyProofRecord(storedHash, proofDigest string) bool {
	if strings.TrimSpace(storedHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), bcryptInput(proofDigest)) == nil
}
