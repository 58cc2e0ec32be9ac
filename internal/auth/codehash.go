package auth

import "golang.org/x/crypto/bcrypt"

// Lowest bcrypt cost; codes are short-lived and attempt-capped.
const codeHashCost = bcrypt.MinCost

// HashCode hashes a one-time code so it is never held in clear.
func HashCode(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), codeHashCost)
}

// CompareCode verifies a submitted code against its hash.
func CompareCode(hashed []byte, submitted string) error {
	return bcrypt.CompareHashAndPassword(hashed, []byte(submitted))
}
