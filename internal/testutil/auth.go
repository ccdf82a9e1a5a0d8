package testutil

import (
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/security"
)

// TestSecret signs every token minted in tests
const TestSecret = "this-is-a-test-secret-with-32-bytes!"

func randInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GeneratePassword generates a 10 character password with a capital and special char
func GeneratePassword() string {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		special = "!@#$%^&*"
		numbers = "0123456789"
		all     = lower + upper + special + numbers
	)

	password := make([]byte, 10)
	password[0] = upper[randInt(len(upper))]
	password[1] = special[randInt(len(special))]
	password[2] = numbers[randInt(len(numbers))]

	for i := 3; i < 10; i++ {
		password[i] = all[randInt(len(all))]
	}

	for i := range password {
		j := randInt(len(password))
		password[i], password[j] = password[j], password[i]
	}

	return string(password)
}

// NewIssuer returns a token issuer signing with TestSecret
func NewIssuer(t *testing.T) *security.JWTIssuer {
	t.Helper()
	issuer, err := security.NewJWTIssuer(TestSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token issuer: %v", err)
	}
	return issuer
}

// MintToken issues an access token for userID
func MintToken(t *testing.T, issuer security.TokenIssuer, userID uint) string {
	t.Helper()
	token, _, err := issuer.Issue(userID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}
