package random

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// IDLength is the length of generated player, room and game IDs
	IDLength = 9
	// IDAlphabet is the characters used in generated IDs
	IDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// maxIDAttempts bounds the collision retries in UniqueID
	maxIDAttempts = 16
)

// ErrIDExhausted is returned when no free ID was found within the retry budget
var ErrIDExhausted = errors.New("could not allocate a unique id")

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// String generates a random string of the given length from the given alphabet
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}

// UniqueID draws IDs until exists reports one as free
func UniqueID(ctx context.Context, r Random, exists func(ctx context.Context, id string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.String(IDLength, IDAlphabet)
		if id == "" {
			continue
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
