package random_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship/internal/dependencies/mocks"
	"github.com/mcoot/battleship/internal/dependencies/random"
)

func TestCryptoRandomStringUsesAlphabet(t *testing.T) {
	r := random.New()

	id := r.String(random.IDLength, random.IDAlphabet)

	require.Len(t, id, random.IDLength)
	for _, ch := range id {
		assert.True(t, strings.ContainsRune(random.IDAlphabet, ch), "unexpected rune %q", ch)
	}
}

func TestCryptoRandomIntnBounds(t *testing.T) {
	r := random.New()

	assert.Equal(t, 0, r.Intn(0))
	for i := 0; i < 100; i++ {
		n := r.Intn(7)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 7)
	}
}

func TestUniqueIDSkipsTakenIDs(t *testing.T) {
	r := mocks.NewMockRandom()
	r.QueueString("taken0001", "free00001")

	id, err := random.UniqueID(context.Background(), r, func(_ context.Context, id string) (bool, error) {
		return id == "taken0001", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "free00001", id)
}

func TestUniqueIDGivesUpWhenExhausted(t *testing.T) {
	r := mocks.NewMockRandom()

	_, err := random.UniqueID(context.Background(), r, func(context.Context, string) (bool, error) {
		return false, nil
	})

	assert.ErrorIs(t, err, random.ErrIDExhausted)
}

func TestUniqueIDPropagatesLookupErrors(t *testing.T) {
	r := mocks.NewMockRandom()
	r.QueueString("abc123xyz")
	boom := errors.New("boom")

	_, err := random.UniqueID(context.Background(), r, func(context.Context, string) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
}
