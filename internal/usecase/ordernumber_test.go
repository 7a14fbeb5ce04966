package usecase

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

func TestOrderNumberFormat(t *testing.T) {
	g := NewOrderNumberGenerator()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		n, err := g.Next()
		require.NoError(t, err)
		require.Regexp(t, orderNumberPattern, n)
		seen[n] = struct{}{}
	}
	assert.Greater(t, len(seen), 195)
}

func TestOrderNumberUsesUTCDate(t *testing.T) {
	g := &OrderNumberGenerator{
		now:    func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -2*3600)) },
		random: bytes.NewReader([]byte{0, 1, 2, 25, 26, 35}),
	}
	n, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240310-ABCZ09", n)
}

func TestOrderNumberDiscardsBiasedBytes(t *testing.T) {
	g := &OrderNumberGenerator{
		now:    func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) },
		random: bytes.NewReader([]byte{252, 0, 255, 37, 2, 3, 253, 4, 5, 6, 7, 8}),
	}
	n, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240309-ABCDEF", n)
	assert.Equal(t, 252, orderNumberByteLimit)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy") }

func TestOrderNumberRandomFailure(t *testing.T) {
	g := &OrderNumberGenerator{now: time.Now, random: failingReader{}}
	_, err := g.Next()
	require.Error(t, err)
}
