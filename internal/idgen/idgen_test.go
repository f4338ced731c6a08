package idgen

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator(t *testing.T) {
	g := NewUUIDGenerator(WithPrefix(KindCertificate, "CERT-"))

	ids, err := g.Next(context.Background(), "pb", KindCertificate, 3)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	seen := map[string]bool{}
	for _, id := range ids {
		require.True(t, strings.HasPrefix(id, "CERT-"))
		_, err := uuid.Parse(strings.TrimPrefix(id, "CERT-"))
		assert.NoError(t, err)
		seen[id] = true
	}
	assert.Len(t, seen, 3)

	plain, err := g.Next(context.Background(), "pb", KindAccount, 1)
	require.NoError(t, err)
	_, err = uuid.Parse(plain[0])
	assert.NoError(t, err)
}
