package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordhub/pkg/optional"
)

func TestCertificateJSONExpirationDate(t *testing.T) {
	t.Run("absent expiration date is omitted", func(t *testing.T) {
		out, err := json.Marshal(Certificate{TenantID: "pb.amritsar", Type: "birth"})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "expirationDate")
	})

	t.Run("present expiration date is written", func(t *testing.T) {
		out, err := json.Marshal(Certificate{TenantID: "pb.amritsar", ExpirationDate: optional.Of(int64(1700000000000))})
		require.NoError(t, err)
		assert.Contains(t, string(out), `"expirationDate":1700000000000`)
	})
}
