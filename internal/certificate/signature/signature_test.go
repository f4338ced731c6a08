package signature

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordhub/internal/certificate/models"
	"recordhub/pkg/optional"
)

func certificate() *models.Certificate {
	return &models.Certificate{
		ID:             "cert-1",
		TenantID:       "pb",
		Context:        "https://www.w3.org/2018/credentials/v1",
		Type:           "BirthCertificate",
		Issuer:         &models.Issuer{ID: "did:gov:registrar", Name: "Registrar", Type: models.IssuerTypeDepartment},
		Issued:         1700000000000,
		ExpirationDate: optional.Of(int64(1800000000000)),
		CredentialSubject: map[string]any{
			"id":     "did:citizen:42",
			"weight": 3.0,
		},
		Status: models.StatusActive,
	}
}

func TestSignAndVerify(t *testing.T) {
	ctx := context.Background()
	cert := certificate()

	sig, err := DigestSigner{}.Sign(ctx, cert)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sig, "z"))
	assert.Len(t, sig, 65)

	data, err := Canonical(cert)
	require.NoError(t, err)
	ok, err := DigestVerifier{}.Verify(ctx, data, "did:gov:registrar#key-1", sig)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("tampered subject fails", func(t *testing.T) {
		tampered := certificate()
		tampered.CredentialSubject["id"] = "did:citizen:43"
		data, err := Canonical(tampered)
		require.NoError(t, err)
		ok, err := DigestVerifier{}.Verify(ctx, data, "", sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revocation keeps the proof valid", func(t *testing.T) {
		revoked := certificate()
		revoked.Status = models.StatusRevoked
		revoked.AdditionalDetails = map[string]any{"revocationReason": "fraud"}
		data, err := Canonical(revoked)
		require.NoError(t, err)
		ok, err := DigestVerifier{}.Verify(ctx, data, "", sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty signature fails", func(t *testing.T) {
		ok, err := DigestVerifier{}.Verify(ctx, data, "", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCanonicalSurvivesStorageRoundTrip(t *testing.T) {
	cert := certificate()
	before, err := Canonical(cert)
	require.NoError(t, err)

	// Storage hands back subjects decoded with json.Number.
	dec := json.NewDecoder(strings.NewReader(`{"id":"did:citizen:42","weight":3.0}`))
	dec.UseNumber()
	var subject map[string]any
	require.NoError(t, dec.Decode(&subject))
	cert.CredentialSubject = subject

	after, err := Canonical(cert)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
