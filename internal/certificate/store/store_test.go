package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordhub/internal/certificate/models"
	"recordhub/pkg/optional"
)

func TestSearchQuery(t *testing.T) {
	c := models.SearchCriteria{
		TenantID:  "pb",
		IssuerIDs: []string{"did:gov:a"},
		Status:    optional.Of(models.StatusActive),
		FromDate:  optional.Of(int64(100)),
		ToDate:    optional.Of(int64(200)),
		SortBy:    "issuer",
		SortOrder: "ASC",
		Limit:     optional.Of(20),
		Offset:    optional.Of(40),
	}

	q := SearchQuery(c)
	assert.Contains(t, q.SQL, "LEFT JOIN eg_certificate_proof p ON p.certificate_id = c.id"+
		" WHERE c.tenant_id = ? AND c.issuer_id IN (?) AND c.status = ? AND c.issued_at >= ? AND c.issued_at <= ?"+
		" ORDER BY c.issuer_name ASC, c.id ASC LIMIT ? OFFSET ?")
	assert.Equal(t, []any{"pb", "did:gov:a", "ACTIVE", int64(100), int64(200), 20, 40}, q.Args)

	count := CountQuery(c)
	assert.Equal(t, "SELECT COUNT(DISTINCT c.id) FROM eg_certificate c"+
		" WHERE c.tenant_id = ? AND c.issuer_id IN (?) AND c.status = ? AND c.issued_at >= ? AND c.issued_at <= ?", count.SQL)
	assert.Equal(t, []any{"pb", "did:gov:a", "ACTIVE", int64(100), int64(200)}, count.Args)
}

func TestSearchQueryDefaultSort(t *testing.T) {
	q := SearchQuery(models.SearchCriteria{TenantID: "pb", Limit: optional.Of(100), Offset: optional.Of(0)})
	assert.Contains(t, q.SQL, "WHERE c.tenant_id = ? ORDER BY c.issued_at DESC, c.id DESC LIMIT ? OFFSET ?")
}

func certRow(id, proofID string) *Row {
	r := &Row{
		ID:                id,
		TenantID:          "pb",
		Type:              "BirthCertificate",
		IssuerID:          "did:gov:registrar",
		Status:            models.StatusActive,
		IssuedAt:          1000,
		CredentialSubject: []byte(`{"id":"did:citizen:1","age":7}`),
	}
	if proofID != "" {
		r.ProofID = sql.NullString{String: proofID, Valid: true}
		r.ProofSignature = sql.NullString{String: "zabc", Valid: true}
	}
	return r
}

func TestAssembler(t *testing.T) {
	ctx := context.Background()

	t.Run("certificate without proof", func(t *testing.T) {
		asm := NewAssembler(nil, nil)
		asm.Add(ctx, certRow("c1", ""))

		certs := asm.Certificates()
		require.Len(t, certs, 1)
		assert.Nil(t, certs[0].Proof)
		assert.False(t, certs[0].ExpirationDate.IsSet())
		assert.Equal(t, "did:citizen:1", certs[0].SubjectID())
	})

	t.Run("repeated rows attach one proof and keep order", func(t *testing.T) {
		asm := NewAssembler(nil, nil)
		asm.Add(ctx, certRow("c2", "p2"))
		asm.Add(ctx, certRow("c1", "p1"))
		asm.Add(ctx, certRow("c2", "p2"))

		certs := asm.Certificates()
		require.Len(t, certs, 2)
		assert.Equal(t, "c2", certs[0].ID)
		assert.Equal(t, "c1", certs[1].ID)
		require.NotNil(t, certs[0].Proof)
		assert.Equal(t, "p2", certs[0].Proof.ID)
	})

	t.Run("expiry and malformed details", func(t *testing.T) {
		r := certRow("c1", "")
		r.ExpiresAt = sql.NullInt64{Int64: 5000, Valid: true}
		r.AdditionalDetails = []byte(`not json`)

		asm := NewAssembler(nil, nil)
		asm.Add(ctx, r)

		cert := asm.Certificates()[0]
		assert.Equal(t, optional.Of(int64(5000)), cert.ExpirationDate)
		assert.Nil(t, cert.AdditionalDetails)
		assert.NotNil(t, cert.CredentialSubject)
	})
}
