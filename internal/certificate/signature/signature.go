// Package signature produces and checks certificate proof values.
//
// The digest scheme here binds a proof to the certificate content without key
// material: the signature value is "z" followed by the hex SHA-256 of the
// canonical certificate form. It detects tampering but not forgery, and is
// swapped for a key-based implementation at composition time.
package signature

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"recordhub/internal/certificate/models"
	"recordhub/pkg/optional"
)

const multibasePrefix = "z"

// signed is the part of a certificate covered by its proof. Status and
// additional details are left out so revocation does not invalidate the proof.
type signed struct {
	ID                string                `json:"id"`
	TenantID          string                `json:"tenantId"`
	Context           string                `json:"context"`
	Type              string                `json:"type"`
	Issuer            *models.Issuer        `json:"issuer"`
	Issued            int64                 `json:"issued"`
	ExpirationDate    optional.Value[int64] `json:"expirationDate"`
	CredentialSubject map[string]any        `json:"credentialSubject"`
}

// Canonical returns the byte form of cert that proofs are computed over. Map
// keys are sorted and numbers are normalized, so a certificate read back from
// storage yields the same bytes as the one that was signed.
func Canonical(cert *models.Certificate) ([]byte, error) {
	raw, err := json.Marshal(signed{
		ID:                cert.ID,
		TenantID:          cert.TenantID,
		Context:           cert.Context,
		Type:              cert.Type,
		Issuer:            cert.Issuer,
		Issued:            cert.Issued,
		ExpirationDate:    cert.ExpirationDate,
		CredentialSubject: cert.CredentialSubject,
	})
	if err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("normalize certificate: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("normalize certificate: %w", err)
	}
	return out, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return multibasePrefix + hex.EncodeToString(sum[:])
}

// DigestSigner computes digest proof values.
type DigestSigner struct{}

func (DigestSigner) Sign(_ context.Context, cert *models.Certificate) (string, error) {
	data, err := Canonical(cert)
	if err != nil {
		return "", err
	}
	return digest(data), nil
}

// DigestVerifier checks digest proof values. The verification method is not
// consulted.
type DigestVerifier struct{}

func (DigestVerifier) Verify(_ context.Context, data []byte, _ string, signatureValue string) (bool, error) {
	if signatureValue == "" {
		return false, nil
	}
	expected := digest(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureValue)) == 1, nil
}
