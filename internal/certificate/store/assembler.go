package store

import (
	"context"
	"database/sql"
	"log/slog"

	"recordhub/internal/certificate/models"
	"recordhub/internal/platform/metrics"
	"recordhub/internal/search"
	"recordhub/pkg/optional"
	"recordhub/pkg/platform/audit"
)

const entity = "certificate"

// Row is one flat row of the certificate/proof join.
type Row struct {
	ID                string
	TenantID          string
	Context           string
	Type              string
	IssuerID          string
	IssuerName        string
	IssuerType        string
	SubjectID         string
	IssuedAt          int64
	ExpiresAt         sql.NullInt64
	Status            string
	CredentialSubject []byte
	AdditionalDetails []byte
	CreatedBy         string
	LastModifiedBy    string
	CreatedTime       int64
	LastModifiedTime  int64
	ProofID           sql.NullString
	ProofType         sql.NullString
	ProofCreated      sql.NullInt64
	ProofPurpose      sql.NullString
	ProofMethod       sql.NullString
	ProofSignature    sql.NullString
	ProofAdditional   []byte
}

func (r *Row) targets() []any {
	return []any{
		&r.ID, &r.TenantID, &r.Context, &r.Type, &r.IssuerID, &r.IssuerName, &r.IssuerType,
		&r.SubjectID, &r.IssuedAt, &r.ExpiresAt, &r.Status, &r.CredentialSubject, &r.AdditionalDetails,
		&r.CreatedBy, &r.LastModifiedBy, &r.CreatedTime, &r.LastModifiedTime,
		&r.ProofID, &r.ProofType, &r.ProofCreated, &r.ProofPurpose, &r.ProofMethod, &r.ProofSignature,
		&r.ProofAdditional,
	}
}

// Assembler folds joined rows into certificates in first-seen order, attaching
// at most one proof to each.
type Assembler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	certs   *search.Index[models.Certificate]
}

func NewAssembler(logger *slog.Logger, m *metrics.Metrics) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		logger:  logger,
		metrics: m,
		certs:   search.NewIndex[models.Certificate](),
	}
}

func (a *Assembler) Add(ctx context.Context, r *Row) {
	cert, _ := a.certs.GetOrAdd(r.ID, func() *models.Certificate {
		c := &models.Certificate{
			ID:       r.ID,
			TenantID: r.TenantID,
			Context:  r.Context,
			Type:     r.Type,
			Issuer: &models.Issuer{
				ID:   r.IssuerID,
				Name: r.IssuerName,
				Type: r.IssuerType,
			},
			Issued:            r.IssuedAt,
			Status:            r.Status,
			CredentialSubject: a.object(ctx, "c.credential_subject", r.ID, r.CredentialSubject),
			AdditionalDetails: a.object(ctx, "c.additional_details", r.ID, r.AdditionalDetails),
			AuditDetails: &audit.Details{
				CreatedBy:        r.CreatedBy,
				LastModifiedBy:   r.LastModifiedBy,
				CreatedTime:      r.CreatedTime,
				LastModifiedTime: r.LastModifiedTime,
			},
		}
		if r.ExpiresAt.Valid {
			c.ExpirationDate = optional.Of(r.ExpiresAt.Int64)
		}
		return c
	})

	if r.ProofID.Valid && cert.Proof == nil {
		cert.Proof = &models.Proof{
			ID:                 r.ProofID.String,
			Type:               r.ProofType.String,
			Created:            r.ProofCreated.Int64,
			ProofPurpose:       r.ProofPurpose.String,
			VerificationMethod: r.ProofMethod.String,
			SignatureValue:     r.ProofSignature.String,
			AdditionalDetails:  a.object(ctx, "p.additional_details", r.ProofID.String, r.ProofAdditional),
		}
	}
}

func (a *Assembler) Certificates() []*models.Certificate {
	return a.certs.Values()
}

func (a *Assembler) object(ctx context.Context, column, id string, payload []byte) map[string]any {
	out, err := search.DecodeObject(payload)
	if err != nil {
		a.logger.WarnContext(ctx, "dropping undecodable payload",
			"entity", entity,
			"column", column,
			"id", id,
			"error", err,
		)
		a.metrics.IncrementDecodeWarning(entity, column)
		return nil
	}
	return out
}
