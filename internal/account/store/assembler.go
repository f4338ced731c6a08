package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"recordhub/internal/account/models"
	"recordhub/internal/platform/metrics"
	"recordhub/internal/search"
	"recordhub/pkg/platform/audit"
)

const entity = "bank_account"

// Row is one flat row of the account/detail/branch/document join. Columns from
// LEFT JOINed tables are nullable.
type Row struct {
	AccountID          string
	TenantID           string
	ServiceCode        string
	ReferenceID        string
	AccountAdditional  []byte
	RowVersion         int
	IsDeleted          bool
	CreatedBy          string
	LastModifiedBy     string
	CreatedTime        int64
	LastModifiedTime   int64
	DetailID           sql.NullString
	DetailTenantID     sql.NullString
	AccountHolderName  sql.NullString
	AccountNumber      sql.NullString
	AccountType        sql.NullString
	IsPrimary          sql.NullBool
	IsActive           sql.NullBool
	DetailAdditional   []byte
	DetailCreatedBy    sql.NullString
	DetailModifiedBy   sql.NullString
	DetailCreatedTime  sql.NullInt64
	DetailModifiedTime sql.NullInt64
	BranchID           sql.NullString
	BranchType         sql.NullString
	BranchCode         sql.NullString
	BranchAdditional   []byte
	DocumentID         sql.NullString
	DocumentType       sql.NullString
	FileStore          sql.NullString
	DocumentUID        sql.NullString
	DocumentAdditional []byte
}

// targets returns scan destinations in projection order.
func (r *Row) targets() []any {
	return []any{
		&r.AccountID, &r.TenantID, &r.ServiceCode, &r.ReferenceID, &r.AccountAdditional,
		&r.RowVersion, &r.IsDeleted, &r.CreatedBy, &r.LastModifiedBy, &r.CreatedTime, &r.LastModifiedTime,
		&r.DetailID, &r.DetailTenantID, &r.AccountHolderName, &r.AccountNumber, &r.AccountType,
		&r.IsPrimary, &r.IsActive, &r.DetailAdditional,
		&r.DetailCreatedBy, &r.DetailModifiedBy, &r.DetailCreatedTime, &r.DetailModifiedTime,
		&r.BranchID, &r.BranchType, &r.BranchCode, &r.BranchAdditional,
		&r.DocumentID, &r.DocumentType, &r.FileStore, &r.DocumentUID, &r.DocumentAdditional,
	}
}

// Assembler folds joined rows back into account trees. It keeps first-seen root
// order and attaches each detail and document once however often the join
// repeats it. Use one Assembler per query.
type Assembler struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	accounts  *search.Index[models.Account]
	details   *search.Index[models.Detail]
	documents map[string]struct{}
}

func NewAssembler(logger *slog.Logger, m *metrics.Metrics) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		logger:    logger,
		metrics:   m,
		accounts:  search.NewIndex[models.Account](),
		details:   search.NewIndex[models.Detail](),
		documents: make(map[string]struct{}),
	}
}

// Add folds one row into the result.
func (a *Assembler) Add(ctx context.Context, r *Row) {
	account, _ := a.accounts.GetOrAdd(r.AccountID, func() *models.Account {
		return &models.Account{
			ID:               r.AccountID,
			TenantID:         r.TenantID,
			ServiceCode:      r.ServiceCode,
			ReferenceID:      r.ReferenceID,
			AdditionalFields: a.raw(ctx, "ba.additional_details", r.AccountID, r.AccountAdditional),
			RowVersion:       r.RowVersion,
			IsDeleted:        r.IsDeleted,
			AuditDetails: &audit.Details{
				CreatedBy:        r.CreatedBy,
				LastModifiedBy:   r.LastModifiedBy,
				CreatedTime:      r.CreatedTime,
				LastModifiedTime: r.LastModifiedTime,
			},
		}
	})

	if !r.DetailID.Valid {
		return
	}
	detail, created := a.details.GetOrAdd(r.DetailID.String, func() *models.Detail {
		return &models.Detail{
			ID:                r.DetailID.String,
			TenantID:          r.DetailTenantID.String,
			AccountHolderName: r.AccountHolderName.String,
			AccountNumber:     r.AccountNumber.String,
			AccountType:       r.AccountType.String,
			IsPrimary:         r.IsPrimary.Bool,
			IsActive:          r.IsActive.Bool,
			AdditionalFields:  a.raw(ctx, "bad.additional_details", r.DetailID.String, r.DetailAdditional),
			AuditDetails: &audit.Details{
				CreatedBy:        r.DetailCreatedBy.String,
				LastModifiedBy:   r.DetailModifiedBy.String,
				CreatedTime:      r.DetailCreatedTime.Int64,
				LastModifiedTime: r.DetailModifiedTime.Int64,
			},
		}
	})
	if created {
		account.Details = append(account.Details, detail)
	}

	if r.BranchID.Valid && detail.BranchIdentifier == nil {
		detail.BranchIdentifier = &models.BranchIdentifier{
			ID:                r.BranchID.String,
			Type:              r.BranchType.String,
			Code:              r.BranchCode.String,
			AdditionalDetails: a.raw(ctx, "bbi.additional_details", r.BranchID.String, r.BranchAdditional),
		}
	}

	if r.DocumentID.Valid {
		key := detail.ID + "/" + r.DocumentID.String
		if _, seen := a.documents[key]; !seen {
			a.documents[key] = struct{}{}
			detail.Documents = append(detail.Documents, &models.Document{
				ID:                r.DocumentID.String,
				DocumentType:      r.DocumentType.String,
				FileStore:         r.FileStore.String,
				DocumentUID:       r.DocumentUID.String,
				AdditionalDetails: a.raw(ctx, "doc.additional_details", r.DocumentID.String, r.DocumentAdditional),
			})
		}
	}
}

// Accounts returns the assembled roots in first-seen order.
func (a *Assembler) Accounts() []*models.Account {
	return a.accounts.Values()
}

func (a *Assembler) raw(ctx context.Context, column, id string, payload []byte) json.RawMessage {
	out, err := search.DecodeRaw(payload)
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
