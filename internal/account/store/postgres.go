package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recordhub/internal/account/models"
	"recordhub/internal/platform/metrics"
	"recordhub/internal/search"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const searchBase = `SELECT ba.id, ba.tenant_id, ba.service_code, ba.reference_id, ba.additional_details,
	ba.row_version, ba.is_deleted, ba.created_by, ba.last_modified_by, ba.created_time, ba.last_modified_time,
	bad.id, bad.tenant_id, bad.account_holder_name, bad.account_number, bad.account_type,
	bad.is_primary, bad.is_active, bad.additional_details,
	bad.created_by, bad.last_modified_by, bad.created_time, bad.last_modified_time,
	bbi.id, bbi.type, bbi.code, bbi.additional_details,
	doc.id, doc.document_type, doc.file_store, doc.document_uid, doc.additional_details
FROM eg_bank_account ba
LEFT JOIN eg_bank_account_detail bad ON bad.bank_account_id = ba.id
LEFT JOIN eg_bank_branch_identifier bbi ON bbi.bank_account_detail_id = bad.id
LEFT JOIN eg_bank_accounts_doc doc ON doc.bank_account_detail_id = bad.id`

var sortColumns = search.SortColumns{
	Columns: map[string]string{
		"createdTime":      "ba.created_time",
		"lastModifiedTime": "ba.last_modified_time",
	},
	Default:      "ba.created_time",
	DefaultOrder: "DESC",
	Tiebreaker:   "ba.id",
}

// Predicates builds the account filters in their fixed order.
func Predicates(c models.SearchCriteria) []search.Predicate {
	b := &search.Builder{}
	b.Equal("ba.tenant_id", c.TenantID).
		In("ba.id", c.IDs).
		EqualOpt("ba.service_code", c.ServiceCode).
		In("ba.reference_id", c.ReferenceIDs).
		In("bad.account_number", c.AccountNumbers).
		EqualOpt("bbi.code", c.BranchCode).
		Contains("bad.account_holder_name", c.AccountHolderName).
		Flag("bad.is_active", c.IsActive).
		Flag("bad.is_primary", c.IsPrimary)
	return b.Predicates()
}

// SearchQuery composes the search statement with '?' placeholders. Pagination
// must already be normalized.
//
// LIMIT and OFFSET count joined rows, not accounts: an account whose details
// and documents straddle a page boundary appears on both pages, each copy
// carrying only the children that fell on that page.
func SearchQuery(c models.SearchCriteria) search.Query {
	return search.Compose(searchBase, Predicates(c), c.Pagination.Sort(), sortColumns, c.Pagination.Page())
}

// PostgresStore reads bank accounts from PostgreSQL. Writes go through the
// persister bus.
type PostgresStore struct {
	db      Querier
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*PostgresStore)

func WithLogger(logger *slog.Logger) Option {
	return func(s *PostgresStore) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *PostgresStore) {
		s.metrics = m
	}
}

func NewPostgres(db Querier, opts ...Option) *PostgresStore {
	s := &PostgresStore{
		db:     db,
		logger: slog.Default(),
		tracer: otel.Tracer("recordhub/internal/account/store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns matching accounts with their details, branch identifiers
// and documents, in result order.
func (s *PostgresStore) Search(ctx context.Context, c models.SearchCriteria) (accounts []*models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "account.store.Search",
		trace.WithAttributes(attribute.String("tenant_id", c.TenantID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	q := SearchQuery(c)
	rows, err := s.db.QueryContext(ctx, search.Rebind(q.SQL), q.Args...)
	if err != nil {
		return nil, fmt.Errorf("search bank accounts: %w", err)
	}
	defer rows.Close()

	asm := NewAssembler(s.logger, s.metrics)
	for rows.Next() {
		var r Row
		if err := rows.Scan(r.targets()...); err != nil {
			return nil, fmt.Errorf("scan bank account row: %w", err)
		}
		asm.Add(ctx, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank account rows: %w", err)
	}

	accounts = asm.Accounts()
	span.SetAttributes(attribute.Int("results", len(accounts)))
	s.metrics.ObserveSearch(entity, time.Since(start), len(accounts))
	return accounts, nil
}

// ExistingIDs returns the subset of ids that exist for the tenant.
func (s *PostgresStore) ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM eg_bank_account WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find existing bank accounts: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bank account id: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank account ids: %w", err)
	}
	return found, nil
}
