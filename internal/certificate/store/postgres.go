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

	"recordhub/internal/certificate/models"
	"recordhub/internal/platform/metrics"
	"recordhub/internal/search"
	"recordhub/pkg/optional"
	"recordhub/pkg/platform/sentinel"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const searchBase = `SELECT c.id, c.tenant_id, c.context, c.certificate_type, c.issuer_id, c.issuer_name,
	c.issuer_type, c.subject_id, c.issued_at, c.expires_at, c.status,
	c.credential_subject, c.additional_details, c.created_by, c.last_modified_by,
	c.created_time, c.last_modified_time,
	p.id, p.proof_type, p.created, p.proof_purpose, p.verification_method, p.signature_value,
	p.additional_details
FROM eg_certificate c
LEFT JOIN eg_certificate_proof p ON p.certificate_id = c.id`

const countBase = `SELECT COUNT(DISTINCT c.id) FROM eg_certificate c`

var sortColumns = search.SortColumns{
	Columns: map[string]string{
		"issued":         "c.issued_at",
		"expirationDate": "c.expires_at",
		"status":         "c.status",
		"issuer":         "c.issuer_name",
	},
	Default:      "c.issued_at",
	DefaultOrder: "DESC",
	Tiebreaker:   "c.id",
}

// Predicates builds the certificate filters in their fixed order. None of them
// touch the proof table, so the count query can skip the join.
func Predicates(c models.SearchCriteria) []search.Predicate {
	b := &search.Builder{}
	b.Equal("c.tenant_id", c.TenantID).
		In("c.id", c.IDs).
		In("c.issuer_id", c.IssuerIDs).
		In("c.subject_id", c.SubjectIDs).
		In("c.certificate_type", c.CertificateTypes).
		EqualOpt("c.status", c.Status).
		AtLeast("c.issued_at", c.FromDate).
		AtMost("c.issued_at", c.ToDate)
	return b.Predicates()
}

// SearchQuery composes the paged search statement. Pagination must already be
// normalized. LIMIT and OFFSET count joined certificate/proof rows.
func SearchQuery(c models.SearchCriteria) search.Query {
	p := c.Pagination()
	return search.Compose(searchBase, Predicates(c), p.Sort(), sortColumns, p.Page())
}

// CountQuery counts distinct certificates matching c, ignoring pagination.
func CountQuery(c models.SearchCriteria) search.Query {
	where, args := search.Where(Predicates(c))
	return search.Query{SQL: countBase + where, Args: args}
}

// PostgresStore reads certificates from PostgreSQL.
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
		tracer: otel.Tracer("recordhub/internal/certificate/store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Search(ctx context.Context, c models.SearchCriteria) (certs []*models.Certificate, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.store.Search",
		trace.WithAttributes(attribute.String("tenant_id", c.TenantID)))
	defer endSpan(span, &err)

	start := time.Now()
	q := SearchQuery(c)
	rows, err := s.db.QueryContext(ctx, search.Rebind(q.SQL), q.Args...)
	if err != nil {
		return nil, fmt.Errorf("search certificates: %w", err)
	}
	defer rows.Close()

	asm := NewAssembler(s.logger, s.metrics)
	for rows.Next() {
		var r Row
		if err := rows.Scan(r.targets()...); err != nil {
			return nil, fmt.Errorf("scan certificate row: %w", err)
		}
		asm.Add(ctx, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificate rows: %w", err)
	}

	certs = asm.Certificates()
	span.SetAttributes(attribute.Int("results", len(certs)))
	s.metrics.ObserveSearch(entity, time.Since(start), len(certs))
	return certs, nil
}

func (s *PostgresStore) Count(ctx context.Context, c models.SearchCriteria) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "certificate.store.Count",
		trace.WithAttributes(attribute.String("tenant_id", c.TenantID)))
	defer endSpan(span, &err)

	q := CountQuery(c)
	if err := s.db.QueryRowContext(ctx, search.Rebind(q.SQL), q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return n, nil
}

// FindByID loads one certificate through the search path. It returns
// sentinel.ErrNotFound when the tenant has no such certificate.
func (s *PostgresStore) FindByID(ctx context.Context, tenantID, id string) (*models.Certificate, error) {
	certs, err := s.Search(ctx, models.SearchCriteria{
		TenantID: tenantID,
		IDs:      []string{id},
		Limit:    optional.Of(1),
		Offset:   optional.Of(0),
	})
	if err != nil {
		return nil, fmt.Errorf("find certificate by id: %w", err)
	}
	if len(certs) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return certs[0], nil
}

// ExistsActiveForSubject reports whether the subject already holds an active
// certificate of the type.
func (s *PostgresStore) ExistsActiveForSubject(ctx context.Context, tenantID, subjectID, certificateType string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM eg_certificate
			WHERE tenant_id = $1 AND subject_id = $2 AND certificate_type = $3 AND status = $4)`,
		tenantID, subjectID, certificateType, models.StatusActive).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active certificate: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM eg_certificate WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find existing certificates: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan certificate id: %w", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificate ids: %w", err)
	}
	return found, nil
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
