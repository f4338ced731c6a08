package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"recordhub/internal/certificate/models"
	"recordhub/internal/certificate/verification"
	"recordhub/internal/idgen"
	"recordhub/internal/search"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/platform/audit"
	"recordhub/pkg/platform/sentinel"
	"recordhub/pkg/requestcontext"
)

type Store interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Certificate, error)
	Count(ctx context.Context, criteria models.SearchCriteria) (int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Certificate, error)
	ExistsActiveForSubject(ctx context.Context, tenantID, subjectID, certificateType string) (bool, error)
	ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error)
}

// Verifier evaluates a loaded certificate.
type Verifier interface {
	Verify(ctx context.Context, cert *models.Certificate, flags verification.Flags, extras map[string]any) *models.VerificationResult
}

// Signer produces proof values.
type Signer interface {
	Sign(ctx context.Context, cert *models.Certificate) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, tenantID string, payload any) error
}

type IDGenerator interface {
	Next(ctx context.Context, tenantID, kind string, n int) ([]string, error)
}

type Config struct {
	Limits          search.Limits
	MaxPerRequest   int
	DefaultContext  string
	ProofType       string
	ProofPurpose    string
	VerificationKey string
	CreateTopic     string
	UpdateTopic     string
	RevokeTopic     string
}

// Service issues, updates, revokes, searches and verifies certificates.
type Service struct {
	store     Store
	verifier  Verifier
	signer    Signer
	publisher Publisher
	ids       IDGenerator
	cfg       Config
	logger    *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, verifier Verifier, signer Signer, publisher Publisher, ids IDGenerator, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:     store,
		verifier:  verifier,
		signer:    signer,
		publisher: publisher,
		ids:       ids,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns one page of matching certificates and the total match count.
func (s *Service) Search(ctx context.Context, c models.SearchCriteria) ([]*models.Certificate, int, error) {
	if err := s.checkCriteria(c); err != nil {
		return nil, 0, err
	}
	c = c.WithPagination(c.Pagination().Normalized(s.cfg.Limits))

	certs, err := s.store.Search(ctx, c)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search certificates")
	}
	total, err := s.store.Count(ctx, c)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count certificates")
	}
	return certs, total, nil
}

func (s *Service) checkCriteria(c models.SearchCriteria) error {
	if strings.TrimSpace(c.TenantID) == "" {
		return dErrors.New(dErrors.CodeInvalidCriteria, "tenantId is required")
	}
	if status, ok := c.Status.Get(); ok && !slices.Contains(models.Statuses, status) {
		return dErrors.New(dErrors.CodeInvalidCriteria,
			"invalid status, valid values are: "+strings.Join(models.Statuses, ", "))
	}
	from, hasFrom := c.FromDate.Get()
	to, hasTo := c.ToDate.Get()
	if hasFrom && hasTo && from > to {
		return dErrors.New(dErrors.CodeInvalidCriteria, "fromDate cannot be after toDate")
	}
	return c.Pagination().Check(s.cfg.Limits)
}

// Verify loads the certificate and runs the requested checks on it.
func (s *Service) Verify(ctx context.Context, c models.VerificationCriteria) (*models.VerificationResult, error) {
	if c.TenantID == "" || c.CertificateID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tenantId and certificateId are required")
	}
	cert, err := s.store.FindByID(ctx, c.TenantID, c.CertificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}

	result := s.verifier.Verify(ctx, cert, verification.FlagsFrom(c), c.AdditionalValidations)
	s.logger.InfoContext(ctx, "certificate verified",
		"tenant_id", c.TenantID,
		"certificate_id", cert.ID,
		"valid", result.IsValid,
	)
	return result, nil
}

// Create enriches new certificates with ids, proofs and audit details and
// publishes them.
func (s *Service) Create(ctx context.Context, req *models.Request) ([]*models.Certificate, error) {
	if s.cfg.MaxPerRequest > 0 && len(req.Certificates) > s.cfg.MaxPerRequest {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("cannot create more than %d certificates in a single request", s.cfg.MaxPerRequest))
	}
	ctx = req.RequestInfo.WithActor(ctx)
	now := requestcontext.Now(ctx).UnixMilli()

	for _, cert := range req.Certificates {
		if exp, ok := cert.ExpirationDate.Get(); ok && exp <= now {
			return nil, dErrors.New(dErrors.CodeValidation, "expirationDate cannot be in the past")
		}
		if subject := cert.SubjectID(); subject != "" {
			exists, err := s.store.ExistsActiveForSubject(ctx, cert.TenantID, subject, cert.Type)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certificates")
			}
			if exists {
				return nil, dErrors.New(dErrors.CodeConflict,
					fmt.Sprintf("active certificate already exists for subject %s and type %s", subject, cert.Type))
			}
		}
	}

	for _, cert := range req.Certificates {
		if err := s.enrichCreate(ctx, cert, now); err != nil {
			return nil, err
		}
	}
	if err := s.publish(ctx, s.cfg.CreateTopic, req); err != nil {
		return nil, err
	}
	return req.Certificates, nil
}

func (s *Service) enrichCreate(ctx context.Context, cert *models.Certificate, now int64) error {
	if cert.ID == "" {
		id, err := s.allocate(ctx, cert.TenantID, idgen.KindCertificate)
		if err != nil {
			return err
		}
		cert.ID = id
	}
	cert.Issued = now
	if cert.Status == "" {
		cert.Status = models.StatusActive
	}
	if cert.Context == "" {
		cert.Context = s.cfg.DefaultContext
	}
	cert.AuditDetails = audit.New(ctx)
	return s.sign(ctx, cert, now)
}

// Update requires every certificate to exist and re-signs those that carry a proof.
func (s *Service) Update(ctx context.Context, req *models.Request) ([]*models.Certificate, error) {
	if err := s.checkExisting(ctx, req.Certificates); err != nil {
		return nil, err
	}
	ctx = req.RequestInfo.WithActor(ctx)
	now := requestcontext.Now(ctx).UnixMilli()

	for _, cert := range req.Certificates {
		cert.AuditDetails = audit.Touch(ctx, cert.AuditDetails)
		if cert.Proof != nil {
			if err := s.sign(ctx, cert, now); err != nil {
				return nil, err
			}
		}
	}
	if err := s.publish(ctx, s.cfg.UpdateTopic, req); err != nil {
		return nil, err
	}
	return req.Certificates, nil
}

func (s *Service) checkExisting(ctx context.Context, certs []*models.Certificate) error {
	byTenant := make(map[string][]string)
	for _, cert := range certs {
		if strings.TrimSpace(cert.ID) == "" {
			return dErrors.New(dErrors.CodeValidation, "certificate id is required for update")
		}
		byTenant[cert.TenantID] = append(byTenant[cert.TenantID], cert.ID)
	}

	var missing []string
	for tenantID, ids := range byTenant {
		found, err := s.store.ExistingIDs(ctx, tenantID, ids)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificates")
		}
		for _, id := range ids {
			if !slices.Contains(found, id) {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return dErrors.New(dErrors.CodeNotFound, "certificates not found: "+strings.Join(missing, ", "))
	}
	return nil
}

// Revoke marks certificates REVOKED, records the reason and publishes them.
func (s *Service) Revoke(ctx context.Context, req *models.RevocationRequest) ([]*models.Certificate, error) {
	certs := make([]*models.Certificate, 0, len(req.RevocationDetails))
	for _, d := range req.RevocationDetails {
		cert, err := s.store.FindByID(ctx, d.TenantID, d.CertificateID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found: "+d.CertificateID)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
		}
		if cert.Status == models.StatusRevoked {
			return nil, dErrors.New(dErrors.CodeConflict, "certificate is already revoked: "+d.CertificateID)
		}
		certs = append(certs, cert)
	}

	ctx = req.RequestInfo.WithActor(ctx)
	now := requestcontext.Now(ctx).UnixMilli()
	for i, cert := range certs {
		cert.Status = models.StatusRevoked
		cert.AuditDetails = audit.Touch(ctx, cert.AuditDetails)
		if cert.AdditionalDetails == nil {
			cert.AdditionalDetails = make(map[string]any)
		}
		cert.AdditionalDetails[models.DetailRevocationReason] = req.RevocationDetails[i].Reason
		cert.AdditionalDetails[models.DetailRevocationTimestamp] = now
	}

	out := &models.Request{RequestInfo: req.RequestInfo, Certificates: certs}
	if err := s.publish(ctx, s.cfg.RevokeTopic, out); err != nil {
		return nil, err
	}
	return certs, nil
}

// sign replaces the certificate's proof with a fresh one. An existing proof id
// is kept.
func (s *Service) sign(ctx context.Context, cert *models.Certificate, now int64) error {
	var proofID string
	if cert.Proof != nil {
		proofID = cert.Proof.ID
	}
	if proofID == "" {
		id, err := s.allocate(ctx, cert.TenantID, idgen.KindProof)
		if err != nil {
			return err
		}
		proofID = id
	}

	value, err := s.signer.Sign(ctx, cert)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign certificate")
	}
	var issuerID string
	if cert.Issuer != nil {
		issuerID = cert.Issuer.ID
	}
	cert.Proof = &models.Proof{
		ID:                 proofID,
		Type:               s.cfg.ProofType,
		Created:            now,
		ProofPurpose:       s.cfg.ProofPurpose,
		VerificationMethod: issuerID + "#" + s.cfg.VerificationKey,
		SignatureValue:     value,
	}
	return nil
}

func (s *Service) allocate(ctx context.Context, tenantID, kind string) (string, error) {
	ids, err := s.ids.Next(ctx, tenantID, kind, 1)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate ids")
	}
	if len(ids) != 1 {
		return "", dErrors.New(dErrors.CodeInternal, "id generator returned too few ids")
	}
	return ids[0], nil
}

func (s *Service) publish(ctx context.Context, topic string, req *models.Request) error {
	if len(req.Certificates) == 0 {
		return nil
	}
	tenantID := req.Certificates[0].TenantID
	if err := s.publisher.Publish(ctx, topic, tenantID, req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish certificates")
	}
	s.logger.InfoContext(ctx, "certificates published",
		"topic", topic,
		"tenant_id", tenantID,
		"count", len(req.Certificates),
	)
	return nil
}
