package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"recordhub/internal/account/models"
	"recordhub/internal/account/reference"
	"recordhub/internal/idgen"
	"recordhub/internal/pii"
	"recordhub/internal/search"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/optional"
	"recordhub/pkg/platform/audit"
	"recordhub/pkg/platform/envelope"
)

type Store interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Account, error)
	ExistingIDs(ctx context.Context, tenantID string, ids []string) ([]string, error)
}

// Publisher hands accepted writes to the persister bus.
type Publisher interface {
	Publish(ctx context.Context, topic, tenantID string, payload any) error
}

type IDGenerator interface {
	Next(ctx context.Context, tenantID, kind string, n int) ([]string, error)
}

// ReferenceValidator confirms that an account's referenceId names a known
// individual or organisation for its service code.
type ReferenceValidator interface {
	Exists(ctx context.Context, info *envelope.RequestInfo, serviceCode, tenantID, referenceID string) (bool, error)
}

type Config struct {
	Limits      search.Limits
	CreateTopic string
	UpdateTopic string
}

// Service validates, enriches and publishes bank account writes and serves
// searches from the store.
type Service struct {
	store     Store
	publisher Publisher
	ids       IDGenerator
	codec     pii.Codec
	refs      ReferenceValidator
	cfg       Config
	logger    *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCodec sets the codec for account numbers and holder names. The default
// stores them as given.
func WithCodec(codec pii.Codec) Option {
	return func(s *Service) {
		s.codec = codec
	}
}

// WithReferenceValidator enables owner lookups on create and update. The
// default accepts every reference.
func WithReferenceValidator(refs ReferenceValidator) Option {
	return func(s *Service) {
		s.refs = refs
	}
}

func New(store Store, publisher Publisher, ids IDGenerator, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: publisher,
		ids:       ids,
		codec:     pii.Passthrough{},
		refs:      reference.Noop{},
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns accounts matching the criteria and the resolved pagination.
func (s *Service) Search(ctx context.Context, c models.SearchCriteria) ([]*models.Account, search.Pagination, error) {
	if strings.TrimSpace(c.TenantID) == "" {
		return nil, search.Pagination{}, dErrors.New(dErrors.CodeInvalidCriteria, "tenantId is required")
	}
	if err := c.Pagination.Check(s.cfg.Limits); err != nil {
		return nil, search.Pagination{}, err
	}
	c.Pagination = c.Pagination.Normalized(s.cfg.Limits)

	if err := s.encryptCriteria(ctx, &c); err != nil {
		return nil, search.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt search criteria")
	}

	accounts, err := s.store.Search(ctx, c)
	if err != nil {
		return nil, search.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search bank accounts")
	}
	if err := s.transform(ctx, accounts, s.codec.Decrypt); err != nil {
		return nil, search.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decrypt bank accounts")
	}
	return accounts, c.Pagination, nil
}

// Create assigns ids and audit details to new accounts and publishes them.
func (s *Service) Create(ctx context.Context, req *models.Request) ([]*models.Account, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	if err := checkPrimary(req.BankAccounts); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}
	ctx = req.RequestInfo.WithActor(ctx)

	for _, account := range req.BankAccounts {
		if err := s.enrichCreate(ctx, account); err != nil {
			return nil, err
		}
	}
	if err := s.publish(ctx, s.cfg.CreateTopic, req); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bank accounts created",
		"tenant_id", req.BankAccounts[0].TenantID,
		"count", len(req.BankAccounts),
	)
	return req.BankAccounts, nil
}

// Update requires every account to exist, bumps row versions and publishes.
func (s *Service) Update(ctx context.Context, req *models.Request) ([]*models.Account, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	if err := checkPrimary(req.BankAccounts); err != nil {
		return nil, err
	}
	if err := s.checkExisting(ctx, req.BankAccounts); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}
	ctx = req.RequestInfo.WithActor(ctx)

	for _, account := range req.BankAccounts {
		if err := s.enrichUpdate(ctx, account); err != nil {
			return nil, err
		}
	}
	if err := s.publish(ctx, s.cfg.UpdateTopic, req); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bank accounts updated",
		"tenant_id", req.BankAccounts[0].TenantID,
		"count", len(req.BankAccounts),
	)
	return req.BankAccounts, nil
}

func checkRequest(req *models.Request) error {
	if req == nil || len(req.BankAccounts) == 0 {
		return dErrors.New(dErrors.CodeValidation, "bankAccounts must not be empty")
	}
	for _, account := range req.BankAccounts {
		if account == nil {
			return dErrors.New(dErrors.CodeValidation, "bankAccounts must not contain null entries")
		}
	}
	return nil
}

// checkReferences reports every unknown owner in one validation error.
func (s *Service) checkReferences(ctx context.Context, req *models.Request) error {
	var invalid []string
	for _, account := range req.BankAccounts {
		ok, err := s.refs.Exists(ctx, req.RequestInfo, account.ServiceCode, account.TenantID, account.ReferenceID)
		if err != nil {
			s.logger.WarnContext(ctx, "reference lookup failed",
				"service_code", account.ServiceCode,
				"reference_id", account.ReferenceID,
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "reference registry unavailable")
		}
		if !ok {
			invalid = append(invalid, account.ServiceCode+"/"+account.ReferenceID)
		}
	}
	if len(invalid) > 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid reference ids: "+strings.Join(invalid, ", "))
	}
	return nil
}

// checkPrimary allows at most one primary detail per account.
func checkPrimary(accounts []*models.Account) error {
	for _, account := range accounts {
		primaries := 0
		for _, d := range account.Details {
			if d.IsPrimary {
				primaries++
			}
		}
		if primaries > 1 {
			return dErrors.New(dErrors.CodeValidation, "bank account "+account.ReferenceID+" has more than one primary detail")
		}
	}
	return nil
}

// defaultPrimary flags the first detail as primary when none is.
func defaultPrimary(account *models.Account) {
	if len(account.Details) == 0 {
		return
	}
	for _, d := range account.Details {
		if d.IsPrimary {
			return
		}
	}
	account.Details[0].IsPrimary = true
}

func (s *Service) checkExisting(ctx context.Context, accounts []*models.Account) error {
	byTenant := make(map[string][]string)
	for _, account := range accounts {
		if strings.TrimSpace(account.ID) == "" {
			return dErrors.New(dErrors.CodeValidation, "id is required for update")
		}
		byTenant[account.TenantID] = append(byTenant[account.TenantID], account.ID)
	}

	var missing []string
	for tenantID, ids := range byTenant {
		found, err := s.store.ExistingIDs(ctx, tenantID, ids)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bank accounts")
		}
		seen := make(map[string]struct{}, len(found))
		for _, id := range found {
			seen[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return dErrors.New(dErrors.CodeNotFound, "bank accounts not found: "+strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) enrichCreate(ctx context.Context, account *models.Account) error {
	ids, err := s.allocate(ctx, account.TenantID, idgen.KindAccount, 1)
	if err != nil {
		return err
	}
	account.ID = ids[0]
	account.RowVersion = 1
	account.IsDeleted = false
	account.AuditDetails = audit.New(ctx)
	defaultPrimary(account)

	for _, d := range account.Details {
		d.ID = ""
		d.IsActive = true
		d.AuditDetails = nil
		if d.BranchIdentifier != nil {
			d.BranchIdentifier.ID = ""
		}
		for _, doc := range d.Documents {
			doc.ID = ""
		}
	}
	return s.enrichDetails(ctx, account)
}

func (s *Service) enrichUpdate(ctx context.Context, account *models.Account) error {
	account.RowVersion++
	account.AuditDetails = audit.Touch(ctx, account.AuditDetails)
	return s.enrichDetails(ctx, account)
}

// enrichDetails assigns ids to children that have none and stamps audit details.
func (s *Service) enrichDetails(ctx context.Context, account *models.Account) error {
	for _, d := range account.Details {
		if d.TenantID == "" {
			d.TenantID = account.TenantID
		}
		if d.ID == "" {
			ids, err := s.allocate(ctx, account.TenantID, idgen.KindAccountDetail, 1)
			if err != nil {
				return err
			}
			d.ID = ids[0]
			d.AuditDetails = audit.New(ctx)
		} else {
			d.AuditDetails = audit.Touch(ctx, d.AuditDetails)
		}

		if b := d.BranchIdentifier; b != nil && b.ID == "" {
			ids, err := s.allocate(ctx, account.TenantID, idgen.KindBranchIdentifier, 1)
			if err != nil {
				return err
			}
			b.ID = ids[0]
		}

		var fresh []*models.Document
		for _, doc := range d.Documents {
			if doc.ID == "" {
				fresh = append(fresh, doc)
			}
		}
		if len(fresh) > 0 {
			ids, err := s.allocate(ctx, account.TenantID, idgen.KindDocument, len(fresh))
			if err != nil {
				return err
			}
			for i, doc := range fresh {
				doc.ID = ids[i]
			}
		}
	}
	return nil
}

func (s *Service) allocate(ctx context.Context, tenantID, kind string, n int) ([]string, error) {
	ids, err := s.ids.Next(ctx, tenantID, kind, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate ids")
	}
	if len(ids) != n {
		return nil, dErrors.New(dErrors.CodeInternal, "id generator returned too few ids")
	}
	return ids, nil
}

// publish sends the request with PII encoded and restores it afterwards so the
// caller sees plain values.
func (s *Service) publish(ctx context.Context, topic string, req *models.Request) error {
	if err := s.transform(ctx, req.BankAccounts, s.codec.Encrypt); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt bank accounts")
	}
	err := s.publisher.Publish(ctx, topic, req.BankAccounts[0].TenantID, req)
	if derr := s.transform(ctx, req.BankAccounts, s.codec.Decrypt); derr != nil && err == nil {
		err = derr
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish bank accounts")
	}
	return nil
}

type codecFunc func(ctx context.Context, tenantID string, values []string) ([]string, error)

// transform applies fn to the account number and holder name of every detail.
func (s *Service) transform(ctx context.Context, accounts []*models.Account, fn codecFunc) error {
	for _, account := range accounts {
		if len(account.Details) == 0 {
			continue
		}
		values := make([]string, 0, 2*len(account.Details))
		for _, d := range account.Details {
			values = append(values, d.AccountNumber, d.AccountHolderName)
		}
		out, err := fn(ctx, account.TenantID, values)
		if err != nil {
			return err
		}
		for i, d := range account.Details {
			d.AccountNumber = out[2*i]
			d.AccountHolderName = out[2*i+1]
		}
	}
	return nil
}

// encryptCriteria encodes exact-match PII filters. A holder name substring
// only matches when the codec leaves values readable.
func (s *Service) encryptCriteria(ctx context.Context, c *models.SearchCriteria) error {
	values := append([]string(nil), c.AccountNumbers...)
	name, hasName := c.AccountHolderName.Get()
	if hasName {
		values = append(values, name)
	}
	if len(values) == 0 {
		return nil
	}
	out, err := s.codec.Encrypt(ctx, c.TenantID, values)
	if err != nil {
		return err
	}
	if len(c.AccountNumbers) > 0 {
		c.AccountNumbers = out[:len(c.AccountNumbers)]
	}
	if hasName {
		c.AccountHolderName = optional.Of(out[len(out)-1])
	}
	return nil
}
