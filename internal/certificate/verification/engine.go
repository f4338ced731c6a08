// Package verification evaluates trust checks on a certificate and folds them
// into one verdict.
package verification

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"recordhub/internal/certificate/models"
	"recordhub/internal/certificate/signature"
	"recordhub/internal/platform/metrics"
)

const (
	engineName    = "recordhub-certificate"
	engineVersion = "1.0"

	unknownReason = "Unknown"
)

// Detail map keys.
const (
	DetailIssuerID                = "issuerId"
	DetailIssuerName              = "issuerName"
	DetailIssuerType              = "issuerType"
	DetailRevocationReason        = "revocationReason"
	DetailExpiryDate              = "expiryDate"
	DetailSignatureAlgorithm      = "signatureAlgorithm"
	DetailProofVerificationMethod = "proofVerificationMethod"
	DetailProofPurpose            = "proofPurpose"
	DetailSignatureError          = "signatureError"
	DetailIssuerError             = "issuerError"
	DetailEngine                  = "verificationEngine"
	DetailVersion                 = "verificationVersion"
	DetailSubjectExists           = "subjectExists"
	DetailContextValid            = "contextValid"
	DetailUnsupported             = "unsupportedValidations"
)

// Names of the extra validations a caller may request.
const (
	ValidationSubjectExistence = "checkSubjectExistence"
	ValidationContext          = "validateContext"
)

// SignatureVerifier checks a proof value against canonical certificate bytes.
type SignatureVerifier interface {
	Verify(ctx context.Context, data []byte, verificationMethod, signatureValue string) (bool, error)
}

// IssuerRegistry answers whether an issuer is trusted.
type IssuerRegistry interface {
	IsTrusted(ctx context.Context, issuerID string) (bool, error)
}

// Flags selects which of the four gating checks run.
type Flags struct {
	Signature  bool
	Expiry     bool
	Revocation bool
	Issuer     bool
}

// AllChecks requests every gating check.
var AllChecks = Flags{Signature: true, Expiry: true, Revocation: true, Issuer: true}

// FlagsFrom resolves request flags; an unset flag is requested.
func FlagsFrom(c models.VerificationCriteria) Flags {
	return Flags{
		Signature:  c.IncludeProofValidation.OrElse(true),
		Expiry:     c.IncludeExpiryCheck.OrElse(true),
		Revocation: c.IncludeRevocationCheck.OrElse(true),
		Issuer:     c.IncludeIssuerCheck.OrElse(true),
	}
}

// Engine runs verification. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	verifier       SignatureVerifier
	issuers        IssuerRegistry
	defaultContext string
	now            func() time.Time
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Engine)

// WithClock overrides the verification time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithDefaultContext sets the context validateContext compares against.
func WithDefaultContext(ctx string) Option {
	return func(e *Engine) {
		e.defaultContext = ctx
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(verifier SignatureVerifier, issuers IssuerRegistry, opts ...Option) *Engine {
	e := &Engine{
		verifier: verifier,
		issuers:  issuers,
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   otel.Tracer("recordhub/internal/certificate/verification"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify evaluates cert. It never fails: a delegate error turns its check
// false and is reported under "<check>Error" in the details. Extras are
// informational and never affect IsValid.
func (e *Engine) Verify(ctx context.Context, cert *models.Certificate, flags Flags, extras map[string]any) *models.VerificationResult {
	ctx, span := e.tracer.Start(ctx, "certificate.verification.Verify",
		trace.WithAttributes(attribute.String("certificate_id", cert.ID)))
	defer span.End()

	start := time.Now()
	now := e.now()
	details := make(map[string]any)

	notRevoked := true
	if flags.Revocation && cert.Status == models.StatusRevoked {
		notRevoked = false
		details[DetailRevocationReason] = revocationReason(cert)
	}

	notExpired := true
	if flags.Expiry {
		if exp, ok := cert.ExpirationDate.Get(); ok && exp <= now.UnixMilli() {
			notExpired = false
			details[DetailExpiryDate] = exp
		}
	}

	signatureValid := true
	if flags.Signature && cert.Proof != nil {
		signatureValid = e.checkSignature(ctx, cert, details)
	}

	issuerVerified := true
	if flags.Issuer {
		issuerVerified = e.checkIssuer(ctx, cert, details)
	}
	if cert.Issuer != nil {
		details[DetailIssuerID] = cert.Issuer.ID
		details[DetailIssuerName] = cert.Issuer.Name
		details[DetailIssuerType] = cert.Issuer.Type
	}

	details[DetailEngine] = engineName
	details[DetailVersion] = engineVersion
	e.runExtras(cert, extras, details)

	isValid := notRevoked && notExpired && signatureValid && issuerVerified

	if flags.Revocation {
		e.metrics.IncrementCheck("revocation", notRevoked)
	}
	if flags.Expiry {
		e.metrics.IncrementCheck("expiry", notExpired)
	}
	if flags.Signature {
		e.metrics.IncrementCheck("signature", signatureValid)
	}
	if flags.Issuer {
		e.metrics.IncrementCheck("issuer", issuerVerified)
	}
	e.metrics.ObserveVerdict(isValid, time.Since(start))
	span.SetAttributes(attribute.Bool("valid", isValid))

	return &models.VerificationResult{
		CertificateID:         cert.ID,
		IsValid:               isValid,
		SignatureValid:        signatureValid,
		NotExpired:            notExpired,
		NotRevoked:            notRevoked,
		IssuerVerified:        issuerVerified,
		VerificationTimestamp: now.UnixMilli(),
		VerificationDetails:   details,
	}
}

func revocationReason(cert *models.Certificate) any {
	if cert.AdditionalDetails != nil {
		if reason, ok := cert.AdditionalDetails[models.DetailRevocationReason]; ok && reason != nil {
			return reason
		}
	}
	return unknownReason
}

func (e *Engine) checkSignature(ctx context.Context, cert *models.Certificate, details map[string]any) bool {
	proof := cert.Proof
	details[DetailSignatureAlgorithm] = proof.Type
	details[DetailProofVerificationMethod] = proof.VerificationMethod
	details[DetailProofPurpose] = proof.ProofPurpose

	if e.verifier == nil {
		return false
	}
	data, err := signature.Canonical(cert)
	if err != nil {
		details[DetailSignatureError] = err.Error()
		return false
	}
	ok, err := e.verifier.Verify(ctx, data, proof.VerificationMethod, proof.SignatureValue)
	if err != nil {
		e.logger.WarnContext(ctx, "signature verifier failed",
			"certificate_id", cert.ID,
			"error", err,
		)
		e.metrics.IncrementDelegateFailure("signature")
		details[DetailSignatureError] = err.Error()
		return false
	}
	return ok
}

func (e *Engine) checkIssuer(ctx context.Context, cert *models.Certificate, details map[string]any) bool {
	if cert.Issuer == nil || cert.Issuer.ID == "" || e.issuers == nil {
		return false
	}
	ok, err := e.issuers.IsTrusted(ctx, cert.Issuer.ID)
	if err != nil {
		e.logger.WarnContext(ctx, "issuer registry failed",
			"certificate_id", cert.ID,
			"issuer_id", cert.Issuer.ID,
			"error", err,
		)
		e.metrics.IncrementDelegateFailure("issuer")
		details[DetailIssuerError] = err.Error()
		return false
	}
	return ok
}

// runExtras evaluates enabled extra validations. A validation is enabled when
// its value is boolean true.
func (e *Engine) runExtras(cert *models.Certificate, extras map[string]any, details map[string]any) {
	var unsupported []string
	for name, v := range extras {
		switch name {
		case ValidationSubjectExistence:
			if enabled(v) {
				_, ok := cert.CredentialSubject["id"]
				details[DetailSubjectExists] = ok
			}
		case ValidationContext:
			if enabled(v) {
				details[DetailContextValid] = e.defaultContext != "" && cert.Context == e.defaultContext
			}
		default:
			unsupported = append(unsupported, name)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		details[DetailUnsupported] = unsupported
	}
}

func enabled(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
