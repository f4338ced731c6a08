package models

import (
	"recordhub/pkg/optional"
	"recordhub/pkg/platform/audit"
)

// Certificate statuses.
const (
	StatusActive  = "ACTIVE"
	StatusRevoked = "REVOKED"
	StatusExpired = "EXPIRED"
)

// Issuer types accepted on create.
const (
	IssuerTypeDepartment           = "DEPARTMENT"
	IssuerTypeAgency               = "AGENCY"
	IssuerTypeReligiousInstitution = "RELIGIOUS_INSTITUTION"
)

// Additional detail keys written on revocation.
const (
	DetailRevocationReason    = "revocationReason"
	DetailRevocationTimestamp = "revocationTimestamp"
)

// Statuses lists the valid certificate statuses.
var Statuses = []string{StatusActive, StatusRevoked, StatusExpired}

// Certificate is a verifiable credential issued to a subject. Times are epoch
// milliseconds.
type Certificate struct {
	ID                string                `json:"id,omitempty" validate:"max=64"`
	TenantID          string                `json:"tenantId" validate:"notblank,max=64"`
	Context           string                `json:"context,omitempty" validate:"max=256"`
	Type              string                `json:"type" validate:"notblank,max=128"`
	Issuer            *Issuer               `json:"issuer" validate:"required"`
	Issued            int64                 `json:"issued,omitempty"`
	ExpirationDate    optional.Value[int64] `json:"expirationDate,omitzero"`
	CredentialSubject map[string]any        `json:"credentialSubject" validate:"required,min=1"`
	Proof             *Proof                `json:"proof,omitempty"`
	Status            string                `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE REVOKED EXPIRED"`
	AdditionalDetails map[string]any        `json:"additionalDetails,omitempty"`
	AuditDetails      *audit.Details        `json:"auditDetails,omitempty"`
}

// SubjectID returns the credential subject's "id", or "" when absent.
func (c *Certificate) SubjectID() string {
	if c.CredentialSubject == nil {
		return ""
	}
	id, _ := c.CredentialSubject["id"].(string)
	return id
}

type Issuer struct {
	ID   string `json:"id" validate:"notblank,max=256"`
	Name string `json:"name" validate:"notblank,max=256"`
	Type string `json:"type" validate:"oneof=DEPARTMENT AGENCY RELIGIOUS_INSTITUTION"`
}

// Proof is the signature attached to a Certificate. One per Certificate.
type Proof struct {
	ID                 string         `json:"id,omitempty"`
	Type               string         `json:"type,omitempty"`
	Created            int64          `json:"created,omitempty"`
	ProofPurpose       string         `json:"proofPurpose,omitempty"`
	VerificationMethod string         `json:"verificationMethod,omitempty"`
	SignatureValue     string         `json:"signatureValue,omitempty"`
	AdditionalDetails  map[string]any `json:"additionalDetails,omitempty"`
}

// SearchCriteria filters certificates. FromDate and ToDate bound the issue time.
type SearchCriteria struct {
	TenantID         string                 `json:"tenantId"`
	IDs              []string               `json:"ids,omitempty"`
	IssuerIDs        []string               `json:"issuerIds,omitempty"`
	SubjectIDs       []string               `json:"subjectIds,omitempty"`
	CertificateTypes []string               `json:"certificateTypes,omitempty"`
	Status           optional.Value[string] `json:"status"`
	FromDate         optional.Value[int64]  `json:"fromDate"`
	ToDate           optional.Value[int64]  `json:"toDate"`
	SortBy           string                 `json:"sortBy,omitempty"`
	SortOrder        string                 `json:"sortOrder,omitempty"`
	Limit            optional.Value[int]    `json:"limit"`
	Offset           optional.Value[int]    `json:"offset"`
}

// VerificationCriteria selects a certificate and the checks to run on it.
// Unset check flags are treated as requested.
type VerificationCriteria struct {
	TenantID               string               `json:"tenantId"`
	CertificateID          string               `json:"certificateId"`
	IncludeProofValidation optional.Value[bool] `json:"includeProofValidation"`
	IncludeExpiryCheck     optional.Value[bool] `json:"includeExpiryCheck"`
	IncludeRevocationCheck optional.Value[bool] `json:"includeRevocationCheck"`
	IncludeIssuerCheck     optional.Value[bool] `json:"includeIssuerCheck"`
	AdditionalValidations  map[string]any       `json:"additionalValidations,omitempty"`
}

// VerificationResult is the verdict for one certificate. IsValid is the AND of
// the four check outcomes; checks that were not requested report true.
type VerificationResult struct {
	CertificateID         string         `json:"certificateId"`
	IsValid               bool           `json:"isValid"`
	SignatureValid        bool           `json:"signatureValid"`
	NotExpired            bool           `json:"notExpired"`
	NotRevoked            bool           `json:"notRevoked"`
	IssuerVerified        bool           `json:"issuerVerified"`
	VerificationTimestamp int64          `json:"verificationTimestamp"`
	VerificationDetails   map[string]any `json:"verificationDetails"`
}

type RevocationDetail struct {
	CertificateID string `json:"certificateId" validate:"notblank"`
	TenantID      string `json:"tenantId" validate:"notblank"`
	Reason        string `json:"reason" validate:"notblank,max=512"`
}
