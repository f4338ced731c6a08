package models

import (
	"encoding/json"

	"recordhub/internal/search"
	"recordhub/pkg/optional"
	"recordhub/pkg/platform/audit"
)

// Account types accepted on create and update.
const (
	AccountTypeSavings = "SAVINGS"
	AccountTypeCurrent = "CURRENT"
	AccountTypeUPI     = "UPI"
	AccountTypeWallet  = "WALLET"
)

// Branch identifier schemes.
const (
	BranchTypeIFSC  = "IFSC"
	BranchTypeSWIFT = "SWIFT"
)

// Account is a bank account owned by a reference entity (an individual or an
// organisation) of a service.
type Account struct {
	ID               string          `json:"id,omitempty" validate:"max=64"`
	TenantID         string          `json:"tenantId" validate:"notblank,min=2,max=64"`
	ServiceCode      string          `json:"serviceCode" validate:"notblank,min=2,max=64"`
	ReferenceID      string          `json:"referenceId" validate:"notblank,min=2,max=64"`
	Details          []*Detail       `json:"bankAccountDetails" validate:"required,min=1,dive,required"`
	AdditionalFields json.RawMessage `json:"additionalFields,omitempty"`
	RowVersion       int             `json:"rowVersion,omitempty"`
	IsDeleted        bool            `json:"isDeleted"`
	AuditDetails     *audit.Details  `json:"auditDetails,omitempty"`
}

// Detail is one account held under an Account.
type Detail struct {
	ID                string            `json:"id,omitempty" validate:"max=64"`
	TenantID          string            `json:"tenantId" validate:"notblank,min=2,max=64"`
	AccountHolderName string            `json:"accountHolderName" validate:"notblank,max=256"`
	AccountNumber     string            `json:"accountNumber" validate:"notblank,max=64"`
	AccountType       string            `json:"accountType" validate:"oneof=SAVINGS CURRENT UPI WALLET"`
	IsPrimary         bool              `json:"isPrimary"`
	IsActive          bool              `json:"isActive"`
	BranchIdentifier  *BranchIdentifier `json:"bankBranchIdentifier" validate:"required"`
	Documents         []*Document       `json:"documents,omitempty" validate:"dive,required"`
	AdditionalFields  json.RawMessage   `json:"additionalFields,omitempty"`
	AuditDetails      *audit.Details    `json:"auditDetails,omitempty"`
}

// BranchIdentifier locates the branch servicing a Detail. One per Detail.
type BranchIdentifier struct {
	ID                string          `json:"id,omitempty" validate:"max=64"`
	Type              string          `json:"type" validate:"oneof=IFSC SWIFT"`
	Code              string          `json:"code" validate:"notblank,max=64"`
	AdditionalDetails json.RawMessage `json:"additionalDetails,omitempty"`
}

// Document is a supporting file attached to a Detail.
type Document struct {
	ID                string          `json:"id,omitempty" validate:"max=64"`
	DocumentType      string          `json:"documentType" validate:"notblank,max=64"`
	FileStore         string          `json:"fileStore" validate:"notblank,max=256"`
	DocumentUID       string          `json:"documentUid,omitempty" validate:"max=256"`
	AdditionalDetails json.RawMessage `json:"additionalDetails,omitempty"`
}

// SearchCriteria filters accounts. Every field except TenantID is optional;
// empty slices and absent values add no constraint.
type SearchCriteria struct {
	TenantID          string                 `json:"tenantId"`
	IDs               []string               `json:"ids,omitempty"`
	ServiceCode       optional.Value[string] `json:"serviceCode"`
	ReferenceIDs      []string               `json:"referenceId,omitempty"`
	AccountNumbers    []string               `json:"accountNumber,omitempty"`
	BranchCode        optional.Value[string] `json:"bankBranchIdentifierCode"`
	AccountHolderName optional.Value[string] `json:"accountHolderName"`
	IsActive          optional.Value[bool]   `json:"isActive"`
	IsPrimary         optional.Value[bool]   `json:"isPrimary"`
	Pagination        search.Pagination      `json:"-"`
}
