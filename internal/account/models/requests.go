package models

import (
	"strings"

	"recordhub/internal/search"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/platform/envelope"
	strs "recordhub/pkg/platform/strings"
	"recordhub/pkg/validation"
)

// Request is the create and update payload. It is also the message published
// to the persister bus.
type Request struct {
	RequestInfo  *envelope.RequestInfo `json:"requestInfo,omitempty"`
	BankAccounts []*Account            `json:"bankAccounts" validate:"required,min=1,dive,required"`
}

func (r *Request) Validate() error {
	return validation.Validate(r)
}

type SearchRequest struct {
	RequestInfo *envelope.RequestInfo `json:"requestInfo,omitempty"`
	Criteria    *SearchCriteria       `json:"bankAccountDetails"`
	Pagination  search.Pagination     `json:"pagination"`
}

// Normalize trims criteria strings and drops blank values so they count as absent.
func (r *SearchRequest) Normalize() {
	if r.Criteria == nil {
		return
	}
	c := r.Criteria
	c.TenantID = strings.TrimSpace(c.TenantID)
	c.IDs = strs.DedupeAndTrim(c.IDs)
	c.ReferenceIDs = strs.DedupeAndTrim(c.ReferenceIDs)
	c.AccountNumbers = strs.DedupeAndTrim(c.AccountNumbers)
	c.ServiceCode = strs.TrimOptional(c.ServiceCode)
	c.BranchCode = strs.TrimOptional(c.BranchCode)
	c.AccountHolderName = strs.TrimOptional(c.AccountHolderName)
	c.Pagination = r.Pagination
}

func (r *SearchRequest) Validate() error {
	if r.Criteria == nil {
		return dErrors.New(dErrors.CodeValidation, "bankAccountDetails is required")
	}
	if r.Criteria.TenantID == "" {
		return dErrors.New(dErrors.CodeValidation, "tenantId is required")
	}
	return nil
}

type Response struct {
	ResponseInfo envelope.ResponseInfo `json:"responseInfo"`
	BankAccounts []*Account            `json:"bankAccounts"`
}

type SearchResponse struct {
	ResponseInfo envelope.ResponseInfo `json:"responseInfo"`
	BankAccounts []*Account            `json:"bankAccounts"`
	Pagination   search.Pagination     `json:"pagination"`
}
