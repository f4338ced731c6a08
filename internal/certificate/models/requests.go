package models

import (
	"strings"

	"recordhub/internal/search"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/platform/envelope"
	strs "recordhub/pkg/platform/strings"
	"recordhub/pkg/validation"
)

// Request is the create and update payload and the message published to the
// persister bus.
type Request struct {
	RequestInfo  *envelope.RequestInfo `json:"requestInfo,omitempty"`
	Certificates []*Certificate        `json:"certificates" validate:"required,min=1,dive,required"`
}

func (r *Request) Validate() error {
	return validation.Validate(r)
}

type SearchRequest struct {
	RequestInfo *envelope.RequestInfo `json:"requestInfo,omitempty"`
	Criteria    *SearchCriteria       `json:"searchCriteria"`
}

// Normalize trims criteria strings and drops blank values.
func (r *SearchRequest) Normalize() {
	if r.Criteria == nil {
		return
	}
	c := r.Criteria
	c.TenantID = strings.TrimSpace(c.TenantID)
	c.IDs = strs.DedupeAndTrim(c.IDs)
	c.IssuerIDs = strs.DedupeAndTrim(c.IssuerIDs)
	c.SubjectIDs = strs.DedupeAndTrim(c.SubjectIDs)
	c.CertificateTypes = strs.DedupeAndTrim(c.CertificateTypes)
	c.Status = strs.TrimOptional(c.Status)
}

func (r *SearchRequest) Validate() error {
	if r.Criteria == nil {
		return dErrors.New(dErrors.CodeValidation, "searchCriteria is required")
	}
	if r.Criteria.TenantID == "" {
		return dErrors.New(dErrors.CodeValidation, "tenantId is required")
	}
	return nil
}

// Pagination returns the criteria's paging and sort fields as a search block.
func (c SearchCriteria) Pagination() search.Pagination {
	return search.Pagination{
		Limit:  c.Limit,
		Offset: c.Offset,
		SortBy: c.SortBy,
		Order:  c.SortOrder,
	}
}

// WithPagination returns a copy of c with paging fields taken from p.
func (c SearchCriteria) WithPagination(p search.Pagination) SearchCriteria {
	c.Limit = p.Limit
	c.Offset = p.Offset
	return c
}

type VerificationRequest struct {
	RequestInfo *envelope.RequestInfo `json:"requestInfo,omitempty"`
	Criteria    *VerificationCriteria `json:"verificationCriteria"`
}

func (r *VerificationRequest) Normalize() {
	if r.Criteria == nil {
		return
	}
	r.Criteria.TenantID = strings.TrimSpace(r.Criteria.TenantID)
	r.Criteria.CertificateID = strings.TrimSpace(r.Criteria.CertificateID)
}

func (r *VerificationRequest) Validate() error {
	if r.Criteria == nil {
		return dErrors.New(dErrors.CodeValidation, "verificationCriteria is required")
	}
	if r.Criteria.TenantID == "" {
		return dErrors.New(dErrors.CodeValidation, "tenantId is required")
	}
	if r.Criteria.CertificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "certificateId is required")
	}
	return nil
}

type RevocationRequest struct {
	RequestInfo       *envelope.RequestInfo `json:"requestInfo,omitempty"`
	RevocationDetails []*RevocationDetail   `json:"revocationDetails" validate:"required,min=1,dive,required"`
}

func (r *RevocationRequest) Normalize() {
	for _, d := range r.RevocationDetails {
		if d == nil {
			continue
		}
		d.CertificateID = strings.TrimSpace(d.CertificateID)
		d.TenantID = strings.TrimSpace(d.TenantID)
		d.Reason = strings.TrimSpace(d.Reason)
	}
}

func (r *RevocationRequest) Validate() error {
	return validation.Validate(r)
}

type Response struct {
	ResponseInfo envelope.ResponseInfo `json:"responseInfo"`
	Certificates []*Certificate        `json:"certificates"`
	TotalCount   int                   `json:"totalCount"`
}

type VerificationResponse struct {
	ResponseInfo       envelope.ResponseInfo `json:"responseInfo"`
	VerificationResult *VerificationResult   `json:"verificationResult"`
}
