// Package reference checks that a bank account's owner exists in the
// individual or organisation registry before the account is accepted.
package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"recordhub/pkg/platform/envelope"
)

// Service codes that carry a registry lookup.
const (
	ServiceIndividual   = "IND"
	ServiceOrganisation = "ORG"
)

// Noop accepts every reference.
type Noop struct{}

func (Noop) Exists(context.Context, *envelope.RequestInfo, string, string, string) (bool, error) {
	return true, nil
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the registry search URLs. An empty URL skips lookups for that
// service code.
type Config struct {
	IndividualSearchURL   string
	OrganisationSearchURL string
	Timeout               time.Duration
	HTTPClient            HTTPDoer
}

// HTTPValidator looks references up with the registries' search endpoints.
type HTTPValidator struct {
	individualURL   string
	organisationURL string
	client          HTTPDoer
}

func NewHTTPValidator(cfg Config) *HTTPValidator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPValidator{
		individualURL:   cfg.IndividualSearchURL,
		organisationURL: cfg.OrganisationSearchURL,
		client:          client,
	}
}

type searchCriteria struct {
	TenantID string   `json:"tenantId"`
	IDs      []string `json:"ids"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
}

// Exists reports whether referenceID is known to the registry for
// serviceCode. Service codes without a registry always pass.
func (v *HTTPValidator) Exists(ctx context.Context, info *envelope.RequestInfo, serviceCode, tenantID, referenceID string) (bool, error) {
	var url, criteriaKey, resultKey string
	switch serviceCode {
	case ServiceIndividual:
		url, criteriaKey, resultKey = v.individualURL, "Individual", "Individual"
	case ServiceOrganisation:
		url, criteriaKey, resultKey = v.organisationURL, "SearchCriteria", "organisations"
	default:
		return true, nil
	}
	if url == "" {
		return true, nil
	}

	body, err := json.Marshal(map[string]any{
		"requestInfo": info,
		criteriaKey: searchCriteria{
			TenantID: tenantID,
			IDs:      []string{referenceID},
			Limit:    1,
		},
	})
	if err != nil {
		return false, fmt.Errorf("marshal %s search: %w", serviceCode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build %s search: %w", serviceCode, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s search: %w", serviceCode, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read %s search: %w", serviceCode, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("%s search: status %d", serviceCode, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(payload, &result); err != nil {
		return false, fmt.Errorf("decode %s search: %w", serviceCode, err)
	}
	var found []json.RawMessage
	if raw, ok := result[resultKey]; ok {
		if err := json.Unmarshal(raw, &found); err != nil {
			return false, fmt.Errorf("decode %s search: %w", serviceCode, err)
		}
	}
	return len(found) > 0, nil
}
