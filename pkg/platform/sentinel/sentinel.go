package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: record does not exist for the tenant
// - ErrUnavailable: a backing service (store, cache, bus, delegate) could not be reached
//
// For validation errors (bad input, bad criteria), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
