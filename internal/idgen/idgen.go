// Package idgen issues globally unique record identifiers.
package idgen

import (
	"context"

	"github.com/google/uuid"
)

// Kinds of identifiers handed out by the services.
const (
	KindAccount          = "bank_account"
	KindAccountDetail    = "bank_account_detail"
	KindBranchIdentifier = "bank_branch_identifier"
	KindDocument         = "bank_account_document"
	KindCertificate      = "certificate"
	KindProof            = "certificate_proof"
)

// UUIDGenerator returns random (v4) UUIDs, optionally prefixed per kind.
type UUIDGenerator struct {
	prefixes map[string]string
}

type Option func(*UUIDGenerator)

// WithPrefix makes ids of kind start with prefix, e.g. "CERT-".
func WithPrefix(kind, prefix string) Option {
	return func(g *UUIDGenerator) {
		g.prefixes[kind] = prefix
	}
}

func NewUUIDGenerator(opts ...Option) *UUIDGenerator {
	g := &UUIDGenerator{prefixes: make(map[string]string)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns n fresh ids for kind. The tenant is accepted so that a tenant
// scoped sequence service can satisfy the same contract.
func (g *UUIDGenerator) Next(_ context.Context, _ string, kind string, n int) ([]string, error) {
	ids := make([]string, n)
	prefix := g.prefixes[kind]
	for i := range ids {
		ids[i] = prefix + uuid.NewString()
	}
	return ids, nil
}
