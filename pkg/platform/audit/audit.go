// Package audit carries the who/when metadata stamped on every persisted record.
package audit

import (
	"context"

	"recordhub/pkg/requestcontext"
)

// SystemUser is recorded when a request carries no acting user.
const SystemUser = "SYSTEM"

// Details holds creation and modification metadata as epoch milliseconds.
// CreatedBy and CreatedTime never change after creation.
type Details struct {
	CreatedBy        string `json:"createdBy"`
	LastModifiedBy   string `json:"lastModifiedBy"`
	CreatedTime      int64  `json:"createdTime"`
	LastModifiedTime int64  `json:"lastModifiedTime"`
}

// Actor returns the acting user from ctx, or SystemUser.
func Actor(ctx context.Context) string {
	if uid := requestcontext.UserID(ctx); uid != "" {
		return uid
	}
	return SystemUser
}

// New stamps creation metadata from the request context.
func New(ctx context.Context) *Details {
	actor := Actor(ctx)
	now := requestcontext.Now(ctx).UnixMilli()
	return &Details{
		CreatedBy:        actor,
		LastModifiedBy:   actor,
		CreatedTime:      now,
		LastModifiedTime: now,
	}
}

// Touch returns a copy of d with modification metadata refreshed. A nil d is
// treated as a record being created.
func Touch(ctx context.Context, d *Details) *Details {
	if d == nil || d.CreatedTime == 0 {
		return New(ctx)
	}
	out := *d
	out.LastModifiedBy = Actor(ctx)
	out.LastModifiedTime = requestcontext.Now(ctx).UnixMilli()
	return &out
}
