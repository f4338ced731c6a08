// Package envelope holds the request and response wrappers shared by every
// record API.
package envelope

import (
	"context"

	"recordhub/pkg/requestcontext"
)

// RequestInfo identifies the caller of a request.
type RequestInfo struct {
	UserInfo *UserInfo `json:"userInfo,omitempty"`
}

type UserInfo struct {
	UUID string `json:"uuid"`
}

// UserID returns the acting user's uuid, or "".
func (r *RequestInfo) UserID() string {
	if r == nil || r.UserInfo == nil {
		return ""
	}
	return r.UserInfo.UUID
}

// WithActor stores the acting user in ctx when the request names one.
func (r *RequestInfo) WithActor(ctx context.Context) context.Context {
	if uid := r.UserID(); uid != "" {
		return requestcontext.WithUserID(ctx, uid)
	}
	return ctx
}

// ResponseInfo is returned on every successful response.
type ResponseInfo struct {
	Status string `json:"status"`
}

// Successful is the ResponseInfo for a completed call.
func Successful() ResponseInfo {
	return ResponseInfo{Status: "successful"}
}
