package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recordhub/pkg/requestcontext"
)

func TestDetails(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_000)
	later := created.Add(time.Hour)

	t.Run("system user when no actor", func(t *testing.T) {
		d := New(requestcontext.WithTime(context.Background(), created))
		assert.Equal(t, SystemUser, d.CreatedBy)
		assert.Equal(t, created.UnixMilli(), d.CreatedTime)
		assert.Equal(t, d.CreatedTime, d.LastModifiedTime)
	})

	t.Run("touch keeps creation fields", func(t *testing.T) {
		orig := &Details{CreatedBy: "u1", LastModifiedBy: "u1", CreatedTime: created.UnixMilli(), LastModifiedTime: created.UnixMilli()}
		ctx := requestcontext.WithUserID(requestcontext.WithTime(context.Background(), later), "u2")

		got := Touch(ctx, orig)
		assert.Equal(t, "u1", got.CreatedBy)
		assert.Equal(t, created.UnixMilli(), got.CreatedTime)
		assert.Equal(t, "u2", got.LastModifiedBy)
		assert.Equal(t, later.UnixMilli(), got.LastModifiedTime)
		assert.Equal(t, "u1", orig.LastModifiedBy)
	})

	t.Run("touch on missing details creates them", func(t *testing.T) {
		ctx := requestcontext.WithUserID(requestcontext.WithTime(context.Background(), later), "u2")
		got := Touch(ctx, nil)
		assert.Equal(t, "u2", got.CreatedBy)
	})
}
