package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recordhub/internal/account/models"
	"recordhub/internal/search"
	"recordhub/pkg/optional"
)

func TestSearchQuery(t *testing.T) {
	t.Run("tenant only", func(t *testing.T) {
		c := models.SearchCriteria{
			TenantID:   "pb",
			Pagination: search.Pagination{Limit: optional.Of(10), Offset: optional.Of(0)},
		}
		q := SearchQuery(c)
		assert.Contains(t, q.SQL, " WHERE ba.tenant_id = ? ORDER BY ba.created_time DESC, ba.id DESC LIMIT ? OFFSET ?")
		assert.Equal(t, []any{"pb", 10, 0}, q.Args)
	})

	t.Run("filters keep their order", func(t *testing.T) {
		c := models.SearchCriteria{
			TenantID:          "pb",
			IDs:               []string{"a", "b"},
			AccountNumbers:    []string{"n1"},
			AccountHolderName: optional.Of("50%"),
			IsPrimary:         optional.Of(false),
			Pagination: search.Pagination{
				Limit: optional.Of(5), Offset: optional.Of(10),
				SortBy: "lastModifiedTime", Order: "asc",
			},
		}
		q := SearchQuery(c)
		assert.Contains(t, q.SQL, "WHERE ba.tenant_id = ? AND ba.id IN (?, ?) AND bad.account_number IN (?)"+
			" AND bad.account_holder_name ILIKE ? AND bad.is_primary = ?"+
			" ORDER BY ba.last_modified_time ASC, ba.id ASC LIMIT ? OFFSET ?")
		assert.Equal(t, []any{"pb", "a", "b", "n1", `%50\%%`, false, 5, 10}, q.Args)
	})

	t.Run("unknown sort field falls back", func(t *testing.T) {
		c := models.SearchCriteria{
			TenantID:   "pb",
			Pagination: search.Pagination{Limit: optional.Of(1), SortBy: "accountNumber"},
		}
		assert.Contains(t, SearchQuery(c).SQL, "ORDER BY ba.created_time DESC")
	})
}
