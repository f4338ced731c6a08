package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"recordhub/pkg/optional"
)

type BuilderSuite struct {
	suite.Suite
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) TestIn() {
	s.Run("empty set emits nothing", func() {
		b := &Builder{}
		b.In("ba.id", nil).In("ba.id", []string{})
		s.Empty(b.Predicates())
	})

	s.Run("single value", func() {
		preds := (&Builder{}).In("ba.id", []string{"a"}).Predicates()
		s.Require().Len(preds, 1)
		s.Equal("ba.id IN (?)", preds[0].Clause)
		s.Equal([]any{"a"}, preds[0].Args)
	})

	s.Run("keeps the set's order", func() {
		preds := (&Builder{}).In("ba.id", []string{"c", "a", "b"}).Predicates()
		s.Equal("ba.id IN (?, ?, ?)", preds[0].Clause)
		s.Equal([]any{"c", "a", "b"}, preds[0].Args)
	})
}

func (s *BuilderSuite) TestContains() {
	s.Run("wraps the value", func() {
		preds := (&Builder{}).Contains("bad.account_holder_name", optional.Of("Ram")).Predicates()
		s.Require().Len(preds, 1)
		s.Equal("bad.account_holder_name ILIKE ?", preds[0].Clause)
		s.Equal([]any{"%Ram%"}, preds[0].Args)
	})

	s.Run("escapes like metacharacters", func() {
		preds := (&Builder{}).Contains("c.issuer_name", optional.Of(`50%_off\`)).Predicates()
		s.Equal([]any{`%50\%\_off\\%`}, preds[0].Args)
	})

	s.Run("absent emits nothing", func() {
		s.Empty((&Builder{}).Contains("x", optional.None[string]()).Predicates())
	})
}

func (s *BuilderSuite) TestFlag() {
	s.Run("tri-state", func() {
		b := &Builder{}
		b.Flag("bad.is_active", optional.None[bool]()).
			Flag("bad.is_active", optional.Of(false)).
			Flag("bad.is_primary", optional.Of(true))
		preds := b.Predicates()
		s.Require().Len(preds, 2)
		s.Equal([]any{false}, preds[0].Args)
		s.Equal([]any{true}, preds[1].Args)
	})
}

func (s *BuilderSuite) TestDateRange() {
	s.Run("either bound alone", func() {
		lower := (&Builder{}).AtLeast("c.issued_at", optional.Of[int64](10)).AtMost("c.issued_at", optional.None[int64]()).Predicates()
		s.Require().Len(lower, 1)
		s.Equal("c.issued_at >= ?", lower[0].Clause)

		upper := (&Builder{}).AtLeast("c.issued_at", optional.None[int64]()).AtMost("c.issued_at", optional.Of[int64](20)).Predicates()
		s.Require().Len(upper, 1)
		s.Equal("c.issued_at <= ?", upper[0].Clause)
	})

	s.Run("both bounds in order", func() {
		preds := (&Builder{}).AtLeast("c.issued_at", optional.Of[int64](10)).AtMost("c.issued_at", optional.Of[int64](20)).Predicates()
		s.Require().Len(preds, 2)
		s.Equal([]any{int64(10)}, preds[0].Args)
		s.Equal([]any{int64(20)}, preds[1].Args)
	})
}

func (s *BuilderSuite) TestPlaceholderCountMatchesArgs() {
	b := &Builder{}
	b.Equal("t.tenant_id", "pb").
		In("t.id", []string{"1", "2"}).
		EqualOpt("t.code", optional.Of("X")).
		EqualOpt("t.other", optional.None[string]()).
		Contains("t.name", optional.Of("a?b")).
		Flag("t.active", optional.Of(true)).
		AtLeast("t.created", optional.Of[int64](1))

	where, args := Where(b.Predicates())
	s.Equal(strings.Count(where, "?"), len(args))
	s.Equal(7, len(args))
}
