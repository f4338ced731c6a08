package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestError() {
	s.Run("message wins over code", func() {
		s.Equal("certificate not found", New(CodeNotFound, "certificate not found").Error())
	})

	s.Run("code is used when message is empty", func() {
		err := &Error{Code: CodeInvalidCriteria}
		s.Equal("invalid_criteria", err.Error())
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the cause reachable", func() {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to search accounts")
		s.ErrorIs(err, cause)
		s.True(HasCode(err, CodeInternal))
	})

	s.Run("preserves an existing domain code", func() {
		inner := New(CodeInvalidCriteria, "limit exceeds maximum")
		err := Wrap(inner, CodeInternal, "search failed")
		s.True(HasCode(err, CodeInvalidCriteria))
		s.Equal("search failed", err.Error())
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("finds code through fmt wrapping", func() {
		err := fmt.Errorf("verify: %w", New(CodeNotFound, "missing"))
		s.True(HasCode(err, CodeNotFound))
		s.False(HasCode(err, CodeInternal))
	})

	s.Run("plain errors have no code", func() {
		s.False(HasCode(errors.New("boom"), CodeInternal))
	})

	s.Run("errors.Is matches by code", func() {
		s.ErrorIs(New(CodeNotFound, "a"), &Error{Code: CodeNotFound})
	})
}
