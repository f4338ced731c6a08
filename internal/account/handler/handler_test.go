package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"recordhub/internal/account/handler/mocks"
	"recordhub/internal/account/models"
	"recordhub/internal/search"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/optional"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *HandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *HandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"requestInfo": {"userInfo": {"uuid": "user-1"}},
	"bankAccounts": [{
		"tenantId": "pb.amritsar",
		"serviceCode": "IND",
		"referenceId": "ref-1",
		"bankAccountDetails": [{
			"tenantId": "pb.amritsar",
			"accountHolderName": "Asha",
			"accountNumber": "0001",
			"accountType": "SAVINGS",
			"isPrimary": true,
			"bankBranchIdentifier": {"type": "IFSC", "code": "SBIN0001"}
		}]
	}]
}`

func (s *HandlerSuite) TestCreate() {
	s.Run("valid request is accepted", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.Request) ([]*models.Account, error) {
				s.Equal("user-1", req.RequestInfo.UserID())
				req.BankAccounts[0].ID = "a1"
				return req.BankAccounts, nil
			})

		rec := s.post("/bankaccount/v1/_create", createBody)
		s.Equal(http.StatusAccepted, rec.Code)

		var resp models.Response
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("successful", resp.ResponseInfo.Status)
		s.Require().Len(resp.BankAccounts, 1)
		s.Equal("a1", resp.BankAccounts[0].ID)
	})

	s.Run("invalid account type is rejected before the service", func() {
		body := bytes.Replace([]byte(createBody), []byte(`"SAVINGS"`), []byte(`"CHEQUE"`), 1)
		rec := s.post("/bankaccount/v1/_create", string(body))
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "accountType")
	})

	s.Run("malformed json is a bad request", func() {
		rec := s.post("/bankaccount/v1/_create", `{"bankAccounts": [`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestUpdate() {
	s.Run("not found maps to 404", func() {
		s.service.EXPECT().Update(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "bank accounts not found: a1"))

		rec := s.post("/bankaccount/v1/_update", createBody)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Contains(rec.Body.String(), "not_found")
	})
}

func (s *HandlerSuite) TestSearch() {
	s.Run("criteria and pagination reach the service", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c models.SearchCriteria) ([]*models.Account, search.Pagination, error) {
				s.Equal("pb", c.TenantID)
				s.Equal([]string{"a1", "a2"}, c.IDs)
				s.Equal(optional.Of(true), c.IsActive)
				s.False(c.IsPrimary.IsSet())
				s.Equal(optional.Of(5), c.Pagination.Limit)
				return nil, c.Pagination, nil
			})

		rec := s.post("/bankaccount/v1/_search", `{
			"bankAccountDetails": {"tenantId": " pb ", "ids": ["a1", " a2", "a1"], "isActive": true, "isPrimary": null},
			"pagination": {"limit": 5}
		}`)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`[]`, string(mustField(s, rec.Body.Bytes(), "bankAccounts")))
	})

	s.Run("missing criteria is a validation error", func() {
		rec := s.post("/bankaccount/v1/_search", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid criteria maps to 400", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			Return(nil, search.Pagination{}, dErrors.New(dErrors.CodeInvalidCriteria, "limit exceeds maximum"))

		rec := s.post("/bankaccount/v1/_search", `{"bankAccountDetails": {"tenantId": "pb"}, "pagination": {"limit": 500}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "invalid_criteria")
	})

	s.Run("store failure hides the cause", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			Return(nil, search.Pagination{}, dErrors.Wrap(errors.New("pq: password authentication failed"), dErrors.CodeInternal, "failed to search bank accounts"))

		rec := s.post("/bankaccount/v1/_search", `{"bankAccountDetails": {"tenantId": "pb"}}`)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.NotContains(rec.Body.String(), "password")
	})
}

func mustField(s *HandlerSuite, body []byte, field string) json.RawMessage {
	var m map[string]json.RawMessage
	s.Require().NoError(json.Unmarshal(body, &m))
	return m[field]
}
