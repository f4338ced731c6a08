package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"recordhub/internal/certificate/handler/mocks"
	"recordhub/internal/certificate/models"
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
	"certificates": [{
		"tenantId": "pb",
		"type": "BirthCertificate",
		"issuer": {"id": "did:gov:registrar", "name": "Registrar", "type": "DEPARTMENT"},
		"credentialSubject": {"id": "subject-1", "name": "Asha"}
	}]
}`

func (s *HandlerSuite) TestCreate() {
	s.Run("valid request is accepted", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.Request) ([]*models.Certificate, error) {
				s.Equal("user-1", req.RequestInfo.UserID())
				req.Certificates[0].ID = "c1"
				return req.Certificates, nil
			})

		rec := s.post("/certificate/v1/_create", createBody)
		s.Equal(http.StatusAccepted, rec.Code)

		var resp models.Response
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("successful", resp.ResponseInfo.Status)
		s.Equal(1, resp.TotalCount)
		s.Equal("c1", resp.Certificates[0].ID)
	})

	s.Run("unknown issuer type is rejected before the service", func() {
		body := bytes.Replace([]byte(createBody), []byte(`"DEPARTMENT"`), []byte(`"GUILD"`), 1)
		rec := s.post("/certificate/v1/_create", string(body))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("empty certificate list is rejected", func() {
		rec := s.post("/certificate/v1/_create", `{"certificates": []}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("conflict maps to 409", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "active certificate already exists"))

		rec := s.post("/certificate/v1/_create", createBody)
		s.Equal(http.StatusConflict, rec.Code)
		s.Contains(rec.Body.String(), "conflict")
	})
}

func (s *HandlerSuite) TestRevoke() {
	s.Run("revocation is accepted", func() {
		s.service.EXPECT().Revoke(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *models.RevocationRequest) ([]*models.Certificate, error) {
				s.Equal("issued in error", req.RevocationDetails[0].Reason)
				return []*models.Certificate{{ID: "c1", Status: models.StatusRevoked}}, nil
			})

		rec := s.post("/certificate/v1/_revoke", `{
			"revocationDetails": [{"certificateId": "c1", "tenantId": "pb", "reason": " issued in error "}]
		}`)
		s.Equal(http.StatusAccepted, rec.Code)
	})

	s.Run("blank reason is rejected", func() {
		rec := s.post("/certificate/v1/_revoke", `{
			"revocationDetails": [{"certificateId": "c1", "tenantId": "pb", "reason": "  "}]
		}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestSearch() {
	s.Run("returns the page with the total count", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c models.SearchCriteria) ([]*models.Certificate, int, error) {
				s.Equal("pb", c.TenantID)
				s.Equal([]string{"t1"}, c.CertificateTypes)
				s.Equal(optional.Of("ACTIVE"), c.Status)
				return nil, 0, nil
			})

		rec := s.post("/certificate/v1/_search", `{
			"searchCriteria": {"tenantId": "pb", "certificateTypes": ["t1", " t1 "], "status": " ACTIVE "}
		}`)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"certificates": [], "totalCount": 0}`, withoutResponseInfo(s, rec.Body.Bytes()))
	})

	s.Run("missing criteria is a validation error", func() {
		rec := s.post("/certificate/v1/_search", `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestVerify() {
	s.Run("returns the verdict", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c models.VerificationCriteria) (*models.VerificationResult, error) {
				s.Equal("c1", c.CertificateID)
				s.Equal(optional.Of(false), c.IncludeIssuerCheck)
				s.False(c.IncludeExpiryCheck.IsSet())
				return &models.VerificationResult{CertificateID: "c1", IsValid: true}, nil
			})

		rec := s.post("/certificate/v1/_verify", `{
			"verificationCriteria": {"tenantId": "pb", "certificateId": "c1", "includeIssuerCheck": false}
		}`)
		s.Equal(http.StatusOK, rec.Code)

		var resp models.VerificationResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.True(resp.VerificationResult.IsValid)
	})

	s.Run("unknown certificate maps to 404", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "certificate not found"))

		rec := s.post("/certificate/v1/_verify", `{"verificationCriteria": {"tenantId": "pb", "certificateId": "c9"}}`)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("missing certificate id is rejected", func() {
		rec := s.post("/certificate/v1/_verify", `{"verificationCriteria": {"tenantId": "pb"}}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func withoutResponseInfo(s *HandlerSuite, body []byte) string {
	var m map[string]json.RawMessage
	s.Require().NoError(json.Unmarshal(body, &m))
	delete(m, "responseInfo")
	out, err := json.Marshal(m)
	s.Require().NoError(err)
	return string(out)
}
