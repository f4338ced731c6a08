package main

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"recordhub/internal/platform/health"
	"recordhub/internal/platform/metrics"
	dErrors "recordhub/pkg/domain-errors"
	"recordhub/pkg/platform/httputil"
	"recordhub/pkg/requestcontext"
	"recordhub/pkg/testutil"
)

type echoGroup struct{}

func (echoGroup) Register(r chi.Router) {
	r.Post("/echo/v1/_search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Request-ID", requestcontext.RequestID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/echo/v1/_panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	r.Post("/echo/v1/_missing", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "nothing here"))
	})
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).IncrementPublished("save-certificate", nil)
	router := newRouter(reg, health.New(), echoGroup{})

	testutil.Given(t, "the recordhub router", func(t *testing.T) {
		testutil.When(t, "a group route is called", func(t *testing.T) {
			rec := testutil.Post(router, "/echo/v1/_search", `{}`)

			testutil.Then(t, "the request id reaches the handler and the response", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
				id := rec.Header().Get("X-Request-Id")
				assert.NotEmpty(t, id)
				assert.Equal(t, id, rec.Header().Get("X-Seen-Request-ID"))
			})
		})

		testutil.When(t, "a handler panics", func(t *testing.T) {
			rec := testutil.Post(router, "/echo/v1/_panic", `{}`)

			testutil.Then(t, "the server answers 500", func(t *testing.T) {
				assert.Equal(t, http.StatusInternalServerError, rec.Code)
			})
		})

		testutil.When(t, "a handler reports a domain error", func(t *testing.T) {
			rec := testutil.Post(router, "/echo/v1/_missing", `{}`)

			testutil.Then(t, "the error code is mapped", func(t *testing.T) {
				testutil.AssertError(t, rec, http.StatusNotFound, "not_found")
			})
		})

		testutil.When(t, "metrics are scraped", func(t *testing.T) {
			rec := testutil.Get(router, "/metrics")

			testutil.Then(t, "recordhub series are exposed", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), "recordhub_bus_published_total")
			})
		})

		testutil.When(t, "the liveness probe is called", func(t *testing.T) {
			rec := testutil.Get(router, "/health/live")

			testutil.Then(t, "it answers without dependencies", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
				body := testutil.Decode[map[string]string](t, rec)
				assert.Equal(t, "alive", body["status"])
			})
		})
	})
}
