package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(certificatesReviewed.WithLabelValues("VERIFIED"))
	IncReviewed("VERIFIED")
	IncReviewed("VERIFIED")
	after := testutil.ToFloat64(certificatesReviewed.WithLabelValues("VERIFIED"))
	if after-before != 2 {
		t.Fatalf("expected reviewed counter to grow by 2, got %v", after-before)
	}

	beforeFailures := testutil.ToFloat64(blobDeleteFailures)
	IncBlobDeleteFailed()
	if got := testutil.ToFloat64(blobDeleteFailures) - beforeFailures; got != 1 {
		t.Fatalf("expected blob delete failures to grow by 1, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncSubmitted()
	ObserveBlobOp("put", time.Now())

	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, name := range []string{"certify_certificates_submitted_total", "certify_blob_operation_duration_ms_bucket"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}
