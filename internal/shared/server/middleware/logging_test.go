package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"certify-backend/internal/shared/auth"
	"certify-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(nil) })

	router := gin.New()
	router.Use(RequestID(), Logging(), func(c *gin.Context) {
		SetPrincipal(c, auth.Principal{ID: "staff-1", Role: auth.RoleStaff})
		c.Next()
	})
	router.PUT("/certificates/:id/verify", func(c *gin.Context) {
		c.Set(CertificateIDKey, c.Param("id"))
		c.Set(StatusTransitionKey, "PENDING->VERIFIED")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPut, "/certificates/cert-1/verify", nil)
	req.Header.Set("X-Request-Id", "req-42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()

	required := []string{"request_id", "user_id", "certificate_id", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if fields["request_id"] != "req-42" {
		t.Fatalf("unexpected request_id: %v", fields["request_id"])
	}
	if fields["user_id"] != "staff-1" {
		t.Fatalf("unexpected user_id: %v", fields["user_id"])
	}
	if fields["certificate_id"] != "cert-1" {
		t.Fatalf("unexpected certificate_id: %v", fields["certificate_id"])
	}
	if fields["status_transition"] != "PENDING->VERIFIED" {
		t.Fatalf("unexpected status_transition: %v", fields["status_transition"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Fatalf("unexpected status: %v", fields["status"])
	}
}
