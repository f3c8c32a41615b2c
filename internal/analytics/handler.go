package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certify-backend/internal/certificates"
	"certify-backend/internal/shared/auth"
	"certify-backend/internal/shared/server/middleware"
	"certify-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analytics routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analytics/student/dashboard", h.student)
	rg.GET("/analytics/staff/dashboard", middleware.RequireRole(auth.RoleStaff), h.staff)
}

type studentDashboard struct {
	TotalUploaded int                                `json:"totalUploaded"`
	Verified      int                                `json:"verified"`
	Pending       int                                `json:"pending"`
	Rejected      int                                `json:"rejected"`
	RecentUploads []certificates.CertificateResponse `json:"recentUploads"`
}

type staffDashboard struct {
	TotalCertificates int                                `json:"totalCertificates"`
	PendingReview     int                                `json:"pendingReview"`
	Verified          int                                `json:"verified"`
	Rejected          int                                `json:"rejected"`
	RecentActivity    []certificates.CertificateResponse `json:"recentActivity"`
}

func (h *Handler) student(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	summary, err := h.Svc.StudentSummary(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load dashboard", nil)
		return
	}

	respond.OK(c, studentDashboard{
		TotalUploaded: summary.Total,
		Verified:      summary.Verified,
		Pending:       summary.Pending,
		Rejected:      summary.Rejected,
		RecentUploads: certificates.ToResponses(summary.Recent),
	})
}

func (h *Handler) staff(c *gin.Context) {
	summary, err := h.Svc.StaffSummary(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load dashboard", nil)
		return
	}

	respond.OK(c, staffDashboard{
		TotalCertificates: summary.Total,
		PendingReview:     summary.Pending,
		Verified:          summary.Verified,
		Rejected:          summary.Rejected,
		RecentActivity:    certificates.ToResponses(summary.Recent),
	})
}
