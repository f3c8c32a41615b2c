package certificates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"certify-backend/internal/shared/server/middleware"
	"certify-backend/internal/shared/server/respond"
	"certify-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches certificate routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/certificates", h.submit)
	rg.GET("/certificates", h.list)
	rg.GET("/certificates/:id", h.get)
	rg.GET("/certificates/:id/view", h.retrieve(IntentView))
	rg.GET("/certificates/:id/download", h.retrieve(IntentDownload))
	rg.PUT("/certificates/:id/verify", h.review(DecisionVerify))
	rg.PUT("/certificates/:id/reject", h.review(DecisionReject))
	rg.DELETE("/certificates/:id", h.delete)
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func (h *Handler) submit(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds 10MB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSpace(c.PostForm("certificateName"))
	}

	metadata := Metadata{
		CertificateType:     strings.TrimSpace(c.PostForm("certificateType")),
		IssuingOrganization: strings.TrimSpace(c.PostForm("issuingOrganization")),
		Department:          strings.TrimSpace(c.PostForm("department")),
	}
	if raw := strings.TrimSpace(c.PostForm("issueYear")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "issueYear must be a number", nil)
			return
		}
		metadata.IssueYear = year
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	cert, err := h.Svc.Submit(requestContext(c), principal, SubmitInput{
		Title:    title,
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     file,
		Metadata: metadata,
	})
	if err != nil {
		writeError(c, err, "failed to upload certificate")
		return
	}

	c.Set(middleware.CertificateIDKey, cert.ID)
	respond.Created(c, "/api/v1/certificates/"+cert.ID, ToResponse(cert))
}

func (h *Handler) list(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)

	filter := All()
	switch {
	case c.Query("mine") == "true":
		filter = ByOwner(principal.ID)
	case strings.TrimSpace(c.Query("owner")) != "":
		filter = ByOwner(strings.TrimSpace(c.Query("owner")))
	case strings.TrimSpace(c.Query("status")) != "":
		status, ok := ParseStatus(c.Query("status"))
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "status must be PENDING, VERIFIED or REJECTED", nil)
			return
		}
		filter = ByStatus(status)
	case strings.TrimSpace(c.Query("name")) != "":
		filter = ByNameContains(strings.TrimSpace(c.Query("name")))
	}

	certs, err := h.Svc.List(requestContext(c), filter)
	if err != nil {
		writeError(c, err, "failed to list certificates")
		return
	}

	visible := certs[:0]
	for _, cert := range certs {
		if canRead(h.Svc.Scope, cert, principal) {
			visible = append(visible, cert)
		}
	}
	respond.OK(c, ToResponses(visible))
}

func (h *Handler) get(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	c.Set(middleware.CertificateIDKey, c.Param("id"))

	cert, err := h.Svc.Get(requestContext(c), c.Param("id"), principal)
	if err != nil {
		writeError(c, err, "failed to fetch certificate")
		return
	}
	respond.OK(c, ToResponse(cert))
}

func (h *Handler) retrieve(intent Intent) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := middleware.PrincipalFromContext(c)
		c.Set(middleware.CertificateIDKey, c.Param("id"))

		payload, err := h.Svc.Retrieve(requestContext(c), c.Param("id"), principal, intent)
		if err != nil {
			writeError(c, err, "failed to retrieve certificate")
			return
		}
		defer payload.Body.Close()

		disposition := "inline"
		if payload.Intent == IntentDownload {
			disposition = "attachment"
		}
		size := payload.Certificate.SizeBytes
		if size <= 0 {
			size = -1
		}
		c.DataFromReader(http.StatusOK, size, payload.MimeType, payload.Body, map[string]string{
			"Content-Disposition":    fmt.Sprintf("%s; filename=\"%s\"", disposition, util.ContentDispositionName(payload.FileName)),
			"X-Content-Type-Options": "nosniff",
		})
	}
}

func (h *Handler) review(decision Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := middleware.PrincipalFromContext(c)
		c.Set(middleware.CertificateIDKey, c.Param("id"))

		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}

		cert, err := h.Svc.Review(requestContext(c), c.Param("id"), principal, decision, req.Remarks)
		if err != nil {
			writeError(c, err, "failed to review certificate")
			return
		}
		c.Set(middleware.StatusTransitionKey, string(StatusPending)+"->"+string(cert.Status))
		respond.OK(c, ToResponse(cert))
	}
}

func (h *Handler) delete(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	c.Set(middleware.CertificateIDKey, c.Param("id"))

	if err := h.Svc.Delete(requestContext(c), c.Param("id"), principal); err != nil {
		writeError(c, err, "failed to delete certificate")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "certificate not found", nil)
	case errors.Is(err, ErrPayloadMissing):
		respond.Error(c, http.StatusNotFound, "payload_missing", "certificate has no stored file", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", "certificate has already been reviewed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrStorageFailure):
		respond.Error(c, http.StatusBadGateway, "storage_error", fallback, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
