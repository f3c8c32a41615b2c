package certificates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"certify-backend/internal/queue"
	"certify-backend/internal/shared/auth"
	"certify-backend/internal/shared/metrics"
	"certify-backend/internal/shared/storage/object"
	"certify-backend/internal/shared/telemetry"
	"certify-backend/internal/shared/util"
)

// Service owns the certificate lifecycle: submission, review, retrieval and deletion.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Provider string
	Scope    RetrievalScope
	// Cleanup receives handles of blobs that could not be deleted inline. Optional.
	Cleanup queue.Client
	Now     func() time.Time
}

// SubmitInput carries an uploaded certificate and its descriptive fields.
type SubmitInput struct {
	Title    string
	FileName string
	MimeType string
	Body     io.Reader
	Metadata Metadata
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit stores the payload and records a new PENDING certificate owned by p.
func (s *Service) Submit(ctx context.Context, p auth.Principal, in SubmitInput) (Certificate, error) {
	if p.ID == "" {
		return Certificate{}, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	fileName := strings.TrimSpace(in.FileName)
	if title == "" {
		return Certificate{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if fileName == "" || in.Body == nil {
		return Certificate{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	start := time.Now()
	put, err := s.Store.Put(ctx, p.ID, fileName, in.MimeType, in.Body)
	metrics.ObserveBlobOp("put", start)
	if err != nil {
		return Certificate{}, storageErr("put blob", err)
	}

	cert := Certificate{
		ID:               uuid.NewString(),
		OwnerID:          p.ID,
		OwnerDisplayName: p.DisplayName,
		Title:            title,
		BlobHandle:       put.Handle,
		StorageProvider:  s.Provider,
		FileName:         fileName,
		MimeType:         put.ContentType,
		SizeBytes:        put.SizeBytes,
		UploadedAt:       s.now(),
		Status:           StatusPending,
	}
	if !in.Metadata.IsZero() {
		md := in.Metadata
		cert.Metadata = &md
	}

	if err := s.Repo.Insert(ctx, cert); err != nil {
		if delErr := s.Store.Delete(detached(ctx), put.Handle); delErr != nil {
			telemetry.Error("certificate.compensation_failed", map[string]any{
				"request_id":     requestIDFromContext(ctx),
				"certificate_id": cert.ID,
				"blob_handle":    put.Handle,
				"error":          delErr,
			})
			s.enqueueCleanup(ctx, cert.ID, put.Handle)
		}
		return Certificate{}, storageErr("insert certificate", err)
	}

	metrics.IncSubmitted()
	telemetry.Info("certificate.submitted", map[string]any{
		"request_id":     requestIDFromContext(ctx),
		"certificate_id": cert.ID,
		"owner_id":       cert.OwnerID,
		"size_bytes":     cert.SizeBytes,
		"mime_type":      cert.MimeType,
	})
	return cert, nil
}

// Review moves a PENDING certificate to VERIFIED or REJECTED. Only reviewers may call it;
// when two reviews race, the first one to reach the store wins.
func (s *Service) Review(ctx context.Context, id string, p auth.Principal, decision Decision, remarks string) (Certificate, error) {
	if !p.IsReviewer() {
		return Certificate{}, ErrForbidden
	}
	target, ok := decision.target()
	if !ok {
		return Certificate{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, decision)
	}

	cert, err := s.Repo.UpdateReview(ctx, id, Review{
		Status:     target,
		Remarks:    strings.TrimSpace(remarks),
		ReviewedBy: p.ID,
		ReviewedAt: s.now(),
	})
	if err != nil {
		return Certificate{}, storageErr("update review", err)
	}

	metrics.IncReviewed(string(decision))
	telemetry.Info("certificate.reviewed", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"certificate_id":    cert.ID,
		"reviewer_id":       p.ID,
		"reviewer_name":     p.DisplayName,
		"status_transition": string(StatusPending) + "->" + string(target),
	})
	return cert, nil
}

// Delete removes the payload and then the record. Only the owner may delete.
// A failed blob delete is logged and queued for cleanup; the record is still removed.
func (s *Service) Delete(ctx context.Context, id string, p auth.Principal) error {
	cert, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return storageErr("get certificate", err)
	}
	if !canDelete(cert, p) {
		return ErrForbidden
	}

	if cert.HasPayload() {
		start := time.Now()
		err := s.Store.Delete(ctx, cert.BlobHandle)
		metrics.ObserveBlobOp("delete", start)
		if err != nil {
			metrics.IncBlobDeleteFailed()
			telemetry.Error("certificate.blob_delete_failed", map[string]any{
				"request_id":     requestIDFromContext(ctx),
				"certificate_id": cert.ID,
				"blob_handle":    cert.BlobHandle,
				"error":          err,
			})
			s.enqueueCleanup(ctx, cert.ID, cert.BlobHandle)
		}
	}

	if err := s.Repo.Delete(ctx, cert.ID); err != nil {
		return storageErr("delete certificate", err)
	}

	metrics.IncDeleted()
	telemetry.Info("certificate.deleted", map[string]any{
		"request_id":     requestIDFromContext(ctx),
		"certificate_id": cert.ID,
		"owner_id":       cert.OwnerID,
	})
	return nil
}

// Retrieve opens the payload for viewing or download. The caller must close Payload.Body.
func (s *Service) Retrieve(ctx context.Context, id string, p auth.Principal, intent Intent) (Payload, error) {
	cert, err := s.Get(ctx, id, p)
	if err != nil {
		return Payload{}, err
	}
	if !cert.HasPayload() {
		return Payload{}, ErrPayloadMissing
	}

	start := time.Now()
	body, err := s.Store.Get(ctx, cert.BlobHandle)
	metrics.ObserveBlobOp("get", start)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Payload{}, ErrPayloadMissing
		}
		return Payload{}, storageErr("get blob", err)
	}

	if intent != IntentDownload {
		intent = IntentView
	}
	mimeType := cert.MimeType
	if mimeType == "" {
		mimeType = object.DefaultContentType
	}
	metrics.IncRetrieval(string(intent))
	return Payload{
		Certificate: cert,
		FileName:    cert.FileName,
		MimeType:    mimeType,
		Intent:      intent,
		Body:        body,
	}, nil
}

// Get returns the certificate record under the same read policy as Retrieve.
func (s *Service) Get(ctx context.Context, id string, p auth.Principal) (Certificate, error) {
	cert, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Certificate{}, storageErr("get certificate", err)
	}
	if !canRead(s.Scope, cert, p) {
		return Certificate{}, ErrForbidden
	}
	return cert, nil
}

// List returns certificates matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Certificate, error) {
	certs, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list certificates", err)
	}
	return certs, nil
}

// Count returns the total number of certificate records.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, storageErr("count certificates", err)
	}
	return n, nil
}

func (s *Service) enqueueCleanup(ctx context.Context, certificateID, handle string) {
	if s.Cleanup == nil {
		return
	}
	msg := queue.Message{
		Handle:        handle,
		Provider:      s.Provider,
		CertificateID: certificateID,
		RequestID:     requestIDFromContext(ctx),
		EnqueuedAt:    s.now().Format(time.RFC3339),
		Version:       queue.MessageVersion,
	}
	if err := s.Cleanup.Send(detached(ctx), msg); err != nil {
		telemetry.Error("certificate.cleanup_enqueue_failed", map[string]any{
			"request_id":     msg.RequestID,
			"certificate_id": certificateID,
			"blob_handle":    handle,
			"error":          err,
		})
		return
	}
	metrics.IncCleanupJob("enqueued")
}

// storageErr leaves domain and context errors untouched and marks everything else as a storage failure.
func storageErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrPayloadMissing),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	if errors.Is(err, util.ErrInvalidFileName) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
