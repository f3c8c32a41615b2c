package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"certify-backend/internal/certificates"
	"certify-backend/internal/queue"
	"certify-backend/internal/shared/metrics"
	"certify-backend/internal/shared/storage/object"
	"certify-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingHandle indicates a cleanup message without a blob handle.
type ErrMissingHandle struct {
	Meta          MessageMeta
	CertificateID string
	RequestID     string
}

func (e ErrMissingHandle) Error() string { return "missing blob handle" }

// ErrProviderMismatch indicates the message targets a blob store this process does not serve.
type ErrProviderMismatch struct {
	Want string
	Got  string
}

func (e ErrProviderMismatch) Error() string {
	return fmt.Sprintf("message provider %q does not match configured store %q", e.Got, e.Want)
}

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	Handle        string
	CertificateID string
	RequestID     string
	Err           error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process cleanup"
	}
	return "process cleanup: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether retrying the message can never succeed.
func Unrecoverable(err error) bool {
	var (
		empty    ErrEmptyBody
		decode   ErrDecode
		missing  ErrMissingHandle
		mismatch ErrProviderMismatch
	)
	return errors.As(err, &empty) || errors.As(err, &decode) ||
		errors.As(err, &missing) || errors.As(err, &mismatch)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.Handle) == "" {
		return msg, meta, ErrMissingHandle{Meta: meta, CertificateID: msg.CertificateID, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// CleanupProcessor removes an orphaned blob named by a cleanup message.
type CleanupProcessor interface {
	ProcessCleanup(ctx context.Context, msg queue.Message) error
}

// BlobCleaner deletes orphaned blobs from the configured object store.
type BlobCleaner struct {
	Store    object.ObjectStore
	Provider string
}

// ProcessCleanup deletes the blob. Deletes are idempotent, so redelivery is harmless.
func (b *BlobCleaner) ProcessCleanup(ctx context.Context, msg queue.Message) error {
	if b == nil || b.Store == nil {
		return errors.New("object store not configured")
	}
	if msg.Provider != "" && b.Provider != "" && !strings.EqualFold(msg.Provider, b.Provider) {
		return ErrProviderMismatch{Want: b.Provider, Got: msg.Provider}
	}

	start := time.Now()
	err := b.Store.Delete(ctx, msg.Handle)
	metrics.ObserveBlobOp("cleanup", start)
	if err != nil && !errors.Is(err, object.ErrNotFound) {
		return err
	}
	return nil
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, proc CleanupProcessor, body string) error {
	if proc == nil {
		return errors.New("cleanup processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			metrics.IncCleanupJob("dropped")
			return err
		}
	}

	if strings.TrimSpace(msg.Handle) == "" {
		metrics.IncCleanupJob("dropped")
		return ErrMissingHandle{Meta: ComputeMeta(body), CertificateID: msg.CertificateID, RequestID: msg.RequestID}
	}

	ctxWithRequest := certificates.WithRequestID(ctx, msg.RequestID)
	if err := proc.ProcessCleanup(ctxWithRequest, msg); err != nil {
		var mismatch ErrProviderMismatch
		if errors.As(err, &mismatch) {
			metrics.IncCleanupJob("dropped")
			return err
		}
		metrics.IncCleanupJob("failed")
		return ErrProcess{Handle: msg.Handle, CertificateID: msg.CertificateID, RequestID: msg.RequestID, Err: err}
	}

	metrics.IncCleanupJob("completed")
	telemetry.Info("cleanup.blob_deleted", map[string]any{
		"request_id":     msg.RequestID,
		"certificate_id": msg.CertificateID,
		"provider":       msg.Provider,
	})
	return nil
}
